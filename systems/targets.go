package systems

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/companion/components"
	"github.com/pthm-cable/companion/config"
)

const (
	// Half the side of the square walked by the loop script.
	loopRadius = 8.0
	// Max heading change per tick from turn noise.
	maxWanderTurn = 0.12
	// Distance ahead checked for impassable ground.
	obstacleProbe = 1.0
)

// TargetSystem drives the scripted target actors that companions follow.
type TargetSystem struct {
	filter ecs.Filter5[components.Position, components.Velocity, components.Facing, components.Body, components.Actor]
	agents ecs.Filter2[components.Position, components.Agent]

	terrain    *TerrainSystem
	cfg        config.TargetsConfig
	stepHeight float64

	turn  opensimplex.Noise // heading drift, [-1, 1]
	phase opensimplex.Noise // idle/walk/sprint phases, [0, 1]

	agentPos []mgl64.Vec3
}

// NewTargetSystem creates a target system.
func NewTargetSystem(w *ecs.World, terrain *TerrainSystem, cfg config.TargetsConfig, ph config.PhysicsConfig, seed int64) *TargetSystem {
	return &TargetSystem{
		filter:     *ecs.NewFilter5[components.Position, components.Velocity, components.Facing, components.Body, components.Actor](w),
		agents:     *ecs.NewFilter2[components.Position, components.Agent](w),
		terrain:    terrain,
		cfg:        cfg,
		stepHeight: ph.StepHeight,
		turn:       opensimplex.New(seed + 101),
		phase:      opensimplex.NewNormalized(seed + 202),
	}
}

// SetConfig replaces the motion parameters (used by hot reload).
func (s *TargetSystem) SetConfig(cfg config.TargetsConfig, ph config.PhysicsConfig) {
	s.cfg = cfg
	s.stepHeight = ph.StepHeight
}

// Update sets the velocity and facing of every target actor for this tick.
func (s *TargetSystem) Update(w *ecs.World, tick int64) {
	s.agentPos = s.agentPos[:0]
	aq := s.agents.Query()
	for aq.Next() {
		pos, _ := aq.Get()
		s.agentPos = append(s.agentPos, pos.Vec())
	}

	query := s.filter.Query()
	for query.Next() {
		pos, vel, facing, body, actor := query.Get()
		p := pos.Vec()
		actor.Motion = p.Sub(actor.Prev)
		actor.Prev = p

		if !actor.Alive {
			vel.X, vel.Z = 0, 0
			actor.Sprinting = false
			continue
		}

		speed := 0.0
		switch actor.Script {
		case components.ScriptStationary:
			actor.Idle = true
			actor.Sprinting = false
		case components.ScriptLoop:
			speed = s.loop(p, actor)
		case components.ScriptFlee:
			if away, ok := s.fleeDirection(p); ok {
				actor.Heading = math.Atan2(away.Z(), away.X())
				actor.Idle = false
				actor.Sprinting = true
				speed = s.cfg.SprintSpeed
				break
			}
			speed = s.wander(actor, tick)
		default:
			speed = s.wander(actor, tick)
		}

		if speed > 0 && s.blockedAhead(p, actor.Heading) {
			// Turn away from walls and deep water; try again next tick.
			actor.Heading = normalizeAngle(actor.Heading + math.Pi*0.75)
			if actor.Script == components.ScriptLoop {
				actor.Waypoint++
			}
			speed = 0
		}

		dir := yawVector(actor.Heading)
		vel.X = dir.X() * speed
		vel.Z = dir.Z() * speed

		if speed > 0 {
			facing.Yaw = actor.Heading
			facing.BodyYaw = actor.Heading
		}
		actor.Look = yawVector(facing.Yaw)

		// Swim up when submerged so targets do not sink.
		if body.InLiquid {
			body.JumpRequested = true
		}
	}
}

// wander drifts the heading with noise and picks a speed from the phase noise.
func (s *TargetSystem) wander(actor *components.Actor, tick int64) float64 {
	t := float64(tick)
	actor.Heading = normalizeAngle(actor.Heading + maxWanderTurn*s.turn.Eval2(t*s.cfg.TurnNoise, actor.NoiseOffset))

	phase := s.phase.Eval2(t*s.cfg.PhaseNoise, actor.NoiseOffset+17.3)
	switch {
	case phase < s.cfg.IdleBelow:
		actor.Idle = true
		actor.Sprinting = false
		return 0
	case phase > s.cfg.SprintAbove:
		actor.Idle = false
		actor.Sprinting = true
		return s.cfg.SprintSpeed
	default:
		actor.Idle = false
		actor.Sprinting = false
		return s.cfg.WalkSpeed
	}
}

// loop walks the corners of a square around the actor's home.
func (s *TargetSystem) loop(p mgl64.Vec3, actor *components.Actor) float64 {
	corner := loopCorner(actor.Home, actor.Waypoint)
	if horizontalDist(p, corner) < 0.5 {
		actor.Waypoint++
		corner = loopCorner(actor.Home, actor.Waypoint)
	}
	d := flatten(corner.Sub(p))
	actor.Heading = math.Atan2(d.Z(), d.X())
	actor.Idle = false
	actor.Sprinting = false
	return math.Min(s.cfg.WalkSpeed, d.Len())
}

func loopCorner(home mgl64.Vec3, i int) mgl64.Vec3 {
	offsets := [4][2]float64{{1, 1}, {-1, 1}, {-1, -1}, {1, -1}}
	o := offsets[i%4]
	return mgl64.Vec3{home.X() + o[0]*loopRadius, home.Y(), home.Z() + o[1]*loopRadius}
}

// fleeDirection returns the horizontal direction away from agents within flee radius.
func (s *TargetSystem) fleeDirection(p mgl64.Vec3) (mgl64.Vec3, bool) {
	var away mgl64.Vec3
	found := false
	for _, a := range s.agentPos {
		d := flatten(p.Sub(a))
		dist := d.Len()
		if dist >= s.cfg.FleeRadius || dist < 1e-6 {
			continue
		}
		// Closer agents push harder.
		away = away.Add(d.Mul((s.cfg.FleeRadius - dist) / dist))
		found = true
	}
	if !found || away.Len() < 1e-9 {
		return mgl64.Vec3{}, false
	}
	return away.Normalize(), true
}

// blockedAhead reports whether the column in front of p cannot be walked into.
func (s *TargetSystem) blockedAhead(p mgl64.Vec3, heading float64) bool {
	ahead := p.Add(yawVector(heading).Mul(obstacleProbe))
	ground := s.terrain.GroundAt(ahead.X(), ahead.Z())
	if math.IsInf(ground, 1) || ground-p.Y() > s.stepHeight {
		return true
	}
	x, z := int(math.Floor(ahead.X())), int(math.Floor(ahead.Z()))
	return s.terrain.Cell(x, z) == TerrainWater && s.terrain.WaterDepth(x, z) > 1
}
