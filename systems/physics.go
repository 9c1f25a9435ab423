// Package systems contains ECS systems for the sandbox world.
package systems

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/companion/components"
	"github.com/pthm-cable/companion/config"
)

// PhysicsSystem moves bodies through the heightfield: jumping, gravity, ledge
// stepping, ceilings, liquid drag and ground friction.
type PhysicsSystem struct {
	filter  ecs.Filter3[components.Position, components.Velocity, components.Body]
	terrain *TerrainSystem
	cfg     config.PhysicsConfig
}

// NewPhysicsSystem creates a new physics system.
func NewPhysicsSystem(w *ecs.World, terrain *TerrainSystem, cfg config.PhysicsConfig) *PhysicsSystem {
	return &PhysicsSystem{
		filter:  *ecs.NewFilter3[components.Position, components.Velocity, components.Body](w),
		terrain: terrain,
		cfg:     cfg,
	}
}

// SetConfig replaces the physics parameters (used by hot reload).
func (s *PhysicsSystem) SetConfig(cfg config.PhysicsConfig) { s.cfg = cfg }

// Update runs the physics system.
func (s *PhysicsSystem) Update(w *ecs.World) {
	query := s.filter.Query()
	for query.Next() {
		pos, vel, body := query.Get()
		s.Step(pos, vel, body)
	}
}

// Step advances a single body by one tick.
func (s *PhysicsSystem) Step(pos *components.Position, vel *components.Velocity, body *components.Body) {
	if body.JumpRequested {
		if body.Grounded || body.InLiquid {
			vel.Y = s.cfg.JumpImpulse
			body.Grounded = false
		}
		body.JumpRequested = false
	}

	gravity := s.cfg.Gravity
	if body.InLiquid {
		gravity *= 0.5
		vel.X *= s.cfg.LiquidDrag
		vel.Z *= s.cfg.LiquidDrag
		if vel.Y < 0 {
			vel.Y *= s.cfg.LiquidDrag
		}
	}
	if !body.Grounded {
		vel.Y -= gravity
	}

	wasGrounded := body.Grounded

	// Horizontal movement, one axis at a time so walls slide rather than stop.
	if vel.X != 0 {
		edge := pos.X + vel.X + math.Copysign(body.Radius, vel.X)
		if floor, ok := s.enterable(edge, pos.Z, pos.Y, body.Height); ok {
			pos.X += vel.X
			if floor > pos.Y {
				pos.Y = floor
			}
		} else {
			vel.X = 0
		}
	}
	if vel.Z != 0 {
		edge := pos.Z + vel.Z + math.Copysign(body.Radius, vel.Z)
		if floor, ok := s.enterable(pos.X, edge, pos.Y, body.Height); ok {
			pos.Z += vel.Z
			if floor > pos.Y {
				pos.Y = floor
			}
		} else {
			vel.Z = 0
		}
	}

	// Vertical movement
	pos.Y += vel.Y
	floor, ceiling := s.surfaces(pos.X, pos.Z, pos.Y-vel.Y)
	switch {
	case pos.Y <= floor:
		pos.Y = floor
		vel.Y = 0
		body.Grounded = true
	case wasGrounded && vel.Y <= 0 && pos.Y-floor <= s.cfg.StepHeight:
		// Walking down a step keeps contact instead of hopping.
		pos.Y = floor
		vel.Y = 0
		body.Grounded = true
	default:
		body.Grounded = false
	}
	if pos.Y+body.Height > ceiling {
		pos.Y = math.Max(floor, ceiling-body.Height)
		if vel.Y > 0 {
			vel.Y = 0
		}
	}

	body.InLiquid = s.terrain.InLiquid(mgl64.Vec3{pos.X, pos.Y + 0.3, pos.Z})

	if body.Grounded {
		vel.X *= s.cfg.GroundFriction
		vel.Z *= s.cfg.GroundFriction
	}
}

// enterable reports whether a body standing at height y may move into the column
// containing (x, z), and returns that column's floor.
func (s *PhysicsSystem) enterable(x, z, y, height float64) (float64, bool) {
	floor, ceiling := s.surfaces(x, z, y)
	if math.IsInf(floor, 1) || floor-y > s.cfg.StepHeight {
		return floor, false
	}
	return floor, math.Max(y, floor)+height <= ceiling
}

// surfaces returns the floor and ceiling a body at height y meets in the column of (x, z).
func (s *PhysicsSystem) surfaces(x, z, y float64) (floor, ceiling float64) {
	floor = s.terrain.GroundAt(x, z)
	ceiling = math.Inf(1)
	cx, cz := int(math.Floor(x)), int(math.Floor(z))
	if b, ok := s.terrain.Roof(cx, cz); ok {
		top := b + roofThickness
		if y >= top-s.cfg.StepHeight {
			floor = top
		} else {
			ceiling = b
		}
	}
	return floor, ceiling
}
