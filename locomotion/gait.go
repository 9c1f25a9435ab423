package locomotion

import (
	"fmt"
	"math"
)

// Gait is the locomotion mode of a following agent.
type Gait uint8

const (
	GaitWalk Gait = iota
	GaitRun
	GaitRunJump
)

func (g Gait) String() string {
	switch g {
	case GaitWalk:
		return "WALK"
	case GaitRun:
		return "RUN"
	case GaitRunJump:
		return "RUN_JUMP"
	default:
		return fmt.Sprintf("Gait(%d)", uint8(g))
	}
}

// GaitState is the current mode plus the smoothed speed actually applied.
type GaitState struct {
	Mode  Gait
	Speed float64
}

// GaitController owns gait transitions, speed shaping and jump timing.
type GaitController struct {
	params GaitParams
}

// NewGaitController creates a gait controller.
func NewGaitController(params GaitParams) *GaitController {
	return &GaitController{params: params}
}

// Update evaluates the transition rules and commits at most one transition.
// A transition is only committed when tick has reached the session's state lock;
// committing extends the lock by LockTicks. Returns true if the mode changed.
func (g *GaitController) Update(s *Session, tick int64, distSq float64, sprinting bool) bool {
	next := g.nextMode(s.Gait.Mode, distSq, sprinting)
	if next == s.Gait.Mode {
		return false
	}
	if tick < s.StateLockUntil {
		return false
	}
	s.Gait.Mode = next
	s.StateLockUntil = tick + g.params.LockTicks
	s.Transitions++
	s.LastTransition = tick
	return true
}

func (g *GaitController) nextMode(mode Gait, distSq float64, sprinting bool) Gait {
	p := g.params
	run := p.RunDistance * p.RunDistance
	jump := p.JumpDistance * p.JumpDistance
	catchUp := p.CatchUpDistance * p.CatchUpDistance

	switch mode {
	case GaitWalk:
		if distSq > run {
			return GaitRun
		}
	case GaitRun:
		if sprinting || distSq > catchUp {
			return GaitRunJump
		}
		if distSq < run {
			return GaitWalk
		}
	case GaitRunJump:
		if !sprinting && distSq < jump {
			return GaitRun
		}
	}
	return mode
}

// DesiredSpeed maps distance to a target speed for mode.
func (g *GaitController) DesiredSpeed(dist float64, mode Gait) float64 {
	p := g.params
	var speed float64
	switch {
	case dist <= p.NearDistance:
		speed = p.WalkSpeed
	case dist >= p.RunDistance:
		speed = p.RunSpeed
	default:
		t := (dist - p.NearDistance) / (p.RunDistance - p.NearDistance)
		speed = p.WalkSpeed + t*(p.RunSpeed-p.WalkSpeed)
	}
	if mode == GaitRunJump {
		speed *= p.SprintBoost
	}
	return math.Min(speed, math.Min(p.SpeedCap, g.ceiling(mode)))
}

func (g *GaitController) ceiling(mode Gait) float64 {
	switch mode {
	case GaitRun:
		return g.params.RunCeiling
	case GaitRunJump:
		return g.params.JumpCeiling
	default:
		return g.params.WalkCeiling
	}
}

// Smooth moves current toward desired by at most AccelStep up or DecelStep down.
// The result never exceeds the ceiling of mode, so a downshift drops the speed
// to the new ceiling at once instead of decelerating through it.
func (g *GaitController) Smooth(current, desired float64, mode Gait) float64 {
	p := g.params
	var next float64
	if desired > current {
		next = math.Min(current+p.AccelStep, desired)
	} else {
		next = math.Max(current-p.DecelStep, desired)
	}
	return clamp(next, 0, math.Min(p.SpeedCap, g.ceiling(mode)))
}

// ShouldJump reports whether a jump may be triggered this tick.
func (g *GaitController) ShouldJump(ctx *Context, s *Session, distSq float64) bool {
	if s.Gait.Mode != GaitRunJump {
		return false
	}
	if distSq <= g.params.JumpDistance*g.params.JumpDistance {
		return false
	}
	if !ctx.Body.IsGrounded() || ctx.Body.IsInLiquid() {
		return false
	}
	return ctx.Tick >= s.JumpReadyAt
}

// MarkJumped starts the jump cooldown.
func (g *GaitController) MarkJumped(s *Session, tick int64) {
	s.JumpReadyAt = tick + g.params.JumpCooldownTicks
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
