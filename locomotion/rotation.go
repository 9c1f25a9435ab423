package locomotion

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RotationSmoother turns a desired facing into a bounded per-tick yaw change.
type RotationSmoother struct {
	params RotationParams
}

// NewRotationSmoother creates a smoother.
func NewRotationSmoother(params RotationParams) *RotationSmoother {
	return &RotationSmoother{params: params}
}

// LookAt turns the agent toward point by at most LookStep. Used while idle or arriving.
// Returns true if a rotation command was issued.
func (r *RotationSmoother) LookAt(ctx *Context, point mgl64.Vec3) bool {
	dir := flatten(point.Sub(ctx.Body.Position()))
	if dir.Len() < 1e-6 {
		return false
	}
	desired := yawOf(dir)
	diff := normalizeAngle(desired - ctx.Body.Yaw())
	if diff == 0 {
		return false
	}
	r.apply(ctx, ctx.Body.Yaw()+clampAbs(diff, r.params.LookStep))
	return true
}

// AlignToVelocity turns the agent toward its horizontal velocity by at most RunStep.
// Differences inside the deadzone are ignored so small velocity wobble does not jitter the head.
func (r *RotationSmoother) AlignToVelocity(ctx *Context) bool {
	vel := flatten(ctx.Body.Velocity())
	if vel.Len() <= r.params.MinAlignSpeed {
		return false
	}
	diff := normalizeAngle(yawOf(vel) - ctx.Body.Yaw())
	if math.Abs(diff) < r.params.Deadzone {
		return false
	}
	r.apply(ctx, ctx.Body.Yaw()+clampAbs(diff, r.params.RunStep))
	return true
}

// Face picks the rotation mode from horizontal speed: aligned to velocity while moving,
// looking at point while idle or arriving. A moving agent whose heading sits inside the
// deadzone is left alone rather than turned toward point.
func (r *RotationSmoother) Face(ctx *Context, point mgl64.Vec3) bool {
	if flatten(ctx.Body.Velocity()).Len() > r.params.MinAlignSpeed {
		return r.AlignToVelocity(ctx)
	}
	return r.LookAt(ctx, point)
}

func (r *RotationSmoother) apply(ctx *Context, yaw float64) {
	yaw = normalizeAngle(yaw)
	ctx.Body.SetYaw(yaw)
	ctx.Body.SetBodyYaw(yaw)
}

// yawOf returns the XZ-plane angle of v from +X toward +Z.
func yawOf(v mgl64.Vec3) float64 {
	return math.Atan2(v.Z(), v.X())
}

// yawVector returns the unit XZ direction for yaw.
func yawVector(yaw float64) mgl64.Vec3 {
	return mgl64.Vec3{math.Cos(yaw), 0, math.Sin(yaw)}
}

// normalizeAngle wraps an angle to [-pi, pi].
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func clampAbs(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
