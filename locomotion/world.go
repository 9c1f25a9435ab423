// Package locomotion implements the follow-locomotion controller for companion agents:
// target engagement, follow-anchor planning, hysteretic gait selection, terrain probing
// and rotation smoothing. Everything here is tick-driven and never blocks.
package locomotion

import "github.com/go-gl/mathgl/mgl64"

// World answers collision and visibility queries against the simulation world.
// Implementations must be synchronous and cheap enough to call several times per tick.
type World interface {
	IsSolidAt(pos mgl64.Vec3) bool
	// IsOutdoorAt reports whether pos can see the sky.
	IsOutdoorAt(pos mgl64.Vec3) bool
	// GroundHeightNear scans at most up cells above and down cells below pos for the
	// first standable surface and returns its height.
	GroundHeightNear(pos mgl64.Vec3, up, down int) (float64, bool)
	LineOfSightClear(from, to mgl64.Vec3) bool
}

// Target is a read-only view of the actor being followed.
type Target interface {
	ID() uint64
	Position() mgl64.Vec3
	Velocity() mgl64.Vec3
	LookDirection() mgl64.Vec3
	// Yaw is the facing angle in radians, measured in the XZ plane from +X toward +Z.
	Yaw() float64
	IsSprinting() bool
	IsAlive() bool
	IsSpectator() bool
}

// Path is a computed route owned by the navigation service.
type Path interface {
	// CanReach reports whether the path ends at the requested point.
	CanReach() bool
	IsDone() bool
	NextWaypoint() (mgl64.Vec3, bool)
}

// Navigator is the external pathfinding service. Any asynchronous work happens behind
// it; callers only poll.
type Navigator interface {
	// CreatePath computes a path without committing to it. Returns nil when no path exists.
	CreatePath(point mgl64.Vec3) Path
	// MoveTo starts following a path to point. Returns false if the point is unreachable.
	MoveTo(point mgl64.Vec3, speed float64) bool
	// SetSpeed updates the speed of the active path without replanning.
	SetSpeed(speed float64)
	CurrentPath() Path
	Stop()
}

// Body is the actuation surface of the companion agent.
type Body interface {
	ID() uint64
	Position() mgl64.Vec3
	Velocity() mgl64.Vec3
	Yaw() float64
	SetVelocity(v mgl64.Vec3)
	SetYaw(yaw float64)
	SetBodyYaw(yaw float64)
	TriggerJump()
	IsGrounded() bool
	IsInLiquid() bool
}

// Context carries everything a behavior may touch during one agent tick.
// It is rebuilt by the host every tick; nothing in this package caches it.
type Context struct {
	Tick  int64
	World World
	Nav   Navigator
	Body  Body
}

// flatten projects v onto the XZ plane.
func flatten(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X(), 0, v.Z()}
}

// distSq returns the squared 3D distance between a and b.
func distSq(a, b mgl64.Vec3) float64 {
	d := a.Sub(b)
	return d.Dot(d)
}
