// Package components defines ECS components for the sandbox world.
package components

import "github.com/go-gl/mathgl/mgl64"

// Position is a world position in cell units. Y is up.
type Position struct {
	X, Y, Z float64
}

// Vec returns the position as a vector.
func (p *Position) Vec() mgl64.Vec3 { return mgl64.Vec3{p.X, p.Y, p.Z} }

// Set assigns the position from a vector.
func (p *Position) Set(v mgl64.Vec3) { p.X, p.Y, p.Z = v[0], v[1], v[2] }

// Velocity is displacement per tick.
type Velocity struct {
	X, Y, Z float64
}

// Vec returns the velocity as a vector.
func (v *Velocity) Vec() mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }

// Set assigns the velocity from a vector.
func (v *Velocity) Set(u mgl64.Vec3) { v.X, v.Y, v.Z = u[0], u[1], u[2] }

// Horizontal returns the XZ speed.
func (v *Velocity) Horizontal() float64 {
	return mgl64.Vec2{v.X, v.Z}.Len()
}

// Facing holds head and body yaw in radians, measured from +X toward +Z.
type Facing struct {
	Yaw     float64
	BodyYaw float64
}

// Body holds physical state maintained by the physics system.
type Body struct {
	Radius        float64
	Height        float64
	Grounded      bool
	InLiquid      bool
	JumpRequested bool // consumed by physics on the next step
}

// Agent marks a companion entity. Index addresses per-agent state held by the host.
type Agent struct {
	ID    uint64
	Index int
}

// Script selects how a target actor moves.
type Script uint8

const (
	ScriptWander Script = iota
	ScriptStationary
	ScriptFlee
	ScriptLoop
)

// ParseScript maps a config name to a Script. Unknown names fall back to wander.
func ParseScript(name string) Script {
	for i, n := range ScriptNames() {
		if n == name {
			return Script(i)
		}
	}
	return ScriptWander
}

// Actor is a target actor the companions may follow.
type Actor struct {
	ID        uint64
	Script    Script
	Look      mgl64.Vec3 // unit look direction
	Sprinting bool
	Alive     bool
	Spectator bool

	// Script state
	Heading     float64    // walking direction (yaw)
	Home        mgl64.Vec3 // spawn point, centre of the loop script
	NoiseOffset float64    // decorrelates noise between actors
	Waypoint    int        // loop script progress
	Idle        bool

	// Displacement over the last tick, measured by the target system
	Motion mgl64.Vec3
	Prev   mgl64.Vec3
}
