package game

import (
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/companion/locomotion"
)

// AgentView is a read-only copy of one agent's state for display.
type AgentView struct {
	ID       uint64
	Pos      mgl64.Vec3
	Vel      mgl64.Vec3
	Yaw      float64
	BodyYaw  float64
	Grounded bool
	InLiquid bool

	Engaged    bool
	TargetID   uint64
	Gait       locomotion.Gait
	Speed      float64
	Anchor     mgl64.Vec3
	AnchorKind locomotion.AnchorKind
	Settled    bool
	Path       []mgl64.Vec3 // remaining waypoints of the active path
}

// TargetView is a read-only copy of one target actor's state for display.
type TargetView struct {
	ID        uint64
	Pos       mgl64.Vec3
	Look      mgl64.Vec3
	Sprinting bool
	Alive     bool
	Spectator bool
}

// Agents returns the display state of every agent.
func (g *Game) Agents() []AgentView {
	out := make([]AgentView, 0, len(g.agents))
	for _, a := range g.agents {
		out = append(out, g.agentView(a))
	}
	return out
}

func (g *Game) agentView(a *agentState) AgentView {
	facing := g.facingMap.Get(a.entity)
	body := g.bodyMap.Get(a.entity)
	v := AgentView{
		ID:       a.id,
		Pos:      a.body.Position(),
		Vel:      a.body.Velocity(),
		Yaw:      facing.Yaw,
		BodyYaw:  facing.BodyYaw,
		Grounded: body.Grounded,
		InLiquid: body.InLiquid,
	}
	if s := a.arbiter.Session(); s != nil {
		v.Engaged = true
		v.TargetID = s.Target.ID()
		v.Gait = s.Gait.Mode
		v.Speed = s.Gait.Speed
		v.Anchor, _ = s.Anchor()
		v.AnchorKind = s.AnchorKind()
		v.Settled = s.Settled
	}
	if p := a.nav.Active(); p != nil {
		v.Path = slices.Clone(p.Remaining())
	}
	return v
}

// Targets returns the display state of every target actor.
func (g *Game) Targets() []TargetView {
	out := make([]TargetView, 0, len(g.targets))
	for _, t := range g.targets {
		actor := t.actor()
		out = append(out, TargetView{
			ID:        t.id,
			Pos:       t.Position(),
			Look:      actor.Look,
			Sprinting: actor.Sprinting,
			Alive:     actor.Alive,
			Spectator: actor.Spectator,
		})
	}
	return out
}

// AgentAt returns the agent closest to (x, z) on the XZ plane within maxDist.
func (g *Game) AgentAt(x, z, maxDist float64) (uint64, bool) {
	var best uint64
	bestDist := maxDist
	found := false
	for _, a := range g.agents {
		p := a.body.Position()
		d := math.Hypot(p.X()-x, p.Z()-z)
		if d <= bestDist {
			best, bestDist, found = a.id, d, true
		}
	}
	return best, found
}

// TargetAt returns the target closest to (x, z) on the XZ plane within maxDist.
func (g *Game) TargetAt(x, z, maxDist float64) (uint64, bool) {
	var best uint64
	bestDist := maxDist
	found := false
	for _, t := range g.targets {
		p := t.Position()
		d := math.Hypot(p.X()-x, p.Z()-z)
		if d <= bestDist {
			best, bestDist, found = t.id, d, true
		}
	}
	return best, found
}

// Agent returns the display state of one agent.
func (g *Game) Agent(id uint64) (AgentView, bool) {
	a := g.findAgent(id)
	if a == nil {
		return AgentView{}, false
	}
	return g.agentView(a), true
}

// Assign makes an explicit follow assignment, taking priority over proximity selection.
// Reassigning an engaged agent ends its current session immediately.
func (g *Game) Assign(agentID, targetID uint64) error {
	a := g.findAgent(agentID)
	if a == nil {
		return fmt.Errorf("unknown agent %d", agentID)
	}
	t := g.findTarget(targetID)
	if t == nil {
		return fmt.Errorf("unknown target %d", targetID)
	}
	a.arbiter.Assign(g.context(a), t)
	return nil
}

// SetTargetAlive marks a target alive or dead. Dead targets end every session on them.
func (g *Game) SetTargetAlive(id uint64, alive bool) error {
	t := g.findTarget(id)
	if t == nil {
		return fmt.Errorf("unknown target %d", id)
	}
	t.actor().Alive = alive
	return nil
}

// SetTargetSpectator toggles spectator mode on a target.
func (g *Game) SetTargetSpectator(id uint64, spectator bool) error {
	t := g.findTarget(id)
	if t == nil {
		return fmt.Errorf("unknown target %d", id)
	}
	t.actor().Spectator = spectator
	return nil
}

func (g *Game) findAgent(id uint64) *agentState {
	for _, a := range g.agents {
		if a.id == id {
			return a
		}
	}
	return nil
}

func (g *Game) findTarget(id uint64) *targetView {
	for _, t := range g.targets {
		if t.id == id {
			return t
		}
	}
	return nil
}
