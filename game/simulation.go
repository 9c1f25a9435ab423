package game

import (
	"github.com/pthm-cable/companion/locomotion"
	"github.com/pthm-cable/companion/telemetry"
)

// Step runs a single simulation tick.
func (g *Game) Step() {
	g.perfCollector.StartTick()
	g.planner.BeginTick()

	// 1. Move targets
	g.perfCollector.StartPhase(telemetry.PhaseTargets)
	g.targetSys.Update(g.world, g.tick)

	// 2. Rebuild spatial index of targets
	g.perfCollector.StartPhase(telemetry.PhaseSpatialGrid)
	g.updateSpatialGrid()

	// 3. Run controller schedulers
	g.perfCollector.StartPhase(telemetry.PhaseFollow)
	g.updateFollow()

	// 4. Turn active paths into velocities
	g.perfCollector.StartPhase(telemetry.PhaseSteer)
	g.updateSteer()

	// 5. Integrate movement
	g.perfCollector.StartPhase(telemetry.PhasePhysics)
	g.physics.Update(g.world)

	g.tick++

	// 6. Telemetry
	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.sampleDistances()
	g.flushTelemetry()

	g.perfCollector.EndTick()
}

// updateSpatialGrid rebuilds the spatial index of target actors.
func (g *Game) updateSpatialGrid() {
	g.spatialGrid.Clear()
	for _, t := range g.targets {
		g.spatialGrid.Insert(t.entity, t.Position())
	}
}

// context builds the per-tick controller context for one agent.
func (g *Game) context(a *agentState) *locomotion.Context {
	return &locomotion.Context{
		Tick:  g.tick,
		World: g.terrain,
		Nav:   a.nav,
		Body:  a.body,
	}
}

// updateFollow ticks every agent's behavior scheduler.
func (g *Game) updateFollow() {
	g.eachAgentRotated(func(a *agentState) {
		g.nearby.body = a.body
		a.scheduler.Tick(g.context(a))
	})
	g.nearby.body = nil
}

// eachAgentRotated visits every agent, starting one further along each tick so
// the planner's per-tick search budget is not always spent by the same agents.
func (g *Game) eachAgentRotated(fn func(*agentState)) {
	n := len(g.agents)
	if n == 0 {
		return
	}
	start := int(g.tick % int64(n))
	for i := range n {
		fn(g.agents[(start+i)%n])
	}
}

// sampleDistances records agent-to-target distance for engaged agents.
func (g *Game) sampleDistances() {
	for _, a := range g.agents {
		s := a.arbiter.Session()
		if s == nil {
			continue
		}
		g.collector.RecordDistance(a.body.Position().Sub(s.Target.Position()).Len())
	}
}

// engagedCount returns the number of agents with a live session.
func (g *Game) engagedCount() int {
	n := 0
	for _, a := range g.agents {
		if a.arbiter.Session() != nil {
			n++
		}
	}
	return n
}
