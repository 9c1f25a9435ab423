package game

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/companion/components"
	"github.com/pthm-cable/companion/locomotion"
	"github.com/pthm-cable/companion/systems"
)

// Body dimensions in world units.
const (
	agentRadius  = 0.3
	agentHeight  = 1.4
	targetRadius = 0.3
	targetHeight = systems.AgentHeight
)

// spawnAttempts bounds the random search for a walkable spawn cell.
const spawnAttempts = 200

// agentState is the per-agent controller state held by the host.
type agentState struct {
	id        uint64
	entity    ecs.Entity
	body      *agentBody
	nav       *systems.PathNavigator
	scheduler *locomotion.Scheduler
	arbiter   *locomotion.FollowArbiter
}

// registerBehaviors adds the behaviors every agent is scheduled with.
func (g *Game) registerBehaviors() error {
	err := g.behaviors.Register("follow", func(seed int64) locomotion.Behavior {
		return locomotion.NewFollowArbiter(locomotion.ArbiterOptions{
			Params:   g.params,
			Targets:  g.nearby,
			Observer: g.observer,
			Seed:     seed,
		})
	})
	if err != nil {
		return fmt.Errorf("registering behaviors: %w", err)
	}
	return nil
}

// spawnInitialPopulation places targets on walkable ground and agents near them.
func (g *Game) spawnInitialPopulation() error {
	script := components.ParseScript(g.cfg.Targets.Script)

	for i := 0; i < g.cfg.Sim.Targets; i++ {
		pos, ok := g.randomWalkable()
		if !ok {
			return fmt.Errorf("no walkable cell for target %d", i)
		}
		g.SpawnTarget(pos, script)
	}

	for i := 0; i < g.cfg.Sim.Agents; i++ {
		pos, ok := g.walkableNear(g.agentSpawnCenter(i), g.params.Follow.EngageRadius/2)
		if !ok {
			return fmt.Errorf("no walkable cell for agent %d", i)
		}
		if _, err := g.SpawnAgent(pos); err != nil {
			return err
		}
	}
	return nil
}

// agentSpawnCenter spreads agents across the targets.
func (g *Game) agentSpawnCenter(i int) mgl64.Vec3 {
	if len(g.targets) == 0 {
		return mgl64.Vec3{float64(g.terrain.Width()) / 2, 0, float64(g.terrain.Depth()) / 2}
	}
	return g.targets[i%len(g.targets)].Position()
}

// SpawnTarget creates a target actor standing at pos.
func (g *Game) SpawnTarget(pos mgl64.Vec3, script components.Script) uint64 {
	g.nextID++
	id := g.nextID

	p := components.Position{}
	p.Set(pos)
	vel := components.Velocity{}
	heading := g.rng.Float64() * 2 * math.Pi
	facing := components.Facing{Yaw: heading, BodyYaw: heading}
	body := components.Body{Radius: targetRadius, Height: targetHeight, Grounded: true}
	actor := components.Actor{
		ID:          id,
		Script:      script,
		Look:        mgl64.Vec3{math.Cos(heading), 0, math.Sin(heading)},
		Alive:       true,
		Heading:     heading,
		Home:        pos,
		NoiseOffset: g.rng.Float64() * 1000,
		Prev:        pos,
	}

	entity := g.targetMapper.NewEntity(&p, &vel, &facing, &body, &actor)
	view := &targetView{id: id, entity: entity, g: g}
	g.targets = append(g.targets, view)
	g.byEntity[entity] = view

	slog.Debug("target spawned", "id", id, "script", script.String(), "x", pos.X(), "z", pos.Z())
	return id
}

// SpawnAgent creates a companion agent standing at pos with its own navigator and scheduler.
func (g *Game) SpawnAgent(pos mgl64.Vec3) (uint64, error) {
	g.nextID++
	id := g.nextID

	p := components.Position{}
	p.Set(pos)
	vel := components.Velocity{}
	facing := components.Facing{}
	body := components.Body{Radius: agentRadius, Height: agentHeight, Grounded: true}
	agent := components.Agent{ID: id, Index: len(g.agents)}

	entity := g.agentMapper.NewEntity(&p, &vel, &facing, &body, &agent)
	ab := &agentBody{id: id, entity: entity, g: g}

	sched, err := g.behaviors.NewScheduler(g.seed+int64(id)*7919, "follow")
	if err != nil {
		g.world.RemoveEntity(entity)
		return 0, fmt.Errorf("spawning agent %d: %w", id, err)
	}

	g.agents = append(g.agents, &agentState{
		id:        id,
		entity:    entity,
		body:      ab,
		nav:       systems.NewPathNavigator(g.planner, ab.Position, g.cfg.Pathfinding, g.cfg.Physics),
		scheduler: sched,
		arbiter:   sched.Behaviors()[0].(*locomotion.FollowArbiter),
	})

	slog.Debug("agent spawned", "id", id, "x", pos.X(), "z", pos.Z())
	return id, nil
}

// randomWalkable returns the centre of a random walkable cell, standing on its ground.
func (g *Game) randomWalkable() (mgl64.Vec3, bool) {
	grid := g.planner.Grid()
	for i := 0; i < spawnAttempts; i++ {
		gx := g.rng.Intn(grid.Width())
		gz := g.rng.Intn(grid.Depth())
		if !grid.IsBlocked(gx, gz) {
			return grid.GridToWorld(gx, gz), true
		}
	}
	return mgl64.Vec3{}, false
}

// walkableNear returns a random walkable cell within radius of center on the XZ plane.
func (g *Game) walkableNear(center mgl64.Vec3, radius float64) (mgl64.Vec3, bool) {
	grid := g.planner.Grid()
	for i := 0; i < spawnAttempts; i++ {
		angle := g.rng.Float64() * 2 * math.Pi
		r := radius * math.Sqrt(g.rng.Float64())
		gx, gz := grid.WorldToGrid(center.X()+r*math.Cos(angle), center.Z()+r*math.Sin(angle))
		if grid.IsBlocked(gx, gz) {
			continue
		}
		return grid.GridToWorld(gx, gz), true
	}
	return g.randomWalkable()
}
