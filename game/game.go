// Package game hosts the sandbox: an ECS world of companion agents and target
// actors, driven tick by tick through the follow controller.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/companion/components"
	"github.com/pthm-cable/companion/config"
	"github.com/pthm-cable/companion/locomotion"
	"github.com/pthm-cable/companion/systems"
	"github.com/pthm-cable/companion/telemetry"
)

// GridCellSize is the spatial grid cell size in world units.
const GridCellSize = 8.0

// eventLogSize is the number of recent controller events kept for display.
const eventLogSize = 64

// Options configures a Game.
type Options struct {
	Seed           int64
	LogStats       bool
	StatsWindowSec float64 // 0 uses the config value
	SnapshotDir    string
	OutputDir      string
	Headless       bool
	StepsPerUpdate int

	// Optional hooks
	StatsCallback func(telemetry.WindowStats)
	Observer      locomotion.Observer // receives every controller event
}

// Game holds the complete sandbox state.
type Game struct {
	cfg   *config.Config
	world *ecs.World
	rng   *rand.Rand
	seed  int64

	// Entity mappers
	agentMapper *ecs.Map5[
		components.Position,
		components.Velocity,
		components.Facing,
		components.Body,
		components.Agent,
	]
	targetMapper *ecs.Map5[
		components.Position,
		components.Velocity,
		components.Facing,
		components.Body,
		components.Actor,
	]

	// Individual component mappers for lookups
	posMap    *ecs.Map1[components.Position]
	velMap    *ecs.Map1[components.Velocity]
	facingMap *ecs.Map1[components.Facing]
	bodyMap   *ecs.Map1[components.Body]
	actorMap  *ecs.Map1[components.Actor]

	// World and systems
	terrain     *systems.TerrainSystem
	planner     *systems.AStarPlanner
	physics     *systems.PhysicsSystem
	targetSys   *systems.TargetSystem
	spatialGrid *systems.SpatialGrid

	// Controller
	behaviors *locomotion.Registry
	params    locomotion.Params
	agents    []*agentState
	targets   []*targetView
	byEntity  map[ecs.Entity]*targetView
	nearby    *nearbyTargets
	parallel  *parallelState
	nextID    uint64

	// Telemetry
	collector        *telemetry.Collector
	sessions         *telemetry.SessionTracker
	eventLog         *telemetry.EventLog
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	pendingEvents    []telemetry.EventRecord
	observer         locomotion.Observer
	statsCallback    func(telemetry.WindowStats)
	logStats         bool
	snapshotDir      string

	// State
	tick           int64
	paused         bool
	stepsPerUpdate int
}

// NewGameWithOptions creates a sandbox from the global config.
func NewGameWithOptions(opts Options) (*Game, error) {
	return NewGameWithConfig(config.Cfg(), opts)
}

// NewGameWithConfig creates a sandbox from cfg.
func NewGameWithConfig(cfg *config.Config, opts Options) (*Game, error) {
	world := ecs.NewWorld()

	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	g := &Game{
		cfg:   cfg,
		world: world,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		seed:  opts.Seed,
		agentMapper: ecs.NewMap5[
			components.Position,
			components.Velocity,
			components.Facing,
			components.Body,
			components.Agent,
		](world),
		targetMapper: ecs.NewMap5[
			components.Position,
			components.Velocity,
			components.Facing,
			components.Body,
			components.Actor,
		](world),
		posMap:         ecs.NewMap1[components.Position](world),
		velMap:         ecs.NewMap1[components.Velocity](world),
		facingMap:      ecs.NewMap1[components.Facing](world),
		bodyMap:        ecs.NewMap1[components.Body](world),
		actorMap:       ecs.NewMap1[components.Actor](world),
		byEntity:       make(map[ecs.Entity]*targetView),
		params:         locomotion.NewParams(cfg),
		statsCallback:  opts.StatsCallback,
		logStats:       opts.LogStats,
		snapshotDir:    opts.SnapshotDir,
		stepsPerUpdate: steps,
	}

	// World
	g.terrain = systems.NewTerrainSystem(cfg.World, opts.Seed)
	g.planner = systems.NewAStarPlanner(systems.NewNavGridFromTerrain(g.terrain, cfg.Pathfinding), cfg.Pathfinding)
	g.physics = systems.NewPhysicsSystem(world, g.terrain, cfg.Physics)
	g.targetSys = systems.NewTargetSystem(world, g.terrain, cfg.Targets, cfg.Physics, opts.Seed)
	g.spatialGrid = systems.NewSpatialGrid(float64(g.terrain.Width()), float64(g.terrain.Depth()), GridCellSize)

	// Telemetry
	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}
	g.collector = telemetry.NewCollector(statsWindow, cfg.Derived.DT)
	g.sessions = telemetry.NewSessionTracker()
	g.eventLog = telemetry.NewEventLog(eventLogSize)
	g.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	g.bookmarkDetector = telemetry.NewBookmarkDetector(10)

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	observers := locomotion.Observers{g.collector, g.sessions, g.eventLog}
	if om != nil {
		observers = append(observers, locomotion.ObserverFunc(g.recordEvent))
	}
	if opts.Observer != nil {
		observers = append(observers, opts.Observer)
	}
	g.observer = observers

	g.nearby = &nearbyTargets{g: g}
	g.parallel = newParallelState()
	g.behaviors = locomotion.NewRegistry()
	if err := g.registerBehaviors(); err != nil {
		om.Close()
		return nil, err
	}

	if err := g.spawnInitialPopulation(); err != nil {
		om.Close()
		return nil, err
	}

	slog.Debug("sandbox created",
		"seed", opts.Seed,
		"world", fmt.Sprintf("%dx%d", g.terrain.Width(), g.terrain.Depth()),
		"agents", len(g.agents),
		"targets", len(g.targets),
	)

	return g, nil
}

// UpdateHeadless runs StepsPerUpdate ticks without input handling.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.Step()
	}
}

// Update runs StepsPerUpdate ticks unless paused.
func (g *Game) Update() {
	if g.paused {
		return
	}
	g.UpdateHeadless()
}

// ApplyConfig swaps in a reloaded config between ticks. Terrain and population
// settings only take effect on the next run.
func (g *Game) ApplyConfig(cfg *config.Config) {
	g.cfg = cfg
	g.params = locomotion.NewParams(cfg)
	for _, a := range g.agents {
		a.arbiter.SetParams(g.params)
		a.nav.SetConfig(cfg.Pathfinding, cfg.Physics)
	}
	g.planner.SetConfig(cfg.Pathfinding)
	g.physics.SetConfig(cfg.Physics)
	g.targetSys.SetConfig(cfg.Targets, cfg.Physics)

	slog.Info("config applied", "tick", g.tick)
}

// Unload flushes pending records and releases output files. Safe to call twice.
func (g *Game) Unload() {
	g.parallel.stopWorkers()
	if g.outputManager == nil {
		return
	}
	if err := g.outputManager.WriteSessions(g.sessions.DrainFinished()); err != nil {
		slog.Error("failed to write sessions", "error", err)
	}
	if err := g.outputManager.WriteEvents(g.pendingEvents); err != nil {
		slog.Error("failed to write events", "error", err)
	}
	g.pendingEvents = nil
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	g.outputManager = nil
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int64 { return g.tick }

// Paused reports whether Update is suspended.
func (g *Game) Paused() bool { return g.paused }

// SetPaused suspends or resumes Update.
func (g *Game) SetPaused(p bool) { g.paused = p }

// StepsPerUpdate returns the simulation speed multiplier.
func (g *Game) StepsPerUpdate() int { return g.stepsPerUpdate }

// SetStepsPerUpdate sets the simulation speed multiplier (minimum 1).
func (g *Game) SetStepsPerUpdate(n int) {
	if n < 1 {
		n = 1
	}
	g.stepsPerUpdate = n
}

// Config returns the active config.
func (g *Game) Config() *config.Config { return g.cfg }

// Terrain returns the sandbox terrain.
func (g *Game) Terrain() *systems.TerrainSystem { return g.terrain }

// RecordFrame marks a rendered frame for FPS tracking.
func (g *Game) RecordFrame() { g.perfCollector.RecordFrame() }

// PerfStats returns timing statistics over the perf window.
func (g *Game) PerfStats() telemetry.PerfStats { return g.perfCollector.Stats() }

// RecentEvents returns up to n controller events, newest first.
func (g *Game) RecentEvents(n int) []locomotion.Event { return g.eventLog.Recent(n) }

// PlannerStats returns the path planner counters for the current telemetry window.
func (g *Game) PlannerStats() systems.PlannerStats { return g.planner.Stats() }

func (g *Game) recordEvent(e locomotion.Event) {
	g.pendingEvents = append(g.pendingEvents, telemetry.NewEventRecord(e))
}
