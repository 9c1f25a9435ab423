package game

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/companion/components"
	"github.com/pthm-cable/companion/config"
	"github.com/pthm-cable/companion/locomotion"
	"github.com/pthm-cable/companion/telemetry"
)

const groundY = 8.0

// testConfig returns defaults over a small flat, dry, open world with no initial population.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.World.Width = 48
	cfg.World.Depth = 48
	cfg.World.BaseHeight = groundY
	cfg.World.Relief = 0
	cfg.World.WaterLevel = 0
	cfg.World.WallDensity = 1
	cfg.World.RoofDensity = 1
	cfg.Sim.Agents = 0
	cfg.Sim.Targets = 0
	cfg.Targets.Script = "stationary"
	return cfg
}

// eventRecorder collects controller events.
type eventRecorder struct {
	events []locomotion.Event
}

func (r *eventRecorder) Observe(e locomotion.Event) { r.events = append(r.events, e) }

func (r *eventRecorder) count(typ locomotion.EventType) int {
	n := 0
	for _, e := range r.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func (r *eventRecorder) last(typ locomotion.EventType) (locomotion.Event, bool) {
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == typ {
			return r.events[i], true
		}
	}
	return locomotion.Event{}, false
}

type fixture struct {
	g      *Game
	rec    *eventRecorder
	agent  uint64
	target uint64
}

// newFixture builds a sandbox with one stationary target at the centre and one
// agent 12 units west of it.
func newFixture(t *testing.T, cfg *config.Config, opts Options) *fixture {
	t.Helper()
	rec := &eventRecorder{}
	opts.Observer = rec
	g, err := NewGameWithConfig(cfg, opts)
	if err != nil {
		t.Fatalf("NewGameWithConfig: %v", err)
	}
	t.Cleanup(g.Unload)

	target := g.SpawnTarget(mgl64.Vec3{24.5, groundY, 24.5}, components.ScriptStationary)
	agent, err := g.SpawnAgent(mgl64.Vec3{12.5, groundY, 24.5})
	if err != nil {
		t.Fatalf("SpawnAgent: %v", err)
	}
	return &fixture{g: g, rec: rec, agent: agent, target: target}
}

func (f *fixture) run(n int) {
	for i := 0; i < n; i++ {
		f.g.Step()
	}
}

func (f *fixture) distance(t *testing.T) float64 {
	t.Helper()
	a, ok := f.g.Agent(f.agent)
	if !ok {
		t.Fatalf("agent %d not found", f.agent)
	}
	for _, tv := range f.g.Targets() {
		if tv.ID == f.target {
			return mgl64.Vec2{a.Pos.X() - tv.Pos.X(), a.Pos.Z() - tv.Pos.Z()}.Len()
		}
	}
	t.Fatalf("target %d not found", f.target)
	return 0
}

func TestNewGameSpawnsPopulation(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sim.Agents = 3
	cfg.Sim.Targets = 2

	g, err := NewGameWithConfig(cfg, Options{Seed: 7})
	if err != nil {
		t.Fatalf("NewGameWithConfig: %v", err)
	}
	defer g.Unload()

	if got := len(g.Agents()); got != 3 {
		t.Errorf("agents = %d, want 3", got)
	}
	if got := len(g.Targets()); got != 2 {
		t.Errorf("targets = %d, want 2", got)
	}
	seen := make(map[uint64]bool)
	for _, a := range g.Agents() {
		seen[a.ID] = true
	}
	for _, tv := range g.Targets() {
		seen[tv.ID] = true
	}
	if len(seen) != 5 {
		t.Errorf("ids are not unique: %v", seen)
	}
}

func TestAgentEngagesAndSettlesNearStationaryTarget(t *testing.T) {
	f := newFixture(t, testConfig(t), Options{Seed: 1})

	f.run(1)
	if f.rec.count(locomotion.EventEngage) != 1 {
		t.Fatalf("expected one engage after the first tick, got events %v", f.rec.events)
	}
	a, _ := f.g.Agent(f.agent)
	if !a.Engaged || a.TargetID != f.target {
		t.Fatalf("agent not engaged on target %d: %+v", f.target, a)
	}

	f.run(400)

	if n := f.rec.count(locomotion.EventDisengage); n != 0 {
		t.Errorf("unexpected disengage events: %d", n)
	}
	if f.rec.count(locomotion.EventSettle) == 0 {
		t.Error("agent never settled next to the stationary target")
	}
	if d := f.distance(t); d > f.g.Config().Follow.StopDistance+0.5 {
		t.Errorf("final distance %.2f, want within stop distance", d)
	}
	if f.rec.count(locomotion.EventPath) == 0 {
		t.Error("no path was issued")
	}
}

func TestDeadTargetEndsSession(t *testing.T) {
	f := newFixture(t, testConfig(t), Options{Seed: 2})
	f.run(5)

	if err := f.g.SetTargetAlive(f.target, false); err != nil {
		t.Fatalf("SetTargetAlive: %v", err)
	}
	f.run(1)

	e, ok := f.rec.last(locomotion.EventDisengage)
	if !ok {
		t.Fatal("no disengage after target died")
	}
	if e.Reason != locomotion.ReasonTargetInvalid {
		t.Errorf("reason = %v, want %v", e.Reason, locomotion.ReasonTargetInvalid)
	}
	if a, _ := f.g.Agent(f.agent); a.Engaged {
		t.Error("agent still engaged on a dead target")
	}

	// A dead target is never re-engaged.
	f.run(10)
	if n := f.rec.count(locomotion.EventEngage); n != 1 {
		t.Errorf("engage events = %d, want 1", n)
	}
}

func TestSpectatorTargetIsIgnored(t *testing.T) {
	f := newFixture(t, testConfig(t), Options{Seed: 3})
	if err := f.g.SetTargetSpectator(f.target, true); err != nil {
		t.Fatalf("SetTargetSpectator: %v", err)
	}
	f.run(10)
	if n := f.rec.count(locomotion.EventEngage); n != 0 {
		t.Errorf("engaged a spectator %d times", n)
	}
}

func TestAssignSwitchesTarget(t *testing.T) {
	f := newFixture(t, testConfig(t), Options{Seed: 4})
	other := f.g.SpawnTarget(mgl64.Vec3{12.5, groundY, 40.5}, components.ScriptStationary)
	f.run(3)

	if err := f.g.Assign(f.agent, other); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	e, ok := f.rec.last(locomotion.EventDisengage)
	if !ok || e.Reason != locomotion.ReasonReassigned {
		t.Fatalf("expected reassigned disengage, got %+v (found %t)", e, ok)
	}

	f.run(1)
	a, _ := f.g.Agent(f.agent)
	if !a.Engaged || a.TargetID != other {
		t.Errorf("agent following %d, want %d", a.TargetID, other)
	}

	if err := f.g.Assign(999, other); err == nil {
		t.Error("Assign to an unknown agent should fail")
	}
	if err := f.g.Assign(f.agent, 999); err == nil {
		t.Error("Assign to an unknown target should fail")
	}
}

func TestApplyConfigShrinksContinueRadius(t *testing.T) {
	cfg := testConfig(t)
	f := newFixture(t, cfg, Options{Seed: 5})
	f.run(1)

	next := cfg.Clone()
	next.Follow.EngageRadius = 4
	next.Follow.ContinueRadius = 5
	f.g.ApplyConfig(next)
	f.run(1)

	e, ok := f.rec.last(locomotion.EventDisengage)
	if !ok || e.Reason != locomotion.ReasonOutOfRange {
		t.Fatalf("expected out_of_range disengage, got %+v (found %t)", e, ok)
	}
	if f.g.Config() != next {
		t.Error("Config() does not return the applied config")
	}
}

func TestApplyConfigUpdatesPlannerBudget(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pathfinding.SearchesPerTick = 8
	f := newFixture(t, cfg, Options{Seed: 5})

	next := cfg.Clone()
	next.Pathfinding.SearchesPerTick = 1
	f.g.ApplyConfig(next)

	from, to := mgl64.Vec3{12.5, groundY, 24.5}, mgl64.Vec3{20.5, groundY, 24.5}
	f.g.planner.BeginTick()
	if f.g.planner.FindPath(from, to) == nil {
		t.Fatal("first search refused")
	}
	if f.g.planner.FindPath(from, to) != nil {
		t.Error("second search allowed after budget reload to 1")
	}
}

func TestFollowOrderRotatesEachTick(t *testing.T) {
	cfg := testConfig(t)
	f := newFixture(t, cfg, Options{Seed: 5})
	for _, x := range []float64{14.5, 16.5} {
		if _, err := f.g.SpawnAgent(mgl64.Vec3{x, groundY, 20.5}); err != nil {
			t.Fatalf("SpawnAgent: %v", err)
		}
	}
	n := len(f.g.agents)

	firsts := map[uint64]bool{}
	for tick := int64(0); tick < int64(n); tick++ {
		f.g.tick = tick
		var order []uint64
		f.g.eachAgentRotated(func(a *agentState) { order = append(order, a.id) })
		if len(order) != n {
			t.Fatalf("tick %d visited %d agents, want %d", tick, len(order), n)
		}
		firsts[order[0]] = true
	}
	if len(firsts) != n {
		t.Errorf("%d distinct agents ticked first over %d ticks, want %d", len(firsts), n, n)
	}
}

func TestPausedUpdateDoesNotAdvance(t *testing.T) {
	cfg := testConfig(t)
	g, err := NewGameWithConfig(cfg, Options{Seed: 6, StepsPerUpdate: 3})
	if err != nil {
		t.Fatalf("NewGameWithConfig: %v", err)
	}
	defer g.Unload()

	g.Update()
	if g.Tick() != 3 {
		t.Errorf("tick = %d after one update, want 3", g.Tick())
	}
	g.SetPaused(true)
	g.Update()
	if g.Tick() != 3 {
		t.Errorf("paused update advanced to tick %d", g.Tick())
	}
	g.SetStepsPerUpdate(0)
	if g.StepsPerUpdate() != 1 {
		t.Errorf("steps per update = %d, want clamped to 1", g.StepsPerUpdate())
	}
}

func TestCreateSnapshot(t *testing.T) {
	f := newFixture(t, testConfig(t), Options{Seed: 8})
	f.run(20)

	snap := f.g.CreateSnapshot(nil)
	if snap.Version != telemetry.SnapshotVersion || snap.Tick != 20 || snap.Seed != 8 {
		t.Errorf("unexpected header: version %d tick %d seed %d", snap.Version, snap.Tick, snap.Seed)
	}
	if len(snap.Agents) != 1 || len(snap.Targets) != 1 {
		t.Fatalf("snapshot has %d agents, %d targets", len(snap.Agents), len(snap.Targets))
	}
	s := snap.Agents[0].Session
	if s == nil {
		t.Fatal("engaged agent has no session in snapshot")
	}
	if s.TargetID != f.target || s.Stats == nil || s.Stats.AgentID != f.agent {
		t.Errorf("unexpected session state %+v", s)
	}
	if snap.Agents[0].Behavior != "follow" {
		t.Errorf("behavior = %q, want follow", snap.Agents[0].Behavior)
	}
	if snap.Targets[0].Script != "stationary" || !snap.Targets[0].Alive {
		t.Errorf("unexpected target state %+v", snap.Targets[0])
	}
}

func TestTelemetryOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	cfg := testConfig(t)

	var windows []telemetry.WindowStats
	f := newFixture(t, cfg, Options{
		Seed:           9,
		OutputDir:      dir,
		StatsWindowSec: 1, // 20 ticks at the default tick rate
		StatsCallback:  func(s telemetry.WindowStats) { windows = append(windows, s) },
	})
	f.run(60)

	if len(windows) != 3 {
		t.Fatalf("got %d telemetry windows, want 3", len(windows))
	}
	if windows[0].Engages != 1 || windows[0].Agents != 1 || windows[0].Engaged != 1 {
		t.Errorf("first window: engages %d agents %d engaged %d", windows[0].Engages, windows[0].Agents, windows[0].Engaged)
	}
	if windows[0].DistMean <= 0 {
		t.Errorf("first window has no distance samples")
	}

	f.g.Unload()

	for _, name := range []string{"telemetry.csv", "perf.csv", "events.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, "events.csv"))
	if err != nil {
		t.Fatalf("reading events.csv: %v", err)
	}
	if !strings.Contains(string(data), "engage") {
		t.Errorf("events.csv has no engage record")
	}
}

func TestInspectAndPhaseTimings(t *testing.T) {
	f := newFixture(t, testConfig(t), Options{Seed: 10})
	f.run(5)

	fields, ok := f.g.InspectAgent(f.agent)
	if !ok {
		t.Fatal("InspectAgent found no agent")
	}
	labels := make(map[string]bool)
	for _, fl := range fields {
		labels[fl.Label] = true
	}
	if !labels["Speed"] || !labels["Grounded"] {
		t.Errorf("agent fields missing speed or grounded: %v", labels)
	}
	if _, ok := f.g.InspectTarget(f.target); !ok {
		t.Error("InspectTarget found no target")
	}
	if _, ok := f.g.InspectAgent(999); ok {
		t.Error("InspectAgent accepted an unknown id")
	}

	names := make(map[string]bool)
	for _, p := range f.g.PhaseTimings() {
		names[p.Name] = true
	}
	for _, want := range []string{"Targets", "Follow", "Physics"} {
		if !names[want] {
			t.Errorf("phase %q missing from %v", want, names)
		}
	}
}

func TestParallelSteeringIsDeterministic(t *testing.T) {
	run := func() []AgentView {
		cfg := testConfig(t)
		cfg.Sim.Agents = parallelThreshold + 6
		cfg.Sim.Targets = 2
		g, err := NewGameWithConfig(cfg, Options{Seed: 11})
		if err != nil {
			t.Fatalf("NewGameWithConfig: %v", err)
		}
		defer g.Unload()
		for i := 0; i < 30; i++ {
			g.Step()
		}
		if !g.parallel.running {
			t.Error("worker pool not started for a large population")
		}
		return g.Agents()
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("agent counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Pos.ApproxEqual(b[i].Pos) {
			t.Errorf("agent %d diverged: %v vs %v", a[i].ID, a[i].Pos, b[i].Pos)
		}
	}
}
