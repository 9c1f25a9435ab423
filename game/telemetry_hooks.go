package game

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/companion/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, len(g.agents), g.engagedCount())
	perfStats := g.perfCollector.Stats()
	plannerStats := g.planner.Stats()
	g.planner.ResetStats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Console output
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
		slog.Info("planner",
			"searches", plannerStats.Searches,
			"reached", plannerStats.Reached,
			"partial", plannerStats.Partial,
			"failed", plannerStats.Failed,
			"budget_denied", plannerStats.BudgetDenied,
			"expanded", plannerStats.Expanded,
		)
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
		if err := g.outputManager.WriteEvents(g.pendingEvents); err != nil {
			slog.Error("failed to write events", "error", err)
		}
		g.pendingEvents = g.pendingEvents[:0]
		if err := g.outputManager.WriteSessions(g.sessions.DrainFinished()); err != nil {
			slog.Error("failed to write sessions", "error", err)
		}
	} else {
		// Nothing persists finished sessions; keep the queue bounded.
		g.sessions.DrainFinished()
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}
		if g.snapshotDir != "" {
			g.saveSnapshot(&bm)
		}
	}
}

// saveSnapshot creates and saves a snapshot to disk.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	path, err := telemetry.SaveSnapshot(g.CreateSnapshot(bookmark), g.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", g.tick)
}

// CreateSnapshot builds a snapshot of every agent, session and target.
func (g *Game) CreateSnapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	snapshot := &telemetry.Snapshot{
		Version:    telemetry.SnapshotVersion,
		Seed:       g.seed,
		WorldWidth: g.terrain.Width(),
		WorldDepth: g.terrain.Depth(),
		WaterLevel: g.terrain.WaterLevel(),
		Tick:       g.tick,
		Bookmark:   bookmark,
	}

	for _, a := range g.agents {
		body := g.bodyMap.Get(a.entity)
		state := telemetry.AgentState{
			ID:       a.id,
			Pos:      vec3(a.body.Position()),
			Vel:      vec3(a.body.Velocity()),
			Yaw:      a.body.Yaw(),
			Grounded: body.Grounded,
			InLiquid: body.InLiquid,
		}
		if active := a.scheduler.Active(); active != nil {
			state.Behavior = active.Name()
		}
		if s := a.arbiter.Session(); s != nil {
			anchor, _ := s.Anchor()
			state.Session = &telemetry.SessionState{
				ID:         s.ID.String(),
				TargetID:   s.Target.ID(),
				StartTick:  s.StartTick,
				Gait:       s.Gait.Mode.String(),
				Speed:      s.Gait.Speed,
				Anchor:     vec3(anchor),
				AnchorKind: s.AnchorKind().String(),
				SideSign:   s.SideSign,
				Settled:    s.Settled,
				Stats:      g.sessions.Get(s.ID),
			}
		}
		snapshot.Agents = append(snapshot.Agents, state)
	}

	for _, t := range g.targets {
		actor := t.actor()
		snapshot.Targets = append(snapshot.Targets, telemetry.TargetState{
			ID:        t.id,
			Script:    actor.Script.String(),
			Pos:       vec3(t.Position()),
			Motion:    vec3(actor.Motion),
			Yaw:       t.Yaw(),
			Sprinting: actor.Sprinting,
			Alive:     actor.Alive,
			Spectator: actor.Spectator,
		})
	}

	return snapshot
}

func vec3(v mgl64.Vec3) [3]float64 { return [3]float64{v[0], v[1], v[2]} }
