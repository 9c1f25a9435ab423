package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/companion/config"
	"github.com/pthm-cable/companion/game"
	"github.com/pthm-cable/companion/renderer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")
	watch := flag.Bool("watch", false, "Reload -config when the file changes")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	var watcher *config.Watcher
	if *watch {
		if *configPath == "" {
			slog.Error("-watch requires -config")
			os.Exit(1)
		}
		w, err := config.NewWatcher(*configPath)
		if err != nil {
			slog.Error("failed to watch config", "error", err)
			os.Exit(1)
		}
		defer w.Close()
		watcher = w
	}

	opts := game.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		SnapshotDir:    *snapshotDir,
		OutputDir:      *outputDir,
		Headless:       *headless,
		StepsPerUpdate: *stepsPerUpdate,
	}

	if *headless {
		g, err := game.NewGameWithOptions(opts)
		if err != nil {
			slog.Error("failed to create sandbox", "error", err)
			os.Exit(1)
		}
		defer g.Unload()

		slog.Info("starting headless simulation",
			"seed", rngSeed,
			"stats_window", *statsWindow,
			"max_ticks", *maxTicks,
			"steps_per_update", *stepsPerUpdate,
		)

		for {
			pollConfig(watcher, g)
			g.UpdateHeadless()

			if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
				slog.Info("max ticks reached", "tick", g.Tick())
				return
			}
		}
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Companion Follow Sandbox")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		slog.Error("failed to create sandbox", "error", err)
		return
	}
	defer g.Unload()

	view := renderer.NewView(g, cfg.Screen.Width, cfg.Screen.Height)
	defer view.Unload()

	for !rl.WindowShouldClose() {
		pollConfig(watcher, g)
		view.HandleInput(g)
		g.Update()
		view.Draw(g)

		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			break
		}
	}
}

// pollConfig applies a reloaded config between ticks and reports reload failures.
func pollConfig(w *config.Watcher, g *game.Game) {
	if w == nil {
		return
	}
	if cfg, ok := w.Poll(); ok {
		config.Set(cfg)
		g.ApplyConfig(cfg)
	}
	select {
	case err, ok := <-w.Errors:
		if ok {
			slog.Warn("config reload failed, keeping previous config", "error", err)
		}
	default:
	}
}
