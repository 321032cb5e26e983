package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windfield/app"
	"github.com/pthm-cable/windfield/config"
	"github.com/pthm-cable/windfield/server"
	"github.com/pthm-cable/windfield/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without a window")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = simulation.seed from config)")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")
	watch := flag.Bool("watch", false, "Reload parameters when the config file changes")
	listen := flag.String("listen", "", "Websocket listen address (empty = server.listen from config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := app.Options{
		Seed:           *seed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		Logger:         logger,
	}

	if *headless {
		a, err := app.New(cfg, opts)
		if err != nil {
			slog.Error("failed to start", "error", err)
			os.Exit(1)
		}
		defer a.Close()
		startServices(ctx, a, cfg, *configPath, *watch, *listen, nil)

		slog.Info("starting headless simulation",
			"seed", *seed,
			"particles", cfg.Particles.Count,
			"surface", []int{cfg.Screen.Width, cfg.Screen.Height},
			"max_frames", *maxFrames,
		)

		for ctx.Err() == nil {
			if _, err := a.Step(); err != nil {
				slog.Warn("frame failed", "frame", a.Frame(), "error", err)
			}
			if *maxFrames > 0 && int(a.Frame()) >= *maxFrames {
				slog.Info("max frames reached", "frame", a.Frame())
				return
			}
		}
		return
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Wind Field")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	a, err := app.New(cfg, opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	v, err := NewViewer(a)
	if err != nil {
		slog.Error("failed to create viewer", "error", err)
		os.Exit(1)
	}
	defer v.Unload()
	startServices(ctx, a, cfg, *configPath, *watch, *listen, v.SetWindow)

	for !rl.WindowShouldClose() && ctx.Err() == nil {
		v.Update()
		v.Draw()

		if *maxFrames > 0 && int(a.Frame()) >= *maxFrames {
			break
		}
	}
}

// startServices starts the optional config watcher and websocket hub and
// routes each stats window to the hub and onStats.
func startServices(ctx context.Context, a *app.App, cfg *config.Config, configPath string, watch bool, listen string, onStats func(telemetry.WindowStats)) {
	if watch {
		if configPath == "" {
			slog.Warn("-watch needs -config; not watching")
		} else {
			go func() {
				err := config.Watch(ctx, configPath, func(c *config.Config) {
					a.Submit(app.FromConfig(c))
				})
				if err != nil {
					slog.Error("config watcher stopped", "error", err)
				}
			}()
		}
	}

	addr := cfg.Server.Listen
	if listen != "" {
		addr = listen
	}
	var hub *server.Hub
	if addr != "" {
		hub = server.NewHub(a, slog.Default())
		go func() {
			if err := hub.ListenAndServe(ctx, addr); err != nil {
				slog.Error("websocket server stopped", "error", err)
			}
		}()
	}

	a.SetStatsCallback(func(s telemetry.WindowStats) {
		if hub != nil {
			hub.Broadcast(s)
		}
		if onStats != nil {
			onStats(s)
		}
	})
}
