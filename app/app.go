// Package app ties configuration, the device, the engine and telemetry into the
// frame loop shared by the headless and windowed front ends.
package app

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/pthm-cable/windfield/colorramp"
	"github.com/pthm-cable/windfield/config"
	"github.com/pthm-cable/windfield/engine"
	"github.com/pthm-cable/windfield/gpu"
	"github.com/pthm-cable/windfield/telemetry"
)

// Options configures an App beyond what the config file holds.
type Options struct {
	Seed           int64   // 0 = simulation.seed from config
	LogStats       bool    // Log window and perf stats via slog
	StatsWindowSec float64 // 0 = telemetry.stats_window from config
	OutputDir      string  // Directory for CSV logs and config snapshot (empty = disabled)
	Logger         *slog.Logger
}

// App owns one device and one engine and drives them a frame at a time.
// Step, Present and Resize must be called from the same goroutine.
// Submit may be called from any goroutine.
type App struct {
	cfg *config.Config
	log *slog.Logger

	dev *gpu.Device
	eng *engine.Engine

	// Telemetry
	collector     *telemetry.Collector
	perf          *telemetry.PerfCollector
	output        *telemetry.OutputManager
	logStats      bool
	statsCallback func(telemetry.WindowStats)

	// Updates queued by other goroutines, applied before the next frame
	mu      sync.Mutex
	pending []ParamUpdate

	frame uint64
}

// New builds the device, loads the wind field and creates the engine.
// A field that fails to load is logged and left unset; frames are skipped until
// one is supplied.
func New(cfg *config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	devCfg := cfg.Derived.GPU
	devCfg.Logger = logger
	dev, err := gpu.NewDevice(devCfg, cfg.Screen.Width, cfg.Screen.Height)
	if err != nil {
		return nil, fmt.Errorf("creating device: %w", err)
	}

	f, err := LoadField(cfg.Wind)
	if err != nil {
		logger.Warn("wind field not loaded", "error", err)
		f = nil
	}

	ramp, err := colorramp.Build(cfg.ColorRamp)
	if err != nil {
		dev.Close()
		return nil, err
	}

	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Simulation.Seed
	}

	eng, err := engine.New(dev, f, engine.Options{
		Params:        cfg.Derived.Params,
		ParticleCount: cfg.Particles.Count,
		Ramp:          ramp,
		Seed:          seed,
		Logger:        logger,
	})
	if err != nil {
		dev.Close()
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		eng.Close()
		dev.Close()
		return nil, err
	}
	if err := output.WriteConfig(cfg); err != nil {
		logger.Error("failed to write config snapshot", "error", err)
	}

	return &App{
		cfg:       cfg,
		log:       logger,
		dev:       dev,
		eng:       eng,
		collector: telemetry.NewCollector(statsWindow, cfg.Derived.DT),
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		output:    output,
		logStats:  opts.LogStats,
	}, nil
}

// SetStatsCallback registers fn to receive every flushed stats window.
func (a *App) SetStatsCallback(fn func(telemetry.WindowStats)) {
	a.statsCallback = fn
}

// Step applies queued updates, draws one frame and feeds telemetry.
// A skipped frame is reported through the returned Frame; the error is only
// non-nil for frames the engine refused with ErrFrameSkipped.
func (a *App) Step() (engine.Frame, error) {
	a.perf.StartFrame()

	a.perf.StartPhase(telemetry.PhaseEvents)
	a.applyPending()

	a.perf.StartPhase(telemetry.PhaseSubmit)
	fr, err := a.eng.Draw()
	a.collector.RecordFrame(fr)
	a.frame++

	a.perf.AddPasses(a.dev.PassTimings())
	a.flushTelemetry()
	a.perf.EndFrame()

	return fr, err
}

// Presenter displays a finished RGBA8 frame.
type Presenter interface {
	Present(pix []uint8, width, height int) error
}

// Present waits for the submitted frames and hands the surface to p.
func (a *App) Present(p Presenter) error {
	surface := a.dev.Surface()
	pix, err := a.dev.ReadPixels(surface)
	if err != nil {
		return err
	}
	w, h := surface.Size()
	if err := p.Present(pix, w, h); err != nil {
		return err
	}
	a.perf.RecordPresent()
	return nil
}

// Resize changes the surface and trail targets, e.g. after a window resize.
func (a *App) Resize(width, height int) error {
	return a.eng.Resize(width, height)
}

// Frame returns the number of Step calls so far.
func (a *App) Frame() uint64 { return a.frame }

// Engine returns the engine.
func (a *App) Engine() *engine.Engine { return a.eng }

// Device returns the device.
func (a *App) Device() *gpu.Device { return a.dev }

// Config returns the configuration the app was built with.
func (a *App) Config() *config.Config { return a.cfg }

// PerfStats returns the rolling performance stats.
func (a *App) PerfStats() telemetry.PerfStats { return a.perf.Stats() }

// Close releases the engine and device and closes output files.
func (a *App) Close() error {
	var firstErr error
	if err := a.eng.Close(); err != nil {
		firstErr = err
	}
	if err := a.dev.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.output.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
