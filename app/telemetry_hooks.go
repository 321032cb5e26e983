package app

import (
	"github.com/pthm-cable/windfield/telemetry"
)

// flushTelemetry closes the stats window when it is due.
func (a *App) flushTelemetry() {
	if !a.collector.ShouldFlush(a.frame) {
		return
	}
	a.perf.StartPhase(telemetry.PhaseReadback)

	// Drop counts are only final once submitted frames have run.
	if err := a.dev.Finish(); err != nil {
		a.log.Error("failed to finish frames for telemetry", "error", err)
		return
	}

	sample := telemetry.Sample{
		Particles: a.eng.ParticleCount(),
		Drops:     a.eng.Drops(),
		Params:    a.eng.Params(),
	}
	if a.cfg.Telemetry.SampleSpeeds {
		speeds, err := a.eng.Speeds()
		if err != nil {
			a.log.Error("failed to sample speeds", "error", err)
		}
		sample.Speeds = speeds
	}
	if a.cfg.Telemetry.SampleCoverage {
		pix, err := a.dev.ReadPixels(a.eng.Targets().Background())
		if err != nil {
			a.log.Error("failed to sample trail coverage", "error", err)
		}
		sample.Coverage = telemetry.TrailCoverage(pix)
	}

	stats := a.collector.Flush(a.frame, sample)
	perfStats := a.perf.Stats()

	if a.statsCallback != nil {
		a.statsCallback(stats)
	}

	if a.logStats {
		a.log.Info("stats", "window", stats)
		a.log.Info("perf", "perf", perfStats)
	}

	if a.output != nil {
		if err := a.output.WriteStats(stats); err != nil {
			a.log.Error("failed to write stats", "error", err)
		}
		if err := a.output.WritePerf(perfStats, stats.WindowEndFrame); err != nil {
			a.log.Error("failed to write perf", "error", err)
		}
	}
}
