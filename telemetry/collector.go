package telemetry

import "github.com/pthm-cable/windfield/engine"

// Collector accumulates frames within windows and produces WindowStats.
type Collector struct {
	windowDurationSec    float64
	windowDurationFrames uint64
	dt                   float64

	// Current window tracking
	windowStartFrame uint64
	dropsAtStart     int64

	// Frame counters for current window
	frames  int
	skipped int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulated seconds
// dt: seconds per frame (used for frame-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	framesPerWindow := uint64(windowDurationSec / dt)
	if framesPerWindow < 1 {
		framesPerWindow = 1
	}

	return &Collector{
		windowDurationSec:    windowDurationSec,
		windowDurationFrames: framesPerWindow,
		dt:                   dt,
	}
}

// RecordFrame counts a Draw result.
func (c *Collector) RecordFrame(f engine.Frame) {
	if f.Skipped {
		c.skipped++
		return
	}
	c.frames++
}

// ShouldFlush returns true if enough frames have passed to flush the window.
func (c *Collector) ShouldFlush(currentFrame uint64) bool {
	return currentFrame-c.windowStartFrame >= c.windowDurationFrames
}

// Sample is the engine state read at window end.
type Sample struct {
	Particles int
	Drops     int64 // cumulative respawns, as reported by Engine.Drops
	Params    engine.Params
	Speeds    []float64
	Coverage  float64
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentFrame uint64, s Sample) WindowStats {
	drops := s.Drops - c.dropsAtStart

	var dropFraction float64
	if c.frames > 0 && s.Particles > 0 {
		dropFraction = float64(drops) / (float64(c.frames) * float64(s.Particles))
	}

	mean, std, p10, p50, p90 := ComputeSpeedStats(s.Speeds)

	stats := WindowStats{
		WindowStartFrame: c.windowStartFrame,
		WindowEndFrame:   currentFrame,
		ElapsedSec:       float64(currentFrame) * c.dt,

		Frames:  c.frames,
		Skipped: c.skipped,

		Particles:    s.Particles,
		Drops:        drops,
		DropFraction: dropFraction,

		FadeOpacity:  float64(s.Params.FadeOpacity),
		SpeedFactor:  float64(s.Params.SpeedFactor),
		DropRate:     float64(s.Params.DropRate),
		DropRateBump: float64(s.Params.DropRateBump),

		SpeedMean: mean,
		SpeedStd:  std,
		SpeedP10:  p10,
		SpeedP50:  p50,
		SpeedP90:  p90,

		Coverage: s.Coverage,
	}

	// Reset for next window
	c.windowStartFrame = currentFrame
	c.dropsAtStart = s.Drops
	c.frames = 0
	c.skipped = 0

	return stats
}

// WindowDurationFrames returns the number of frames per window.
func (c *Collector) WindowDurationFrames() uint64 {
	return c.windowDurationFrames
}
