package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for one telemetry window.
type WindowStats struct {
	WindowStartFrame uint64  `csv:"-" json:"windowStart"`
	WindowEndFrame   uint64  `csv:"window_end" json:"windowEnd"`
	ElapsedSec       float64 `csv:"elapsed" json:"elapsed"`

	// Frames during window
	Frames  int `csv:"frames" json:"frames"`
	Skipped int `csv:"skipped" json:"skipped"`

	// Particles at window end
	Particles    int     `csv:"particles" json:"particles"`
	Drops        int64   `csv:"drops" json:"drops"`                // respawns during window
	DropFraction float64 `csv:"drop_fraction" json:"dropFraction"` // respawns per particle-frame

	// Parameters at window end
	FadeOpacity  float64 `csv:"fade_opacity" json:"fadeOpacity"`
	SpeedFactor  float64 `csv:"speed_factor" json:"speedFactor"`
	DropRate     float64 `csv:"drop_rate" json:"dropRate"`
	DropRateBump float64 `csv:"drop_rate_bump" json:"dropRateBump"`

	// Wind speed under the particles (field units), sampled at window end
	SpeedMean float64 `csv:"speed_mean" json:"speedMean"`
	SpeedStd  float64 `csv:"speed_std" json:"speedStd"`
	SpeedP10  float64 `csv:"speed_p10" json:"speedP10"`
	SpeedP50  float64 `csv:"speed_p50" json:"speedP50"`
	SpeedP90  float64 `csv:"speed_p90" json:"speedP90"`

	// Share of trail pixels with any alpha, sampled at window end
	Coverage float64 `csv:"coverage" json:"coverage"`
}

// ComputeSpeedStats calculates mean, sample standard deviation and the 10th,
// 50th and 90th percentiles. Returns zeros for an empty slice.
func ComputeSpeedStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}
	if n == 1 {
		return values[0], 0, values[0], values[0], values[0]
	}

	mean, std = stat.MeanStdDev(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = stat.Quantile(0.10, stat.LinInterp, sorted, nil)
	p50 = stat.Quantile(0.50, stat.LinInterp, sorted, nil)
	p90 = stat.Quantile(0.90, stat.LinInterp, sorted, nil)

	return mean, std, p10, p50, p90
}

// TrailCoverage returns the fraction of RGBA8 pixels with non-zero alpha.
func TrailCoverage(pix []uint8) float64 {
	n := len(pix) / 4
	if n == 0 {
		return 0
	}
	lit := 0
	for i := 3; i < len(pix); i += 4 {
		if pix[i] != 0 {
			lit++
		}
	}
	return float64(lit) / float64(n)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_start", s.WindowStartFrame),
		slog.Uint64("window_end", s.WindowEndFrame),
		slog.Float64("elapsed", s.ElapsedSec),
		slog.Int("frames", s.Frames),
		slog.Int("skipped", s.Skipped),
		slog.Int("particles", s.Particles),
		slog.Int64("drops", s.Drops),
		slog.Float64("drop_fraction", s.DropFraction),
		slog.Float64("fade_opacity", s.FadeOpacity),
		slog.Float64("speed_factor", s.SpeedFactor),
		slog.Float64("drop_rate", s.DropRate),
		slog.Float64("drop_rate_bump", s.DropRateBump),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("speed_p10", s.SpeedP10),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("coverage", s.Coverage),
	)
}
