package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/windfield/config"
	"github.com/pthm-cable/windfield/telemetry"
)

func TestParamVectorRoundTrip(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	pv := NewParamVector(cfg)

	def := pv.DefaultVector()
	sim := cfg.Simulation
	assert.Equal(t, []float64{sim.FadeOpacity, sim.SpeedFactor, sim.DropRate, sim.DropRateBump}, def)

	back := pv.Denormalize(pv.Normalize(def))
	for i := range def {
		assert.InDelta(t, def[i], back[i], 1e-12, pv.Specs[i].Name)
	}
}

func TestApplyToConfigClamps(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	pv := NewParamVector(cfg)

	pv.ApplyToConfig(cfg, []float64{2, -1, 0.05, 0.1})
	assert.Equal(t, cfg.UI.FadeOpacity.Max, cfg.Simulation.FadeOpacity)
	assert.Equal(t, cfg.UI.SpeedFactor.Min, cfg.Simulation.SpeedFactor)
	assert.Equal(t, float32(cfg.UI.FadeOpacity.Max), cfg.Derived.Params.FadeOpacity)
	assert.Equal(t, float32(0.05), cfg.Derived.Params.DropRate)
	assert.NoError(t, cfg.Derived.Params.Validate())
}

func windowsWith(coverage, drops []float64) []telemetry.WindowStats {
	out := make([]telemetry.WindowStats, len(coverage))
	for i := range coverage {
		out[i] = telemetry.WindowStats{Coverage: coverage[i], DropFraction: drops[i]}
	}
	return out
}

func TestComputeFitness(t *testing.T) {
	target := Targets{Coverage: 0.4, DropFraction: 0.01}

	// Warmup windows are ignored, so wild early values do not count.
	onTarget := windowsWith(
		[]float64{0, 0.9, 0.4, 0.4, 0.4},
		[]float64{1, 1, 0.01, 0.01, 0.01},
	)
	assert.InDelta(t, 0, computeFitness(onTarget, target), 1e-12)

	offTarget := windowsWith(
		[]float64{0, 0, 0.2, 0.2, 0.2},
		[]float64{0, 0, 0.01, 0.01, 0.01},
	)
	// Coverage is half the target: relative error 0.5 squared.
	assert.InDelta(t, 0.25, computeFitness(offTarget, target), 1e-12)

	drifting := windowsWith(
		[]float64{0, 0, 0.3, 0.5},
		[]float64{0, 0, 0.01, 0.01},
	)
	assert.Greater(t, computeFitness(drifting, target), 0.0, "drift is penalized even when the mean is on target")

	assert.Equal(t, failedFitness, computeFitness(onTarget[:2], target))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1m05s", formatDuration(65_000_000_000))
}
