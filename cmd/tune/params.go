package main

import (
	"github.com/pthm-cable/windfield/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector bounds each parameter by the control panel's slider range and
// starts from the base config's values.
func NewParamVector(cfg *config.Config) *ParamVector {
	sim := cfg.Simulation
	ui := cfg.UI
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "fade_opacity", Path: "simulation.fade_opacity", Min: ui.FadeOpacity.Min, Max: ui.FadeOpacity.Max, Default: sim.FadeOpacity},
			{Name: "speed_factor", Path: "simulation.speed_factor", Min: ui.SpeedFactor.Min, Max: ui.SpeedFactor.Max, Default: sim.SpeedFactor},
			{Name: "drop_rate", Path: "simulation.drop_rate", Min: ui.DropRate.Min, Max: ui.DropRate.Max, Default: sim.DropRate},
			{Name: "drop_rate_bump", Path: "simulation.drop_rate_bump", Min: ui.DropRateBump.Min, Max: ui.DropRateBump.Max, Default: sim.DropRateBump},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		if spec.Max == spec.Min {
			continue
		}
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig writes clamped values into the simulation section and the
// derived engine parameters. Order must match Specs.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)

	cfg.Simulation.FadeOpacity = c[0]
	cfg.Simulation.SpeedFactor = c[1]
	cfg.Simulation.DropRate = c[2]
	cfg.Simulation.DropRateBump = c[3]

	cfg.Derived.Params.FadeOpacity = float32(c[0])
	cfg.Derived.Params.SpeedFactor = float32(c[1])
	cfg.Derived.Params.DropRate = float32(c[2])
	cfg.Derived.Params.DropRateBump = float32(c[3])
}
