package engine

import (
	"fmt"
	"log/slog"

	"github.com/chewxy/math32"
)

// Defaults match the classic wind visualization.
const (
	DefaultParticleCount = 65536
	DefaultFadeOpacity   = 0.996
	DefaultSpeedFactor   = 0.25
	DefaultDropRate      = 0.003
	DefaultDropRateBump  = 0.01

	// DefaultSpeedScale converts field units into normalized displacement per frame.
	// It is calibrated for fields in m/s over a whole-globe raster.
	DefaultSpeedScale = 0.0001
)

// Params are the per-frame simulation knobs.
type Params struct {
	FadeOpacity  float32 `json:"fadeOpacity" yaml:"fade_opacity"`    // Trail decay multiplier, (0, 1)
	SpeedFactor  float32 `json:"speedFactor" yaml:"speed_factor"`    // Displacement multiplier, > 0
	DropRate     float32 `json:"dropRate" yaml:"drop_rate"`          // Base respawn probability, [0, 1]
	DropRateBump float32 `json:"dropRateBump" yaml:"drop_rate_bump"` // Extra respawn probability at max speed, >= 0
	SpeedScale   float32 `json:"speedScale" yaml:"speed_scale"`      // Field units to normalized offset, > 0
}

// DefaultParams returns the default parameter set.
func DefaultParams() Params {
	return Params{
		FadeOpacity:  DefaultFadeOpacity,
		SpeedFactor:  DefaultSpeedFactor,
		DropRate:     DefaultDropRate,
		DropRateBump: DefaultDropRateBump,
		SpeedScale:   DefaultSpeedScale,
	}
}

// Validate reports the first parameter outside its domain.
func (p Params) Validate() error {
	for _, v := range []struct {
		name string
		val  float32
	}{
		{"fade_opacity", p.FadeOpacity},
		{"speed_factor", p.SpeedFactor},
		{"drop_rate", p.DropRate},
		{"drop_rate_bump", p.DropRateBump},
		{"speed_scale", p.SpeedScale},
	} {
		if math32.IsNaN(v.val) || math32.IsInf(v.val, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrParameterOutOfRange, v.name)
		}
	}
	if p.FadeOpacity <= 0 || p.FadeOpacity >= 1 {
		return fmt.Errorf("%w: fade_opacity %v not in (0, 1)", ErrParameterOutOfRange, p.FadeOpacity)
	}
	if p.SpeedFactor <= 0 {
		return fmt.Errorf("%w: speed_factor %v must be > 0", ErrParameterOutOfRange, p.SpeedFactor)
	}
	if p.DropRate < 0 || p.DropRate > 1 {
		return fmt.Errorf("%w: drop_rate %v not in [0, 1]", ErrParameterOutOfRange, p.DropRate)
	}
	if p.DropRateBump < 0 {
		return fmt.Errorf("%w: drop_rate_bump %v must be >= 0", ErrParameterOutOfRange, p.DropRateBump)
	}
	if p.SpeedScale <= 0 {
		return fmt.Errorf("%w: speed_scale %v must be > 0", ErrParameterOutOfRange, p.SpeedScale)
	}
	return nil
}

// LogValue implements slog.LogValuer.
func (p Params) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("fade_opacity", float64(p.FadeOpacity)),
		slog.Float64("speed_factor", float64(p.SpeedFactor)),
		slog.Float64("drop_rate", float64(p.DropRate)),
		slog.Float64("drop_rate_bump", float64(p.DropRateBump)),
		slog.Float64("speed_scale", float64(p.SpeedScale)),
	)
}
