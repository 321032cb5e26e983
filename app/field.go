package app

import (
	"fmt"

	"github.com/pthm-cable/windfield/config"
	"github.com/pthm-cable/windfield/field"
)

// LoadField loads the configured wind field: files when meta and image are set,
// otherwise the named synthetic pattern. An empty synthetic name yields no field.
func LoadField(cfg config.WindConfig) (*field.VectorField, error) {
	if cfg.Meta != "" || cfg.Image != "" {
		f, err := field.Load(cfg.Meta, cfg.Image)
		if err != nil {
			return nil, fmt.Errorf("loading wind %s: %w", cfg.Image, err)
		}
		return f, nil
	}
	if cfg.Synthetic == "" {
		return nil, nil
	}
	return synthesize(cfg, cfg.Synthetic)
}

func synthesize(cfg config.WindConfig, name string) (*field.VectorField, error) {
	kind, err := field.ParseKind(name)
	if err != nil {
		return nil, err
	}
	return field.Synthesize(kind, cfg.SyntheticWidth, cfg.SyntheticHeight)
}
