package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/windfield/engine"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, engine.DefaultParams(), cfg.Derived.Params)
	assert.Equal(t, engine.DefaultParticleCount, cfg.Particles.Count)
	assert.Len(t, cfg.ColorRamp, 8)
	assert.Equal(t, "#3288bd", cfg.ColorRamp[0].Color)
	assert.InDelta(t, 1.0/60, cfg.Derived.DT, 1e-12)
	assert.Equal(t, int64(512)<<20, cfg.Derived.GPU.MemoryBudget)
	assert.Positive(t, cfg.Derived.GPU.Workers)
	assert.Equal(t, Range{Min: 0.96, Max: 0.999}, cfg.UI.FadeOpacity)
}

func TestLoadMergesUserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wind.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
simulation:
  fade_opacity: 0.98
color_ramp:
  - { offset: 0, color: "#000000" }
  - { offset: 1, color: "#ffffff" }
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, float32(0.98), cfg.Derived.Params.FadeOpacity)
	assert.Equal(t, float32(engine.DefaultSpeedFactor), cfg.Derived.Params.SpeedFactor, "unset keys keep defaults")
	assert.Len(t, cfg.ColorRamp, 2, "a user ramp replaces the default list")
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"fade out of range", "simulation: { fade_opacity: 1.0 }"},
		{"zero particles", "particles: { count: 0 }"},
		{"bad ramp color", "color_ramp: [ { offset: 0, color: nope } ]"},
		{"half a wind source", "wind: { meta: wind.json }"},
		{"not yaml", "screen: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Simulation.SpeedFactor = 0.5

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), got.Derived.Params.SpeedFactor)
}

func TestInitAndCfg(t *testing.T) {
	prev := global
	t.Cleanup(func() { global = prev })

	global = nil
	assert.Panics(t, func() { Cfg() })
	MustInit("")
	assert.Equal(t, 1024, Cfg().Screen.Width)
}

func TestWatcherReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation: { speed_factor: 0.3 }\n"), 0644))

	w, err := NewWatcher(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(c *Config) { reloaded <- c }) }()

	// An invalid write is skipped; the following valid one is delivered.
	require.NoError(t, os.WriteFile(path, []byte("simulation: { fade_opacity: 2 }\n"), 0644))
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("simulation: { speed_factor: 0.7 }\n"), 0644))

	select {
	case c := <-reloaded:
		assert.Equal(t, float32(0.7), c.Derived.Params.SpeedFactor)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	assert.NoError(t, <-done)
}
