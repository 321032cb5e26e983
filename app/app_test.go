package app

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/windfield/config"
	"github.com/pthm-cable/windfield/engine"
	"github.com/pthm-cable/windfield/telemetry"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Screen.Width, cfg.Screen.Height = 64, 32
	cfg.Particles.Count = 512
	cfg.Particles.Min = 16
	cfg.Particles.Max = 4096
	cfg.Wind.SyntheticWidth, cfg.Wind.SyntheticHeight = 36, 18
	cfg.GPU.Workers = 2
	cfg.Telemetry.PerfWindow = 16
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, opts Options) *App {
	t.Helper()
	opts.Logger = quietLogger
	a, err := New(cfg, opts)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func ptr[T any](v T) *T { return &v }

func TestStepDrawsFrames(t *testing.T) {
	a := newTestApp(t, testConfig(t), Options{})

	for i := 0; i < 10; i++ {
		fr, err := a.Step()
		require.NoError(t, err)
		assert.False(t, fr.Skipped)
	}
	assert.Equal(t, uint64(10), a.Frame())
	assert.Equal(t, uint64(10), a.Engine().FramesDrawn())
	assert.Positive(t, a.PerfStats().AvgFrameDuration)
}

func TestMissingFieldSkipsFrames(t *testing.T) {
	cfg := testConfig(t)
	cfg.Wind.Synthetic = ""
	a := newTestApp(t, cfg, Options{})

	fr, err := a.Step()
	require.NoError(t, err)
	assert.True(t, fr.Skipped)

	// A wind update brings the engine to life.
	a.Submit(ParamUpdate{Wind: ptr("zonal")})
	fr, err = a.Step()
	require.NoError(t, err)
	assert.False(t, fr.Skipped)
	assert.NotNil(t, a.Engine().Field())
}

func TestBadFieldFilesLeaveFieldUnset(t *testing.T) {
	cfg := testConfig(t)
	cfg.Wind.Meta = filepath.Join(t.TempDir(), "missing.json")
	cfg.Wind.Image = filepath.Join(t.TempDir(), "missing.png")
	a := newTestApp(t, cfg, Options{})

	assert.Nil(t, a.Engine().Field())
	fr, err := a.Step()
	require.NoError(t, err)
	assert.True(t, fr.Skipped)
}

func TestSubmitAppliesBetweenFrames(t *testing.T) {
	a := newTestApp(t, testConfig(t), Options{})
	before := a.Engine().Params()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Submit(ParamUpdate{SpeedFactor: ptr(float32(0.5))})
		}()
	}
	wg.Wait()
	a.Submit(ParamUpdate{FadeOpacity: ptr(float32(0.97)), Particles: ptr(1024)})

	assert.Equal(t, before, a.Engine().Params(), "updates must wait for the next frame")

	_, err := a.Step()
	require.NoError(t, err)
	p := a.Engine().Params()
	assert.Equal(t, float32(0.5), p.SpeedFactor)
	assert.Equal(t, float32(0.97), p.FadeOpacity)
	assert.Equal(t, before.DropRate, p.DropRate)
	assert.Equal(t, 1024, a.Engine().ParticleCount())
}

func TestApplyRejectsOutOfRange(t *testing.T) {
	a := newTestApp(t, testConfig(t), Options{})
	before := a.Engine().Params()

	err := a.apply(ParamUpdate{Particles: ptr(1 << 20)})
	assert.True(t, errors.Is(err, engine.ErrParameterOutOfRange))
	assert.Equal(t, 512, a.Engine().ParticleCount())

	// The bad fade rejects the whole parameter set, including the good speed.
	err = a.apply(ParamUpdate{FadeOpacity: ptr(float32(1.5)), SpeedFactor: ptr(float32(0.9))})
	assert.True(t, errors.Is(err, engine.ErrParameterOutOfRange))
	assert.Equal(t, before, a.Engine().Params())

	err = a.apply(ParamUpdate{Wind: ptr("hurricane")})
	assert.Error(t, err)
	assert.NotNil(t, a.Engine().Field())

	assert.NoError(t, a.apply(ParamUpdate{}))
}

func TestFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Simulation.DropRate = 0.05
	cfg.Particles.Count = 2048
	cfg.Derived.Params.DropRate = 0.05

	u := FromConfig(cfg)
	require.NotNil(t, u.DropRate)
	assert.Equal(t, float32(0.05), *u.DropRate)
	assert.Equal(t, 2048, *u.Particles)
	assert.Nil(t, u.Wind)
	assert.False(t, u.Empty())
	assert.True(t, ParamUpdate{}.Empty())
}

func TestStatsWindowAndOutput(t *testing.T) {
	dir := t.TempDir()
	a := newTestApp(t, testConfig(t), Options{OutputDir: dir, StatsWindowSec: 4.5 / 60})

	var windows []telemetry.WindowStats
	a.SetStatsCallback(func(s telemetry.WindowStats) { windows = append(windows, s) })

	for i := 0; i < 12; i++ {
		_, err := a.Step()
		require.NoError(t, err)
	}

	require.Len(t, windows, 3)
	w := windows[0]
	assert.Equal(t, 4, w.Frames)
	assert.Equal(t, 512, w.Particles)
	assert.Greater(t, w.SpeedMean, 0.0)
	assert.Greater(t, w.Coverage, 0.0)
	assert.LessOrEqual(t, w.Coverage, 1.0)

	require.NoError(t, a.Close())
	data, err := os.ReadFile(filepath.Join(dir, "stats.csv"))
	require.NoError(t, err)
	assert.Equal(t, 4, len(strings.Split(strings.TrimSpace(string(data)), "\n")))
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))
	assert.FileExists(t, filepath.Join(dir, "perf.csv"))
}

type capturePresenter struct {
	w, h int
	pix  []uint8
}

func (c *capturePresenter) Present(pix []uint8, w, h int) error {
	c.pix, c.w, c.h = pix, w, h
	return nil
}

func TestPresentAndResize(t *testing.T) {
	a := newTestApp(t, testConfig(t), Options{})

	_, err := a.Step()
	require.NoError(t, err)

	var p capturePresenter
	require.NoError(t, a.Present(&p))
	assert.Equal(t, 64, p.w)
	assert.Equal(t, 32, p.h)
	assert.Len(t, p.pix, 64*32*4)

	require.NoError(t, a.Resize(80, 40))
	fr, err := a.Step()
	require.NoError(t, err)
	assert.False(t, fr.Skipped)
	require.NoError(t, a.Present(&p))
	assert.Equal(t, 80, p.w)
}
