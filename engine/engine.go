// Package engine advects a particle set through a wind field and composites the
// particles into fading trails on a gpu.Device.
//
// An Engine is driven from a single goroutine: Draw once per display refresh,
// mutators only between frames. Draw records and submits the frame's passes
// without waiting for them to run.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"

	"github.com/pthm-cable/windfield/colorramp"
	"github.com/pthm-cable/windfield/field"
	"github.com/pthm-cable/windfield/gpu"
)

// Options configures a new Engine. Zero values select defaults.
type Options struct {
	Params        Params          // Zero value = DefaultParams()
	ParticleCount int             // 0 = DefaultParticleCount
	Ramp          *colorramp.Ramp // nil = colorramp.DefaultStops()
	Seed          int64           // Seeds particle placement and per-frame drop seeds
	Logger        *slog.Logger
}

// Frame describes one Draw call.
type Frame struct {
	Index     uint64  // Sequence number of the Draw call
	Seed      float32 // Drop seed the advection pass used
	Particles int     // Particles advected
	Skipped   bool    // Nothing was submitted
	Reason    string  // Why the frame was skipped
}

// LogValue implements slog.LogValuer.
func (f Frame) LogValue() slog.Value {
	if f.Skipped {
		return slog.GroupValue(
			slog.Uint64("index", f.Index),
			slog.Bool("skipped", true),
			slog.String("reason", f.Reason),
		)
	}
	return slog.GroupValue(
		slog.Uint64("index", f.Index),
		slog.Float64("seed", float64(f.Seed)),
		slog.Int("particles", f.Particles),
	)
}

// Engine owns every resource the simulation allocates on its device.
type Engine struct {
	dev *gpu.Device
	log *slog.Logger
	rng *rand.Rand

	params    Params
	particles *ParticleSet
	targets   *RenderTargetPair
	comp      *Compositor

	field *field.VectorField
	wind  *gpu.Texture

	frames uint64
	drawn  uint64
	drops  atomic.Int64
	closed bool
}

// New builds an engine on dev with render targets matching the device surface.
// f may be nil; frames are skipped until a field is set.
func New(dev *gpu.Device, f *field.VectorField, opts Options) (*Engine, error) {
	params := opts.Params
	if params == (Params{}) {
		params = DefaultParams()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	count := opts.ParticleCount
	if count == 0 {
		count = DefaultParticleCount
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: particle count %d", ErrParameterOutOfRange, count)
	}
	ramp := opts.Ramp
	if ramp == nil {
		var err error
		if ramp, err = colorramp.Build(colorramp.DefaultStops()); err != nil {
			return nil, err
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		dev:    dev,
		log:    logger,
		rng:    rand.New(rand.NewSource(opts.Seed)),
		params: params,
	}

	var err error
	if e.comp, err = NewCompositor(dev, ramp); err != nil {
		return nil, allocErr(err)
	}
	w, h := dev.Surface().Size()
	if e.targets, err = newRenderTargetPair(dev, w, h); err != nil {
		e.Close()
		return nil, allocErr(err)
	}
	if e.particles, err = newParticleSet(dev, e.randomPositions(count)); err != nil {
		e.Close()
		return nil, allocErr(err)
	}
	if f != nil {
		if err := e.SetField(f); err != nil {
			e.Close()
			return nil, err
		}
	}

	e.log.Info("engine created", "particles", count, "width", w, "height", h, "params", params)
	return e, nil
}

func allocErr(err error) error {
	return fmt.Errorf("%w: %w", ErrResourceAllocation, err)
}

// randomPositions draws count uniform positions in [0, 1)².
func (e *Engine) randomPositions(count int) []float32 {
	pos := make([]float32, count*2)
	for i := range pos {
		pos[i] = e.rng.Float32()
	}
	return pos
}

// Draw advances and composites one frame with a drop seed from the engine's RNG.
func (e *Engine) Draw() (Frame, error) {
	return e.DrawSeeded(e.rng.Float32())
}

// DrawSeeded advances and composites one frame using the given drop seed.
//
// With no field set the frame is skipped and the error is nil. If the render
// targets no longer match the surface the frame is skipped with ErrFrameSkipped.
// A skipped frame submits nothing, so trail state is untouched.
func (e *Engine) DrawSeeded(seed float32) (Frame, error) {
	e.frames++
	fr := Frame{Index: e.frames, Seed: seed}

	if e.closed {
		fr.Skipped, fr.Reason = true, "engine closed"
		return fr, fmt.Errorf("%w: %s", ErrFrameSkipped, fr.Reason)
	}
	if e.field == nil {
		fr.Skipped, fr.Reason = true, "no field"
		e.log.Debug("frame skipped", "frame", fr)
		return fr, nil
	}
	surface := e.dev.Surface()
	sw, sh := surface.Size()
	if tw, th := e.targets.Size(); tw != sw || th != sh {
		fr.Skipped, fr.Reason = true, "targets do not match surface"
		e.log.Debug("frame skipped", "frame", fr, "surface_w", sw, "surface_h", sh)
		return fr, fmt.Errorf("%w: targets %dx%d, surface %dx%d", ErrFrameSkipped, tw, th, sw, sh)
	}

	p := e.params
	n := e.particles.Count()
	cur, next := e.particles.Current(), e.particles.Next()
	bg, screen := e.targets.Background(), e.targets.Screen()
	wind, bounds := e.wind, e.field.Bounds

	cb := e.dev.NewCommandBuffer()
	cb.Clear(surface, SurfaceClear)
	cb.Transform("advect", cur, next, n, advectKernel(advectUniforms{
		wind:   wind,
		bounds: bounds,
		params: p,
		seed:   seed,
	}, &e.drops))
	e.comp.fade(cb, bg, screen, p.FadeOpacity)
	e.comp.drawPoints(cb, screen, next, n, wind, bounds)
	e.comp.present(cb, screen, surface)

	if err := e.dev.Submit(cb); err != nil {
		fr.Skipped, fr.Reason = true, err.Error()
		return fr, fmt.Errorf("%w: %w", ErrFrameSkipped, err)
	}

	e.particles.swap()
	e.targets.swap()
	e.drawn++
	fr.Particles = n
	return fr, nil
}

// SetParticleCount replaces the particle set with n freshly seeded particles.
// Parameters, field and trails are kept. On error the previous set stays.
func (e *Engine) SetParticleCount(n int) (*ParticleSet, error) {
	if n <= 0 {
		e.log.Warn("particle count rejected", "count", n)
		return nil, fmt.Errorf("%w: particle count %d must be > 0", ErrParameterOutOfRange, n)
	}
	return e.replaceParticles(e.randomPositions(n))
}

// SetPositions replaces the particle set with explicit positions, given as
// x, y pairs in [0, 1).
func (e *Engine) SetPositions(pos []float32) (*ParticleSet, error) {
	if len(pos) == 0 || len(pos)%2 != 0 {
		return nil, fmt.Errorf("%w: %d position values is not a positive number of pairs", ErrParameterOutOfRange, len(pos))
	}
	for i, v := range pos {
		if !(v >= 0 && v < 1) {
			return nil, fmt.Errorf("%w: position value %d = %v outside [0, 1)", ErrParameterOutOfRange, i, v)
		}
	}
	return e.replaceParticles(pos)
}

func (e *Engine) replaceParticles(pos []float32) (*ParticleSet, error) {
	set, err := newParticleSet(e.dev, pos)
	if err != nil {
		e.log.Warn("particle reseed failed", "count", len(pos)/2, "error", err)
		return nil, allocErr(err)
	}
	old := e.particles
	e.particles = set
	e.retire(old.release)
	e.log.Info("particles reseeded", "count", set.Count())
	return set, nil
}

// Resize reallocates both render targets and the surface at the new size,
// cleared to transparent. Particles and field are kept. On error nothing changes.
func (e *Engine) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		e.log.Warn("resize rejected", "width", width, "height", height)
		return fmt.Errorf("%w: size %dx%d", ErrParameterOutOfRange, width, height)
	}
	pair, err := newRenderTargetPair(e.dev, width, height)
	if err != nil {
		return allocErr(err)
	}
	if err := e.dev.ResizeSurface(width, height); err != nil {
		e.retire(pair.release)
		return allocErr(err)
	}
	old := e.targets
	e.targets = pair
	e.retire(old.release)
	e.log.Info("targets resized", "width", width, "height", height)
	return nil
}

// SetField uploads f and makes it the wind for the next frame.
// On error the previous field stays.
func (e *Engine) SetField(f *field.VectorField) error {
	if f == nil {
		return fmt.Errorf("%w: nil field", ErrInvalidField)
	}
	if err := f.Validate(); err != nil {
		e.log.Warn("field rejected", "error", err)
		return err
	}
	tex, err := e.dev.NewTexture(f.TextureDesc(), f.Pix)
	if err != nil {
		return allocErr(err)
	}
	old := e.wind
	e.field, e.wind = f, tex
	if old != nil {
		e.retire(func(cb *gpu.CommandBuffer) { cb.Release(old) })
	}
	e.log.Info("field replaced", "width", f.Width, "height", f.Height, "bounds", f.Bounds)
	return nil
}

// LoadField validates raw raster data and sets it as the field.
func (e *Engine) LoadField(width, height int, bounds field.Bounds, pix []uint8) error {
	f, err := field.New(width, height, bounds, pix)
	if err != nil {
		e.log.Warn("field rejected", "error", err)
		return err
	}
	return e.SetField(f)
}

// SetParams replaces all parameters. Invalid sets are rejected whole.
func (e *Engine) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		e.log.Warn("params rejected", "params", p, "error", err)
		return err
	}
	e.params = p
	return nil
}

// SetFadeOpacity sets the trail decay multiplier, in (0, 1).
func (e *Engine) SetFadeOpacity(v float32) error {
	p := e.params
	p.FadeOpacity = v
	return e.SetParams(p)
}

// SetSpeedFactor sets the displacement multiplier, > 0.
func (e *Engine) SetSpeedFactor(v float32) error {
	p := e.params
	p.SpeedFactor = v
	return e.SetParams(p)
}

// SetDropRate sets the base respawn probability, in [0, 1].
func (e *Engine) SetDropRate(v float32) error {
	p := e.params
	p.DropRate = v
	return e.SetParams(p)
}

// SetDropRateBump sets the extra respawn probability at max speed, >= 0.
func (e *Engine) SetDropRateBump(v float32) error {
	p := e.params
	p.DropRateBump = v
	return e.SetParams(p)
}

// Params returns the current parameters.
func (e *Engine) Params() Params { return e.params }

// ParticleCount returns the number of particles.
func (e *Engine) ParticleCount() int { return e.particles.Count() }

// Particles returns the live particle set.
func (e *Engine) Particles() *ParticleSet { return e.particles }

// Targets returns the live render target pair.
func (e *Engine) Targets() *RenderTargetPair { return e.targets }

// Field returns the current field, or nil if none is set.
func (e *Engine) Field() *field.VectorField { return e.field }

// Device returns the device the engine draws on.
func (e *Engine) Device() *gpu.Device { return e.dev }

// FramesDrawn returns the number of frames submitted.
func (e *Engine) FramesDrawn() uint64 { return e.drawn }

// Drops returns the total number of particles respawned by executed frames.
func (e *Engine) Drops() int64 { return e.drops.Load() }

// Positions waits for submitted frames and returns a copy of the latest positions.
func (e *Engine) Positions() ([]float32, error) {
	return e.dev.ReadBuffer(e.particles.Current())
}

// Speeds waits for submitted frames and returns each particle's wind speed in
// field units at its latest position. It returns nil without a field.
func (e *Engine) Speeds() ([]float64, error) {
	if e.field == nil {
		return nil, nil
	}
	pos, err := e.Positions()
	if err != nil {
		return nil, err
	}
	speeds := make([]float64, len(pos)/2)
	for i := range speeds {
		speeds[i] = float64(e.field.Velocity(pos[2*i], pos[2*i+1]).Len())
	}
	return speeds, nil
}

// Close releases everything the engine allocated and waits for the device to
// finish. The device itself stays open.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	cb := e.dev.NewCommandBuffer()
	if e.particles != nil {
		e.particles.release(cb)
	}
	if e.targets != nil {
		e.targets.release(cb)
	}
	if e.comp != nil {
		e.comp.release(cb)
	}
	if e.wind != nil {
		cb.Release(e.wind)
	}
	if err := e.dev.Submit(cb); err != nil {
		return err
	}
	return e.dev.Finish()
}

// retire queues resources for release after all work already submitted.
func (e *Engine) retire(record func(cb *gpu.CommandBuffer)) {
	cb := e.dev.NewCommandBuffer()
	record(cb)
	if err := e.dev.Submit(cb); err != nil {
		e.log.Warn("releasing resources", "error", err)
	}
}
