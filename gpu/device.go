// Package gpu is a software implementation of the small GPU surface the particle
// engine drives: buffers, RGBA8 textures, a default surface, and an ordered
// command queue executed by a single goroutine with a worker pool behind it.
//
// Host methods on Device are meant to be called from one goroutine (the frame
// loop). Submitted work runs asynchronously but strictly in submission order.
package gpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrAllocation is returned when a buffer or texture cannot be created.
	ErrAllocation = errors.New("gpu: allocation failed")
	// ErrDeviceClosed is returned for work submitted after Close.
	ErrDeviceClosed = errors.New("gpu: device closed")
)

// Config holds device limits and scheduling parameters.
type Config struct {
	Workers        int   // Kernel worker goroutines (0 = GOMAXPROCS)
	MaxTextureSize int   // Largest allowed texture dimension
	MemoryBudget   int64 // Total bytes of live buffers and textures (0 = unlimited)
	QueueDepth     int   // Command buffers that may be pending before Submit blocks
	Logger         *slog.Logger
}

// DefaultConfig returns limits comparable to a modest WebGL2 context.
func DefaultConfig() Config {
	return Config{
		MaxTextureSize: 8192,
		MemoryBudget:   512 << 20,
		QueueDepth:     4,
	}
}

type resourceKind uint8

const (
	kindBuffer resourceKind = iota
	kindTexture
)

// Stats reports live allocations.
type Stats struct {
	AllocatedBytes int64
	Buffers        int
	Textures       int
}

// Device owns all GPU resources and the command queue that mutates them.
type Device struct {
	cfg  Config
	log  *slog.Logger
	pool *workerPool

	queue chan *CommandBuffer
	done  chan struct{}

	mu        sync.Mutex
	allocated int64
	buffers   int
	textures  int
	closed    bool

	surface *Texture

	timingsMu sync.Mutex
	timings   map[string]time.Duration

	// Scratch for DrawPoints, only touched by the queue goroutine.
	pointColors []Color
	pointIndex  []int32
}

// NewDevice creates a device with a default surface of the given size.
func NewDevice(cfg Config, width, height int) (*Device, error) {
	if cfg.MaxTextureSize <= 0 {
		cfg.MaxTextureSize = DefaultConfig().MaxTextureSize
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = DefaultConfig().QueueDepth
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Device{
		cfg:     cfg,
		log:     logger,
		pool:    newWorkerPool(cfg.Workers),
		queue:   make(chan *CommandBuffer, cfg.QueueDepth),
		done:    make(chan struct{}),
		timings: make(map[string]time.Duration),
	}

	surface, err := d.NewTexture(TextureDesc{Width: width, Height: height, Label: "surface"}, nil)
	if err != nil {
		return nil, fmt.Errorf("creating surface: %w", err)
	}
	d.surface = surface

	d.pool.start()
	go d.run()

	return d, nil
}

// run executes command buffers in submission order until the queue is closed.
func (d *Device) run() {
	defer close(d.done)

	for cb := range d.queue {
		for i := range cb.cmds {
			cmd := &cb.cmds[i]
			start := time.Now()
			cmd.exec(d)
			if cmd.label != "" {
				d.recordTiming(cmd.label, time.Since(start))
			}
		}
		if cb.fence != nil {
			close(cb.fence)
		}
	}
}

func (d *Device) recordTiming(label string, dur time.Duration) {
	d.timingsMu.Lock()
	d.timings[label] += dur
	d.timingsMu.Unlock()
}

// PassTimings returns the execution time accumulated per labeled pass since the
// previous call, and resets the accumulator. Safe to call from any goroutine.
func (d *Device) PassTimings() map[string]time.Duration {
	d.timingsMu.Lock()
	defer d.timingsMu.Unlock()
	out := d.timings
	d.timings = make(map[string]time.Duration, len(out))
	return out
}

// NewBuffer allocates a buffer initialized with a copy of data.
func (d *Device) NewBuffer(data []float32, label string) (*Buffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: buffer %q is empty", ErrAllocation, label)
	}
	b := &Buffer{label: label}
	if err := d.reserve(int64(len(data))*4, kindBuffer); err != nil {
		return nil, fmt.Errorf("buffer %q: %w", label, err)
	}
	b.data = make([]float32, len(data))
	copy(b.data, data)
	return b, nil
}

// NewTexture allocates a texture. pix may be nil for a transparent texture,
// otherwise it must hold exactly Width*Height*4 bytes and is copied.
func (d *Device) NewTexture(desc TextureDesc, pix []uint8) (*Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("%w: texture %q has size %dx%d", ErrAllocation, desc.Label, desc.Width, desc.Height)
	}
	if desc.Width > d.cfg.MaxTextureSize || desc.Height > d.cfg.MaxTextureSize {
		return nil, fmt.Errorf("%w: texture %q size %dx%d exceeds max %d",
			ErrAllocation, desc.Label, desc.Width, desc.Height, d.cfg.MaxTextureSize)
	}
	n := desc.Width * desc.Height * 4
	if pix != nil && len(pix) != n {
		return nil, fmt.Errorf("%w: texture %q expects %d bytes, got %d", ErrAllocation, desc.Label, n, len(pix))
	}
	if err := d.reserve(int64(n), kindTexture); err != nil {
		return nil, fmt.Errorf("texture %q: %w", desc.Label, err)
	}
	t := &Texture{desc: desc, pix: make([]uint8, n)}
	if pix != nil {
		copy(t.pix, pix)
	}
	return t, nil
}

func (d *Device) reserve(n int64, kind resourceKind) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	if d.cfg.MemoryBudget > 0 && d.allocated+n > d.cfg.MemoryBudget {
		return fmt.Errorf("%w: out of memory (%d + %d > %d bytes)", ErrAllocation, d.allocated, n, d.cfg.MemoryBudget)
	}
	d.allocated += n
	if kind == kindBuffer {
		d.buffers++
	} else {
		d.textures++
	}
	return nil
}

func (d *Device) free(n int64, kind resourceKind) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.allocated -= n
	if kind == kindBuffer {
		d.buffers--
	} else {
		d.textures--
	}
}

// Stats returns the current allocation counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Stats{AllocatedBytes: d.allocated, Buffers: d.buffers, Textures: d.textures}
}

// Surface returns the default framebuffer.
func (d *Device) Surface() *Texture {
	return d.surface
}

// ResizeSurface replaces the default framebuffer with a cleared one of the new size.
// Outstanding work is finished first so no queued pass writes a released surface.
// On failure the previous surface is kept.
func (d *Device) ResizeSurface(width, height int) error {
	if w, h := d.surface.Size(); w == width && h == height {
		return nil
	}
	if err := d.Finish(); err != nil {
		return err
	}
	surface, err := d.NewTexture(TextureDesc{Width: width, Height: height, Label: "surface"}, nil)
	if err != nil {
		return fmt.Errorf("resizing surface: %w", err)
	}
	d.surface.release(d)
	d.surface = surface
	return nil
}

// Submit enqueues a command buffer for execution and returns without waiting.
func (d *Device) Submit(cb *CommandBuffer) error {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return ErrDeviceClosed
	}
	d.queue <- cb
	return nil
}

// Finish blocks until all previously submitted work has executed.
func (d *Device) Finish() error {
	fence := make(chan struct{})
	if err := d.Submit(&CommandBuffer{fence: fence}); err != nil {
		return err
	}
	<-fence
	return nil
}

// ReadBuffer waits for outstanding work and returns a copy of the buffer contents.
func (d *Device) ReadBuffer(b *Buffer) ([]float32, error) {
	if err := d.Finish(); err != nil {
		return nil, err
	}
	out := make([]float32, len(b.data))
	copy(out, b.data)
	return out, nil
}

// ReadPixels waits for outstanding work and returns a copy of the texture bytes.
func (d *Device) ReadPixels(t *Texture) ([]uint8, error) {
	if err := d.Finish(); err != nil {
		return nil, err
	}
	out := make([]uint8, len(t.pix))
	copy(out, t.pix)
	return out, nil
}

// Close drains the queue, stops the workers and releases the surface.
// Resources still held by callers become unusable.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	close(d.queue)
	<-d.done
	d.pool.stop()

	d.log.Debug("gpu device closed", "leaked_bytes", d.Stats().AllocatedBytes-d.surface.bytes())
	return nil
}
