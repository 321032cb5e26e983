package engine

import (
	"github.com/pthm-cable/windfield/gpu"
)

// ParticleSet is a pair of position buffers of identical length (N x 2 floats).
// The buffers trade the current and next roles each frame; no data moves.
type ParticleSet struct {
	count   int
	buffers [2]*gpu.Buffer
	current int
}

func newParticleSet(dev *gpu.Device, pos []float32) (*ParticleSet, error) {
	a, err := dev.NewBuffer(pos, "positions_a")
	if err != nil {
		return nil, err
	}
	b, err := dev.NewBuffer(pos, "positions_b")
	if err != nil {
		releaseNow(dev, a)
		return nil, err
	}
	return &ParticleSet{count: len(pos) / 2, buffers: [2]*gpu.Buffer{a, b}}, nil
}

// Count returns the number of particles.
func (p *ParticleSet) Count() int { return p.count }

// Current is the buffer holding the latest positions.
func (p *ParticleSet) Current() *gpu.Buffer { return p.buffers[p.current] }

// Next is the buffer the next advection pass writes.
func (p *ParticleSet) Next() *gpu.Buffer { return p.buffers[1-p.current] }

func (p *ParticleSet) swap() { p.current = 1 - p.current }

func (p *ParticleSet) release(cb *gpu.CommandBuffer) {
	cb.Release(p.buffers[0])
	cb.Release(p.buffers[1])
}
