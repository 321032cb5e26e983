package engine

import (
	"sync/atomic"

	"github.com/chewxy/math32"

	"github.com/pthm-cable/windfield/field"
	"github.com/pthm-cable/windfield/gpu"
)

// minDistortion keeps the longitude correction finite at the poles, where
// cos(latitude) reaches zero.
const minDistortion = 1e-3

// advectUniforms is everything the advection pass reads besides positions.
type advectUniforms struct {
	wind   gpu.Sampler
	bounds field.Bounds
	params Params
	seed   float32
}

// advectKernel returns the transform pass that moves every particle one frame
// through the wind. Respawned particles are added to drops.
func advectKernel(u advectUniforms, drops *atomic.Int64) gpu.TransformKernel {
	return func(start, end int, src, dst []float32) {
		var dropped int64
		for i := start; i < end; i++ {
			x, y, drop := advectParticle(u, src[2*i], src[2*i+1])
			dst[2*i] = x
			dst[2*i+1] = y
			if drop {
				dropped++
			}
		}
		if dropped > 0 {
			drops.Add(dropped)
		}
	}
}

// advectParticle is the per-particle update. It is a pure function of its
// inputs, so a fixed seed reproduces the same frame.
func advectParticle(u advectUniforms, x, y float32) (nx, ny float32, dropped bool) {
	r, g := field.Bilinear(u.wind, x, y)
	vel := field.Remap(u.bounds, r, g)
	speedT := field.SpeedT(vel, u.bounds)

	scale := u.params.SpeedFactor * u.params.SpeedScale
	nx = fract(x + vel.X/distortion(y)*scale)
	ny = fract(y - vel.Y*scale)

	dropRate := u.params.DropRate + speedT*u.params.DropRateBump
	if dropRate <= 0 {
		return nx, ny, false
	}
	// The drop hash is seeded by the moved position.
	sx, sy := nx*u.seed, ny*u.seed
	if hash(sx, sy) < 1-dropRate {
		return nx, ny, false
	}
	return hash(sx+1.3, sy+1.3), hash(sx+2.1, sy+2.1), true
}

// distortion is the horizontal stretch of an equirectangular raster at
// normalized latitude y (0 at the top edge).
func distortion(y float32) float32 {
	d := math32.Cos((y*180 - 90) * math32.Pi / 180)
	if d < minDistortion {
		return minDistortion
	}
	return d
}

// hash is the classic sin-fract noise used for per-particle randomness.
// The result is in [0, 1).
func hash(x, y float32) float32 {
	t := 12.9898*x + 78.233*y
	return fract(math32.Sin(t) * (4375.85453 + t))
}

// fract wraps v into [0, 1). Values already in range come back unchanged.
func fract(v float32) float32 {
	f := v - math32.Floor(v)
	if f >= 1 {
		return 0
	}
	return f
}
