package engine

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/pthm-cable/windfield/colorramp"
	"github.com/pthm-cable/windfield/field"
	"github.com/pthm-cable/windfield/gpu"
)

// SurfaceClear is the color the visible surface is cleared to before present.
var SurfaceClear = gpu.Color{0, 0, 0, 1}

// Compositor records the trail passes: fade, points and present.
// It owns the uploaded color ramp.
type Compositor struct {
	ramp *gpu.Texture
}

// NewCompositor uploads the ramp and returns a compositor that tints points with it.
func NewCompositor(dev *gpu.Device, ramp *colorramp.Ramp) (*Compositor, error) {
	tex, err := dev.NewTexture(ramp.TextureDesc(), ramp.Pix)
	if err != nil {
		return nil, fmt.Errorf("uploading color ramp: %w", err)
	}
	return &Compositor{ramp: tex}, nil
}

// Ramp returns the ramp texture.
func (c *Compositor) Ramp() *gpu.Texture { return c.ramp }

// fade copies bg into screen with every channel scaled by opacity and quantized
// down to the next 8-bit step, so trails reach zero instead of decaying forever.
func (c *Compositor) fade(cb *gpu.CommandBuffer, bg, screen *gpu.Texture, opacity float32) {
	cb.DrawQuad("fade", screen, gpu.BlendDisabled, func(x, y int) gpu.Color {
		return quantize(bg.Texel(x, y), opacity)
	})
}

// drawPoints draws each particle as one pixel colored by its speed.
func (c *Compositor) drawPoints(cb *gpu.CommandBuffer, screen *gpu.Texture, positions *gpu.Buffer, count int, wind gpu.Sampler, bounds field.Bounds) {
	ramp := c.ramp
	cb.DrawPoints("points", screen, positions, count, gpu.BlendDisabled, func(x, y float32) (gpu.Color, bool) {
		r, g := field.Bilinear(wind, x, y)
		vel := field.Remap(bounds, r, g)
		return colorramp.Lookup(ramp, field.SpeedT(vel, bounds)), true
	})
}

// present blends screen over the surface at full opacity.
func (c *Compositor) present(cb *gpu.CommandBuffer, screen, surface *gpu.Texture) {
	cb.DrawQuad("present", surface, gpu.BlendAlpha, func(x, y int) gpu.Color {
		return quantize(screen.Texel(x, y), 1)
	})
}

func (c *Compositor) release(cb *gpu.CommandBuffer) {
	cb.Release(c.ramp)
}

// quantize scales 8-bit channels by opacity and floors to the 8-bit grid,
// the same as floor(255*color*opacity)/255 on normalized values.
func quantize(px [4]uint8, opacity float32) gpu.Color {
	return gpu.Color{
		math32.Floor(float32(px[0])*opacity) / 255,
		math32.Floor(float32(px[1])*opacity) / 255,
		math32.Floor(float32(px[2])*opacity) / 255,
		math32.Floor(float32(px[3])*opacity) / 255,
	}
}
