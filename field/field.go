// Package field holds the wind raster the particles are advected through.
//
// A VectorField stores a grid of byte-encoded (u, v) velocity samples in the R and G
// channels of an RGBA8 raster. Each byte is a linear remap of [min, max] for its axis.
package field

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/pthm-cable/windfield/gpu"
)

// ErrInvalidField is returned when raster data does not match its declared shape
// or its bounds are unusable.
var ErrInvalidField = errors.New("invalid field data")

// Bounds are the per-axis velocity ranges encoded by the raster bytes.
type Bounds struct {
	UMin float32 `json:"uMin" yaml:"u_min"`
	UMax float32 `json:"uMax" yaml:"u_max"`
	VMin float32 `json:"vMin" yaml:"v_min"`
	VMax float32 `json:"vMax" yaml:"v_max"`
}

// Validate checks that all bounds are finite and ordered.
func (b Bounds) Validate() error {
	for _, v := range []float32{b.UMin, b.UMax, b.VMin, b.VMax} {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite bounds %+v", ErrInvalidField, b)
		}
	}
	if b.UMin > b.UMax || b.VMin > b.VMax {
		return fmt.Errorf("%w: bounds min > max %+v", ErrInvalidField, b)
	}
	return nil
}

// MaxSpeed is the length of the (uMax, vMax) corner, the normalizer for speed_t.
func (b Bounds) MaxSpeed() float32 {
	return math32.Hypot(b.UMax, b.VMax)
}

// VectorField is an immutable wind raster. Replacing the wind means building a new one.
type VectorField struct {
	Width  int
	Height int
	Bounds Bounds
	Pix    []uint8 // RGBA8, row-major from the top row, R = u, G = v
}

// New validates and copies raster data into a VectorField.
func New(width, height int, bounds Bounds, pix []uint8) (*VectorField, error) {
	f := &VectorField{Width: width, Height: height, Bounds: bounds, Pix: pix}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	f.Pix = make([]uint8, len(pix))
	copy(f.Pix, pix)
	return f, nil
}

// Validate checks the raster against its declared shape and the bounds.
func (f *VectorField) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidField, f.Width, f.Height)
	}
	if len(f.Pix) != f.Width*f.Height*4 {
		return fmt.Errorf("%w: %dx%d raster needs %d bytes, got %d",
			ErrInvalidField, f.Width, f.Height, f.Width*f.Height*4, len(f.Pix))
	}
	return f.Bounds.Validate()
}

// Size implements gpu.Sampler.
func (f *VectorField) Size() (int, int) {
	return f.Width, f.Height
}

// Fetch implements gpu.Sampler with repeat wrapping on both axes.
func (f *VectorField) Fetch(x, y int) gpu.Color {
	x %= f.Width
	if x < 0 {
		x += f.Width
	}
	y %= f.Height
	if y < 0 {
		y += f.Height
	}
	i := (y*f.Width + x) * 4
	return gpu.Color{
		float32(f.Pix[i]) / 255,
		float32(f.Pix[i+1]) / 255,
		float32(f.Pix[i+2]) / 255,
		float32(f.Pix[i+3]) / 255,
	}
}

// Velocity samples the field at normalized position (u, v) on the host.
func (f *VectorField) Velocity(u, v float32) Vec2 {
	r, g := Bilinear(f, u, v)
	return Remap(f.Bounds, r, g)
}

// TextureDesc is the allocation used when uploading the raster to a device.
func (f *VectorField) TextureDesc() gpu.TextureDesc {
	return gpu.TextureDesc{Width: f.Width, Height: f.Height, Wrap: gpu.WrapRepeat, Label: "wind"}
}
