// Package colorramp builds the speed-to-color lookup used to tint particles.
package colorramp

import (
	"errors"
	"fmt"
	"sort"

	"github.com/chewxy/math32"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/pthm-cable/windfield/gpu"
)

const (
	// Width is the number of texels in the ramp.
	Width = 256
	// Side is the edge of the square texture the ramp is packed into.
	Side = 16
)

// ErrInvalidStops is returned when a stop table cannot produce a ramp.
var ErrInvalidStops = errors.New("invalid color stops")

// Stop is a named color at an offset in [0, 1].
type Stop struct {
	Offset float64 `yaml:"offset"`
	Color  string  `yaml:"color"`
}

// DefaultStops is the classic wind palette, blue through yellow to red.
func DefaultStops() []Stop {
	return []Stop{
		{0.0, "#3288bd"},
		{0.1, "#66c2a5"},
		{0.2, "#abdda4"},
		{0.3, "#e6f598"},
		{0.4, "#fee08b"},
		{0.5, "#fdae61"},
		{0.6, "#f46d43"},
		{1.0, "#d53e4f"},
	}
}

type parsedStop struct {
	offset float64
	color  colorful.Color
}

// Ramp is a 256-texel RGBA gradient packed row-major into a 16x16 grid.
type Ramp struct {
	Pix []uint8
}

// Build interpolates the stops linearly in RGB into a ramp.
// Texel i holds the gradient at offset i/255, so the first and last texels are
// exactly the colors at offsets 0 and 1. Offsets outside the stop range take the
// nearest stop's color.
func Build(stops []Stop) (*Ramp, error) {
	if len(stops) == 0 {
		return nil, fmt.Errorf("%w: no stops", ErrInvalidStops)
	}

	parsed := make([]parsedStop, 0, len(stops))
	for _, s := range stops {
		if s.Offset < 0 || s.Offset > 1 {
			return nil, fmt.Errorf("%w: offset %v outside [0,1]", ErrInvalidStops, s.Offset)
		}
		c, err := colorful.Hex(s.Color)
		if err != nil {
			return nil, fmt.Errorf("%w: color %q: %v", ErrInvalidStops, s.Color, err)
		}
		parsed = append(parsed, parsedStop{offset: s.Offset, color: c})
	}
	sort.SliceStable(parsed, func(i, j int) bool { return parsed[i].offset < parsed[j].offset })

	r := &Ramp{Pix: make([]uint8, Width*4)}
	for i := 0; i < Width; i++ {
		c := colorAt(parsed, float64(i)/float64(Width-1))
		r.Pix[i*4], r.Pix[i*4+1], r.Pix[i*4+2] = c.RGB255()
		r.Pix[i*4+3] = 255
	}
	return r, nil
}

func colorAt(stops []parsedStop, t float64) colorful.Color {
	if t <= stops[0].offset {
		return stops[0].color
	}
	last := stops[len(stops)-1]
	if t >= last.offset {
		return last.color
	}
	idx := sort.Search(len(stops), func(i int) bool { return stops[i].offset >= t })
	a, b := stops[idx-1], stops[idx]
	if b.offset == a.offset {
		return a.color
	}
	return a.color.BlendRgb(b.color, (t-a.offset)/(b.offset-a.offset))
}

// Size implements gpu.Sampler over the packed 16x16 layout.
func (r *Ramp) Size() (int, int) {
	return Side, Side
}

// Fetch implements gpu.Sampler with clamp-to-edge addressing.
func (r *Ramp) Fetch(x, y int) gpu.Color {
	x = clampInt(x, 0, Side-1)
	y = clampInt(y, 0, Side-1)
	i := (y*Side + x) * 4
	return gpu.Color{
		float32(r.Pix[i]) / 255,
		float32(r.Pix[i+1]) / 255,
		float32(r.Pix[i+2]) / 255,
		float32(r.Pix[i+3]) / 255,
	}
}

// TextureDesc is the allocation used when uploading the ramp to a device.
func (r *Ramp) TextureDesc() gpu.TextureDesc {
	return gpu.TextureDesc{Width: Side, Height: Side, Wrap: gpu.WrapClampToEdge, Label: "color_ramp"}
}

// At returns the ramp color for a normalized speed.
func (r *Ramp) At(t float32) gpu.Color {
	return Lookup(r, t)
}

// Lookup maps a normalized speed onto a 16x16 packed ramp texture, filtering
// linearly between adjacent texels. t is clamped to [0, 1].
func Lookup(s gpu.Sampler, t float32) gpu.Color {
	if !(t > 0) {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	pos := t * (Width - 1)
	i0 := int(math32.Floor(pos))
	f := pos - float32(i0)
	i1 := i0 + 1
	if i1 > Width-1 {
		i1 = Width - 1
	}

	a := s.Fetch(i0%Side, i0/Side)
	if f == 0 {
		return a
	}
	b := s.Fetch(i1%Side, i1/Side)
	return gpu.Color{
		a[0] + (b[0]-a[0])*f,
		a[1] + (b[1]-a[1])*f,
		a[2] + (b[2]-a[2])*f,
		a[3] + (b[3]-a[3])*f,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
