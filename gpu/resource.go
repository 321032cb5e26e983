package gpu

// Color is a normalized RGBA value as produced and consumed by kernels.
type Color [4]float32

// Transparent is the all-zero color render targets are cleared to.
var Transparent = Color{}

// WrapMode controls how out-of-range texel coordinates are resolved.
type WrapMode uint8

const (
	WrapClampToEdge WrapMode = iota
	WrapRepeat
)

// Sampler is read access to a 2D grid of texels.
// Kernels sample textures through it so host-side rasters can stand in for tests.
type Sampler interface {
	Size() (width, height int)
	Fetch(x, y int) Color
}

// Resource is anything allocated from a Device that can be released.
type Resource interface {
	release(d *Device)
}

// TextureDesc describes an RGBA8 texture allocation.
type TextureDesc struct {
	Width  int
	Height int
	Wrap   WrapMode
	Label  string
}

// Texture is an RGBA8 image owned by a Device.
// Rows are stored top to bottom, 4 bytes per texel.
type Texture struct {
	desc TextureDesc
	pix  []uint8
}

// Size returns the texture dimensions in texels.
func (t *Texture) Size() (int, int) {
	return t.desc.Width, t.desc.Height
}

// Width returns the texture width in texels.
func (t *Texture) Width() int { return t.desc.Width }

// Height returns the texture height in texels.
func (t *Texture) Height() int { return t.desc.Height }

// Label returns the debug label given at allocation.
func (t *Texture) Label() string { return t.desc.Label }

// Texel returns the raw bytes at (x, y) after applying the wrap mode.
func (t *Texture) Texel(x, y int) [4]uint8 {
	x = wrapIndex(x, t.desc.Width, t.desc.Wrap)
	y = wrapIndex(y, t.desc.Height, t.desc.Wrap)
	i := (y*t.desc.Width + x) * 4
	p := t.pix[i : i+4 : i+4]
	return [4]uint8{p[0], p[1], p[2], p[3]}
}

// Fetch returns the normalized texel at (x, y) after applying the wrap mode.
func (t *Texture) Fetch(x, y int) Color {
	b := t.Texel(x, y)
	return Color{
		float32(b[0]) / 255,
		float32(b[1]) / 255,
		float32(b[2]) / 255,
		float32(b[3]) / 255,
	}
}

func (t *Texture) bytes() int64 {
	return int64(len(t.pix))
}

func (t *Texture) release(d *Device) {
	if t == nil || t.pix == nil {
		return
	}
	d.free(t.bytes(), kindTexture)
	t.pix = nil
}

// Buffer is a flat float32 vertex buffer owned by a Device.
type Buffer struct {
	data  []float32
	label string
}

// Len returns the number of float32 values in the buffer.
func (b *Buffer) Len() int { return len(b.data) }

// Label returns the debug label given at allocation.
func (b *Buffer) Label() string { return b.label }

func (b *Buffer) bytes() int64 {
	return int64(len(b.data)) * 4
}

func (b *Buffer) release(d *Device) {
	if b == nil || b.data == nil {
		return
	}
	d.free(b.bytes(), kindBuffer)
	b.data = nil
}

// wrapIndex resolves i into [0, n) for the given wrap mode.
func wrapIndex(i, n int, mode WrapMode) int {
	if mode == WrapRepeat {
		i %= n
		if i < 0 {
			i += n
		}
		return i
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Factor is a blend factor applied to source or destination color.
type Factor uint8

const (
	FactorZero Factor = iota
	FactorOne
	FactorSrcAlpha
	FactorOneMinusSrcAlpha
)

// Blend is the fixed-function blend state for a draw.
// The same factors apply to the color and alpha channels.
type Blend struct {
	Enabled bool
	Src     Factor
	Dst     Factor
}

var (
	// BlendDisabled replaces the destination with the source.
	BlendDisabled = Blend{}
	// BlendAlpha is standard (SRC_ALPHA, ONE_MINUS_SRC_ALPHA) compositing.
	BlendAlpha = Blend{Enabled: true, Src: FactorSrcAlpha, Dst: FactorOneMinusSrcAlpha}
)

func (b Blend) factor(f Factor, srcAlpha float32) float32 {
	switch f {
	case FactorOne:
		return 1
	case FactorSrcAlpha:
		return srcAlpha
	case FactorOneMinusSrcAlpha:
		return 1 - srcAlpha
	default:
		return 0
	}
}

// apply blends src over the destination bytes and writes the result in place.
func (b Blend) apply(src Color, dst []uint8) {
	if !b.Enabled {
		dst[0] = toUnorm(src[0])
		dst[1] = toUnorm(src[1])
		dst[2] = toUnorm(src[2])
		dst[3] = toUnorm(src[3])
		return
	}
	sf := b.factor(b.Src, src[3])
	df := b.factor(b.Dst, src[3])
	for c := 0; c < 4; c++ {
		d := float32(dst[c]) / 255
		dst[c] = toUnorm(src[c]*sf + d*df)
	}
}

// toUnorm converts a normalized float to an 8-bit value, rounding to nearest.
func toUnorm(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
