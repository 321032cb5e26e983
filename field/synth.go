package field

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"github.com/ojrac/opensimplex-go"
)

// Kind names a synthetic wind pattern.
type Kind string

const (
	KindCalm    Kind = "calm"    // zero everywhere
	KindUniform Kind = "uniform" // constant eastward flow
	KindZonal   Kind = "zonal"   // alternating jets by latitude
	KindVortex  Kind = "vortex"  // two counter-rotating cells
	KindCurl    Kind = "curl"    // divergence-free simplex noise
)

// Kinds lists the synthetic patterns in a stable order.
var Kinds = []Kind{KindCalm, KindUniform, KindZonal, KindVortex, KindCurl}

const (
	curlSeed      = 7
	curlFrequency = 1.5 // noise radius on the torus; higher gives smaller eddies
	curlMaxSpeed  = 30
)

// ParseKind validates a synthetic pattern name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown field kind %q", s)
}

// Encode builds a field by evaluating fn at every texel and byte-encoding the
// result against bounds. Texel (x, y) sits at (x/width, y/height), where
// Bilinear reads it back unblended. Values outside bounds are clamped.
func Encode(width, height int, bounds Bounds, fn func(u, v float32) Vec2) (*VectorField, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidField, width, height)
	}
	vel := make([]Vec2, width*height)
	for y := 0; y < height; y++ {
		v := float32(y) / float32(height)
		for x := 0; x < width; x++ {
			vel[y*width+x] = fn(float32(x)/float32(width), v)
		}
	}
	return encodeGrid(width, height, bounds, vel)
}

// encodeGrid byte-encodes a row-major grid of velocities.
func encodeGrid(width, height int, bounds Bounds, vel []Vec2) (*VectorField, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 || len(vel) != width*height {
		return nil, fmt.Errorf("%w: %d velocities for %dx%d", ErrInvalidField, len(vel), width, height)
	}

	pix := make([]uint8, width*height*4)
	for i, c := range vel {
		pix[i*4] = encodeByte(c.X, bounds.UMin, bounds.UMax)
		pix[i*4+1] = encodeByte(c.Y, bounds.VMin, bounds.VMax)
		pix[i*4+3] = 255
	}
	return &VectorField{Width: width, Height: height, Bounds: bounds, Pix: pix}, nil
}

// Uniform is a field with the same velocity everywhere.
func Uniform(width, height int, bounds Bounds, vel Vec2) (*VectorField, error) {
	return Encode(width, height, bounds, func(u, v float32) Vec2 { return vel })
}

// Synthesize builds one of the named test patterns at the given resolution.
func Synthesize(kind Kind, width, height int) (*VectorField, error) {
	switch kind {
	case KindCalm:
		return Uniform(width, height, Bounds{}, Vec2{})
	case KindUniform:
		return Uniform(width, height, Bounds{UMin: -20, UMax: 20, VMin: -20, VMax: 20}, Vec2{X: 10})
	case KindZonal:
		b := Bounds{UMin: -30, UMax: 30, VMin: -10, VMax: 10}
		return Encode(width, height, b, func(u, v float32) Vec2 {
			lat := (v - 0.5) * math32.Pi
			return Vec2{
				X: 28 * math32.Cos(3*lat) * math32.Cos(lat),
				Y: 6 * math32.Sin(4*math32.Pi*u) * math32.Cos(lat),
			}
		})
	case KindVortex:
		b := Bounds{UMin: -25, UMax: 25, VMin: -25, VMax: 25}
		return Encode(width, height, b, func(u, v float32) Vec2 {
			// Stream function psi = sin(2πu)·sin(πv); velocity = (∂psi/∂v, -∂psi/∂u).
			su, cu := math32.Sin(2*math32.Pi*u), math32.Cos(2*math32.Pi*u)
			sv, cv := math32.Sin(math32.Pi*v), math32.Cos(math32.Pi*v)
			return Vec2{X: 24 * su * cv, Y: -24 * cu * sv}
		})
	case KindCurl:
		return curl(width, height, curlSeed)
	default:
		return nil, fmt.Errorf("unknown field kind %q", kind)
	}
}

// curl builds a field from the curl of a simplex noise stream function.
// The noise is sampled on a 4D torus so the field tiles in both axes.
func curl(width, height int, seed int64) (*VectorField, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidField, width, height)
	}
	noise := opensimplex.New(seed)
	psi := func(u, v float64) float64 {
		au, av := 2*math.Pi*u, 2*math.Pi*v
		return noise.Eval4(
			curlFrequency*math.Cos(au), curlFrequency*math.Sin(au),
			curlFrequency*math.Cos(av), curlFrequency*math.Sin(av),
		)
	}

	// velocity = (dpsi/dv, -dpsi/du), by central differences one texel apart.
	du, dv := 1/float64(width), 1/float64(height)
	vel := make([]Vec2, width*height)
	var peak float64
	for y := 0; y < height; y++ {
		v := float64(y) * dv
		for x := 0; x < width; x++ {
			u := float64(x) * du
			vx := (psi(u, v+dv) - psi(u, v-dv)) / (2 * dv)
			vy := -(psi(u+du, v) - psi(u-du, v)) / (2 * du)
			peak = math.Max(peak, math.Max(math.Abs(vx), math.Abs(vy)))
			vel[y*width+x] = Vec2{X: float32(vx), Y: float32(vy)}
		}
	}

	if peak > 0 {
		scale := curlMaxSpeed / float32(peak)
		for i := range vel {
			vel[i].X *= scale
			vel[i].Y *= scale
		}
	}
	b := Bounds{UMin: -curlMaxSpeed, UMax: curlMaxSpeed, VMin: -curlMaxSpeed, VMax: curlMaxSpeed}
	return encodeGrid(width, height, b, vel)
}

func encodeByte(val, lo, hi float32) uint8 {
	if hi == lo {
		return 0
	}
	t := (val - lo) / (hi - lo)
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 255
	}
	return uint8(t*255 + 0.5)
}
