package field

import (
	"github.com/chewxy/math32"

	"github.com/pthm-cable/windfield/gpu"
)

// Vec2 is a 2D velocity or offset.
type Vec2 struct {
	X, Y float32
}

// Len returns the Euclidean length of v.
func (v Vec2) Len() float32 {
	return math32.Hypot(v.X, v.Y)
}

// Bilinear interpolates the R and G channels of the four texels around (u, v).
// Coordinates are normalized; the sampler's wrap mode resolves the edges.
func Bilinear(s gpu.Sampler, u, v float32) (r, g float32) {
	w, h := s.Size()
	fx := u * float32(w)
	fy := v * float32(h)
	x0 := math32.Floor(fx)
	y0 := math32.Floor(fy)
	tx := fx - x0
	ty := fy - y0
	ix, iy := int(x0), int(y0)

	tl := s.Fetch(ix, iy)
	tr := s.Fetch(ix+1, iy)
	bl := s.Fetch(ix, iy+1)
	br := s.Fetch(ix+1, iy+1)

	r = mix(mix(tl[0], tr[0], tx), mix(bl[0], br[0], tx), ty)
	g = mix(mix(tl[1], tr[1], tx), mix(bl[1], br[1], tx), ty)
	return r, g
}

// Remap converts normalized channel values back into velocity units.
func Remap(b Bounds, r, g float32) Vec2 {
	return Vec2{X: mix(b.UMin, b.UMax, r), Y: mix(b.VMin, b.VMax, g)}
}

// SpeedT is the speed normalized by the bounds' max corner.
// A field whose max corner is the origin reports 0.
func SpeedT(vel Vec2, b Bounds) float32 {
	m := b.MaxSpeed()
	if m == 0 {
		return 0
	}
	return vel.Len() / m
}

func mix(a, b, t float32) float32 {
	return a + (b-a)*t
}
