package colorramp

import (
	"math"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/windfield/gpu"
)

func hexColor(t *testing.T, hex string) gpu.Color {
	t.Helper()
	c, err := colorful.Hex(hex)
	require.NoError(t, err)
	r, g, b := c.RGB255()
	return gpu.Color{float32(r) / 255, float32(g) / 255, float32(b) / 255, 1}
}

func TestEndpointsMatchStops(t *testing.T) {
	stops := DefaultStops()
	r, err := Build(stops)
	require.NoError(t, err)

	assert.Equal(t, hexColor(t, stops[0].Color), r.At(0))
	assert.Equal(t, hexColor(t, stops[len(stops)-1].Color), r.At(1))

	// Out of range speeds clamp.
	assert.Equal(t, r.At(0), r.At(-3))
	assert.Equal(t, r.At(1), r.At(7))
	assert.Equal(t, r.At(0), r.At(float32(math.NaN())))
}

func TestMonotonicBetweenStops(t *testing.T) {
	stops := DefaultStops()
	r, err := Build(stops)
	require.NoError(t, err)

	for s := 0; s+1 < len(stops); s++ {
		a, b := stops[s], stops[s+1]
		lo := int(math.Ceil(a.Offset * (Width - 1)))
		hi := int(math.Floor(b.Offset * (Width - 1)))
		ca, cb := hexColor(t, a.Color), hexColor(t, b.Color)

		for c := 0; c < 3; c++ {
			dir := cb[c] - ca[c]
			for i := lo; i < hi; i++ {
				cur, next := r.Pix[i*4+c], r.Pix[(i+1)*4+c]
				if dir > 0 && next < cur {
					t.Errorf("stops %v->%v channel %d decreases at texel %d (%d -> %d)", a.Offset, b.Offset, c, i, cur, next)
				}
				if dir < 0 && next > cur {
					t.Errorf("stops %v->%v channel %d increases at texel %d (%d -> %d)", a.Offset, b.Offset, c, i, cur, next)
				}
			}
		}
	}
}

func TestLookupInterpolatesBetweenTexels(t *testing.T) {
	r, err := Build([]Stop{{0, "#000000"}, {1, "#ffffff"}})
	require.NoError(t, err)

	// Texel i holds i/255 gray, so halfway between texels 10 and 11 is 10.5/255.
	got := r.At(10.5 / 255)
	assert.InDelta(t, 10.5/255, got[0], 1e-5)
	assert.Equal(t, float32(1), got[3])

	// The 16x16 packing crosses a row boundary between texels 15 and 16.
	got = r.At(15.5 / 255)
	assert.InDelta(t, 15.5/255, got[1], 1e-5)
}

func TestBuildUnsortedAndPadded(t *testing.T) {
	r, err := Build([]Stop{{0.8, "#ff0000"}, {0.2, "#0000ff"}})
	require.NoError(t, err)

	assert.Equal(t, gpu.Color{0, 0, 1, 1}, r.At(0), "below first stop pads with its color")
	assert.Equal(t, gpu.Color{1, 0, 0, 1}, r.At(1), "above last stop pads with its color")
}

func TestBuildRejectsBadStops(t *testing.T) {
	tests := []struct {
		name  string
		stops []Stop
	}{
		{"empty", nil},
		{"negative offset", []Stop{{-0.1, "#fff"}}},
		{"offset above one", []Stop{{1.5, "#fff"}}},
		{"bad hex", []Stop{{0, "blue"}}},
	}
	for _, tt := range tests {
		_, err := Build(tt.stops)
		assert.ErrorIs(t, err, ErrInvalidStops, tt.name)
	}
}
