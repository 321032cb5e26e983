package renderer

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/windfield/colorramp"
	"github.com/pthm-cable/windfield/field"
)

func TestPackRGBA(t *testing.T) {
	pix := []uint8{1, 2, 3, 4, 5, 6, 7, 8}
	got := packRGBA(nil, pix)
	assert.Equal(t, []color.RGBA{{1, 2, 3, 4}, {5, 6, 7, 8}}, got)

	// Large enough buffers are reused.
	buf := make([]color.RGBA, 4)
	got = packRGBA(buf, pix)
	assert.Len(t, got, 2)
	assert.Equal(t, &buf[0], &got[0])
}

func TestSpeedImage(t *testing.T) {
	ramp, err := colorramp.Build([]colorramp.Stop{{Offset: 0, Color: "#000000"}, {Offset: 1, Color: "#ffffff"}})
	require.NoError(t, err)

	fast, err := field.Uniform(4, 2, field.Bounds{UMin: -1, UMax: 1}, field.Vec2{X: 1})
	require.NoError(t, err)
	img := SpeedImage(fast, ramp, 1)
	require.Len(t, img, 8)
	for _, c := range img {
		assert.Equal(t, color.RGBA{255, 255, 255, 255}, c)
	}

	dim := SpeedImage(fast, ramp, 0.5)
	assert.Equal(t, color.RGBA{128, 128, 128, 255}, dim[0])

	calm, err := field.Synthesize(field.KindCalm, 3, 3)
	require.NoError(t, err)
	for _, c := range SpeedImage(calm, ramp, 1) {
		assert.Equal(t, color.RGBA{0, 0, 0, 255}, c)
	}
}
