package main

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/windfield/field"
)

func TestWriteSpeedPreview(t *testing.T) {
	f, err := field.Synthesize(field.KindZonal, 24, 12)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "zonal_speed.png")
	require.NoError(t, writeSpeedPreview(f, path))

	in, err := os.Open(path)
	require.NoError(t, err)
	defer in.Close()
	img, err := png.Decode(in)
	require.NoError(t, err)
	assert.Equal(t, 24, img.Bounds().Dx())
	assert.Equal(t, 12, img.Bounds().Dy())
}
