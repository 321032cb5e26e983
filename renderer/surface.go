// Package renderer puts device output on a raylib window.
package renderer

import (
	"fmt"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// SurfaceView mirrors the device surface into a raylib texture.
// It implements app.Presenter. All methods must run on the window thread.
type SurfaceView struct {
	tex        rl.Texture2D
	texW, texH int
	pixels     []color.RGBA

	initialized bool
}

// NewSurfaceView creates an empty view. The texture is created on the first
// Present, after the window exists.
func NewSurfaceView() *SurfaceView {
	return &SurfaceView{}
}

// Present uploads an RGBA8 frame, recreating the texture when the size changes.
func (s *SurfaceView) Present(pix []uint8, width, height int) error {
	if len(pix) != width*height*4 {
		return fmt.Errorf("surface frame is %d bytes, want %d for %dx%d", len(pix), width*height*4, width, height)
	}
	if !s.initialized || width != s.texW || height != s.texH {
		s.Unload()
		s.init(width, height)
	}

	s.pixels = packRGBA(s.pixels, pix)
	rl.UpdateTexture(s.tex, s.pixels)
	return nil
}

func (s *SurfaceView) init(width, height int) {
	img := rl.GenImageColor(width, height, rl.Black)
	s.tex = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.SetTextureFilter(s.tex, rl.FilterPoint)
	rl.SetTextureWrap(s.tex, rl.WrapRepeat)

	s.texW, s.texH = width, height
	s.initialized = true
}

// Draw stretches the last presented frame over the given screen rectangle.
func (s *SurfaceView) Draw(dst rl.Rectangle) {
	if !s.initialized {
		return
	}
	src := rl.Rectangle{X: 0, Y: 0, Width: float32(s.texW), Height: float32(s.texH)}
	rl.DrawTexturePro(s.tex, src, dst, rl.Vector2{}, 0, rl.White)
}

// DrawView draws the src region of the frame, in surface pixels, over dst.
// src may extend past the edges; the texture repeats.
func (s *SurfaceView) DrawView(src, dst rl.Rectangle) {
	if !s.initialized {
		return
	}
	rl.DrawTexturePro(s.tex, src, dst, rl.Vector2{}, 0, rl.White)
}

// Size returns the size of the last presented frame.
func (s *SurfaceView) Size() (int, int) {
	return s.texW, s.texH
}

// Unload frees the texture.
func (s *SurfaceView) Unload() {
	if !s.initialized {
		return
	}
	rl.UnloadTexture(s.tex)
	s.initialized = false
}

// packRGBA reinterprets a byte raster as colors, reusing dst when it is large enough.
func packRGBA(dst []color.RGBA, pix []uint8) []color.RGBA {
	n := len(pix) / 4
	if cap(dst) < n {
		dst = make([]color.RGBA, n)
	}
	dst = dst[:n]
	for i := range dst {
		j := i * 4
		dst[i] = color.RGBA{R: pix[j], G: pix[j+1], B: pix[j+2], A: pix[j+3]}
	}
	return dst
}
