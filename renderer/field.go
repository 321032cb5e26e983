package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windfield/colorramp"
	"github.com/pthm-cable/windfield/field"
)

// FieldView renders wind speed as a ramp-colored underlay.
type FieldView struct {
	tex        rl.Texture2D
	texW, texH int
	src        *field.VectorField

	initialized bool
}

// NewFieldView creates an empty view.
func NewFieldView() *FieldView {
	return &FieldView{}
}

// Update rebuilds the texture when f differs from the last field shown.
// brightness scales the ramp color; 1 shows it unchanged.
func (v *FieldView) Update(f *field.VectorField, ramp *colorramp.Ramp, brightness float32) {
	if f == nil || (f == v.src && v.initialized) {
		return
	}
	if !v.initialized || f.Width != v.texW || f.Height != v.texH {
		v.Unload()
		img := rl.GenImageColor(f.Width, f.Height, rl.Black)
		v.tex = rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
		rl.SetTextureFilter(v.tex, rl.FilterBilinear)
		rl.SetTextureWrap(v.tex, rl.WrapRepeat)
		v.texW, v.texH = f.Width, f.Height
		v.initialized = true
	}
	rl.UpdateTexture(v.tex, SpeedImage(f, ramp, brightness))
	v.src = f
}

// Invalidate forces the next Update to rebuild, e.g. after a brightness change.
func (v *FieldView) Invalidate() {
	v.src = nil
}

// Draw stretches the field over dst.
func (v *FieldView) Draw(dst rl.Rectangle) {
	if !v.initialized {
		return
	}
	src := rl.Rectangle{X: 0, Y: 0, Width: float32(v.texW), Height: float32(v.texH)}
	rl.DrawTexturePro(v.tex, src, dst, rl.Vector2{}, 0, rl.White)
}

// DrawView draws a region given in normalized [0, 1) field coordinates over
// dst. The region may extend past the edges; the texture repeats.
func (v *FieldView) DrawView(x, y, width, height float32, dst rl.Rectangle) {
	if !v.initialized {
		return
	}
	src := rl.Rectangle{
		X:      x * float32(v.texW),
		Y:      y * float32(v.texH),
		Width:  width * float32(v.texW),
		Height: height * float32(v.texH),
	}
	rl.DrawTexturePro(v.tex, src, dst, rl.Vector2{}, 0, rl.White)
}

// Unload frees the texture.
func (v *FieldView) Unload() {
	if !v.initialized {
		return
	}
	rl.UnloadTexture(v.tex)
	v.initialized = false
	v.src = nil
}

// SpeedImage colors each texel of f by its normalized speed.
func SpeedImage(f *field.VectorField, ramp *colorramp.Ramp, brightness float32) []color.RGBA {
	if brightness < 0 {
		brightness = 0
	}
	if brightness > 1 {
		brightness = 1
	}

	pixels := make([]color.RGBA, f.Width*f.Height)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			vel := f.Velocity(float32(x)/float32(f.Width), float32(y)/float32(f.Height))
			c := ramp.At(field.SpeedT(vel, f.Bounds))
			pixels[y*f.Width+x] = color.RGBA{
				R: uint8(c[0]*brightness*255 + 0.5),
				G: uint8(c[1]*brightness*255 + 0.5),
				B: uint8(c[2]*brightness*255 + 0.5),
				A: 255,
			}
		}
	}
	return pixels
}
