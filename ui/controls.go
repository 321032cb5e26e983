package ui

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windfield/app"
	"github.com/pthm-cable/windfield/config"
	"github.com/pthm-cable/windfield/engine"
	"github.com/pthm-cable/windfield/field"
)

// particleStep is the granularity of the particle count slider.
const particleStep = 1024

// ControlsPanel renders the parameter sliders, wind presets and overlay list.
type ControlsPanel struct {
	renderer  *Renderer
	ranges    config.UIConfig
	particles config.ParticlesConfig
	x, y      int32
	width     int32
}

// NewControlsPanel creates a panel whose sliders span the configured ranges.
func NewControlsPanel(x, y, width int32, ranges config.UIConfig, particles config.ParticlesConfig) *ControlsPanel {
	return &ControlsPanel{
		renderer:  NewRenderer(),
		ranges:    ranges,
		particles: particles,
		x:         x,
		y:         y,
		width:     width,
	}
}

// sliderValues is what the sliders show after one frame of interaction.
type sliderValues struct {
	particles    float32
	fadeOpacity  float32
	speedFactor  float32
	dropRate     float32
	dropRateBump float32
}

// Draw renders the panel and returns the changes the user made this frame.
func (c *ControlsPanel) Draw(current engine.Params, particles int, overlays *OverlayRegistry) app.ParamUpdate {
	r := c.renderer
	th := r.Theme
	pad := th.Padding
	row := th.LineHeight + th.SliderHeight + 4

	kinds := field.Kinds
	overlayRows := int32(len(overlays.All()))
	height := pad*2 + th.LineHeight + 5*row + th.LineHeight + 30 + th.LineHeight*(overlayRows+2)
	r.DrawPanel(c.x, c.y, c.width, height)

	x := c.x + pad
	y := r.DrawSectionHeader(x, c.y+pad, "Parameters")
	sliderW := float32(c.width - pad*2 - 60)

	slider := func(label, format string, value float32, rng config.Range) float32 {
		rl.DrawText(fmt.Sprintf("%s: "+format, label, value), x, y, th.FontSize, th.LabelColor)
		y += th.LineHeight
		bounds := rl.Rectangle{X: float32(x) + 30, Y: float32(y), Width: sliderW, Height: float32(th.SliderHeight)}
		v := gui.SliderBar(bounds, trimFloat(rng.Min), trimFloat(rng.Max), value, float32(rng.Min), float32(rng.Max))
		y += th.SliderHeight + 4
		return v
	}

	pr := config.Range{Min: float64(c.particles.Min), Max: float64(c.particles.Max)}
	vals := sliderValues{
		particles:    slider("Particles", "%.0f", float32(particles), pr),
		fadeOpacity:  slider("Fade", "%.3f", current.FadeOpacity, c.ranges.FadeOpacity),
		speedFactor:  slider("Speed", "%.2f", current.SpeedFactor, c.ranges.SpeedFactor),
		dropRate:     slider("Drop rate", "%.3f", current.DropRate, c.ranges.DropRate),
		dropRateBump: slider("Drop bump", "%.3f", current.DropRateBump, c.ranges.DropRateBump),
	}
	u := buildUpdate(current, particles, vals, c.particles)

	y = r.DrawSectionHeader(x, y+4, "Wind")
	btnW := (float32(c.width-pad*2) - float32(len(kinds)-1)*4) / float32(len(kinds))
	for i, k := range kinds {
		bounds := rl.Rectangle{X: float32(x) + float32(i)*(btnW+4), Y: float32(y), Width: btnW, Height: 24}
		if gui.Button(bounds, string(k)) {
			kind := string(k)
			u.Wind = &kind
		}
	}
	y += 30

	y = r.DrawSectionHeader(x, y, "Overlays")
	for _, desc := range overlays.All() {
		mark := "[ ]"
		if overlays.IsEnabled(desc.ID) {
			mark = "[x]"
		}
		rl.DrawText(fmt.Sprintf("%s %s  (%s)", mark, desc.Name, desc.KeyLabel), x, y, th.FontSize, th.LabelColor)
		y += th.LineHeight
	}

	return u
}

// buildUpdate turns slider positions into an update holding only the values
// that moved. A moved particle slider snaps to particleStep within the limits.
func buildUpdate(current engine.Params, particles int, vals sliderValues, lim config.ParticlesConfig) app.ParamUpdate {
	var u app.ParamUpdate

	if vals.particles != float32(particles) {
		n := int(math.Round(float64(vals.particles)/particleStep)) * particleStep
		if n < lim.Min {
			n = lim.Min
		}
		if n > lim.Max {
			n = lim.Max
		}
		if n != particles {
			u.Particles = &n
		}
	}

	set := func(dst **float32, cur, next float32) {
		if next != cur {
			v := next
			*dst = &v
		}
	}
	set(&u.FadeOpacity, current.FadeOpacity, vals.fadeOpacity)
	set(&u.SpeedFactor, current.SpeedFactor, vals.speedFactor)
	set(&u.DropRate, current.DropRate, vals.dropRate)
	set(&u.DropRateBump, current.DropRateBump, vals.dropRateBump)
	return u
}

func trimFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}
