package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windfield/engine"
	"github.com/pthm-cable/windfield/field"
	"github.com/pthm-cable/windfield/telemetry"
)

// HUDData holds everything the HUD shows for one frame.
type HUDData struct {
	Title     string
	Frame     engine.Frame
	Particles int
	Drops     int64
	Params    engine.Params
	FPS       int32
	Window    *telemetry.WindowStats // last flushed window, nil before the first
	Probe     *field.Vec2            // wind under the cursor or pin, nil without a field
	Pinned    bool                   // Probe comes from a pinned point
	Zoom      float32
}

// HUD renders the heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD in the top-right corner of the screen.
func (h *HUD) Draw(data HUDData, screenWidth int32) {
	r := h.renderer
	th := r.Theme
	width := int32(240)
	lines := int32(8)
	if data.Probe != nil {
		lines++
	}
	if data.Window != nil {
		lines += 6
	}
	x := screenWidth - width - th.Padding
	y := th.Padding
	r.DrawPanel(x, y, width, th.Padding*2+th.LineHeight*(lines+1))

	x += th.Padding
	y = r.DrawSectionHeader(x, y+th.Padding, data.Title)
	y = r.DrawLabelValue(x, y, "Frame", fmt.Sprintf("%d", data.Frame.Index))
	y = r.DrawLabelValue(x, y, "FPS", fmt.Sprintf("%d", data.FPS))
	y = r.DrawLabelValue(x, y, "Particles", fmt.Sprintf("%d", data.Particles))
	y = r.DrawLabelValue(x, y, "Drops", fmt.Sprintf("%d", data.Drops))
	y = r.DrawLabelValue(x, y, "Fade", fmt.Sprintf("%.3f", data.Params.FadeOpacity))
	status := "running"
	if data.Frame.Skipped {
		status = "skipped: " + data.Frame.Reason
	}
	y = r.DrawLabelValue(x, y, "Status", status)
	y = r.DrawLabelValue(x, y, "Zoom", fmt.Sprintf("%.2fx", data.Zoom))
	if p := data.Probe; p != nil {
		label := "Wind"
		if data.Pinned {
			label = "Wind (pin)"
		}
		y = r.DrawLabelValue(x, y, label, fmt.Sprintf("%.1f, %.1f (%.1f)", p.X, p.Y, p.Len()))
	}

	if w := data.Window; w != nil {
		y = r.DrawSectionHeader(x, y+2, "Last window")
		y = r.DrawLabelValue(x, y, "Speed mean", fmt.Sprintf("%.2f", w.SpeedMean))
		y = r.DrawLabelValue(x, y, "Speed p90", fmt.Sprintf("%.2f", w.SpeedP90))
		y = r.DrawLabelValue(x, y, "Drop frac", fmt.Sprintf("%.4f", w.DropFraction))
		r.DrawBar(x, y, "Coverage", float32(w.Coverage), width-th.Padding*2)
	}
}

// DrawControls renders the key legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, overlays *OverlayRegistry) {
	rl.DrawText(legendText(overlays), 10, screenHeight-25, 14, rl.Gray)
}

// legendText lists overlay keys grouped by category.
func legendText(overlays *OverlayRegistry) string {
	var groups []string
	for _, cat := range overlays.Categories() {
		var keys []string
		for _, desc := range overlays.ByCategory(cat) {
			if desc.KeyLabel == "" {
				continue
			}
			keys = append(keys, fmt.Sprintf("[%s] %s", desc.KeyLabel, desc.Name))
		}
		if len(keys) > 0 {
			groups = append(groups, cat+": "+strings.Join(keys, "  "))
		}
	}
	return strings.Join(groups, "   |   ")
}

// PerfPanel renders host phase and device pass timings.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a perf panel at the given position.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y}
}

// Draw renders the perf stats.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	r := p.renderer
	th := r.Theme
	width := int32(260)

	phases := sortedDurations(stats.PhaseAvg)
	passes := sortedDurations(stats.PassAvg)
	lines := int32(len(phases)+len(passes)) + 5
	r.DrawPanel(p.x, p.y, width, th.Padding*2+th.LineHeight*lines)

	x := p.x + th.Padding
	y := r.DrawSectionHeader(x, p.y+th.Padding, "Performance")
	y = r.DrawLabelValue(x, y, "Frame avg", fmtDuration(stats.AvgFrameDuration))
	y = r.DrawLabelValue(x, y, "Present FPS", fmt.Sprintf("%.1f", stats.FPS))

	y = r.DrawSectionHeader(x, y, "Host")
	for _, d := range phases {
		y = r.DrawLabelValue(x, y, d.name, fmt.Sprintf("%s (%.0f%%)", fmtDuration(d.dur), stats.PhasePct[d.name]))
	}
	y = r.DrawSectionHeader(x, y, "Device")
	for _, d := range passes {
		y = r.DrawLabelValue(x, y, d.name, fmtDuration(d.dur))
	}
}

type namedDuration struct {
	name string
	dur  time.Duration
}

// sortedDurations orders entries by descending duration, then name.
func sortedDurations(m map[string]time.Duration) []namedDuration {
	out := make([]namedDuration, 0, len(m))
	for k, v := range m {
		out = append(out, namedDuration{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].dur != out[j].dur {
			return out[i].dur > out[j].dur
		}
		return out[i].name < out[j].name
	})
	return out
}

func fmtDuration(d time.Duration) string {
	if d >= time.Millisecond {
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.0fus", float64(d)/float64(time.Microsecond))
}
