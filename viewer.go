package main

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windfield/app"
	"github.com/pthm-cable/windfield/camera"
	"github.com/pthm-cable/windfield/colorramp"
	"github.com/pthm-cable/windfield/engine"
	"github.com/pthm-cable/windfield/field"
	"github.com/pthm-cable/windfield/renderer"
	"github.com/pthm-cable/windfield/telemetry"
	"github.com/pthm-cable/windfield/ui"
)

// fieldBrightness dims the wind speed overlay so trails stay readable.
const fieldBrightness = 0.35

// Viewer drives an App inside a raylib window.
type Viewer struct {
	app    *app.App
	ramp   *colorramp.Ramp
	camera *camera.Camera

	surface   *renderer.SurfaceView
	fieldView *renderer.FieldView

	overlays  *ui.OverlayRegistry
	controls  *ui.ControlsPanel
	hud       *ui.HUD
	perfPanel *ui.PerfPanel

	paused    bool
	lastFrame engine.Frame
	window    *telemetry.WindowStats

	pinned     bool
	pinU, pinV float32 // pinned probe in field coordinates
}

// NewViewer creates the window-side state. The window must already exist.
func NewViewer(a *app.App) (*Viewer, error) {
	cfg := a.Config()
	ramp, err := colorramp.Build(cfg.ColorRamp)
	if err != nil {
		return nil, err
	}
	w, h := float32(cfg.Screen.Width), float32(cfg.Screen.Height)
	return &Viewer{
		app:       a,
		ramp:      ramp,
		camera:    camera.New(w, h, w, h),
		surface:   renderer.NewSurfaceView(),
		fieldView: renderer.NewFieldView(),
		overlays:  ui.NewOverlayRegistry(),
		controls:  ui.NewControlsPanel(10, 10, 300, cfg.UI, cfg.Particles),
		hud:       ui.NewHUD(),
		perfPanel: ui.NewPerfPanel(10, 400),
	}, nil
}

// SetWindow records the latest stats window for the HUD. It is called from
// App.Step, on the window thread.
func (v *Viewer) SetWindow(s telemetry.WindowStats) {
	v.window = &s
}

// Update handles input, steps the simulation and uploads the frame.
func (v *Viewer) Update() {
	v.handleInput()

	if !v.paused {
		fr, err := v.app.Step()
		if err != nil {
			slog.Warn("frame failed", "frame", v.app.Frame(), "error", err)
		}
		v.lastFrame = fr
	}

	if err := v.app.Present(v.surface); err != nil {
		slog.Error("present failed", "error", err)
	}
}

// handleInput processes keyboard input.
func (v *Viewer) handleInput() {
	v.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		v.paused = !v.paused
	}

	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		if id, on, ok := v.overlays.HandleKeyPress(key); ok {
			desc, _ := v.overlays.Get(id)
			slog.Debug("overlay toggled", "overlay", desc.Name, "on", on, "enabled", v.overlays.EnabledOverlays())
		}
	}

	// Right click pins the wind probe; a second right click releases it.
	if rl.IsMouseButtonPressed(rl.MouseButtonRight) {
		if v.pinned {
			v.pinned = false
		} else {
			mouse := rl.GetMousePosition()
			v.pinU, v.pinV = v.camera.Normalized(mouse.X, mouse.Y)
			v.pinned = true
		}
	}

	v.handleCameraInput()
}

// handleCameraInput pans with the arrow keys and zooms with the wheel.
func (v *Viewer) handleCameraInput() {
	panSpeed := float32(400) * rl.GetFrameTime()
	if rl.IsKeyDown(rl.KeyLeft) {
		v.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyRight) {
		v.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		v.camera.Pan(0, -panSpeed)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		v.camera.Pan(0, panSpeed)
	}

	// The controls panel owns the wheel while it is open.
	if wheel := rl.GetMouseWheelMove(); wheel != 0 && !v.overlays.IsEnabled(ui.OverlayControls) {
		v.camera.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		v.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		v.camera.ZoomBy(0.8)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		v.camera.Reset()
	}
}

// handleResize checks for window resize and propagates new dimensions.
func (v *Viewer) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w, h := rl.GetScreenWidth(), rl.GetScreenHeight()
	if sw, sh := v.surface.Size(); w == sw && h == sh {
		return
	}
	if err := v.app.Resize(w, h); err != nil {
		slog.Error("resize failed", "width", w, "height", h, "error", err)
		return
	}
	v.camera.Resize(float32(w), float32(h))
	v.camera.SetWorld(float32(w), float32(h))
}

// Draw renders the trails and whichever overlays are enabled.
func (v *Viewer) Draw() {
	eng := v.app.Engine()
	screenW, screenH := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
	full := rl.Rectangle{X: 0, Y: 0, Width: float32(screenW), Height: float32(screenH)}

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	sx, sy, sw, sh := v.camera.SourceRect()
	v.surface.DrawView(rl.Rectangle{X: sx, Y: sy, Width: sw, Height: sh}, full)

	if v.overlays.IsEnabled(ui.OverlayFieldSpeed) {
		v.fieldView.Update(eng.Field(), v.ramp, fieldBrightness)
		ww, wh := v.camera.WorldW, v.camera.WorldH
		rl.BeginBlendMode(rl.BlendAdditive)
		v.fieldView.DrawView(sx/ww, sy/wh, sw/ww, sh/wh, full)
		rl.EndBlendMode()
	}

	if v.overlays.IsEnabled(ui.OverlayControls) {
		u := v.controls.Draw(eng.Params(), eng.ParticleCount(), v.overlays)
		v.app.Submit(u)
	}

	if v.overlays.IsEnabled(ui.OverlayPerf) {
		v.perfPanel.Draw(v.app.PerfStats())
	}

	if v.overlays.IsEnabled(ui.OverlayHUD) {
		title := "Wind Field"
		if v.paused {
			title += " (paused)"
		}
		v.hud.Draw(ui.HUDData{
			Title:     title,
			Frame:     v.lastFrame,
			Particles: eng.ParticleCount(),
			Drops:     eng.Drops(),
			Params:    eng.Params(),
			FPS:       rl.GetFPS(),
			Window:    v.window,
			Probe:     v.probe(eng.Field()),
			Pinned:    v.pinned,
			Zoom:      v.camera.Zoom,
		}, screenW)
	}

	if v.pinned && !v.overlays.IsEnabled(ui.OverlayTrailsOnly) {
		px, py := v.camera.ScreenPosition(v.pinU, v.pinV)
		rl.DrawCircleLines(int32(px), int32(py), 6, rl.White)
		rl.DrawLine(int32(px)-9, int32(py), int32(px)+9, int32(py), rl.White)
		rl.DrawLine(int32(px), int32(py)-9, int32(px), int32(py)+9, rl.White)
	}

	if !v.overlays.IsEnabled(ui.OverlayTrailsOnly) {
		v.hud.DrawControls(screenH, v.overlays)
	}

	rl.EndDrawing()
}

// probe samples the wind at the pinned point, or under the cursor when
// nothing is pinned.
func (v *Viewer) probe(f *field.VectorField) *field.Vec2 {
	if f == nil {
		return nil
	}
	u, w := v.pinU, v.pinV
	if !v.pinned {
		mouse := rl.GetMousePosition()
		u, w = v.camera.Normalized(mouse.X, mouse.Y)
	}
	vel := f.Velocity(u, w)
	return &vel
}

// Unload frees window resources.
func (v *Viewer) Unload() {
	v.surface.Unload()
	v.fieldView.Unload()
}
