// Wind field preview tool - shows a synthetic field's speed and the particle
// trails it produces, with sliders for the simulation parameters.
//
// Usage: go run ./cmd/fieldpreview
package main

import (
	"fmt"
	"log"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windfield/colorramp"
	"github.com/pthm-cable/windfield/engine"
	"github.com/pthm-cable/windfield/field"
	"github.com/pthm-cable/windfield/gpu"
	"github.com/pthm-cable/windfield/renderer"
)

const (
	windowWidth   = 1000
	windowHeight  = 720
	previewWidth  = 512
	previewHeight = 256
	panelWidth    = windowWidth - previewWidth - 30
	fieldWidth    = 360
	fieldHeight   = 180
	particleCount = 16384
)

func main() {
	rl.InitWindow(windowWidth, windowHeight, "Wind Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	ramp, err := colorramp.Build(colorramp.DefaultStops())
	if err != nil {
		log.Fatal(err)
	}

	kind := field.KindVortex
	f, err := field.Synthesize(kind, fieldWidth, fieldHeight)
	if err != nil {
		log.Fatal(err)
	}

	dev, err := gpu.NewDevice(gpu.DefaultConfig(), previewWidth, previewHeight)
	if err != nil {
		log.Fatal(err)
	}
	defer dev.Close()

	params := engine.DefaultParams()
	eng, err := engine.New(dev, f, engine.Options{
		Params:        params,
		ParticleCount: particleCount,
		Ramp:          ramp,
		Seed:          1,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	fieldView := renderer.NewFieldView()
	defer fieldView.Unload()
	trails := renderer.NewSurfaceView()
	defer trails.Unload()

	paused := false

	for !rl.WindowShouldClose() {
		if !paused {
			if _, err := eng.Draw(); err != nil {
				log.Printf("frame failed: %v", err)
			}
		}
		pix, err := dev.ReadPixels(dev.Surface())
		if err == nil {
			err = trails.Present(pix, previewWidth, previewHeight)
		}
		if err != nil {
			log.Printf("present failed: %v", err)
		}
		fieldView.Update(eng.Field(), ramp, 1)

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		fieldRect := rl.Rectangle{X: 10, Y: 10, Width: previewWidth, Height: previewHeight}
		trailRect := rl.Rectangle{X: 10, Y: previewHeight + 20, Width: previewWidth, Height: previewHeight}
		fieldView.Draw(fieldRect)
		trails.Draw(trailRect)
		rl.DrawRectangleLinesEx(fieldRect, 1, rl.DarkGray)
		rl.DrawRectangleLinesEx(trailRect, 1, rl.DarkGray)

		statsY := int32(2*previewHeight + 30)
		b := eng.Field().Bounds
		rl.DrawText(fmt.Sprintf("u: %.1f..%.1f  v: %.1f..%.1f  max speed: %.1f", b.UMin, b.UMax, b.VMin, b.VMax, b.MaxSpeed()), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Frames: %d  Drops: %d", eng.FramesDrawn(), eng.Drops()), 15, statsY+20, 16, rl.DarkGray)

		panelX := float32(previewWidth + 20)
		panelY := float32(10)

		rl.DrawText("Simulation Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		slider := func(label, format string, value, lo, hi float32) float32 {
			rl.DrawText(label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			v := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				fmt.Sprintf("%g", lo), fmt.Sprintf("%g", hi),
				value, lo, hi,
			)
			rl.DrawText(fmt.Sprintf(format, value), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			panelY += 35
			return v
		}

		next := params
		next.FadeOpacity = slider("Fade opacity (trail length)", "%.3f", params.FadeOpacity, 0.9, 0.999)
		next.SpeedFactor = slider("Speed factor", "%.2f", params.SpeedFactor, 0.05, 1.0)
		next.DropRate = slider("Drop rate (base respawn chance)", "%.3f", params.DropRate, 0, 0.1)
		next.DropRateBump = slider("Drop rate bump (extra for fast particles)", "%.3f", params.DropRateBump, 0, 0.2)
		if next != params {
			if err := eng.SetParams(next); err != nil {
				log.Printf("rejected parameters: %v", err)
			} else {
				params = next
			}
		}

		rl.DrawLine(int32(panelX), int32(panelY), int32(panelX)+int32(panelWidth)-20, int32(panelY), rl.LightGray)
		panelY += 15

		rl.DrawText("Wind pattern", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		for i, k := range field.Kinds {
			bx := panelX + float32(i%2)*130
			by := panelY + float32(i/2)*40
			if gui.Button(rl.Rectangle{X: bx, Y: by, Width: 120, Height: 30}, string(k)) && k != kind {
				nf, err := field.Synthesize(k, fieldWidth, fieldHeight)
				if err == nil {
					err = eng.SetField(nf)
				}
				if err != nil {
					log.Printf("failed to switch wind: %v", err)
				} else {
					kind = k
				}
			}
		}
		panelY += float32((len(field.Kinds)+1)/2)*40 + 5

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(paused, "Resume", "Pause")) {
			paused = !paused
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = engine.DefaultParams()
			if err := eng.SetParams(params); err != nil {
				log.Printf("failed to reset parameters: %v", err)
			}
			if _, err := eng.SetParticleCount(particleCount); err != nil {
				log.Printf("failed to reseed particles: %v", err)
			}
		}
		panelY += 55

		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		snippet := yamlSnippet(kind, params)
		for _, line := range strings.Split(snippet, "\n") {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(snippet)
		}

		rl.EndDrawing()
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

// yamlSnippet renders the current settings as config file sections.
func yamlSnippet(kind field.Kind, p engine.Params) string {
	return fmt.Sprintf(`simulation:
  fade_opacity: %.3f
  speed_factor: %.2f
  drop_rate: %.3f
  drop_rate_bump: %.3f
wind:
  synthetic: %s`,
		p.FadeOpacity, p.SpeedFactor, p.DropRate, p.DropRateBump, kind)
}
