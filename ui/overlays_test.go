package ui

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
)

func TestOverlayDefaults(t *testing.T) {
	reg := NewOverlayRegistry()

	assert.True(t, reg.IsEnabled(OverlayHUD))
	assert.False(t, reg.IsEnabled(OverlayControls))
	assert.Equal(t, []string{"panels", "visual"}, reg.Categories())
	assert.Len(t, reg.ByCategory("panels"), 3)
}

func TestOverlayExclusive(t *testing.T) {
	reg := NewOverlayRegistry()

	assert.True(t, reg.Toggle(OverlayFieldSpeed))
	assert.True(t, reg.Toggle(OverlayTrailsOnly))
	assert.False(t, reg.IsEnabled(OverlayFieldSpeed))
	assert.False(t, reg.IsEnabled(OverlayHUD))
	assert.Equal(t, []OverlayID{OverlayTrailsOnly}, reg.EnabledOverlays())

	reg.SetEnabled(OverlayFieldSpeed, true)
	assert.False(t, reg.IsEnabled(OverlayTrailsOnly))
}

func TestOverlayKeyPress(t *testing.T) {
	reg := NewOverlayRegistry()

	id, on, ok := reg.HandleKeyPress(rl.KeyTab)
	assert.True(t, ok)
	assert.Equal(t, OverlayControls, id)
	assert.True(t, on)

	_, _, ok = reg.HandleKeyPress(rl.KeyZ)
	assert.False(t, ok)

	assert.False(t, reg.Toggle("missing"))
}

func TestLegendGroupsByCategory(t *testing.T) {
	reg := NewOverlayRegistry()
	assert.Equal(t,
		"panels: [Tab] Controls  [H] HUD  [P] Performance   |   visual: [F] Wind Speed  [T] Trails Only",
		legendText(reg))

	reg.Register(OverlayDescriptor{ID: "grid", Name: "Grid", Category: "debug"})
	assert.NotContains(t, legendText(reg), "debug")
}
