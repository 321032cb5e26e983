// Package camera maps the window onto the wrapping trail surface for pan and zoom.
package camera

import "github.com/chewxy/math32"

// Camera controls the viewport into the trail surface.
// The surface wraps in both axes like the particle domain, so panning past an
// edge continues on the other side.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float32

	// Zoom level (1.0 = 1:1, 2.0 = 2x magnification)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Surface dimensions in pixels (for toroidal wrapping)
	WorldW, WorldH float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera centered on the surface with 1:1 zoom.
func New(viewportW, viewportH, worldW, worldH float32) *Camera {
	// At zoom Z the visible area is viewport/Z; keep it within the surface.
	minZoomX := viewportW / worldW
	minZoomY := viewportH / worldH
	minZoom := minZoomX
	if minZoomY > minZoom {
		minZoom = minZoomY
	}

	return &Camera{
		X:         worldW / 2,
		Y:         worldH / 2,
		Zoom:      1.0,
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
		MinZoom:   minZoom,
		MaxZoom:   8.0,
	}
}

// WorldToScreen converts surface coordinates to screen coordinates, taking
// the shortest way around the wrap.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	// Calculate delta from camera center using toroidal shortest distance
	dx := toroidalDelta(wx, c.X, c.WorldW)
	dy := toroidalDelta(wy, c.Y, c.WorldH)

	// Apply zoom and center on viewport
	sx = c.ViewportW/2 + dx*c.Zoom
	sy = c.ViewportH/2 + dy*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	// Reverse the viewport centering and zoom
	dx := (sx - c.ViewportW/2) / c.Zoom
	dy := (sy - c.ViewportH/2) / c.Zoom

	// Add to camera position and wrap to world bounds
	wx = mod(c.X+dx, c.WorldW)
	wy = mod(c.Y+dy, c.WorldH)
	return wx, wy
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	minZoomX := viewportW / c.WorldW
	minZoomY := viewportH / c.WorldH
	c.MinZoom = minZoomX
	if minZoomY > c.MinZoom {
		c.MinZoom = minZoomY
	}
	if c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
}

// Pan moves the camera by the given delta in screen pixels.
// Automatically wraps around world boundaries.
func (c *Camera) Pan(dx, dy float32) {
	// Convert screen delta to world delta (inverse of zoom)
	c.X = mod(c.X+dx/c.Zoom, c.WorldW)
	c.Y = mod(c.Y+dy/c.Zoom, c.WorldH)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.X = c.WorldW / 2
	c.Y = c.WorldH / 2
	c.Zoom = 1.0
}

// SetWorld changes the surface size, keeping the camera over the same relative
// position.
func (c *Camera) SetWorld(worldW, worldH float32) {
	if worldW == c.WorldW && worldH == c.WorldH {
		return
	}
	c.X = c.X / c.WorldW * worldW
	c.Y = c.Y / c.WorldH * worldH
	c.WorldW, c.WorldH = worldW, worldH
	vw, vh := c.ViewportW, c.ViewportH
	c.ViewportW, c.ViewportH = 0, 0
	c.Resize(vw, vh)
}

// SourceRect is the visible surface area as x, y, width, height. x and y may
// fall outside the surface; sampling it with repeat wrapping shows the seam.
func (c *Camera) SourceRect() (x, y, w, h float32) {
	minX, minY, maxX, maxY := c.VisibleWorldBounds()
	return minX, minY, maxX - minX, maxY - minY
}

// Normalized converts a screen position to [0, 1) surface coordinates, the
// space particles and the wind field share.
func (c *Camera) Normalized(sx, sy float32) (u, v float32) {
	wx, wy := c.ScreenToWorld(sx, sy)
	return wx / c.WorldW, wy / c.WorldH
}

// ScreenPosition converts [0, 1) surface coordinates to the screen, the
// inverse of Normalized.
func (c *Camera) ScreenPosition(u, v float32) (sx, sy float32) {
	return c.WorldToScreen(u*c.WorldW, v*c.WorldH)
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area.
// Returns (minX, minY, maxX, maxY) in world coordinates.
// Note: the bounds are not wrapped and may extend past the surface edges.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)

	minX = c.X - halfW
	maxX = c.X + halfW
	minY = c.Y - halfH
	maxY = c.Y + halfH
	return
}

// toroidalDelta computes the shortest signed distance from 'from' to 'to'
// in a toroidal space of the given size.
func toroidalDelta(to, from, size float32) float32 {
	d := to - from
	if d > size/2 {
		d -= size
	} else if d < -size/2 {
		d += size
	}
	return d
}

// mod computes the positive modulo (Go's % can return negative).
func mod(x, m float32) float32 {
	r := math32.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
