package camera

import (
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)

	// Should be centered on world
	if cam.X != 1280 || cam.Y != 720 {
		t.Errorf("expected camera at (1280, 720), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)

	// Camera center should map to screen center
	sx, sy := cam.WorldToScreen(1280, 720)
	if math.Abs(float64(sx-640)) > 0.01 || math.Abs(float64(sy-360)) > 0.01 {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)

	// Test roundtrip at various positions
	testCases := []struct{ sx, sy float32 }{
		{640, 360},  // center
		{100, 100},  // top-left
		{1200, 600}, // near bottom-right
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if math.Abs(float64(sx-tc.sx)) > 0.01 || math.Abs(float64(sy-tc.sy)) > 0.01 {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestToroidalWrap(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)
	cam.X = 100 // Near left edge

	// A point at the surface's right edge should appear on the left side of screen
	// (closer via toroidal distance)
	sx, _ := cam.WorldToScreen(2500, 720)

	// Should be on left side of screen (negative offset from center)
	if sx >= 640 {
		t.Errorf("expected point on left of screen, got x=%f", sx)
	}
}

func TestPanWraps(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)
	cam.X = 100

	// Pan left should wrap to right side of world
	cam.Pan(-200, 0)

	if cam.X < 2000 {
		t.Errorf("expected X to wrap around, got %f", cam.X)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)

	// MinZoom should be max(1280/2560, 720/1440) = max(0.5, 0.5) = 0.5
	if cam.MinZoom != 0.5 {
		t.Errorf("expected MinZoom 0.5, got %f", cam.MinZoom)
	}

	cam.SetZoom(0.1) // Below min
	if cam.Zoom != 0.5 {
		t.Errorf("expected zoom clamped to 0.5, got %f", cam.Zoom)
	}

	cam.SetZoom(20.0) // Above max
	if cam.Zoom != 8.0 {
		t.Errorf("expected zoom clamped to 8.0, got %f", cam.Zoom)
	}
}

func TestMinZoomPreventsDeadSpace(t *testing.T) {
	// Test with asymmetric world/viewport ratios
	cam := New(800, 600, 1600, 800)

	// MinZoom should be max(800/1600, 600/800) = max(0.5, 0.75) = 0.75
	if math.Abs(float64(cam.MinZoom-0.75)) > 0.001 {
		t.Errorf("expected MinZoom 0.75, got %f", cam.MinZoom)
	}

	// At min zoom, visible area should exactly fit world in limiting dimension
	cam.SetZoom(cam.MinZoom)
	visibleH := cam.ViewportH / cam.Zoom // 600 / 0.75 = 800 = worldH
	if math.Abs(float64(visibleH-cam.WorldH)) > 0.01 {
		t.Errorf("at min zoom, visible height %f should equal world height %f", visibleH, cam.WorldH)
	}
}

func TestReset(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)
	cam.X = 500
	cam.Y = 500
	cam.Zoom = 2.5

	cam.Reset()

	if cam.X != 1280 || cam.Y != 720 {
		t.Errorf("expected position (1280, 720), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
}

func TestSurfaceSizedViewport(t *testing.T) {
	// The viewer sizes the surface to the window, so the whole surface is
	// visible at zoom 1 and zooming out is not possible.
	cam := New(1024, 512, 1024, 512)
	if cam.MinZoom != 1 {
		t.Errorf("expected MinZoom 1, got %f", cam.MinZoom)
	}

	x, y, w, h := cam.SourceRect()
	if x != 0 || y != 0 || w != 1024 || h != 512 {
		t.Errorf("expected full surface, got (%f, %f, %f, %f)", x, y, w, h)
	}

	cam.SetZoom(2)
	x, y, w, h = cam.SourceRect()
	if x != 256 || y != 128 || w != 512 || h != 256 {
		t.Errorf("expected centered half surface, got (%f, %f, %f, %f)", x, y, w, h)
	}
}

func TestSourceRectCrossesSeam(t *testing.T) {
	cam := New(1024, 512, 1024, 512)
	cam.SetZoom(2)
	cam.X = 0

	x, _, w, _ := cam.SourceRect()
	if x != -256 || w != 512 {
		t.Errorf("expected view starting left of the seam, got x=%f w=%f", x, w)
	}
}

func TestNormalized(t *testing.T) {
	cam := New(1024, 512, 1024, 512)

	u, v := cam.Normalized(512, 256)
	if u != 0.5 || v != 0.5 {
		t.Errorf("expected (0.5, 0.5) at screen center, got (%f, %f)", u, v)
	}

	cam.Pan(600, 0)
	u, _ = cam.Normalized(512, 256)
	if math.Abs(float64(u-88.0/1024)) > 1e-6 {
		t.Errorf("expected wrapped u %f, got %f", 88.0/1024, u)
	}
}

func TestSetWorldKeepsRelativePosition(t *testing.T) {
	cam := New(800, 400, 800, 400)
	cam.X, cam.Y = 200, 100
	cam.SetZoom(2)

	cam.Resize(1600, 800)
	cam.SetWorld(1600, 800)

	if cam.X != 400 || cam.Y != 200 {
		t.Errorf("expected camera at (400, 200), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.MinZoom != 1 || cam.Zoom != 2 {
		t.Errorf("expected zoom 2 with min 1, got %f min %f", cam.Zoom, cam.MinZoom)
	}
}

func TestScreenPositionInvertsNormalized(t *testing.T) {
	cam := New(800, 400, 800, 400)
	cam.SetZoom(2)
	cam.Pan(700, -300) // view now straddles both seams

	for _, p := range [][2]float32{{0.02, 0.97}, {0.5, 0.5}, {0.99, 0.01}} {
		sx, sy := cam.ScreenPosition(p[0], p[1])
		u, v := cam.Normalized(sx, sy)
		if math.Abs(float64(u-p[0])) > 1e-4 || math.Abs(float64(v-p[1])) > 1e-4 {
			t.Errorf("ScreenPosition(%v, %v) = (%v, %v), maps back to (%v, %v)", p[0], p[1], sx, sy, u, v)
		}
	}
}
