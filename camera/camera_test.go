package camera

import (
	"math"
	"testing"

	"github.com/pthm-cable/mcl/geom"
)

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 0.01 }

func TestNewFitsMap(t *testing.T) {
	cam := New(1000, 1000, geom.Rect{X: 0, Y: 0, W: 800, H: 400})

	if cam.X != 400 || cam.Y != 200 {
		t.Errorf("expected camera at map center (400, 200), got (%f, %f)", cam.X, cam.Y)
	}
	// width is the binding axis: 900 usable pixels over 800 units
	if !near(cam.Zoom, 900.0/800.0) {
		t.Errorf("expected fit zoom %f, got %f", 900.0/800.0, cam.Zoom)
	}

	// whole map on screen
	for _, p := range []struct{ x, y float32 }{{0, 0}, {800, 0}, {0, 400}, {800, 400}} {
		sx, sy := cam.WorldToScreen(p.x, p.y)
		if sx < 0 || sx > 1000 || sy < 0 || sy > 1000 {
			t.Errorf("corner (%v, %v) off screen at (%v, %v)", p.x, p.y, sx, sy)
		}
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1280, 720, geom.Rect{W: 600, H: 600})

	sx, sy := cam.WorldToScreen(300, 300)
	if !near(sx, 640) || !near(sy, 360) {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, geom.Rect{W: 800, H: 600})
	cam.SetZoom(cam.Zoom * 1.7)
	cam.Pan(35, -20)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},
		{100, 100},
		{1200, 600},
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestPanClampsToBounds(t *testing.T) {
	cam := New(800, 600, geom.Rect{W: 600, H: 600})

	cam.Pan(-1e6, 1e6)
	if cam.X != 0 || cam.Y != 600 {
		t.Errorf("expected center clamped to (0, 600), got (%f, %f)", cam.X, cam.Y)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(800, 600, geom.Rect{W: 600, H: 600})

	cam.SetZoom(1e6)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to max %f, got %f", cam.MaxZoom, cam.Zoom)
	}
	cam.SetZoom(0)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to min %f, got %f", cam.MinZoom, cam.Zoom)
	}
}

func TestZoomAtKeepsCursorPoint(t *testing.T) {
	cam := New(800, 600, geom.Rect{W: 600, H: 600})

	wx, wy := cam.ScreenToWorld(500, 200)
	cam.ZoomAt(500, 200, 2)
	sx, sy := cam.WorldToScreen(wx, wy)
	if !near(sx, 500) || !near(sy, 200) {
		t.Errorf("cursor point moved to (%f, %f)", sx, sy)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(800, 600, geom.Rect{W: 600, H: 600})
	cam.SetZoom(cam.MaxZoom)

	if !cam.IsVisible(300, 300, 1) {
		t.Error("center should be visible")
	}
	if cam.IsVisible(0, 0, 1) {
		t.Error("far corner should not be visible at max zoom")
	}
	if !cam.VisibleWorldBounds().Contains(geom.Point{X: 300, Y: 300}) {
		t.Error("visible bounds should contain the center")
	}
}

func TestResizeRefits(t *testing.T) {
	cam := New(800, 600, geom.Rect{W: 600, H: 600})
	before := cam.MinZoom

	cam.Resize(1600, 1200)
	if cam.MinZoom <= before {
		t.Errorf("expected larger min zoom after growing viewport, got %f <= %f", cam.MinZoom, before)
	}
	cam.Reset()
	if !near(cam.Zoom, 1080.0/600.0) {
		t.Errorf("expected refit zoom %f, got %f", 1080.0/600.0, cam.Zoom)
	}
}
