// Package camera maps map coordinates onto the screen.
package camera

import "github.com/pthm-cable/mcl/geom"

// fitMargin is the fraction of the viewport left empty around a fitted map.
const fitMargin = 0.05

// Camera controls the viewport into a bounded map.
type Camera struct {
	// Camera center in world coordinates
	X, Y float32

	// 1.0 draws one world unit per pixel
	Zoom float32

	ViewportW, ViewportH float32

	// Bounds is the world area the camera is allowed to look at.
	Bounds geom.Rect

	MinZoom, MaxZoom float32
	fitZoom          float32
}

// New creates a camera that fits bounds into the viewport.
func New(viewportW, viewportH float32, bounds geom.Rect) *Camera {
	c := &Camera{
		ViewportW: viewportW,
		ViewportH: viewportH,
		Bounds:    bounds,
	}
	c.updateZoomLimits()
	c.Reset()
	return c
}

// updateZoomLimits recomputes the zoom that fits the whole map.
func (c *Camera) updateZoomLimits() {
	w, h := float32(c.Bounds.W), float32(c.Bounds.H)
	if w <= 0 || h <= 0 {
		c.fitZoom = 1
	} else {
		zx := c.ViewportW * (1 - 2*fitMargin) / w
		zy := c.ViewportH * (1 - 2*fitMargin) / h
		c.fitZoom = min(zx, zy)
	}
	c.MinZoom = c.fitZoom / 2
	c.MaxZoom = c.fitZoom * 8
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	sx = c.ViewportW/2 + (wx-c.X)*c.Zoom
	sy = c.ViewportH/2 + (wy-c.Y)*c.Zoom
	return sx, sy
}

// WorldPointToScreen is WorldToScreen for a geom.Point.
func (c *Camera) WorldPointToScreen(p geom.Point) (sx, sy float32) {
	return c.WorldToScreen(float32(p.X), float32(p.Y))
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	wx = c.X + (sx-c.ViewportW/2)/c.Zoom
	wy = c.Y + (sy-c.ViewportH/2)/c.Zoom
	return wx, wy
}

// ScreenToWorldPoint is ScreenToWorld returning a geom.Point.
func (c *Camera) ScreenToWorldPoint(sx, sy float32) geom.Point {
	wx, wy := c.ScreenToWorld(sx, sy)
	return geom.Point{X: float64(wx), Y: float64(wy)}
}

// IsVisible reports whether a circle at (wx, wy) could be on screen.
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	halfW := c.ViewportW/(2*c.Zoom) + radius
	halfH := c.ViewportH/(2*c.Zoom) + radius
	return absf(wx-c.X) <= halfW && absf(wy-c.Y) <= halfH
}

// Resize updates the viewport and keeps the zoom within the new limits.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.updateZoomLimits()
	c.SetZoom(c.Zoom)
}

// Pan moves the camera by a delta in screen pixels. The center stays
// inside the map bounds.
func (c *Camera) Pan(dx, dy float32) {
	c.X += dx / c.Zoom
	c.Y += dy / c.Zoom
	c.clampCenter()
}

// CenterOn moves the camera center to a world position.
func (c *Camera) CenterOn(wx, wy float32) {
	c.X, c.Y = wx, wy
	c.clampCenter()
}

func (c *Camera) clampCenter() {
	c.X = clamp(c.X, float32(c.Bounds.X), float32(c.Bounds.MaxX()))
	c.Y = clamp(c.Y, float32(c.Bounds.Y), float32(c.Bounds.MaxY()))
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// ZoomAt zooms by factor keeping the world point under (sx, sy) fixed.
func (c *Camera) ZoomAt(sx, sy, factor float32) {
	wx, wy := c.ScreenToWorld(sx, sy)
	c.ZoomBy(factor)
	c.X = wx - (sx-c.ViewportW/2)/c.Zoom
	c.Y = wy - (sy-c.ViewportH/2)/c.Zoom
	c.clampCenter()
}

// Reset fits the whole map into the viewport.
func (c *Camera) Reset() {
	center := c.Bounds.Center()
	c.X = float32(center.X)
	c.Y = float32(center.Y)
	c.Zoom = c.fitZoom
}

// VisibleWorldBounds returns the world rectangle currently on screen.
func (c *Camera) VisibleWorldBounds() geom.Rect {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)
	return geom.Rect{
		X: float64(c.X - halfW),
		Y: float64(c.Y - halfH),
		W: float64(2 * halfW),
		H: float64(2 * halfH),
	}
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
