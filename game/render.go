package game

import (
	"fmt"
	"image/color"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/mcl/geom"
)

var (
	colorBackground = rl.Color{R: 18, G: 20, B: 26, A: 255}
	colorWall       = rl.Color{R: 220, G: 220, B: 225, A: 255}
	colorStart      = rl.Color{R: 80, G: 160, B: 90, A: 60}
	colorParticle   = rl.Color{R: 255, G: 140, B: 40, A: 200}
	colorRay        = rl.Color{R: 90, G: 200, B: 255, A: 60}
	colorHit        = rl.Color{R: 90, G: 200, B: 255, A: 255}
	colorRobot      = rl.Color{R: 60, G: 220, B: 120, A: 255}
	colorEstimate   = rl.Color{R: 255, G: 70, B: 70, A: 255}
	colorPath       = rl.Color{R: 240, G: 220, B: 80, A: 200}
)

const (
	panelW = 190
	panelH = 150
)

// Draw renders the map, sensor, particles and HUD.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(colorBackground)

	if g.showField {
		g.drawField()
	}
	g.drawMap()
	if g.showPath {
		g.drawRoute()
	}
	if g.showRays {
		g.drawScan()
	}
	if g.showParticles {
		g.drawParticles()
	}
	g.drawAgent()
	g.drawHUD()
	g.drawPanel()

	rl.EndDrawing()
}

func (g *Game) drawMap() {
	cam := g.camera
	sx, sy := cam.WorldPointToScreen(geom.Point{X: g.m.Start.X, Y: g.m.Start.Y})
	rl.DrawRectangleV(
		rl.Vector2{X: sx, Y: sy},
		rl.Vector2{X: float32(g.m.Start.W) * cam.Zoom, Y: float32(g.m.Start.H) * cam.Zoom},
		colorStart,
	)

	for _, w := range g.m.Walls() {
		ax, ay := cam.WorldPointToScreen(w.A)
		bx, by := cam.WorldPointToScreen(w.B)
		rl.DrawLineEx(rl.Vector2{X: ax, Y: ay}, rl.Vector2{X: bx, Y: by}, 2, colorWall)
	}
}

func (g *Game) drawScan() {
	pose := g.TruePose()
	ox, oy := g.camera.WorldPointToScreen(pose.Point())
	for _, hit := range g.lidar.Hits() {
		if !hit.OK {
			continue
		}
		hx, hy := g.camera.WorldPointToScreen(hit.Point)
		rl.DrawLineV(rl.Vector2{X: ox, Y: oy}, rl.Vector2{X: hx, Y: hy}, colorRay)
		rl.DrawCircleV(rl.Vector2{X: hx, Y: hy}, 2.5, colorHit)
	}
}

func (g *Game) drawParticles() {
	g.particles = g.filter.Particles(g.particles)
	n := float64(len(g.particles))
	for _, p := range g.particles {
		x, y := float32(p.X), float32(p.Y)
		if !g.camera.IsVisible(x, y, 4) {
			continue
		}
		sx, sy := g.camera.WorldToScreen(x, y)
		// heavier particles are drawn larger
		r := float32(1.5 + math.Min(3, p.Weight*n))
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, r, colorParticle)
	}
}

func (g *Game) drawRoute() {
	_, _, _, _, _, _, route := g.agentMap.Get(g.agent)
	if !route.Active {
		return
	}
	for i := route.Next; i < len(route.Waypoints); i++ {
		var ax, ay float32
		if i == route.Next {
			ax, ay = g.camera.WorldPointToScreen(g.estimate.Point())
		} else {
			ax, ay = g.camera.WorldToScreen(float32(route.Waypoints[i-1][0]), float32(route.Waypoints[i-1][1]))
		}
		bx, by := g.camera.WorldToScreen(float32(route.Waypoints[i][0]), float32(route.Waypoints[i][1]))
		rl.DrawLineV(rl.Vector2{X: ax, Y: ay}, rl.Vector2{X: bx, Y: by}, colorPath)
	}
	gx, gy := g.camera.WorldToScreen(float32(route.GoalX), float32(route.GoalY))
	rl.DrawCircleLines(int32(gx), int32(gy), 6, colorPath)
}

func (g *Game) drawAgent() {
	truth := g.TruePose()
	r := float32(g.cfg.Agent.Radius) * g.camera.Zoom
	x, y := g.camera.WorldPointToScreen(truth.Point())
	drawOrientedTriangle(x, y, float32(truth.Theta), r, colorRobot)

	ex, ey := g.camera.WorldPointToScreen(g.estimate.Point())
	rl.DrawCircleLines(int32(ex), int32(ey), r, colorEstimate)
	sin, cos := math.Sincos(g.estimate.Theta)
	rl.DrawLineV(
		rl.Vector2{X: ex, Y: ey},
		rl.Vector2{X: ex + float32(cos)*r*1.5, Y: ey + float32(sin)*r*1.5},
		colorEstimate,
	)
}

func (g *Game) drawHUD() {
	truth := g.TruePose()
	errPos := truth.Point().Dist(g.estimate.Point())
	stats := g.filter.Stats()

	mode := "autopilot"
	if !g.autopilot {
		mode = "manual"
	}
	rl.DrawText(fmt.Sprintf("Step: %d  Map: %s  Mode: %s", g.step, g.m.Name, mode), 10, 10, 20, rl.White)
	rl.DrawText(fmt.Sprintf("Error: %.1f  ESS: %.0f/%d  Rays: %d", errPos, stats.EffectiveSize, g.filter.Len(), stats.ValidRays), 10, 35, 20, rl.White)
	rl.DrawText(fmt.Sprintf("Speed: %dx  [</>]  FPS: %d", g.stepsPerUpdate, rl.GetFPS()), 10, 60, 20, rl.White)
	if g.paused {
		rl.DrawText("PAUSED", 10, 85, 20, rl.Yellow)
	}
	if g.events.Converged() {
		rl.DrawText("LOCALIZED", 10, 110, 20, rl.Green)
	}
	rl.DrawText("WASD move  J/K turn  click goal  P autopilot  R reset  T track  Q quit", 10, int32(g.screenHeight)-24, 14, rl.Gray)
}

// panelRect is the overlay toggle panel in the top-right corner.
func (g *Game) panelRect() rl.Rectangle {
	return rl.Rectangle{X: g.screenWidth - panelW - 10, Y: 10, Width: panelW, Height: panelH}
}

func (g *Game) drawPanel() {
	p := g.panelRect()
	rl.DrawRectangleRec(p, rl.Color{R: 0, G: 0, B: 0, A: 180})
	rl.DrawRectangleLinesEx(p, 1, rl.Yellow)
	rl.DrawText("Overlays", int32(p.X)+10, int32(p.Y)+8, 14, rl.Yellow)

	box := func(row int, label string, v bool) bool {
		return gui.CheckBox(rl.Rectangle{X: p.X + 10, Y: p.Y + 30 + float32(row)*26, Width: 18, Height: 18}, label, v)
	}
	g.showParticles = box(0, "Particles", g.showParticles)
	g.showRays = box(1, "Rays", g.showRays)
	g.showPath = box(2, "Path", g.showPath)
	g.showField = box(3, "Distance field", g.showField)

	stats := g.perfCollector.Stats()
	rl.DrawText(fmt.Sprintf("Step: %v", stats.AvgStepDuration), int32(p.X)+10, int32(p.Y+p.Height)-18, 12, rl.White)
}

// drawField draws the distance field as a heatmap behind the map.
func (g *Game) drawField() {
	if !g.fieldTextureLoaded {
		g.loadFieldTexture()
	}
	rows, cols := g.field.Dims()
	b := g.field.Bounds()
	x0, y0 := g.camera.WorldPointToScreen(geom.Point{X: b.X, Y: b.Y})
	x1, y1 := g.camera.WorldPointToScreen(geom.Point{X: b.MaxX(), Y: b.MaxY()})
	rl.DrawTexturePro(
		g.fieldTexture,
		rl.Rectangle{X: 0, Y: 0, Width: float32(rows), Height: float32(cols)},
		rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0},
		rl.Vector2{},
		0,
		rl.Color{R: 255, G: 255, B: 255, A: 160},
	)
}

// loadFieldTexture uploads the field as an image: texture x is grid row
// (map x) and texture y is grid column (map y).
func (g *Game) loadFieldTexture() {
	rows, cols := g.field.Dims()
	img := rl.GenImageColor(rows, cols, rl.Black)
	g.fieldTexture = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)

	pixels := make([]color.RGBA, rows*cols)
	maxD := g.field.MaxDistance()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			pixels[j*rows+i] = heatColor(g.field.At(i, j) / maxD)
		}
	}
	rl.UpdateTexture(g.fieldTexture, pixels)
	g.fieldTextureLoaded = true
}

// heatColor maps v in [0, 1] from hot (near a wall) to dark.
func heatColor(v float64) color.RGBA {
	v = math.Max(0, math.Min(1, v))
	t := math.Pow(1-v, 4)
	return color.RGBA{
		R: uint8(20 + t*235),
		G: uint8(20 + t*120),
		B: uint8(60 - t*40),
		A: 255,
	}
}

// drawOrientedTriangle draws a triangle pointing in the heading direction.
func drawOrientedTriangle(x, y, heading, radius float32, c rl.Color) {
	sin, cos := math.Sincos(float64(heading))
	s, co := float32(sin), float32(cos)

	tip := rl.Vector2{X: x + co*radius*1.4, Y: y + s*radius*1.4}
	left := rl.Vector2{X: x - co*radius + s*radius*0.8, Y: y - s*radius - co*radius*0.8}
	right := rl.Vector2{X: x - co*radius - s*radius*0.8, Y: y - s*radius + co*radius*0.8}

	// raylib wants counter-clockwise winding on screen
	rl.DrawTriangle(tip, left, right, c)
	rl.DrawTriangleLines(tip, left, right, rl.White)
}
