package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/mcl/components"
)

// Update handles input and advances the simulation in graphics mode.
func (g *Game) Update() {
	g.handleInput()
	if g.paused {
		return
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.simulationStep()
	}
}

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyQ) {
		g.quit = true
	}
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}
	if rl.IsKeyPressed(rl.KeyP) {
		g.autopilot = !g.autopilot
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.filter.Reset(g.m.Start)
		g.estimate = g.filter.Estimate()
	}
	if rl.IsKeyPressed(rl.KeyT) {
		g.SeedAtTruePose()
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < 10 {
		g.stepsPerUpdate++
	}

	g.teleop = readTeleop()

	// Left click outside the panel sets a goal.
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		mouse := rl.GetMousePosition()
		if !rl.CheckCollisionPointRec(mouse, g.panelRect()) {
			g.SetGoal(g.camera.ScreenToWorldPoint(mouse.X, mouse.Y))
		}
	}

	g.handleCameraInput()
}

// readTeleop maps held keys to a drive command: w/s forward and back,
// a/d strafe, j/k rotate.
func readTeleop() components.Drive {
	var d components.Drive
	if rl.IsKeyDown(rl.KeyW) {
		d.Forward++
	}
	if rl.IsKeyDown(rl.KeyS) {
		d.Forward--
	}
	if rl.IsKeyDown(rl.KeyD) {
		d.Strafe++
	}
	if rl.IsKeyDown(rl.KeyA) {
		d.Strafe--
	}
	if rl.IsKeyDown(rl.KeyK) {
		d.Turn++
	}
	if rl.IsKeyDown(rl.KeyJ) {
		d.Turn--
	}
	return d
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h
	g.camera.Resize(w, h)
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	panSpeed := float32(8.0)

	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Pan(0, -panSpeed)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		mouse := rl.GetMousePosition()
		g.camera.ZoomAt(mouse.X, mouse.Y, 1+wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}
