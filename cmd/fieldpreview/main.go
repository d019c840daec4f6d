// Distance field preview tool - interactive visualization of the field the
// measurement model scores against.
//
// Usage: go run ./cmd/fieldpreview -map obstacle
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"math"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/mcl/distfield"
	"github.com/pthm-cable/mcl/geom"
	"github.com/pthm-cable/mcl/world"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 600
	panelWidth   = windowWidth - previewSize - 30

	minFactor = 1.0
	maxFactor = 20.0
)

// preview holds the field being shown and its texture.
type preview struct {
	m         *world.Map
	factor    float64
	field     *distfield.Field
	texture   rl.Texture2D
	loaded    bool
	buildTime time.Duration
}

func main() {
	mapName := flag.String("map", "obstacle", "Builtin map name or map YAML file")
	factor := flag.Float64("factor", 2.0, "Distance field resampling factor (map units between grid points)")
	flag.Parse()

	m, err := world.Resolve(*mapName)
	if err != nil {
		log.Fatalf("failed to load map: %v", err)
	}

	rl.InitWindow(windowWidth, windowHeight, "Distance Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	p := &preview{m: m, factor: *factor}
	if err := p.rebuild(); err != nil {
		log.Fatalf("failed to build field: %v", err)
	}
	defer p.unload()

	builtins := world.BuiltinNames()
	sliderFactor := float32(p.factor)
	showWalls := true
	gamma := float32(0.5)
	needsRepaint := false

	for !rl.WindowShouldClose() {
		// Rebuild once the slider is released.
		if !rl.IsMouseButtonDown(rl.MouseButtonLeft) && float64(sliderFactor) != p.factor {
			p.factor = float64(sliderFactor)
			if err := p.rebuild(); err != nil {
				log.Printf("rebuild failed: %v", err)
			}
			needsRepaint = true
		}
		if needsRepaint {
			p.paint(float64(gamma))
			needsRepaint = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		dst := p.drawField(showWalls)

		// Hover readout
		statsY := int32(previewSize + 25)
		mouse := rl.GetMousePosition()
		if rl.CheckCollisionPointRec(mouse, dst) {
			w := p.screenToWorld(mouse, dst)
			rl.DrawText(fmt.Sprintf("(%.1f, %.1f)  d=%.2f  free=%v", w.X, w.Y, p.field.Lookup(w.X, w.Y), p.m.Free(w)),
				15, statsY+40, 16, rl.DarkGray)
		}

		rows, cols := p.field.Dims()
		rl.DrawText(fmt.Sprintf("Grid: %dx%d  Max: %.1f  Built in %v", rows, cols, p.field.MaxDistance(), p.buildTime.Round(time.Millisecond)),
			15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Map: %s  Fingerprint: %016x", p.m.Name, p.m.Fingerprint()), 15, statsY+20, 16, rl.DarkGray)

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Distance Field", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		rl.DrawText("Resampling factor (units per cell)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		sliderFactor = gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			fmt.Sprint(minFactor), fmt.Sprint(maxFactor),
			sliderFactor, minFactor, maxFactor,
		)
		rl.DrawText(fmt.Sprintf("%.2f", sliderFactor), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		panelY += 35

		rl.DrawText("Gamma (color contrast)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newGamma := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0.1", "2.0",
			gamma, 0.1, 2.0,
		)
		rl.DrawText(fmt.Sprintf("%.2f", gamma), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if newGamma != gamma {
			gamma = newGamma
			needsRepaint = true
		}
		panelY += 35

		showWalls = gui.CheckBox(rl.Rectangle{X: panelX, Y: panelY, Width: 18, Height: 18}, "Show walls", showWalls)
		panelY += 35

		rl.DrawLine(int32(panelX), int32(panelY), int32(panelX)+int32(panelWidth)-20, int32(panelY), rl.LightGray)
		panelY += 15

		rl.DrawText("Maps", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		for _, name := range builtins {
			if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, name) && name != p.m.Name {
				next, err := world.Builtin(name)
				if err != nil {
					log.Printf("failed to load map %q: %v", name, err)
				} else {
					p.m = next
					if err := p.rebuild(); err != nil {
						log.Printf("rebuild failed: %v", err)
					}
					needsRepaint = true
				}
			}
			panelY += 40
		}

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Reset") {
			sliderFactor = float32(*factor)
			gamma = 0.5
			needsRepaint = true
		}
		panelY += 55

		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		for _, line := range []string{
			"map:",
			fmt.Sprintf("  name: %s", p.m.Name),
			"distance_field:",
			fmt.Sprintf("  resampling_factor: %.2f", p.factor),
		} {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(fmt.Sprintf("map:\n  name: %s\ndistance_field:\n  resampling_factor: %.2f", p.m.Name, p.factor))
		}

		rl.EndDrawing()
	}
}

// rebuild computes the field for the current map and factor and reallocates
// the texture to the new grid size.
func (p *preview) rebuild() error {
	start := time.Now()
	f, err := distfield.Build(p.m, p.factor)
	if err != nil {
		return err
	}
	p.field = f
	p.buildTime = time.Since(start)

	p.unload()
	rows, cols := f.Dims()
	img := rl.GenImageColor(rows, cols, rl.Black)
	p.texture = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	p.loaded = true
	p.paint(0.5)
	return nil
}

func (p *preview) unload() {
	if p.loaded {
		rl.UnloadTexture(p.texture)
		p.loaded = false
	}
}

// paint uploads the field with texture x as grid row and texture y as grid
// column.
func (p *preview) paint(gamma float64) {
	rows, cols := p.field.Dims()
	pixels := make([]color.RGBA, rows*cols)
	maxD := p.field.MaxDistance()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := 0.0
			if maxD > 0 {
				v = math.Pow(p.field.At(i, j)/maxD, gamma)
			}
			pixels[j*rows+i] = gradient(v)
		}
	}
	rl.UpdateTexture(p.texture, pixels)
}

// drawField draws the texture scaled into the preview square, keeping the
// map's aspect ratio, and returns the destination rectangle.
func (p *preview) drawField(showWalls bool) rl.Rectangle {
	rows, cols := p.field.Dims()
	b := p.field.Bounds()
	scale := float32(math.Min(previewSize/b.W, previewSize/b.H))
	dst := rl.Rectangle{X: 10, Y: 10, Width: float32(b.W) * scale, Height: float32(b.H) * scale}

	rl.DrawTexturePro(
		p.texture,
		rl.Rectangle{X: 0, Y: 0, Width: float32(rows), Height: float32(cols)},
		dst,
		rl.Vector2{X: 0, Y: 0},
		0,
		rl.White,
	)
	rl.DrawRectangleLinesEx(dst, 1, rl.DarkGray)

	if showWalls {
		for _, w := range p.m.Walls() {
			a := p.worldToScreen(w.A, dst)
			c := p.worldToScreen(w.B, dst)
			rl.DrawLineEx(a, c, 2, rl.White)
		}
	}
	return dst
}

func (p *preview) worldToScreen(pt geom.Point, dst rl.Rectangle) rl.Vector2 {
	b := p.field.Bounds()
	return rl.Vector2{
		X: dst.X + float32((pt.X-b.X)/b.W)*dst.Width,
		Y: dst.Y + float32((pt.Y-b.Y)/b.H)*dst.Height,
	}
}

func (p *preview) screenToWorld(v rl.Vector2, dst rl.Rectangle) geom.Point {
	b := p.field.Bounds()
	return geom.Point{
		X: b.X + float64((v.X-dst.X)/dst.Width)*b.W,
		Y: b.Y + float64((v.Y-dst.Y)/dst.Height)*b.H,
	}
}

// gradient maps v in [0, 1] through dark blue -> cyan -> yellow -> white.
func gradient(v float64) color.RGBA {
	v = math.Max(0, math.Min(1, v))
	var r, g, b float64
	switch {
	case v < 0.25:
		t := v / 0.25
		r, g, b = 10+t*30, 20+t*60, 60+t*100
	case v < 0.5:
		t := (v - 0.25) / 0.25
		r, g, b = 40+t*20, 80+t*120, 160+t*40
	case v < 0.75:
		t := (v - 0.5) / 0.25
		r, g, b = 60+t*140, 200-t*40, 200-t*150
	default:
		t := (v - 0.75) / 0.25
		r, g, b = 200+t*55, 160+t*95, 50+t*205
	}
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}
}
