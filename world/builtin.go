package world

import (
	"fmt"
	"sort"

	"github.com/pthm-cable/mcl/geom"
)

// Builtin maps are generated in code so the demo and tests run without
// map files. Sizes are in pixels to match the default screen.
var builtins = map[string]func() (*Map, error){
	"square":   Square,
	"obstacle": Obstacle,
	"corridor": Corridor,
}

// Builtin returns the named synthetic map.
func Builtin(name string) (*Map, error) {
	fn, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown builtin map %q (have %v)", name, BuiltinNames())
	}
	return fn()
}

// BuiltinNames lists the synthetic maps in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve loads path as a map file, falling back to a builtin of that name.
func Resolve(nameOrPath string) (*Map, error) {
	if _, ok := builtins[nameOrPath]; ok {
		return Builtin(nameOrPath)
	}
	return Load(nameOrPath)
}

func rectPoly(x, y, w, h float64) []geom.Point {
	return []geom.Point{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
}

// SquareRoom returns an empty square room of the given side with its corner
// at the origin and the start area covering the middle half.
func SquareRoom(side float64) (*Map, error) {
	return New("square",
		[]Boundary{{Points: rectPoly(0, 0, side, side), Outer: true}},
		geom.Rect{X: side / 4, Y: side / 4, W: side / 2, H: side / 2})
}

// Square is an empty 600x600 room.
func Square() (*Map, error) { return SquareRoom(600) }

// Obstacle is an 800x600 room with one square obstacle off centre.
func Obstacle() (*Map, error) {
	return New("obstacle",
		[]Boundary{
			{Points: rectPoly(450, 200, 150, 150)},
			{Points: rectPoly(0, 0, 800, 600), Outer: true},
		},
		geom.Rect{X: 50, Y: 50, W: 300, H: 500})
}

// Corridor is an L-shaped hall with two pillars.
func Corridor() (*Map, error) {
	outer := []geom.Point{{0, 0}, {1000, 0}, {1000, 250}, {300, 250}, {300, 700}, {0, 700}}
	return New("corridor",
		[]Boundary{
			{Points: rectPoly(500, 90, 60, 60)},
			{Points: rectPoly(110, 400, 70, 70)},
			{Points: outer, Outer: true},
		},
		geom.Rect{X: 20, Y: 20, W: 260, H: 210})
}
