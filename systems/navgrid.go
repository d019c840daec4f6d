package systems

import (
	"math"

	"github.com/pthm-cable/mcl/distfield"
	"github.com/pthm-cable/mcl/geom"
	"github.com/pthm-cable/mcl/world"
)

// NavGrid stores a navigation grid for A* pathfinding.
// Cells are marked as blocked (true) or open (false).
type NavGrid struct {
	cells    []bool     // true = blocked
	cellSize float64    // map units per cell
	origin   geom.Point // map position of cell (0, 0)'s corner
	width    int        // grid width in cells
	height   int        // grid height in cells
}

// NewNavGrid rasterizes the free space of m. A cell is blocked when its
// centre is outside the outer boundary, inside an obstacle, or closer than
// inflation to any wall.
func NewNavGrid(m *world.Map, field *distfield.Field, cellSize, inflation float64) *NavGrid {
	w := int(m.Outer.W/cellSize) + 1
	h := int(m.Outer.H/cellSize) + 1

	grid := &NavGrid{
		cells:    make([]bool, w*h),
		cellSize: cellSize,
		origin:   geom.Point{X: m.Outer.X, Y: m.Outer.Y},
		width:    w,
		height:   h,
	}

	for gy := 0; gy < h; gy++ {
		for gx := 0; gx < w; gx++ {
			x, y := grid.GridToWorld(gx, gy)
			c := geom.Point{X: x, Y: y}
			grid.cells[gy*w+gx] = !m.Free(c) || field.Lookup(x, y) < inflation
		}
	}
	return grid
}

// Size returns the grid dimensions in cells.
func (g *NavGrid) Size() (w, h int) { return g.width, g.height }

// CellSize returns the cell edge length in map units.
func (g *NavGrid) CellSize() float64 { return g.cellSize }

// IsBlocked returns true if the given nav grid cell is blocked.
func (g *NavGrid) IsBlocked(gx, gy int) bool {
	if gx < 0 || gx >= g.width || gy < 0 || gy >= g.height {
		return true // Out of bounds is blocked
	}
	return g.cells[gy*g.width+gx]
}

// IsBlockedWorld returns true if the map position is in a blocked cell.
func (g *NavGrid) IsBlockedWorld(x, y float64) bool {
	gx, gy := g.WorldToGrid(x, y)
	return g.IsBlocked(gx, gy)
}

// WorldToGrid converts map coordinates to nav grid coordinates.
func (g *NavGrid) WorldToGrid(x, y float64) (gx, gy int) {
	gx = int(math.Floor((x - g.origin.X) / g.cellSize))
	gy = int(math.Floor((y - g.origin.Y) / g.cellSize))
	return
}

// GridToWorld converts nav grid coordinates to map coordinates (cell center).
func (g *NavGrid) GridToWorld(gx, gy int) (x, y float64) {
	x = g.origin.X + (float64(gx)+0.5)*g.cellSize
	y = g.origin.Y + (float64(gy)+0.5)*g.cellSize
	return
}
