// Package distfield precomputes, for a grid of points covering a map, the
// distance to the nearest wall. The measurement model reads it once per ray
// per particle, so lookups are O(1).
package distfield

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/mcl/geom"
	"github.com/pthm-cable/mcl/world"
)

var (
	ErrInvalidFactor = errors.New("distfield: resampling factor must be positive")
	ErrNoWalls       = errors.New("distfield: map has no walls")
)

// Field is an immutable distance grid. Cell (i, j) holds the distance from
// Offset + (i, j)*Factor to the nearest wall. Rows index x, columns index y.
type Field struct {
	Factor      float64
	Offset      geom.Point
	Fingerprint uint64 // wall geometry the grid was built from

	grid *mat.Dense
	raw  []float64
	rows int
	cols int
	max  float64
}

// Expand returns the region a field covers for a map's outer rectangle:
// three times as wide and twice as tall, with the original rectangle in the
// middle. Particles that drift out of the map still land on the grid.
func Expand(outer geom.Rect) geom.Rect {
	return geom.Rect{
		X: outer.X - outer.W,
		Y: outer.Y - outer.H/2,
		W: outer.W * 3,
		H: outer.H * 2,
	}
}

// Build computes the field for m at the given spacing. Rows are filled
// concurrently; the walls are shared read-only.
func Build(m *world.Map, factor float64) (*Field, error) {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFactor, factor)
	}
	walls := m.Walls()
	if len(walls) == 0 {
		return nil, ErrNoWalls
	}

	region := Expand(m.Outer)
	rows := int(math.Ceil(region.W/factor)) + 1
	cols := int(math.Ceil(region.H/factor)) + 1
	offset := geom.Point{X: region.X, Y: region.Y}

	data := make([]float64, rows*cols)
	workers := min(runtime.GOMAXPROCS(0), rows)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < rows; i += workers {
				x := offset.X + float64(i)*factor
				row := data[i*cols : (i+1)*cols]
				for j := range row {
					row[j] = nearestWall(geom.Point{X: x, Y: offset.Y + float64(j)*factor}, walls)
				}
			}
		}(w)
	}
	wg.Wait()

	return newField(factor, offset, m.Fingerprint(), mat.NewDense(rows, cols, data)), nil
}

func nearestWall(p geom.Point, walls []geom.Segment) float64 {
	best := math.Inf(1)
	for _, w := range walls {
		if d := geom.PointSegmentDistance(p, w); d < best {
			best = d
		}
	}
	return best
}

func newField(factor float64, offset geom.Point, fp uint64, grid *mat.Dense) *Field {
	raw := grid.RawMatrix()
	f := &Field{
		Factor:      factor,
		Offset:      offset,
		Fingerprint: fp,
		grid:        grid,
		raw:         raw.Data,
		rows:        raw.Rows,
		cols:        raw.Cols,
	}
	if raw.Stride != raw.Cols {
		// Compact so index arithmetic in Lookup stays simple.
		f.grid = mat.DenseCopyOf(grid)
		raw = f.grid.RawMatrix()
		f.raw = raw.Data
	}
	f.max = mat.Max(f.grid)
	return f
}

// Dims returns the grid size.
func (f *Field) Dims() (rows, cols int) { return f.rows, f.cols }

// At returns the stored distance of cell (i, j).
func (f *Field) At(i, j int) float64 { return f.raw[i*f.cols+j] }

// Matrix exposes the grid read-only.
func (f *Field) Matrix() mat.Matrix { return f.grid }

// MaxDistance is the largest value in the grid. Lookups outside the grid
// return it so strays get the least likely score rather than a fault.
func (f *Field) MaxDistance() float64 { return f.max }

// Bounds returns the map-space region covered by the grid.
func (f *Field) Bounds() geom.Rect {
	return geom.Rect{
		X: f.Offset.X,
		Y: f.Offset.Y,
		W: float64(f.rows-1) * f.Factor,
		H: float64(f.cols-1) * f.Factor,
	}
}

// Lookup returns the distance stored at the grid point nearest to (x, y).
func (f *Field) Lookup(x, y float64) float64 {
	fi := (x-f.Offset.X)/f.Factor + 0.5
	fj := (y-f.Offset.Y)/f.Factor + 0.5
	// NaN fails every comparison and is caught here too.
	if !(fi >= 0 && fj >= 0 && fi < float64(f.rows) && fj < float64(f.cols)) {
		return f.max
	}
	return f.raw[int(fi)*f.cols+int(fj)]
}
