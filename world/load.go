package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/mcl/geom"
)

// File is the on-disk YAML form of a map.
type File struct {
	Name       string         `yaml:"name"`
	Start      RectFile       `yaml:"start"`
	Boundaries []BoundaryFile `yaml:"boundaries"`
}

// RectFile is a rectangle in YAML.
type RectFile struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

// BoundaryFile is a polygon in YAML. Points are [x, y] pairs.
type BoundaryFile struct {
	Outer  bool         `yaml:"outer"`
	Points [][2]float64 `yaml:"points"`
}

// Load reads and validates a YAML map file.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading map file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML map document.
func Parse(data []byte) (*Map, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing map: %w", err)
	}
	return f.Map()
}

// Map converts the file form into a validated Map.
func (f File) Map() (*Map, error) {
	bs := make([]Boundary, len(f.Boundaries))
	for i, bf := range f.Boundaries {
		pts := make([]geom.Point, len(bf.Points))
		for j, p := range bf.Points {
			pts[j] = geom.Point{X: p[0], Y: p[1]}
		}
		bs[i] = Boundary{Points: pts, Outer: bf.Outer}
	}
	start := geom.Rect{X: f.Start.X, Y: f.Start.Y, W: f.Start.W, H: f.Start.H}
	m, err := New(f.Name, bs, start)
	if err != nil {
		return nil, fmt.Errorf("map %q: %w", f.Name, err)
	}
	return m, nil
}

// ToFile converts a Map back into its YAML form.
func ToFile(m *Map) File {
	f := File{
		Name:  m.Name,
		Start: RectFile{X: m.Start.X, Y: m.Start.Y, W: m.Start.W, H: m.Start.H},
	}
	for _, b := range m.Boundaries {
		bf := BoundaryFile{Outer: b.Outer}
		for _, p := range b.Points {
			bf.Points = append(bf.Points, [2]float64{p.X, p.Y})
		}
		f.Boundaries = append(f.Boundaries, bf)
	}
	return f
}
