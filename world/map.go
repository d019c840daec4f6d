// Package world describes the static environment the robot localizes in:
// a set of closed polygonal boundaries, one of which encloses all others.
package world

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/pthm-cable/mcl/geom"
)

// Geometry errors returned by New.
var (
	ErrNoOuterBoundary       = errors.New("world: map has no outer boundary")
	ErrMultipleOuter         = errors.New("world: map has more than one outer boundary")
	ErrTooFewVertices        = errors.New("world: boundary needs at least 3 vertices")
	ErrSelfIntersecting      = errors.New("world: outer boundary is self-intersecting")
	ErrBoundaryOutside       = errors.New("world: inner boundary lies outside the outer boundary")
	ErrInvalidStartRect      = errors.New("world: start rectangle is empty")
	ErrStartOutsideOuterRect = errors.New("world: start rectangle lies outside the outer rectangle")
)

// Boundary is a closed polygon. The closing edge from the last vertex back
// to the first is implicit.
type Boundary struct {
	Points []geom.Point
	Outer  bool
}

// Edges returns the wall segments of the boundary.
func (b Boundary) Edges() []geom.Segment {
	return geom.PolygonEdges(b.Points)
}

// Map is an immutable, validated environment.
type Map struct {
	Name       string
	Boundaries []Boundary // outer boundary last
	Start      geom.Rect  // where particles are initially spread
	Outer      geom.Rect  // bounding rectangle of the outer boundary

	walls []geom.Segment
}

// New validates the boundaries and start rectangle and builds a Map.
// A duplicated closing vertex is dropped from each boundary.
func New(name string, boundaries []Boundary, start geom.Rect) (*Map, error) {
	var outer *Boundary
	inner := make([]Boundary, 0, len(boundaries))
	for i := range boundaries {
		b := Boundary{Points: trimClosingVertex(boundaries[i].Points), Outer: boundaries[i].Outer}
		if len(b.Points) < 3 {
			return nil, fmt.Errorf("boundary %d: %w", i, ErrTooFewVertices)
		}
		if b.Outer {
			if outer != nil {
				return nil, ErrMultipleOuter
			}
			outer = &b
			continue
		}
		inner = append(inner, b)
	}
	if outer == nil {
		return nil, ErrNoOuterBoundary
	}
	if selfIntersecting(outer.Points) {
		return nil, ErrSelfIntersecting
	}
	outerEdges := outer.Edges()
	for i, b := range inner {
		for _, p := range b.Points {
			if !geom.PolygonContains(outer.Points, p) {
				return nil, fmt.Errorf("boundary %d vertex %v: %w", i, p, ErrBoundaryOutside)
			}
		}
		// A concave outer boundary can let an edge leave between two inside vertices.
		for _, e := range b.Edges() {
			for _, o := range outerEdges {
				if geom.SegmentsCross(e, o) {
					return nil, fmt.Errorf("boundary %d edge %v: %w", i, e, ErrBoundaryOutside)
				}
			}
		}
	}

	outerRect := geom.BoundingRect(outer.Points)
	if start.Empty() {
		return nil, ErrInvalidStartRect
	}
	if !outerRect.ContainsRect(start) {
		return nil, ErrStartOutsideOuterRect
	}

	m := &Map{
		Name:       name,
		Boundaries: append(inner, *outer),
		Start:      start,
		Outer:      outerRect,
	}
	for _, b := range m.Boundaries {
		m.walls = append(m.walls, b.Edges()...)
	}
	return m, nil
}

// Walls returns every wall segment of the map. The slice is shared and
// must not be modified.
func (m *Map) Walls() []geom.Segment {
	return m.walls
}

// OuterBoundary returns the enclosing polygon.
func (m *Map) OuterBoundary() Boundary {
	return m.Boundaries[len(m.Boundaries)-1]
}

// Free reports whether p is inside the outer boundary and outside every
// obstacle.
func (m *Map) Free(p geom.Point) bool {
	for _, b := range m.Boundaries {
		in := geom.PolygonContains(b.Points, p)
		if b.Outer != in {
			return false
		}
	}
	return true
}

// Blocked reports whether the straight move from a to b crosses a wall.
func (m *Map) Blocked(a, b geom.Point) bool {
	move := geom.Segment{A: a, B: b}
	for _, w := range m.walls {
		if geom.SegmentsCross(move, w) {
			return true
		}
	}
	return false
}

// Fingerprint hashes the wall geometry. Two maps with the same walls in the
// same order share a fingerprint.
func (m *Map) Fingerprint() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, w := range m.walls {
		for _, v := range [4]float64{w.A.X, w.A.Y, w.B.X, w.B.Y} {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}
	return h.Sum64()
}

func trimClosingVertex(pts []geom.Point) []geom.Point {
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	out := make([]geom.Point, len(pts))
	copy(out, pts)
	return out
}

// selfIntersecting reports whether poly is not a simple polygon: a vertex
// is repeated, two non-adjacent edges touch, or an edge folds back along
// its predecessor.
func selfIntersecting(poly []geom.Point) bool {
	seen := make(map[geom.Point]struct{}, len(poly))
	for _, p := range poly {
		if _, ok := seen[p]; ok {
			return true
		}
		seen[p] = struct{}{}
	}

	edges := geom.PolygonEdges(poly)
	n := len(edges)
	for i := range edges {
		if foldsBack(edges[i], edges[(i+1)%n]) {
			return true
		}
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				continue // neighbours share exactly one endpoint
			}
			if geom.SegmentsTouch(edges[i], edges[j]) {
				return true
			}
		}
	}
	return false
}

// foldsBack reports whether next, which starts where prev ends, runs back
// along prev.
func foldsBack(prev, next geom.Segment) bool {
	d1 := prev.B.Sub(prev.A)
	d2 := next.B.Sub(next.A)
	cross := d1.X*d2.Y - d1.Y*d2.X
	return cross == 0 && d1.X*d2.X+d1.Y*d2.Y < 0
}
