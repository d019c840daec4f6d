package geom

import "math"

// RayIntersect intersects the half-line origin + t*dir (t > 0) with seg.
// It returns the ray parameter t and the hit point. ok is false when the
// lines are parallel, the hit is behind the origin, or the hit falls outside
// the open segment (0 < u < 1).
func RayIntersect(origin, dir Point, seg Segment) (t float64, hit Point, ok bool) {
	x1, y1 := seg.A.X, seg.A.Y
	x2, y2 := seg.B.X, seg.B.Y
	x3, y3 := origin.X, origin.Y
	x4, y4 := origin.X+dir.X, origin.Y+dir.Y

	den := (x1-x2)*(y3-y4) - (y1-y2)*(x3-x4)
	if den == 0 {
		return 0, Point{}, false
	}

	// u runs along the wall, t along the ray.
	u := ((x1-x3)*(y3-y4) - (y1-y3)*(x3-x4)) / den
	t = -((x1-x2)*(y1-y3) - (y1-y2)*(x1-x3)) / den
	if !(u > 0 && u < 1 && t > 0) {
		return 0, Point{}, false
	}
	hit = Point{x1 + u*(x2-x1), y1 + u*(y2-y1)}
	return t, hit, true
}

// PointSegmentDistance returns the distance from p to the closest point of seg.
func PointSegmentDistance(p Point, seg Segment) float64 {
	d := seg.B.Sub(seg.A)
	l2 := d.X*d.X + d.Y*d.Y
	if l2 == 0 {
		return p.Dist(seg.A)
	}
	u := ((p.X-seg.A.X)*d.X + (p.Y-seg.A.Y)*d.Y) / l2
	u = math.Max(0, math.Min(1, u))
	return p.Dist(seg.A.Add(d.Scale(u)))
}

func orient(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// SegmentsCross reports whether a and b cross at a single interior point.
// Touching endpoints and collinear overlaps do not count.
func SegmentsCross(a, b Segment) bool {
	d1 := orient(b.A, b.B, a.A)
	d2 := orient(b.A, b.B, a.B)
	d3 := orient(a.A, a.B, b.A)
	d4 := orient(a.A, a.B, b.B)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

// SegmentsTouch reports whether the closed segments a and b share any
// point, including shared endpoints and collinear overlap.
func SegmentsTouch(a, b Segment) bool {
	d1 := orient(b.A, b.B, a.A)
	d2 := orient(b.A, b.B, a.B)
	d3 := orient(a.A, a.B, b.A)
	d4 := orient(a.A, a.B, b.B)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(b, a.A)) ||
		(d2 == 0 && onSegment(b, a.B)) ||
		(d3 == 0 && onSegment(a, b.A)) ||
		(d4 == 0 && onSegment(a, b.B))
}

// onSegment reports whether p, known to be collinear with s, lies within
// its bounding box.
func onSegment(s Segment, p Point) bool {
	return p.X >= math.Min(s.A.X, s.B.X) && p.X <= math.Max(s.A.X, s.B.X) &&
		p.Y >= math.Min(s.A.Y, s.B.Y) && p.Y <= math.Max(s.A.Y, s.B.Y)
}

// PolygonContains reports whether p lies inside the closed polygon using the
// even-odd rule. Points exactly on an edge may land either side.
func PolygonContains(poly []Point, p Point) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// PolygonEdges returns the edges of a closed polygon, including the closing
// edge from the last vertex back to the first.
func PolygonEdges(poly []Point) []Segment {
	if len(poly) < 2 {
		return nil
	}
	edges := make([]Segment, 0, len(poly))
	for i := range poly {
		edges = append(edges, Segment{A: poly[i], B: poly[(i+1)%len(poly)]})
	}
	return edges
}
