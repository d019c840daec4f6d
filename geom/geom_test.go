package geom

import (
	"math"
	"testing"
)

func TestRayIntersect(t *testing.T) {
	wall := Segment{A: Point{10, -5}, B: Point{10, 5}}

	tests := []struct {
		name   string
		origin Point
		dir    Point
		wantOK bool
		wantT  float64
	}{
		{"straight hit", Point{0, 0}, Point{1, 0}, true, 10},
		{"behind origin", Point{0, 0}, Point{-1, 0}, false, 0},
		{"parallel", Point{0, 0}, Point{0, 1}, false, 0},
		{"misses end", Point{0, 6}, Point{1, 0}, false, 0},
		{"diagonal", Point{0, 0}, Heading(math.Pi / 8), true, 10 / math.Cos(math.Pi/8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, hit, ok := RayIntersect(tt.origin, tt.dir, wall)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if math.Abs(d-tt.wantT) > 1e-9 {
				t.Errorf("t = %v, want %v", d, tt.wantT)
			}
			if math.Abs(hit.X-10) > 1e-9 {
				t.Errorf("hit.X = %v, want 10", hit.X)
			}
		})
	}
}

func TestRayIntersectExcludesEndpoints(t *testing.T) {
	wall := Segment{A: Point{10, 0}, B: Point{10, 5}}
	if _, _, ok := RayIntersect(Point{0, 0}, Point{1, 0}, wall); ok {
		t.Error("ray through segment endpoint should not count as a hit")
	}
}

func TestPointSegmentDistance(t *testing.T) {
	seg := Segment{A: Point{0, 0}, B: Point{10, 0}}
	tests := []struct {
		p    Point
		want float64
	}{
		{Point{5, 3}, 3},
		{Point{-3, 4}, 5},
		{Point{13, -4}, 5},
		{Point{10, 0}, 0},
	}
	for _, tt := range tests {
		if got := PointSegmentDistance(tt.p, seg); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("PointSegmentDistance(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}

	degenerate := Segment{A: Point{1, 1}, B: Point{1, 1}}
	if got := PointSegmentDistance(Point{4, 5}, degenerate); got != 5 {
		t.Errorf("degenerate segment distance = %v, want 5", got)
	}
}

func TestSegmentsCross(t *testing.T) {
	a := Segment{A: Point{0, 0}, B: Point{10, 10}}
	if !SegmentsCross(a, Segment{A: Point{0, 10}, B: Point{10, 0}}) {
		t.Error("expected X to cross")
	}
	if SegmentsCross(a, Segment{A: Point{10, 10}, B: Point{20, 0}}) {
		t.Error("shared endpoint should not cross")
	}
	if SegmentsCross(a, Segment{A: Point{0, 1}, B: Point{10, 11}}) {
		t.Error("parallel segments should not cross")
	}
}

func TestSegmentsTouch(t *testing.T) {
	a := Segment{A: Point{0, 0}, B: Point{10, 0}}
	tests := []struct {
		name string
		b    Segment
		want bool
	}{
		{"proper crossing", Segment{A: Point{5, -5}, B: Point{5, 5}}, true},
		{"shared endpoint", Segment{A: Point{10, 0}, B: Point{10, 10}}, true},
		{"endpoint on interior", Segment{A: Point{5, 0}, B: Point{5, 10}}, true},
		{"collinear overlap", Segment{A: Point{8, 0}, B: Point{20, 0}}, true},
		{"collinear disjoint", Segment{A: Point{11, 0}, B: Point{20, 0}}, false},
		{"parallel", Segment{A: Point{0, 1}, B: Point{10, 1}}, false},
		{"apart", Segment{A: Point{12, -5}, B: Point{12, 5}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SegmentsTouch(a, tt.b); got != tt.want {
				t.Errorf("SegmentsTouch = %v, want %v", got, tt.want)
			}
			if got := SegmentsTouch(tt.b, a); got != tt.want {
				t.Errorf("SegmentsTouch (swapped) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPolygonContains(t *testing.T) {
	square := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	if !PolygonContains(square, Point{5, 5}) {
		t.Error("centre should be inside")
	}
	if PolygonContains(square, Point{15, 5}) {
		t.Error("point right of square should be outside")
	}

	// L shape: the notch at top right is outside.
	ell := []Point{{0, 0}, {10, 0}, {10, 5}, {5, 5}, {5, 10}, {0, 10}}
	if PolygonContains(ell, Point{8, 8}) {
		t.Error("notch should be outside")
	}
	if !PolygonContains(ell, Point{2, 8}) {
		t.Error("upper arm should be inside")
	}
}

func TestNormalizeAngle(t *testing.T) {
	for _, a := range []float64{0, 1, -1, 3 * math.Pi, -7.5, 100} {
		got := NormalizeAngle(a)
		if got < -math.Pi || got > math.Pi {
			t.Errorf("NormalizeAngle(%v) = %v out of range", a, got)
		}
		if math.Abs(math.Sin(got)-math.Sin(a)) > 1e-9 || math.Abs(math.Cos(got)-math.Cos(a)) > 1e-9 {
			t.Errorf("NormalizeAngle(%v) = %v changes direction", a, got)
		}
	}
}

func TestBoundingRect(t *testing.T) {
	r := BoundingRect([]Point{{3, 4}, {-1, 2}, {5, -2}})
	want := Rect{X: -1, Y: -2, W: 6, H: 6}
	if r != want {
		t.Errorf("BoundingRect = %+v, want %+v", r, want)
	}
}

func BenchmarkRayIntersect(b *testing.B) {
	wall := Segment{A: Point{10, -5}, B: Point{10, 5}}
	dir := Heading(0.2)
	for i := 0; i < b.N; i++ {
		RayIntersect(Point{}, dir, wall)
	}
}
