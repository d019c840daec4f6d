package raycast

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/pthm-cable/mcl/geom"
)

func roomWalls(side float64) []geom.Segment {
	return geom.PolygonEdges([]geom.Point{{0, 0}, {side, 0}, {side, side}, {0, side}})
}

func TestNewFan(t *testing.T) {
	fan, err := NewFan(4)
	if err != nil {
		t.Fatalf("NewFan: %v", err)
	}
	want := []float64{0, math.Pi / 2, math.Pi, 3 * math.Pi / 2}
	for i, a := range fan.Angles {
		if math.Abs(a-want[i]) > 1e-12 {
			t.Errorf("angle[%d] = %v, want %v", i, a, want[i])
		}
	}

	for _, n := range []int{0, -3} {
		if _, err := NewFan(n); !errors.Is(err, ErrInvalidFan) {
			t.Errorf("NewFan(%d) err = %v, want ErrInvalidFan", n, err)
		}
	}
}

func TestFanFromResolution(t *testing.T) {
	tests := []struct {
		deg  float64
		want int
	}{
		{90, 4},
		{10, 36},
		{1, 360},
		{7, 51},
	}
	for _, tt := range tests {
		fan, err := FanFromResolution(tt.deg)
		if err != nil {
			t.Fatalf("FanFromResolution(%v): %v", tt.deg, err)
		}
		if fan.Len() != tt.want {
			t.Errorf("FanFromResolution(%v) = %d rays, want %d", tt.deg, fan.Len(), tt.want)
		}
	}
	if _, err := FanFromResolution(400); !errors.Is(err, ErrInvalidFan) {
		t.Errorf("resolution above 360 should yield no rays, got err %v", err)
	}
}

func TestCastSquareRoom(t *testing.T) {
	const side = 200.0
	fan, _ := NewFan(4)
	hits := Cast(geom.Point{X: side / 2, Y: side / 2}, 0, fan, roomWalls(side))

	if len(hits) != 4 {
		t.Fatalf("got %d hits, want 4", len(hits))
	}
	for i, h := range hits {
		if !h.OK {
			t.Fatalf("ray %d missed", i)
		}
		if math.Abs(h.Distance-side/2) > 1e-9 {
			t.Errorf("ray %d distance = %v, want %v", i, h.Distance, side/2)
		}
	}
}

func TestCastNearestWall(t *testing.T) {
	walls := append(roomWalls(100), geom.Segment{A: geom.Point{X: 70, Y: 10}, B: geom.Point{X: 70, Y: 90}})
	h := CastRay(geom.Point{X: 50, Y: 50}, 0, walls)
	if !h.OK || math.Abs(h.Distance-20) > 1e-9 {
		t.Errorf("hit = %+v, want distance 20", h)
	}
}

func TestCastNoHit(t *testing.T) {
	// Single wall to the right; rays pointing left find nothing.
	walls := []geom.Segment{{A: geom.Point{X: 10, Y: -5}, B: geom.Point{X: 10, Y: 5}}}
	h := CastRay(geom.Point{}, math.Pi, walls)
	if h.OK {
		t.Fatalf("expected no hit, got %+v", h)
	}
	if h.Distance != 0 {
		t.Errorf("no-hit distance = %v, want zero value", h.Distance)
	}
}

func TestLidarNoiseless(t *testing.T) {
	fan, _ := NewFan(8)
	l := NewLidar(fan, roomWalls(100), 0, nil)
	scan := l.Scan(geom.Point{X: 50, Y: 50}, 0.3)
	if scan.Valid() != 8 {
		t.Fatalf("valid = %d, want 8", scan.Valid())
	}
	hits := Cast(geom.Point{X: 50, Y: 50}, 0.3, fan, roomWalls(100))
	for i := range scan {
		if scan[i] != hits[i].Distance {
			t.Errorf("ray %d: scan %v != cast %v", i, scan[i], hits[i].Distance)
		}
	}
}

func TestLidarNoReturnIsInf(t *testing.T) {
	fan, _ := NewFan(2)
	walls := []geom.Segment{{A: geom.Point{X: 10, Y: -5}, B: geom.Point{X: 10, Y: 5}}}
	scan := NewLidar(fan, walls, 0, nil).Scan(geom.Point{}, 0)
	if !math.IsInf(scan[1], 1) {
		t.Errorf("backward ray = %v, want +Inf", scan[1])
	}
	if scan.Valid() != 1 {
		t.Errorf("valid = %d, want 1", scan.Valid())
	}
	if got := len(scan.Endpoints(geom.Point{}, 0, fan)); got != 1 {
		t.Errorf("endpoints = %d, want 1", got)
	}
}

func TestLidarNoiseClampedAndDeterministic(t *testing.T) {
	fan, _ := NewFan(16)
	walls := roomWalls(10)
	a := NewLidar(fan, walls, 50, rand.New(rand.NewPCG(1, 2))).Scan(geom.Point{X: 0.5, Y: 0.5}, 0)
	b := NewLidar(fan, walls, 50, rand.New(rand.NewPCG(1, 2))).Scan(geom.Point{X: 0.5, Y: 0.5}, 0)
	for i := range a {
		if a[i] < 0 {
			t.Errorf("ray %d negative range %v", i, a[i])
		}
		if a[i] != b[i] {
			t.Errorf("ray %d differs between identically seeded sensors", i)
		}
	}
}

func BenchmarkCast(b *testing.B) {
	fan, _ := NewFan(72)
	walls := roomWalls(500)
	for i := 0; i < b.N; i++ {
		Cast(geom.Point{X: 120, Y: 300}, 0.4, fan, walls)
	}
}
