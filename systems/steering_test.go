package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/mcl/geom"
)

// wallField is a vertical wall at x = wallX.
type wallField struct {
	wallX float64
}

func (w wallField) Lookup(x, y float64) float64 { return math.Abs(x - w.wallX) }

type openField struct{}

func (openField) Lookup(x, y float64) float64 { return 1000 }

func TestSteerStraightAhead(t *testing.T) {
	s := NewSteerer(nil, DefaultSteeringParams())
	cmd := s.Steer(geom.Point{}, 0, geom.Point{X: 100}, 5)

	if math.Abs(cmd.Turn) > 1e-9 {
		t.Errorf("Turn = %v, want 0", cmd.Turn)
	}
	if math.Abs(cmd.Forward-1) > 1e-9 {
		t.Errorf("Forward = %v, want 1", cmd.Forward)
	}
}

func TestSteerTurnsTowardTarget(t *testing.T) {
	s := NewSteerer(openField{}, DefaultSteeringParams())

	tests := []struct {
		name     string
		target   geom.Point
		wantTurn float64 // sign
		moving   bool
	}{
		{"left in map frame", geom.Point{X: 10, Y: 100}, 1, false},
		{"right in map frame", geom.Point{X: 10, Y: -100}, -1, false},
		{"slightly left", geom.Point{X: 100, Y: 20}, 1, true},
		{"behind", geom.Point{X: -100, Y: 1}, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := s.Steer(geom.Point{}, 0, tt.target, 5)
			if math.Signbit(cmd.Turn) != math.Signbit(tt.wantTurn) || cmd.Turn == 0 {
				t.Errorf("Turn = %v, want sign of %v", cmd.Turn, tt.wantTurn)
			}
			if (cmd.Forward > 0) != tt.moving {
				t.Errorf("Forward = %v, moving = %v", cmd.Forward, tt.moving)
			}
		})
	}
}

func TestAttractionDeadzone(t *testing.T) {
	s := NewSteerer(nil, DefaultSteeringParams())
	far := s.attraction(geom.Point{}, geom.Point{X: 100})
	near := s.attraction(geom.Point{}, geom.Point{X: 4})

	if math.Abs(far.X-1) > 1e-9 {
		t.Errorf("far attraction = %v, want 1", far.X)
	}
	if math.Abs(near.X-0.5) > 1e-9 {
		t.Errorf("attraction inside deadzone = %v, want 0.5", near.X)
	}
	if got := s.attraction(geom.Point{}, geom.Point{}); got != (geom.Point{}) {
		t.Errorf("attraction at target = %v, want zero", got)
	}
}

func TestRepulsionPushesAwayFromWall(t *testing.T) {
	s := NewSteerer(wallField{wallX: 10}, DefaultSteeringParams())
	rep := s.repulsion(geom.Point{X: 0}, 2)
	if rep.X >= 0 {
		t.Errorf("repulsion X = %v, want negative (away from wall on the right)", rep.X)
	}
	if math.Abs(rep.Y) > 1e-9 {
		t.Errorf("repulsion Y = %v, want 0", rep.Y)
	}

	far := NewSteerer(wallField{wallX: 500}, DefaultSteeringParams()).repulsion(geom.Point{}, 2)
	if far != (geom.Point{}) {
		t.Errorf("distant wall should not repel, got %v", far)
	}
}

func TestMaxForceClamping(t *testing.T) {
	p := DefaultSteeringParams()
	p.AttractionStrength = 10
	s := NewSteerer(nil, p)
	cmd := s.Steer(geom.Point{}, 0, geom.Point{X: 100}, 5)
	if cmd.Forward > 1+1e-9 {
		t.Errorf("Forward = %v exceeds 1", cmd.Forward)
	}
}
