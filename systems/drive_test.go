package systems

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/pthm-cable/mcl/components"
	"github.com/pthm-cable/mcl/world"
)

func TestApplyDrive(t *testing.T) {
	m, err := world.SquareRoom(200)
	if err != nil {
		t.Fatal(err)
	}
	kin := components.Kinematics{Speed: 100, TurnRate: math.Pi}

	tests := []struct {
		name    string
		heading float64
		cmd     components.Drive
		wantX   float64
		wantY   float64
		wantH   float64
	}{
		{"forward", 0, components.Drive{Forward: 1}, 110, 100, 0},
		{"forward facing up", math.Pi / 2, components.Drive{Forward: 1}, 100, 110, math.Pi / 2},
		{"strafe right", 0, components.Drive{Strafe: 1}, 100, 110, 0},
		{"turn", 0, components.Drive{Turn: 1}, 100, 100, math.Pi / 10},
		{"clamped", 0, components.Drive{Forward: 5}, 110, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := components.Position{X: 100, Y: 100}
			rot := components.Rotation{Heading: tt.heading}
			mv := ApplyDrive(&pos, &rot, tt.cmd, kin, 5, m, nil, 0.1)
			if mv.Blocked {
				t.Fatal("unexpectedly blocked")
			}
			if math.Abs(pos.X-tt.wantX) > 1e-9 || math.Abs(pos.Y-tt.wantY) > 1e-9 {
				t.Errorf("pos = (%v, %v), want (%v, %v)", pos.X, pos.Y, tt.wantX, tt.wantY)
			}
			if math.Abs(rot.Heading-tt.wantH) > 1e-9 {
				t.Errorf("heading = %v, want %v", rot.Heading, tt.wantH)
			}
		})
	}
}

func TestApplyDriveBlockedByWall(t *testing.T) {
	m, err := world.SquareRoom(200)
	if err != nil {
		t.Fatal(err)
	}
	kin := components.Kinematics{Speed: 100, TurnRate: math.Pi}

	// Would cross the right wall.
	pos := components.Position{X: 195, Y: 100}
	rot := components.Rotation{}
	mv := ApplyDrive(&pos, &rot, components.Drive{Forward: 1, Turn: 1}, kin, 5, m, nil, 0.1)
	if !mv.Blocked || pos.X != 195 {
		t.Errorf("crossing move not blocked: %+v pos %v", mv, pos)
	}
	if rot.Heading == 0 {
		t.Error("rotation should still apply when translation is blocked")
	}

	// Stays inside but ends within the body radius of the wall.
	pos = components.Position{X: 185, Y: 100}
	rot = components.Rotation{}
	mv = ApplyDrive(&pos, &rot, components.Drive{Forward: 1}, kin, 10, m, wallField{wallX: 200}, 0.1)
	if !mv.Blocked {
		t.Errorf("move into radius clearance not blocked: pos %v", pos)
	}
}

func TestOdometerNoise(t *testing.T) {
	var odo components.Odometry
	odo.Reset(10, 20, 0.5)

	exact := NewOdometer(0, nil)
	exact.Record(&odo, Motion{DX: 3, DY: -4, DHeading: 0.1})
	if odo.X != 13 || odo.Y != 16 || math.Abs(odo.Heading-0.6) > 1e-12 {
		t.Errorf("noiseless odometry = %+v", odo)
	}
	if odo.PrevX != 10 || odo.PrevY != 20 || odo.PrevHeading != 0.5 {
		t.Errorf("previous reading not kept: %+v", odo)
	}

	noisy := NewOdometer(0.05, rand.New(rand.NewPCG(1, 2)))
	var sum, sumSq float64
	const n = 5000
	for i := 0; i < n; i++ {
		odo.Reset(0, 0, 0)
		noisy.Record(&odo, Motion{DX: 10})
		sum += odo.X
		sumSq += odo.X * odo.X
		if odo.Y != 0 || odo.Heading != 0 {
			t.Fatal("zero components must stay exact")
		}
	}
	mean := sum / n
	std := math.Sqrt(sumSq/n - mean*mean)
	if math.Abs(mean-10) > 0.05 {
		t.Errorf("mean = %v, want ~10", mean)
	}
	if math.Abs(std-0.5) > 0.05 {
		t.Errorf("std = %v, want ~0.5", std)
	}
}
