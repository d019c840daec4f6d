// Package mcl implements Monte Carlo Localization: a particle filter that
// tracks a robot's pose on a known map from noisy odometry and range scans.
package mcl

import (
	"math"

	"github.com/pthm-cable/mcl/geom"
)

// Pose is a position and heading in map coordinates. Theta is in radians.
type Pose struct {
	X, Y, Theta float64
}

// Point returns the position part of the pose.
func (p Pose) Point() geom.Point { return geom.Point{X: p.X, Y: p.Y} }

// Finite reports whether every component is a finite number.
func (p Pose) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0) &&
		!math.IsNaN(p.Theta) && !math.IsInf(p.Theta, 0)
}

// Control is a pair of consecutive odometry readings. Only the relative
// motion between them is used.
type Control struct {
	Before, After Pose
}

// Particle is one pose hypothesis and its importance weight.
type Particle struct {
	Pose
	Weight float64
}
