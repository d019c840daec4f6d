package mcl

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/mcl/geom"
)

// minTranslation below which the bearing of a move is meaningless.
const minTranslation = 1e-9

// Delta is odometry motion decomposed into rotate, translate, rotate.
type Delta struct {
	Rot1, Trans, Rot2 float64
}

// Decompose splits a control into the rotation toward the new position,
// the straight-line distance, and the remaining heading change. When the
// translation is negligible all of the turn goes into Rot2.
func Decompose(u Control) Delta {
	dx := u.After.X - u.Before.X
	dy := u.After.Y - u.Before.Y
	trans := math.Hypot(dx, dy)
	var rot1 float64
	if trans >= minTranslation {
		rot1 = geom.NormalizeAngle(math.Atan2(dy, dx) - u.Before.Theta)
	}
	rot2 := geom.NormalizeAngle(u.After.Theta - u.Before.Theta - rot1)
	return Delta{Rot1: rot1, Trans: trans, Rot2: rot2}
}

// MotionModel samples new poses from odometry. A1 and A2 scale rotation
// noise with rotation and translation; A3 and A4 scale translation noise
// with translation and rotation.
type MotionModel struct {
	A1, A2, A3, A4 float64
}

// Noise returns the standard deviations applied to each component of d.
func (m MotionModel) Noise(d Delta) (rot1, trans, rot2 float64) {
	ar1, ar2 := math.Abs(d.Rot1), math.Abs(d.Rot2)
	rot1 = m.A1*ar1 + m.A2*d.Trans
	trans = m.A3*d.Trans + m.A4*(ar1+ar2)
	rot2 = m.A1*ar2 + m.A2*d.Trans
	return rot1, trans, rot2
}

// Sample moves p by a noisy copy of d. rng supplies the noise.
func (m MotionModel) Sample(p Pose, d Delta, rng *rand.Rand) Pose {
	n := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	return m.sample(p, d, &n)
}

// sample reuses a unit normal so the per-particle loop does not rebuild it.
func (m MotionModel) sample(p Pose, d Delta, unit *distuv.Normal) Pose {
	s1, st, s2 := m.Noise(d)
	rot1 := d.Rot1 - s1*unit.Rand()
	trans := d.Trans - st*unit.Rand()
	rot2 := d.Rot2 - s2*unit.Rand()

	heading := p.Theta + rot1
	return Pose{
		X:     p.X + trans*math.Cos(heading),
		Y:     p.Y + trans*math.Sin(heading),
		Theta: geom.NormalizeAngle(heading + rot2),
	}
}

// Apply moves every pose in place. Weights are not touched.
func (m MotionModel) Apply(poses []Pose, d Delta, rng *rand.Rand) {
	n := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	for i := range poses {
		poses[i] = m.sample(poses[i], d, &n)
	}
}
