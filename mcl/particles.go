package mcl

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/mcl/geom"
)

// ParticleSet is a fixed-size population of weighted poses. Poses and
// weights live in parallel slices so weight arithmetic can run on plain
// float64 vectors.
type ParticleSet struct {
	poses   []Pose
	weights []float64
}

// NewParticleSet returns n particles at the origin with uniform weight.
func NewParticleSet(n int) *ParticleSet {
	s := &ParticleSet{
		poses:   make([]Pose, n),
		weights: make([]float64, n),
	}
	s.SetUniform()
	return s
}

// Scatter places every particle uniformly at random inside area with a
// uniformly random heading, and resets weights to 1/N.
func (s *ParticleSet) Scatter(area geom.Rect, rng *rand.Rand) {
	for i := range s.poses {
		s.poses[i] = Pose{
			X:     area.X + rng.Float64()*area.W,
			Y:     area.Y + rng.Float64()*area.H,
			Theta: rng.Float64()*2*math.Pi - math.Pi,
		}
	}
	s.SetUniform()
}

// Len returns N.
func (s *ParticleSet) Len() int { return len(s.poses) }

// At returns particle i.
func (s *ParticleSet) At(i int) Particle {
	return Particle{Pose: s.poses[i], Weight: s.weights[i]}
}

// Set overwrites particle i.
func (s *ParticleSet) Set(i int, p Particle) {
	s.poses[i] = p.Pose
	s.weights[i] = p.Weight
}

// Poses exposes the pose slice. Callers must not change its length.
func (s *ParticleSet) Poses() []Pose { return s.poses }

// Weights exposes the weight slice. Callers must not change its length.
func (s *ParticleSet) Weights() []float64 { return s.weights }

// Particles copies the population into dst, reusing its storage.
func (s *ParticleSet) Particles(dst []Particle) []Particle {
	dst = dst[:0]
	for i := range s.poses {
		dst = append(dst, s.At(i))
	}
	return dst
}

// SetUniform sets every weight to 1/N.
func (s *ParticleSet) SetUniform() {
	if len(s.weights) == 0 {
		return
	}
	w := 1 / float64(len(s.weights))
	for i := range s.weights {
		s.weights[i] = w
	}
}

// Normalize scales weights to sum to one. If the sum is zero or not finite
// the weights are reset to uniform and Normalize reports false.
func (s *ParticleSet) Normalize() bool {
	sum := floats.Sum(s.weights)
	if !(sum > 0) || math.IsInf(sum, 0) {
		s.SetUniform()
		return false
	}
	floats.Scale(1/sum, s.weights)
	return true
}

// Estimate returns the weighted mean pose. Heading is averaged on the unit
// circle so hypotheses either side of +-Pi do not cancel out.
func (s *ParticleSet) Estimate() Pose {
	sum := floats.Sum(s.weights)
	uniform := !(sum > 0) || math.IsInf(sum, 0)
	if len(s.poses) == 0 {
		return Pose{}
	}

	var x, y, sn, cs float64
	for i, p := range s.poses {
		w := 1.0
		if !uniform {
			w = s.weights[i]
		}
		x += w * p.X
		y += w * p.Y
		sn += w * math.Sin(p.Theta)
		cs += w * math.Cos(p.Theta)
	}
	if uniform {
		sum = float64(len(s.poses))
	}
	return Pose{X: x / sum, Y: y / sum, Theta: math.Atan2(sn, cs)}
}

// EffectiveSize returns 1/sum(w^2) for normalized weights: N when weights
// are uniform, 1 when a single particle holds all the mass.
func (s *ParticleSet) EffectiveSize() float64 {
	sq := floats.Dot(s.weights, s.weights)
	if sq == 0 {
		return 0
	}
	sum := floats.Sum(s.weights)
	return sum * sum / sq
}
