package mcl

import "math/rand/v2"

// LowVariance is a systematic resampler: one random offset, then N evenly
// spaced pointers walk the cumulative weights. It runs in O(N) and keeps
// every particle whose weight is at least 1/N.
type LowVariance struct {
	poses []Pose
}

// Resample replaces the population with N draws proportional to weight and
// sets every weight to 1/N. Weights must be normalized.
func (r *LowVariance) Resample(s *ParticleSet, rng *rand.Rand) {
	n := s.Len()
	if n == 0 {
		return
	}
	if cap(r.poses) < n {
		r.poses = make([]Pose, n)
	}
	out := r.poses[:n]
	w := s.weights

	step := 1 / float64(n)
	u := rng.Float64() * step
	c := w[0]
	i := 0
	for k := 0; k < n; k++ {
		target := u + float64(k)*step
		for (target > c || w[i] == 0) && i < n-1 {
			i++
			c += w[i]
		}
		out[k] = s.poses[i]
	}

	// Swap buffers; the old pose slice becomes next step's scratch space.
	r.poses, s.poses = s.poses, out
	s.SetUniform()
}
