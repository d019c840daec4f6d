package mcl

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/mcl/distfield"
	"github.com/pthm-cable/mcl/geom"
	"github.com/pthm-cable/mcl/raycast"
	"github.com/pthm-cable/mcl/world"
)

// Phase names reported to a PhaseRecorder.
const (
	PhaseMotion      = "motion"
	PhaseMeasurement = "measurement"
	PhaseResample    = "resample"
)

// DefaultStreams is the number of independent random streams, and so the
// number of chunks the particles are split into.
const DefaultStreams = 16

var (
	ErrInvalidParticleCount = errors.New("mcl: particle count must be positive")
	ErrInvalidSigma         = errors.New("mcl: measurement sigma must be positive")
	ErrNoField              = errors.New("mcl: distance field is required")
)

// PhaseRecorder receives phase boundaries during Update.
type PhaseRecorder interface {
	StartPhase(phase string)
}

// Config holds the filter parameters.
type Config struct {
	Particles int
	Workers   int // 0 uses GOMAXPROCS
	Streams   int // 0 uses DefaultStreams
	Seed      uint64
	Motion    MotionModel
	Sigma     float64
	Scale     float64
}

// Stats describes the most recent Update.
type Stats struct {
	Step          int
	EffectiveSize float64 // before resampling
	MaxWeight     float64 // before resampling
	ValidRays     int
	Uniform       bool // weights fell back to uniform
}

// Filter is a Monte Carlo Localization filter. It is not safe for
// concurrent use; Update parallelizes internally.
type Filter struct {
	set       *ParticleSet
	motion    MotionModel
	measure   *MeasurementModel
	resampler LowVariance

	pool   *workerPool
	chunks []chunk
	rngs   []*rand.Rand // one per chunk
	rng    *rand.Rand   // resampling and scattering
	logw   []float64

	phases PhaseRecorder
	stats  Stats
}

// New builds a filter with particles spread uniformly over the map's start
// rectangle.
func New(cfg Config, m *world.Map, field *distfield.Field, fan raycast.Fan) (*Filter, error) {
	if cfg.Particles <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidParticleCount, cfg.Particles)
	}
	if fan.Len() == 0 {
		return nil, raycast.ErrInvalidFan
	}
	if !(cfg.Sigma > 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidSigma, cfg.Sigma)
	}
	if field == nil {
		return nil, ErrNoField
	}
	streams := cfg.Streams
	if streams <= 0 {
		streams = DefaultStreams
	}

	f := &Filter{
		set:     NewParticleSet(cfg.Particles),
		motion:  cfg.Motion,
		measure: NewMeasurementModel(cfg.Sigma, cfg.Scale, fan, field),
		pool:    newWorkerPool(cfg.Workers),
		chunks:  splitChunks(cfg.Particles, streams),
		rng:     rand.New(rand.NewPCG(cfg.Seed, 0)),
		logw:    make([]float64, cfg.Particles),
	}
	f.rngs = make([]*rand.Rand, len(f.chunks))
	for i := range f.rngs {
		f.rngs[i] = rand.New(rand.NewPCG(cfg.Seed, uint64(i)+1))
	}
	f.set.Scatter(m.Start, f.rng)
	return f, nil
}

// SetPhaseRecorder installs a timing hook. nil disables it.
func (f *Filter) SetPhaseRecorder(r PhaseRecorder) { f.phases = r }

func (f *Filter) phase(name string) {
	if f.phases != nil {
		f.phases.StartPhase(name)
	}
}

// Update runs one motion, measurement, resample cycle and returns the new
// estimate. It always leaves a complete population with finite weights.
func (f *Filter) Update(u Control, scan raycast.Scan) Pose {
	f.phase(PhaseMotion)
	d := Decompose(u)
	poses := f.set.poses
	f.pool.run(len(poses), f.chunks, func(c chunk) {
		f.motion.Apply(poses[c.start:c.end], d, f.rngs[c.id])
	})

	f.phase(PhaseMeasurement)
	f.weigh(scan)

	f.phase(PhaseResample)
	f.resampler.Resample(f.set, f.rng)

	f.stats.Step++
	return f.Estimate()
}

// weigh multiplies each weight by the scan likelihood and renormalizes.
func (f *Filter) weigh(scan raycast.Scan) {
	poses, w, logw := f.set.poses, f.set.weights, f.logw
	f.stats.ValidRays = f.measure.UsableRays(scan)
	f.stats.Uniform = false

	if f.stats.ValidRays == 0 {
		// Nothing to learn from this scan.
		f.set.SetUniform()
		f.stats.Uniform = true
	} else {
		f.pool.run(len(poses), f.chunks, func(c chunk) {
			for i := c.start; i < c.end; i++ {
				ll, _ := f.measure.LogLikelihood(poses[i], scan)
				logw[i] = math.Log(w[i]) + ll
			}
		})
		f.stats.Uniform = !normalizeLog(logw, w)
	}
	f.stats.EffectiveSize = f.set.EffectiveSize()
	f.stats.MaxWeight = floats.Max(w)
}

// Estimate returns the weighted mean pose of the current population.
func (f *Filter) Estimate() Pose { return f.set.Estimate() }

// Particles copies the current population into dst for display.
func (f *Filter) Particles(dst []Particle) []Particle { return f.set.Particles(dst) }

// Len returns the particle count.
func (f *Filter) Len() int { return f.set.Len() }

// Stats returns diagnostics from the last Update.
func (f *Filter) Stats() Stats { return f.stats }

// Reset scatters the particles uniformly over area, discarding the current
// belief. Used for global relocalization after the filter loses track.
func (f *Filter) Reset(area geom.Rect) {
	f.set.Scatter(area, f.rng)
}

// Close stops the worker goroutines.
func (f *Filter) Close() {
	f.pool.stop()
}

// ResetAround spreads the particles around a known pose with Gaussian
// position and heading noise. Zero spreads put every particle on p.
func (f *Filter) ResetAround(p Pose, posStd, headingStd float64) {
	for i := range f.set.poses {
		f.set.poses[i] = Pose{
			X:     p.X + posStd*f.rng.NormFloat64(),
			Y:     p.Y + posStd*f.rng.NormFloat64(),
			Theta: geom.NormalizeAngle(p.Theta + headingStd*f.rng.NormFloat64()),
		}
	}
	f.set.SetUniform()
}
