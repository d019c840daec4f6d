package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/mcl/geom"
	"github.com/pthm-cable/mcl/mcl"
)

// StepRecord is one row of steps.csv: ground truth against the filter
// estimate after a single update.
type StepRecord struct {
	RunID        string  `csv:"run_id"`
	Step         int     `csv:"step"`
	SimTimeSec   float64 `csv:"sim_time"`
	TrueX        float64 `csv:"true_x"`
	TrueY        float64 `csv:"true_y"`
	TrueHeading  float64 `csv:"true_heading"`
	EstX         float64 `csv:"est_x"`
	EstY         float64 `csv:"est_y"`
	EstHeading   float64 `csv:"est_heading"`
	PosError     float64 `csv:"pos_error"`
	HeadingError float64 `csv:"heading_error"`
	ESS          float64 `csv:"ess"`
	MaxWeight    float64 `csv:"max_weight"`
	ValidRays    int     `csv:"valid_rays"`
	Uniform      bool    `csv:"uniform"`
	Blocked      bool    `csv:"blocked"`
	Reset        bool    `csv:"reset"`
}

// NewStepRecord fills the error columns from the true and estimated poses.
func NewStepRecord(step int, dt float64, truth, est mcl.Pose) StepRecord {
	return StepRecord{
		Step:         step,
		SimTimeSec:   float64(step) * dt,
		TrueX:        truth.X,
		TrueY:        truth.Y,
		TrueHeading:  truth.Theta,
		EstX:         est.X,
		EstY:         est.Y,
		EstHeading:   est.Theta,
		PosError:     math.Hypot(est.X-truth.X, est.Y-truth.Y),
		HeadingError: math.Abs(geom.NormalizeAngle(est.Theta - truth.Theta)),
	}
}

// WindowStats summarizes a window of steps. One row of windows.csv.
type WindowStats struct {
	RunID           string  `csv:"run_id"`
	WindowStartStep int     `csv:"window_start"`
	WindowEndStep   int     `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`
	Steps           int     `csv:"steps"`

	PosErrMean float64 `csv:"pos_err_mean"`
	PosErrP50  float64 `csv:"pos_err_p50"`
	PosErrP90  float64 `csv:"pos_err_p90"`
	PosErrMax  float64 `csv:"pos_err_max"`

	HeadingErrMean float64 `csv:"heading_err_mean"`

	ESSMean       float64 `csv:"ess_mean"`
	ESSStd        float64 `csv:"ess_std"`
	ValidRaysMean float64 `csv:"valid_rays_mean"`

	UniformSteps int `csv:"uniform_steps"`
	BlockedMoves int `csv:"blocked_moves"`
	Resets       int `csv:"resets"`
}

// Percentile returns the p-th percentile (0-1) of a sorted slice using
// linear interpolation between closest ranks.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeErrorStats returns the mean, median, 90th percentile and max of
// values. values is not modified.
func ComputeErrorStats(values []float64) (mean, p50, p90, max float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	mean = stat.Mean(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return mean, Percentile(sorted, 0.50), Percentile(sorted, 0.90), sorted[len(sorted)-1]
}

// LogValue implements slog.LogValuer.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("run_id", s.RunID),
		slog.Int("window_start", s.WindowStartStep),
		slog.Int("window_end", s.WindowEndStep),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Float64("pos_err_mean", s.PosErrMean),
		slog.Float64("pos_err_p50", s.PosErrP50),
		slog.Float64("pos_err_p90", s.PosErrP90),
		slog.Float64("pos_err_max", s.PosErrMax),
		slog.Float64("heading_err_mean", s.HeadingErrMean),
		slog.Float64("ess_mean", s.ESSMean),
		slog.Float64("ess_std", s.ESSStd),
		slog.Float64("valid_rays_mean", s.ValidRaysMean),
		slog.Int("uniform_steps", s.UniformSteps),
		slog.Int("blocked_moves", s.BlockedMoves),
		slog.Int("resets", s.Resets),
	)
}

// LogStats logs the window with slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndStep,
		"sim_time", s.SimTimeSec,
		"pos_err_mean", s.PosErrMean,
		"pos_err_p90", s.PosErrP90,
		"heading_err_mean", s.HeadingErrMean,
		"ess_mean", s.ESSMean,
		"valid_rays_mean", s.ValidRaysMean,
		"uniform_steps", s.UniformSteps,
		"blocked_moves", s.BlockedMoves,
		"resets", s.Resets,
	)
}
