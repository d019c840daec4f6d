package mcl

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/mcl/distfield"
	"github.com/pthm-cable/mcl/raycast"
)

// MeasurementModel scores a pose against a range scan with a likelihood
// field: each measured range is projected from the candidate pose and the
// distance from the endpoint to the nearest wall is read from the field.
// Endpoints that land on a wall score highest.
type MeasurementModel struct {
	Sigma float64 // spread of the per-ray Gaussian, map units
	Scale float64 // per-ray likelihood multiplier
	Fan   raycast.Fan
	Field *distfield.Field

	normal   distuv.Normal
	logScale float64
}

// NewMeasurementModel builds a model. sigma must be positive; a scale of
// zero or less is treated as one.
func NewMeasurementModel(sigma, scale float64, fan raycast.Fan, field *distfield.Field) *MeasurementModel {
	if !(scale > 0) {
		scale = 1
	}
	return &MeasurementModel{
		Sigma:    sigma,
		Scale:    scale,
		Fan:      fan,
		Field:    field,
		normal:   distuv.Normal{Mu: 0, Sigma: sigma},
		logScale: math.Log(scale),
	}
}

// LogLikelihood returns the log of the product of per-ray likelihoods and
// the number of rays that contributed. Rays without a finite range carry no
// information and are skipped. With no usable rays the result is (0, 0).
func (m *MeasurementModel) LogLikelihood(p Pose, scan raycast.Scan) (float64, int) {
	n := min(len(scan), m.Fan.Len())
	var ll float64
	valid := 0
	for k := 0; k < n; k++ {
		r := scan[k]
		if math.IsInf(r, 0) || math.IsNaN(r) {
			continue
		}
		a := p.Theta + m.Fan.Angles[k]
		d := m.Field.Lookup(p.X+r*math.Cos(a), p.Y+r*math.Sin(a))
		ll += m.logScale + m.normal.LogProb(d)
		valid++
	}
	return ll, valid
}

// UsableRays counts the rays of scan that LogLikelihood would use.
func (m *MeasurementModel) UsableRays(scan raycast.Scan) int {
	n := min(len(scan), m.Fan.Len())
	return scan[:n].Valid()
}

// Likelihood is exp(LogLikelihood). It underflows to zero quickly for long
// scans; the filter works in the log domain instead.
func (m *MeasurementModel) Likelihood(p Pose, scan raycast.Scan) float64 {
	ll, _ := m.LogLikelihood(p, scan)
	return math.Exp(ll)
}

// normalizeLog turns log-weights into normalized weights in place of w.
// It reports false, leaving w uniform, when no weight is finite.
func normalizeLog(logw, w []float64) bool {
	lse := floats.LogSumExp(logw)
	if math.IsNaN(lse) || math.IsInf(lse, 0) {
		u := 1 / float64(len(w))
		for i := range w {
			w[i] = u
		}
		return false
	}
	for i, l := range logw {
		w[i] = math.Exp(l - lse)
	}
	return true
}
