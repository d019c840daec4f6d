// Package main provides CMA-ES tuning of the localizer's noise parameters.
package main

import (
	"github.com/pthm-cable/mcl/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Motion model
			{Name: "a1", Path: "motion.a1", Min: 0, Max: 0.5, Default: 0.05},
			{Name: "a2", Path: "motion.a2", Min: 0, Max: 0.05, Default: 0.001},
			{Name: "a3", Path: "motion.a3", Min: 0, Max: 0.5, Default: 0.05},
			{Name: "a4", Path: "motion.a4", Min: 0, Max: 0.2, Default: 0.01},
			// Measurement model
			{Name: "sigma", Path: "measurement.sigma", Min: 1, Max: 40, Default: 8},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg. Order matches Specs.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	cfg.Motion.A1 = clamped[0]
	cfg.Motion.A2 = clamped[1]
	cfg.Motion.A3 = clamped[2]
	cfg.Motion.A4 = clamped[3]
	cfg.Measurement.Sigma = clamped[4]
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Motion.A1,
		cfg.Motion.A2,
		cfg.Motion.A3,
		cfg.Motion.A4,
		cfg.Measurement.Sigma,
	}
}
