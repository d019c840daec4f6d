package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/mcl/config"
	"github.com/pthm-cable/mcl/telemetry"
)

func TestParamVector_NormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		assert.InDelta(t, raw[i], back[i], 1e-12, pv.Specs[i].Name)
	}
}

func TestParamVector_DefaultsMatchConfig(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	pv := NewParamVector()
	assert.Equal(t, pv.DefaultVector(), pv.ExtractFromConfig(cfg))
}

func TestParamVector_ApplyClamps(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	pv := NewParamVector()
	pv.ApplyToConfig(cfg, []float64{-1, 0.01, 0.2, 5, 0})

	assert.Equal(t, 0.0, cfg.Motion.A1)
	assert.Equal(t, 0.01, cfg.Motion.A2)
	assert.Equal(t, 0.2, cfg.Motion.A3)
	assert.Equal(t, 0.2, cfg.Motion.A4)
	assert.Equal(t, 1.0, cfg.Measurement.Sigma)
	require.NoError(t, cfg.Validate())
}

func TestComputeFitness(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	fe := NewFitnessEvaluator(NewParamVector(), 100, []uint64{1}, cfg)

	windows := []telemetry.WindowStats{
		{PosErrMean: 500}, // warmup
		{PosErrMean: 400}, // warmup
		{PosErrMean: 4},
		{PosErrMean: 6, Resets: 1},
	}
	// mean 5, half the windows reset
	assert.InDelta(t, 7.5, fe.computeFitness(windows), 1e-12)
	assert.Equal(t, failedFitness, fe.computeFitness(windows[:2]))
}

func TestCopyConfig_Independent(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	fe := NewFitnessEvaluator(NewParamVector(), 100, []uint64{1}, cfg)

	c := fe.copyConfig()
	c.Motion.A1 = 0.42
	assert.NotEqual(t, 0.42, cfg.Motion.A1)
}

func TestBestTracker_KeepsLowest(t *testing.T) {
	b := &bestTracker{fitness: 1e9}
	v := []float64{1, 2}
	b.offer(5, v)
	v[0] = 99
	b.offer(7, []float64{3, 4})

	assert.Equal(t, 5.0, b.fitness)
	assert.Equal(t, []float64{1, 2}, b.values, "offer copies its input")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "2m03s", formatDuration(123*time.Second))
	assert.Equal(t, "1h02m03s", formatDuration(time.Hour+2*time.Minute+3*time.Second))
}
