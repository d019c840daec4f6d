package main

import (
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/mcl/config"
	"github.com/pthm-cable/mcl/distfield"
	"github.com/pthm-cable/mcl/game"
	"github.com/pthm-cable/mcl/telemetry"
)

// FitnessEvaluator runs headless localization runs and scores them.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int
	seeds      []uint64
	baseConfig *config.Config
	store      distfield.Store // shared so each map's field is built once

	mu          sync.Mutex
	bestFitness float64
	bestWindows []telemetry.WindowStats
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int, seeds []uint64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		store:       distfield.NewMemoryStore(),
		bestFitness: math.Inf(1),
	}
}

// BestWindows returns the window stats of the best seed of the best evaluation.
func (fe *FitnessEvaluator) BestWindows() []telemetry.WindowStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestWindows
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

const (
	warmupWindows = 2 // global localization is still converging
	// Runs that fail to start score this.
	failedFitness = 1e6
)

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	quality float64
	windows []telemetry.WindowStats
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the mean position error after warmup, inflated by the share
// of windows that needed a global reset.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s uint64) {
			defer wg.Done()
			windows, err := fe.runSimulation(x, s)
			if err != nil {
				slog.Error("evaluation run failed", "seed", s, "error", err)
				results[idx] = seedResult{fitness: failedFitness}
				return
			}
			results[idx] = seedResult{
				fitness: fe.computeFitness(windows),
				quality: fe.computeQuality(windows),
				windows: windows,
			}
		}(i, seed)
	}
	wg.Wait()

	fitness := make([]float64, len(results))
	quality := make([]float64, len(results))
	best := 0
	for i, r := range results {
		fitness[i] = r.fitness
		quality[i] = r.quality
		if r.fitness < results[best].fitness {
			best = i
		}
	}
	avgFitness := stat.Mean(fitness, nil)

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestWindows = results[best].windows
	}
	fe.lastQuality = stat.Mean(quality, nil)
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single headless run and returns its stats windows.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed uint64) ([]telemetry.WindowStats, error) {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	var windows []telemetry.WindowStats
	g, err := game.NewGameWithOptions(game.Options{
		Config:         cfg,
		Seed:           seed,
		Headless:       true,
		StepsPerUpdate: 1,
		Store:          fe.store,
		StatsCallback: func(stats telemetry.WindowStats) {
			windows = append(windows, stats)
		},
	})
	if err != nil {
		return nil, err
	}
	defer g.Unload()

	for g.Tick() < fe.maxTicks {
		g.UpdateHeadless()
	}
	return windows, nil
}

// copyConfig returns a copy of the base config. Config holds only value
// fields, so a struct copy is deep.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: meanPosErr × (1 + resetShare)
func (fe *FitnessEvaluator) computeFitness(windows []telemetry.WindowStats) float64 {
	valid := postWarmup(windows)
	if len(valid) == 0 {
		return failedFitness
	}

	errs := make([]float64, len(valid))
	var resets int
	for i, w := range valid {
		errs[i] = w.PosErrMean
		if w.Resets > 0 {
			resets++
		}
	}
	resetShare := float64(resets) / float64(len(valid))
	return stat.Mean(errs, nil) * (1 + resetShare)
}

// computeQuality is the share of post-warmup windows whose mean error is
// within the converged threshold, in [0, 1].
func (fe *FitnessEvaluator) computeQuality(windows []telemetry.WindowStats) float64 {
	valid := postWarmup(windows)
	if len(valid) == 0 {
		return 0
	}
	var ok int
	for _, w := range valid {
		if w.PosErrMean <= fe.baseConfig.Telemetry.ConvergedError {
			ok++
		}
	}
	return float64(ok) / float64(len(valid))
}

func postWarmup(windows []telemetry.WindowStats) []telemetry.WindowStats {
	if len(windows) <= warmupWindows {
		return nil
	}
	return windows[warmupWindows:]
}
