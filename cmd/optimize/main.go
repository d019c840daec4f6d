// Package main tunes the motion and measurement noise parameters with
// CMA-ES, scoring each candidate by how well headless runs stay localized.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/mcl/config"
)

type options struct {
	configPath string
	maxTicks   int
	seeds      int
	maxEvals   int
	population int
	outputDir  string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flag.IntVar(&opts.maxTicks, "max-ticks", 1500, "Simulation steps per run")
	flag.IntVar(&opts.seeds, "seeds", 3, "Number of seeds per evaluation")
	flag.IntVar(&opts.maxEvals, "max-evals", 200, "Maximum number of evaluations")
	flag.IntVar(&opts.population, "population", 0, "CMA-ES population size (0 = auto)")
	flag.StringVar(&opts.outputDir, "output", "", "Output directory for results")
	flag.Parse()

	if opts.outputDir == "" {
		log.Fatal("--output is required")
	}

	// Per-run game logs would drown the progress lines.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func run(opts options) error {
	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := config.Init(opts.configPath); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	baseCfg := config.Cfg()

	params := NewParamVector()
	evalSeeds := make([]uint64, opts.seeds)
	for i := range evalSeeds {
		evalSeeds[i] = uint64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, opts.maxTicks, evalSeeds, baseCfg)

	elog, err := newEvalLog(filepath.Join(opts.outputDir, "optimize_log.csv"), params)
	if err != nil {
		return err
	}
	defer elog.Close()

	dim := params.Dim()
	popSize := opts.population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}

	best := &bestTracker{fitness: 1e9}
	start := time.Now()
	evals := 0

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			// Clamped values are the ones actually simulated.
			values := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(values)
			quality := evaluator.LastQuality()
			evals++

			best.offer(fitness, values)
			if err := elog.Write(evals, fitness, quality, values); err != nil {
				slog.Error("failed to write eval log", "error", err)
			}

			elapsed := time.Since(start)
			eta := time.Duration(opts.maxEvals-evals) * (elapsed / time.Duration(evals))
			fmt.Printf("Eval %d/%d: error=%.2f localized=%.0f%% (best=%.2f) | elapsed: %s, ETA: %s\n",
				evals, opts.maxEvals, fitness, quality*100, best.fitness,
				formatDuration(elapsed), formatDuration(eta))
			return fitness
		},
	}

	fmt.Printf("Starting CMA-ES optimization with %d parameters, population=%d, max_evals=%d\n",
		dim, popSize, opts.maxEvals)
	fmt.Printf("Seeds per evaluation: %d, ticks per run: %d\n", opts.seeds, opts.maxTicks)

	result, err := optimize.Minimize(
		problem,
		params.Normalize(params.ExtractFromConfig(baseCfg)),
		&optimize.Settings{FuncEvaluations: opts.maxEvals},
		&optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize},
	)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}
	if best.values == nil && result != nil {
		best.values = params.Clamp(params.Denormalize(result.X))
	}
	if best.values == nil {
		return fmt.Errorf("no evaluations completed")
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", evals, formatDuration(time.Since(start)))
	fmt.Printf("Best fitness: %.3f\n\nBest parameters:\n", best.fitness)
	for i, spec := range params.Specs {
		fmt.Printf("  %s (%s): %.6f\n", spec.Name, spec.Path, best.values[i])
	}

	return writeResults(opts, params, best.values, evaluator)
}

// writeResults saves the tuned config and the best run's stats windows.
func writeResults(opts options, params *ParamVector, values []float64, evaluator *FitnessEvaluator) error {
	bestCfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("reloading config: %w", err)
	}
	params.ApplyToConfig(bestCfg, values)

	configPath := filepath.Join(opts.outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configPath); err != nil {
		return err
	}
	fmt.Printf("\nBest config saved to: %s\n", configPath)

	windows := evaluator.BestWindows()
	if len(windows) == 0 {
		return nil
	}
	windowsPath := filepath.Join(opts.outputDir, "best_windows.csv")
	f, err := os.Create(windowsPath)
	if err != nil {
		return fmt.Errorf("creating windows file: %w", err)
	}
	defer f.Close()
	if err := gocsv.Marshal(windows, f); err != nil {
		return fmt.Errorf("writing windows: %w", err)
	}
	fmt.Printf("Best run windows saved to: %s\n", windowsPath)
	return nil
}

// bestTracker keeps the lowest fitness seen across all evaluations, not
// just the final CMA-ES mean.
type bestTracker struct {
	fitness float64
	values  []float64
}

func (b *bestTracker) offer(fitness float64, values []float64) {
	if fitness < b.fitness {
		b.fitness = fitness
		b.values = append([]float64(nil), values...)
	}
}

// evalLog appends one row per evaluation. Columns follow the parameter
// specs, so the header is built at runtime.
type evalLog struct {
	f *os.File
	w *csv.Writer
}

func newEvalLog(path string, params *ParamVector) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating log file: %w", err)
	}
	header := []string{"eval", "fitness", "quality"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	l := &evalLog{f: f, w: csv.NewWriter(f)}
	if err := l.w.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

func (l *evalLog) Write(eval int, fitness, quality float64, values []float64) error {
	row := []string{strconv.Itoa(eval), fmt.Sprintf("%.6f", fitness), fmt.Sprintf("%.4f", quality)}
	for _, v := range values {
		row = append(row, fmt.Sprintf("%.6f", v))
	}
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

func (l *evalLog) Close() error {
	l.w.Flush()
	return l.f.Close()
}

// formatDuration formats a duration as 1h02m03s, or 2m03s when under an hour.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
