package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/mcl/config"
)

// csvFile is an output file that writes its header with the first record.
type csvFile struct {
	name          string
	f             *os.File
	headerWritten bool
}

func (c *csvFile) write(records any) error {
	if !c.headerWritten {
		if err := gocsv.Marshal(records, c.f); err != nil {
			return fmt.Errorf("writing %s: %w", c.name, err)
		}
		c.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, c.f); err != nil {
		return fmt.Errorf("writing %s: %w", c.name, err)
	}
	return nil
}

// OutputManager writes a run's CSV logs into one directory.
type OutputManager struct {
	dir     string
	steps   *csvFile
	windows *csvFile
	perf    *csvFile
	events  *csvFile

	// kept for PlotRun when keepRecords is set
	keepRecords bool
	records     []StepRecord
}

// NewOutputManager creates dir and opens the CSV files in it. keepRecords
// holds every step in memory for Records; leave it off unless plotting.
// Returns nil if dir is empty (output disabled); all methods accept a nil receiver.
func NewOutputManager(dir string, keepRecords bool) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir, keepRecords: keepRecords}
	for _, target := range []struct {
		name string
		dst  **csvFile
	}{
		{"steps.csv", &om.steps},
		{"windows.csv", &om.windows},
		{"perf.csv", &om.perf},
		{"events.csv", &om.events},
	} {
		f, err := os.Create(filepath.Join(dir, target.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", target.name, err)
		}
		*target.dst = &csvFile{name: target.name, f: f}
	}
	return om, nil
}

// WriteConfig saves the configuration the run used as config.yaml.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteStep appends a row to steps.csv.
func (om *OutputManager) WriteStep(r StepRecord) error {
	if om == nil {
		return nil
	}
	if om.keepRecords {
		om.records = append(om.records, r)
	}
	return om.steps.write([]StepRecord{r})
}

// WriteWindow appends a row to windows.csv.
func (om *OutputManager) WriteWindow(s WindowStats) error {
	if om == nil {
		return nil
	}
	return om.windows.write([]WindowStats{s})
}

// WritePerf appends a row to perf.csv.
func (om *OutputManager) WritePerf(s PerfStats, runID string, windowEnd int) error {
	if om == nil {
		return nil
	}
	return om.perf.write([]PerfStatsCSV{s.ToCSV(runID, windowEnd)})
}

// WriteEvent appends a row to events.csv.
func (om *OutputManager) WriteEvent(e Event) error {
	if om == nil {
		return nil
	}
	return om.events.write([]Event{e})
}

// Records returns every step written so far, or nil when records are not kept.
func (om *OutputManager) Records() []StepRecord {
	if om == nil {
		return nil
	}
	return om.records
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes all output files and returns the first error.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var firstErr error
	for _, c := range []*csvFile{om.steps, om.windows, om.perf, om.events} {
		if c == nil || c.f == nil {
			continue
		}
		if err := c.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
