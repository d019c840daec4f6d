package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// EventType identifies a localization event.
type EventType string

const (
	EventConverged EventType = "converged"
	EventDiverged  EventType = "diverged"
	EventRecovered EventType = "recovered"
	EventReset     EventType = "reset"
)

// Event is one row of events.csv.
type Event struct {
	RunID       string    `csv:"run_id"`
	Type        EventType `csv:"type"`
	Step        int       `csv:"step"`
	PosError    float64   `csv:"pos_error"`
	Description string    `csv:"description"`
}

// LogEvent logs the event using slog.
func (e Event) LogEvent() {
	slog.Info("event",
		"type", string(e.Type),
		"step", e.Step,
		"pos_error", e.PosError,
		"description", e.Description,
	)
}

type trackState int

const (
	stateSearching trackState = iota
	stateConverged
	stateDiverged
)

// EventDetector watches the smoothed position error and reports when the
// filter locks on, loses track and locks on again. The two thresholds
// form a hysteresis band so a noisy error does not flap between states.
type EventDetector struct {
	converged float64
	diverged  float64

	history     []float64
	historySize int
	historyIdx  int
	historyFull bool

	state trackState
}

// NewEventDetector creates a detector smoothing over historySize steps.
func NewEventDetector(convergedError, divergedError float64, historySize int) *EventDetector {
	if historySize < 1 {
		historySize = 1
	}
	return &EventDetector{
		converged:   convergedError,
		diverged:    divergedError,
		history:     make([]float64, historySize),
		historySize: historySize,
	}
}

// Check feeds one step's position error and returns any triggered events.
func (d *EventDetector) Check(step int, posErr float64) []Event {
	d.history[d.historyIdx] = posErr
	d.historyIdx = (d.historyIdx + 1) % d.historySize
	if d.historyIdx == 0 {
		d.historyFull = true
	}
	smoothed := stat.Mean(d.window(), nil)

	var events []Event
	switch {
	case d.state != stateConverged && smoothed < d.converged:
		typ, desc := EventConverged, "filter converged"
		if d.state == stateDiverged {
			typ, desc = EventRecovered, "filter recovered after divergence"
		}
		events = append(events, Event{
			Type:        typ,
			Step:        step,
			PosError:    smoothed,
			Description: fmt.Sprintf("%s, mean error %.1f", desc, smoothed),
		})
		d.state = stateConverged

	case d.state == stateConverged && smoothed > d.diverged:
		events = append(events, Event{
			Type:        EventDiverged,
			Step:        step,
			PosError:    smoothed,
			Description: fmt.Sprintf("mean error %.1f exceeds %.1f", smoothed, d.diverged),
		})
		d.state = stateDiverged
	}
	return events
}

// Reset returns the event for a particle re-scatter at step.
func (d *EventDetector) Reset(step int, ess float64) Event {
	return Event{
		Type:        EventReset,
		Step:        step,
		Description: fmt.Sprintf("particles re-scattered at effective size %.1f", ess),
	}
}

// Converged reports whether the detector currently considers the filter locked on.
func (d *EventDetector) Converged() bool { return d.state == stateConverged }

func (d *EventDetector) window() []float64 {
	if d.historyFull {
		return d.history
	}
	return d.history[:d.historyIdx]
}
