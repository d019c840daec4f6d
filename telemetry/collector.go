package telemetry

import "gonum.org/v1/gonum/stat"

// Collector accumulates step records into fixed-size windows.
type Collector struct {
	runID  string
	window int
	dt     float64

	windowStart int

	posErr     []float64
	headingErr []float64
	ess        []float64
	rays       []float64
	uniform    int
	blocked    int
	resets     int
}

// NewCollector creates a collector that closes a window every window
// steps. dt converts steps to simulated seconds.
func NewCollector(runID string, window int, dt float64) *Collector {
	if window < 1 {
		window = 1
	}
	return &Collector{
		runID:      runID,
		window:     window,
		dt:         dt,
		posErr:     make([]float64, 0, window),
		headingErr: make([]float64, 0, window),
		ess:        make([]float64, 0, window),
		rays:       make([]float64, 0, window),
	}
}

// RunID returns the id stamped on every record.
func (c *Collector) RunID() string { return c.runID }

// Record adds one step to the current window and stamps the run id on r.
func (c *Collector) Record(r *StepRecord) {
	r.RunID = c.runID
	c.posErr = append(c.posErr, r.PosError)
	c.headingErr = append(c.headingErr, r.HeadingError)
	c.ess = append(c.ess, r.ESS)
	c.rays = append(c.rays, float64(r.ValidRays))
	if r.Uniform {
		c.uniform++
	}
	if r.Blocked {
		c.blocked++
	}
	if r.Reset {
		c.resets++
	}
}

// ShouldFlush reports whether step closes the current window.
func (c *Collector) ShouldFlush(step int) bool {
	return step-c.windowStart >= c.window
}

// Flush summarizes the current window ending at step and starts a new one.
func (c *Collector) Flush(step int) WindowStats {
	s := WindowStats{
		RunID:           c.runID,
		WindowStartStep: c.windowStart,
		WindowEndStep:   step,
		SimTimeSec:      float64(step) * c.dt,
		Steps:           len(c.posErr),
		UniformSteps:    c.uniform,
		BlockedMoves:    c.blocked,
		Resets:          c.resets,
	}
	if len(c.posErr) > 0 {
		s.PosErrMean, s.PosErrP50, s.PosErrP90, s.PosErrMax = ComputeErrorStats(c.posErr)
		s.HeadingErrMean = stat.Mean(c.headingErr, nil)
		s.ESSMean = stat.Mean(c.ess, nil)
		if len(c.ess) > 1 {
			s.ESSStd = stat.StdDev(c.ess, nil)
		}
		s.ValidRaysMean = stat.Mean(c.rays, nil)
	}

	c.windowStart = step
	c.posErr = c.posErr[:0]
	c.headingErr = c.headingErr[:0]
	c.ess = c.ess[:0]
	c.rays = c.rays[:0]
	c.uniform, c.blocked, c.resets = 0, 0, 0
	return s
}
