package game

import (
	"log/slog"

	"github.com/pthm-cable/mcl/telemetry"
)

// recordStep logs the true pose against the estimate for this step.
func (g *Game) recordStep(blocked bool) {
	stats := g.filter.Stats()
	r := telemetry.NewStepRecord(g.step, g.cfg.Agent.DT, g.TruePose(), g.estimate)
	r.ESS = stats.EffectiveSize
	r.MaxWeight = stats.MaxWeight
	r.ValidRays = stats.ValidRays
	r.Uniform = stats.Uniform
	r.Blocked = blocked
	r.Reset = g.lastReset
	g.collector.Record(&r)

	if err := g.outputManager.WriteStep(r); err != nil {
		slog.Error("failed to write step", "error", err)
	}

	for _, ev := range g.events.Check(g.step, r.PosError) {
		g.emitEvent(ev)
	}
}

// emitEvent stamps, logs and writes a localization event.
func (g *Game) emitEvent(ev telemetry.Event) {
	ev.RunID = g.runID
	if g.logStats {
		ev.LogEvent()
	}
	if err := g.outputManager.WriteEvent(ev); err != nil {
		slog.Error("failed to write event", "error", err)
	}
}

// flushTelemetry closes the stats window when it is full.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.step) {
		return
	}

	stats := g.collector.Flush(g.step)
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteWindow(stats); err != nil {
		slog.Error("failed to write window stats", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, g.runID, stats.WindowEndStep); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}
