package game

import (
	"github.com/pthm-cable/mcl/components"
	"github.com/pthm-cable/mcl/geom"
	"github.com/pthm-cable/mcl/mcl"
	"github.com/pthm-cable/mcl/systems"
	"github.com/pthm-cable/mcl/telemetry"
)

// UpdateHeadless runs simulation steps without any raylib calls.
func (g *Game) UpdateHeadless() {
	if g.paused {
		return
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.simulationStep()
	}
}

// simulationStep advances the robot one tick and runs one filter update.
func (g *Game) simulationStep() {
	g.perfCollector.StartStep()
	dt := g.cfg.Agent.DT

	var origin geom.Point
	var heading float64
	var control mcl.Control
	var blocked bool

	query := g.agentFilter.Query()
	for query.Next() {
		pos, rot, body, kin, drive, odo, route := query.Get()

		g.perfCollector.StartPhase(telemetry.PhaseAgent)
		*drive = g.decideDrive(route, body.Radius)
		mv := systems.ApplyDrive(pos, rot, *drive, *kin, body.Radius, g.m, g.field, dt)
		g.odometer.Record(odo, mv)
		blocked = mv.Blocked

		origin = geom.Point{X: pos.X, Y: pos.Y}
		heading = rot.Heading
		control = mcl.Control{
			Before: mcl.Pose{X: odo.PrevX, Y: odo.PrevY, Theta: odo.PrevHeading},
			After:  mcl.Pose{X: odo.X, Y: odo.Y, Theta: odo.Heading},
		}
	}

	if blocked {
		g.blockedSteps++
	} else {
		g.blockedSteps = 0
	}

	g.perfCollector.StartPhase(telemetry.PhaseRaycast)
	g.scan = g.lidar.Scan(origin, heading)

	// the filter reports its own phases
	g.estimate = g.filter.Update(control, g.scan)
	g.lastReset = g.maybeRecover()

	g.step++

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.recordStep(blocked)
	g.flushTelemetry()

	g.perfCollector.EndStep()
}

// maybeRecover re-scatters the particles over the whole map when the
// effective sample size collapses. It reports whether it did.
func (g *Game) maybeRecover() bool {
	threshold := g.cfg.Filter.RecoverBelowESS
	if threshold <= 0 {
		return false
	}
	stats := g.filter.Stats()
	if stats.EffectiveSize >= threshold*float64(g.filter.Len()) {
		return false
	}
	g.filter.Reset(g.m.Outer)
	g.estimate = g.filter.Estimate()

	ev := g.events.Reset(g.step+1, stats.EffectiveSize)
	g.emitEvent(ev)
	return true
}

// decideDrive picks this tick's command: teleop when a key is held,
// otherwise the autopilot.
func (g *Game) decideDrive(route *components.Route, radius float64) components.Drive {
	if !g.teleop.Zero() {
		route.Active = false
		return g.teleop
	}
	if !g.autopilot {
		return components.Drive{}
	}
	return g.autopilotDrive(route, radius)
}
