package game

import (
	"log/slog"

	"github.com/pthm-cable/mcl/components"
	"github.com/pthm-cable/mcl/geom"
	"github.com/pthm-cable/mcl/systems"
	"github.com/pthm-cable/mcl/telemetry"
)

const (
	goalAttempts = 64
	stuckSteps   = 45 // blocked steps before the route is abandoned
)

// autopilotDrive follows the current route, replanning when it is done,
// stuck or a new goal is pending. Planning and steering work from the
// filter estimate since that is all the robot knows.
func (g *Game) autopilotDrive(route *components.Route, radius float64) components.Drive {
	est := g.estimate.Point()

	if g.pendingGoal != nil || route.Done() || g.blockedSteps > stuckSteps {
		goal, ok := g.nextGoal(radius)
		if !ok {
			return components.Drive{}
		}
		g.planRoute(route, est, goal)
		g.blockedSteps = 0
		g.perfCollector.StartPhase(telemetry.PhaseAgent)
	}

	wp, ok := systems.NextWaypoint(route, est, g.cfg.Planner.WaypointReach)
	if !ok {
		return components.Drive{}
	}
	return g.steerer.Steer(est, g.estimate.Theta, wp, radius)
}

// nextGoal returns the pending goal, or a random reachable point.
func (g *Game) nextGoal(radius float64) (geom.Point, bool) {
	if g.pendingGoal != nil {
		goal := *g.pendingGoal
		g.pendingGoal = nil
		return goal, true
	}
	return g.randomFreePoint(radius + g.cfg.Planner.Clearance)
}

// randomFreePoint samples the outer rectangle for a point at least
// clearance from every wall.
func (g *Game) randomFreePoint(clearance float64) (geom.Point, bool) {
	r := g.m.Outer
	for i := 0; i < goalAttempts; i++ {
		p := geom.Point{
			X: r.X + g.rng.Float64()*r.W,
			Y: r.Y + g.rng.Float64()*r.H,
		}
		if g.m.Free(p) && g.field.Lookup(p.X, p.Y) > clearance {
			return p, true
		}
	}
	return geom.Point{}, false
}

// planRoute fills route with a path from start to goal. Without a planner
// the route is a straight line and steering handles the walls.
func (g *Game) planRoute(route *components.Route, start, goal geom.Point) {
	if g.planner == nil {
		route.Waypoints = append(route.Waypoints[:0], [2]float64{start.X, start.Y}, [2]float64{goal.X, goal.Y})
		route.Next = 1
		route.GoalX, route.GoalY = goal.X, goal.Y
		route.Active = true
		return
	}

	g.perfCollector.StartPhase(telemetry.PhasePlanner)
	if !systems.SetRoute(route, g.planner, start, goal) {
		slog.Debug("no path to goal", "step", g.step, "goal_x", goal.X, "goal_y", goal.Y)
	}
}
