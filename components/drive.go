package components

// Drive is the motion command for the current tick, in the body frame.
// Each axis is in [-1, 1] and scaled by Kinematics.
type Drive struct {
	Forward float64 // +1 ahead
	Strafe  float64 // +1 to the right of heading
	Turn    float64 // +1 counter-clockwise in map coordinates
}

// Zero reports whether the command asks for no motion.
func (d Drive) Zero() bool {
	return d.Forward == 0 && d.Strafe == 0 && d.Turn == 0
}

// Odometry is the robot's dead-reckoned pose. It drifts from the true
// pose because every increment carries noise.
type Odometry struct {
	X, Y, Heading float64

	// Previous reading, so a step's control can be formed.
	PrevX, PrevY, PrevHeading float64
}

// Advance stores the current reading as previous and adds a delta.
func (o *Odometry) Advance(dx, dy, dh float64) {
	o.PrevX, o.PrevY, o.PrevHeading = o.X, o.Y, o.Heading
	o.X += dx
	o.Y += dy
	o.Heading += dh
}

// Reset sets both readings to a pose.
func (o *Odometry) Reset(x, y, heading float64) {
	*o = Odometry{X: x, Y: y, Heading: heading, PrevX: x, PrevY: y, PrevHeading: heading}
}

// Route is the autopilot's current list of waypoints.
type Route struct {
	Waypoints [][2]float64
	Next      int
	GoalX     float64
	GoalY     float64
	Active    bool
}

// Done reports whether every waypoint has been reached.
func (r *Route) Done() bool { return !r.Active || r.Next >= len(r.Waypoints) }
