package systems

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/mcl/components"
	"github.com/pthm-cable/mcl/geom"
	"github.com/pthm-cable/mcl/world"
)

// Motion is the true displacement applied in one tick.
type Motion struct {
	DX, DY, DHeading float64
	Blocked          bool // translation was refused by a wall
}

// ApplyDrive integrates a drive command into the true pose. Translation
// that would cross a wall or end closer than radius to one is dropped; the
// rotation still applies.
func ApplyDrive(pos *components.Position, rot *components.Rotation, cmd components.Drive,
	kin components.Kinematics, radius float64, m *world.Map, field ObstacleField, dt float64,
) Motion {
	cmd.Forward = clamp(cmd.Forward, -1, 1)
	cmd.Strafe = clamp(cmd.Strafe, -1, 1)
	cmd.Turn = clamp(cmd.Turn, -1, 1)

	sin, cos := math.Sincos(rot.Heading)
	step := kin.Speed * dt
	mv := Motion{
		DX:       step * (cmd.Forward*cos - cmd.Strafe*sin),
		DY:       step * (cmd.Forward*sin + cmd.Strafe*cos),
		DHeading: kin.TurnRate * dt * cmd.Turn,
	}

	if mv.DX != 0 || mv.DY != 0 {
		from := geom.Point{X: pos.X, Y: pos.Y}
		to := geom.Point{X: pos.X + mv.DX, Y: pos.Y + mv.DY}
		if m.Blocked(from, to) || (field != nil && field.Lookup(to.X, to.Y) < radius) {
			mv.DX, mv.DY, mv.Blocked = 0, 0, true
		}
	}

	pos.X += mv.DX
	pos.Y += mv.DY
	rot.Heading = geom.NormalizeAngle(rot.Heading + mv.DHeading)
	return mv
}

// Odometer corrupts true motion into wheel odometry. Each component gets
// zero-mean Gaussian noise with std proportional to its magnitude.
type Odometer struct {
	Fraction float64
	normal   distuv.Normal
}

// NewOdometer creates an odometer drawing noise from rng. rng may be nil
// when fraction is zero.
func NewOdometer(fraction float64, rng *rand.Rand) *Odometer {
	o := &Odometer{Fraction: fraction, normal: distuv.Normal{Mu: 0, Sigma: 1}}
	if rng != nil {
		o.normal.Src = rng
	}
	return o
}

// Record adds one tick of motion to odo.
func (o *Odometer) Record(odo *components.Odometry, mv Motion) {
	noisy := func(v float64) float64 {
		if v == 0 || o.Fraction == 0 {
			return v
		}
		return v + o.Fraction*math.Abs(v)*o.normal.Rand()
	}
	odo.Advance(noisy(mv.DX), noisy(mv.DY), noisy(mv.DHeading))
}
