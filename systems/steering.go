package systems

import (
	"math"

	"github.com/pthm-cable/mcl/components"
	"github.com/pthm-cable/mcl/geom"
)

// ObstacleField answers distance-to-wall queries. *distfield.Field
// satisfies it.
type ObstacleField interface {
	Lookup(x, y float64) float64
}

// SteeringParams holds tunable parameters for waypoint steering.
type SteeringParams struct {
	AttractionStrength float64 // Scales pull toward the waypoint
	RepulsionStrength  float64 // Scales push from walls
	RepulsionRadius    float64 // Wall influence range
	RepulsionFalloff   float64 // Exponent for repulsion
	TargetDeadzone     float64 // Attraction taper distance
	MaxForce           float64 // Cap on combined vector magnitude
	AlignAngle         float64 // Heading error below which the agent drives forward
}

// DefaultSteeringParams returns sensible defaults for steering.
func DefaultSteeringParams() SteeringParams {
	return SteeringParams{
		AttractionStrength: 1.0,
		RepulsionStrength:  1.5,
		RepulsionRadius:    30.0,
		RepulsionFalloff:   2.0,
		TargetDeadzone:     8.0,
		MaxForce:           1.0,
		AlignAngle:         math.Pi / 3,
	}
}

// Steerer turns a waypoint into a drive command with potential-field
// navigation: attraction toward the waypoint plus repulsion from walls.
type Steerer struct {
	field  ObstacleField
	params SteeringParams
}

// NewSteerer creates a steerer. field may be nil to disable repulsion.
func NewSteerer(field ObstacleField, params SteeringParams) *Steerer {
	return &Steerer{field: field, params: params}
}

// Steer computes the command that moves a body at pos with the given
// heading toward wp.
func (s *Steerer) Steer(pos geom.Point, heading float64, wp geom.Point, radius float64) components.Drive {
	attr := s.attraction(pos, wp)
	rep := s.repulsion(pos, radius)
	force := attr.Add(rep)

	mag := math.Hypot(force.X, force.Y)
	if mag < 1e-3 {
		return components.Drive{}
	}
	if mag > s.params.MaxForce {
		force = force.Scale(s.params.MaxForce / mag)
		mag = s.params.MaxForce
	}

	angleDiff := geom.NormalizeAngle(math.Atan2(force.Y, force.X) - heading)
	turn := clamp(angleDiff/(math.Pi/4), -1, 1)

	// Slow down while turning sharply.
	var forward float64
	if math.Abs(angleDiff) < s.params.AlignAngle {
		forward = (mag / s.params.MaxForce) * math.Cos(angleDiff)
	}
	return components.Drive{Forward: forward, Turn: turn}
}

// attraction pulls toward the target and tapers inside the deadzone.
func (s *Steerer) attraction(pos, target geom.Point) geom.Point {
	d := target.Sub(pos)
	dist := math.Hypot(d.X, d.Y)
	if dist < 1e-3 {
		return geom.Point{}
	}
	mag := s.params.AttractionStrength
	if dist < s.params.TargetDeadzone {
		mag *= dist / s.params.TargetDeadzone
	}
	return d.Scale(mag / dist)
}

// repulsion samples 8 points around the body and pushes away from every
// sample that lies near a wall.
func (s *Steerer) repulsion(pos geom.Point, radius float64) geom.Point {
	if s.field == nil {
		return geom.Point{}
	}
	var rep geom.Point
	sampleDist := radius + s.params.RepulsionRadius*0.5
	const numSamples = 8
	for i := 0; i < numSamples; i++ {
		dir := geom.Heading(float64(i) * 2 * math.Pi / numSamples)
		sample := pos.Add(dir.Scale(sampleDist))
		d := s.field.Lookup(sample.X, sample.Y)
		if d >= s.params.RepulsionRadius {
			continue
		}
		norm := (s.params.RepulsionRadius - d) / s.params.RepulsionRadius
		mag := s.params.RepulsionStrength * math.Pow(norm, s.params.RepulsionFalloff)
		rep = rep.Sub(dir.Scale(mag))
	}
	return rep
}
