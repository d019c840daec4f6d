// Package raycast finds where rays from a pose first meet the map walls and
// simulates a 360 degree range sensor on top of that.
package raycast

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/mcl/geom"
)

// ErrInvalidFan is returned when a fan would have no rays.
var ErrInvalidFan = errors.New("raycast: fan needs at least one ray")

// Fan is a set of ray angles relative to the sensor heading, evenly spaced
// over [0, 2*Pi).
type Fan struct {
	Angles []float64
}

// NewFan builds a fan of n evenly spaced rays.
func NewFan(n int) (Fan, error) {
	if n <= 0 {
		return Fan{}, fmt.Errorf("%w: got %d", ErrInvalidFan, n)
	}
	angles := make([]float64, n)
	step := 2 * math.Pi / float64(n)
	for i := range angles {
		angles[i] = float64(i) * step
	}
	return Fan{Angles: angles}, nil
}

// FanFromResolution builds a fan with one ray per resolutionDeg degrees.
func FanFromResolution(resolutionDeg float64) (Fan, error) {
	if resolutionDeg <= 0 {
		return Fan{}, fmt.Errorf("%w: angular resolution %v", ErrInvalidFan, resolutionDeg)
	}
	// The epsilon keeps exact divisors of 360 from truncating one ray short.
	return NewFan(int(2*math.Pi/(resolutionDeg*math.Pi/180) + 1e-9))
}

// Len returns the number of rays.
func (f Fan) Len() int { return len(f.Angles) }

// Hit is the result of a single ray. OK is false when the ray met no wall.
type Hit struct {
	Distance float64
	Point    geom.Point
	OK       bool
}

// CastRay returns the nearest wall intersection along the ray at the given
// absolute angle.
func CastRay(origin geom.Point, angle float64, walls []geom.Segment) Hit {
	dir := geom.Heading(angle)
	best := Hit{Distance: math.Inf(1)}
	for _, w := range walls {
		t, p, ok := geom.RayIntersect(origin, dir, w)
		if ok && t < best.Distance {
			best = Hit{Distance: t, Point: p, OK: true}
		}
	}
	if !best.OK {
		return Hit{}
	}
	return best
}

// Cast traces every ray of the fan from origin, offset by heading.
// The result has one entry per fan angle, in fan order.
func Cast(origin geom.Point, heading float64, fan Fan, walls []geom.Segment) []Hit {
	return CastInto(make([]Hit, fan.Len()), origin, heading, fan, walls)
}

// CastInto is Cast writing into dst, which must have length fan.Len().
func CastInto(dst []Hit, origin geom.Point, heading float64, fan Fan, walls []geom.Segment) []Hit {
	for i, a := range fan.Angles {
		dst[i] = CastRay(origin, heading+a, walls)
	}
	return dst
}
