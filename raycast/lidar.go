package raycast

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/mcl/geom"
)

// Scan holds one range per fan ray. A ray that met no wall reads +Inf.
type Scan []float64

// Valid returns how many rays carry a finite range.
func (s Scan) Valid() int {
	n := 0
	for _, r := range s {
		if !math.IsInf(r, 0) && !math.IsNaN(r) {
			n++
		}
	}
	return n
}

// Endpoints returns the world position of each finite range measured from
// origin with the given heading. Rays without a return are skipped.
func (s Scan) Endpoints(origin geom.Point, heading float64, fan Fan) []geom.Point {
	pts := make([]geom.Point, 0, len(s))
	for i, r := range s {
		if math.IsInf(r, 0) || math.IsNaN(r) {
			continue
		}
		pts = append(pts, origin.Add(geom.Heading(heading+fan.Angles[i]).Scale(r)))
	}
	return pts
}

// Lidar simulates the real range sensor riding on the robot. Each range is
// the true distance plus zero-mean Gaussian noise, clamped at zero.
type Lidar struct {
	fan   Fan
	walls []geom.Segment
	noise distuv.Normal
	hits  []Hit
}

// NewLidar builds a sensor over walls. noise is the range standard deviation;
// zero gives exact ranges. rng may be nil when noise is zero.
func NewLidar(fan Fan, walls []geom.Segment, noise float64, rng *rand.Rand) *Lidar {
	var src rand.Source
	if rng != nil {
		src = rng
	}
	return &Lidar{
		fan:   fan,
		walls: walls,
		noise: distuv.Normal{Mu: 0, Sigma: noise, Src: src},
		hits:  make([]Hit, fan.Len()),
	}
}

// Fan returns the sensor's ray layout.
func (l *Lidar) Fan() Fan { return l.fan }

// Hits returns the noiseless hits from the most recent Scan.
func (l *Lidar) Hits() []Hit { return l.hits }

// Scan measures from the given position and heading.
func (l *Lidar) Scan(origin geom.Point, heading float64) Scan {
	CastInto(l.hits, origin, heading, l.fan, l.walls)
	out := make(Scan, len(l.hits))
	for i, h := range l.hits {
		if !h.OK {
			out[i] = math.Inf(1)
			continue
		}
		r := h.Distance
		if l.noise.Sigma > 0 {
			r += l.noise.Rand()
		}
		out[i] = math.Max(0, r)
	}
	return out
}
