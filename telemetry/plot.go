package telemetry

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/pthm-cable/mcl/world"
)

// ErrNoRecords is returned when there is nothing to plot.
var ErrNoRecords = errors.New("telemetry: no step records")

var (
	wallColor  = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	truthColor = color.RGBA{R: 30, G: 120, B: 220, A: 255}
	estColor   = color.RGBA{R: 220, G: 60, B: 40, A: 255}
)

// PlotRun writes trajectory.png and error.png for records into dir.
func PlotRun(dir string, m *world.Map, records []StepRecord) error {
	if len(records) == 0 {
		return ErrNoRecords
	}
	if err := PlotTrajectory(filepath.Join(dir, "trajectory.png"), m, records); err != nil {
		return err
	}
	return PlotError(filepath.Join(dir, "error.png"), records)
}

// PlotTrajectory draws the map walls with the true and estimated paths.
func PlotTrajectory(path string, m *world.Map, records []StepRecord) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	p := plot.New()
	p.Title.Text = "Trajectory"
	if m != nil {
		p.Title.Text = fmt.Sprintf("Trajectory - %s", m.Name)
	}
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"
	p.Add(plotter.NewGrid())

	if m != nil {
		for _, b := range m.Boundaries {
			pts := make(plotter.XYs, 0, len(b.Points)+1)
			for _, v := range b.Points {
				pts = append(pts, plotter.XY{X: v.X, Y: v.Y})
			}
			pts = append(pts, pts[0])
			wall, err := plotter.NewLine(pts)
			if err != nil {
				return fmt.Errorf("plotting boundary: %w", err)
			}
			wall.Color = wallColor
			wall.Width = vg.Points(1.5)
			p.Add(wall)
		}
	}

	truth := make(plotter.XYs, len(records))
	est := make(plotter.XYs, len(records))
	for i, r := range records {
		truth[i] = plotter.XY{X: r.TrueX, Y: r.TrueY}
		est[i] = plotter.XY{X: r.EstX, Y: r.EstY}
	}

	truthLine, err := plotter.NewLine(truth)
	if err != nil {
		return fmt.Errorf("plotting truth: %w", err)
	}
	truthLine.Color = truthColor
	truthLine.Width = vg.Points(1)

	estLine, err := plotter.NewLine(est)
	if err != nil {
		return fmt.Errorf("plotting estimate: %w", err)
	}
	estLine.Color = estColor
	estLine.Width = vg.Points(1)
	estLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(truthLine, estLine)
	p.Legend.Add("truth", truthLine)
	p.Legend.Add("estimate", estLine)
	p.Legend.Top = true

	// screen coordinates grow downwards
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// PlotError draws position error against simulated time.
func PlotError(path string, records []StepRecord) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	p := plot.New()
	p.Title.Text = "Position error"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Error"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(records))
	for i, r := range records {
		pts[i] = plotter.XY{X: r.SimTimeSec, Y: r.PosError}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("plotting error: %w", err)
	}
	line.Color = estColor
	line.Width = vg.Points(1)
	p.Add(line)

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
