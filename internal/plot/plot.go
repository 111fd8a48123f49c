// Package plot draws trajectory charts of an extracted replay with gonum/plot.
// The output format follows the file extension (png, svg, pdf, ...).
package plot

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/arena-replay/rltrack/pkg/core"
)

// ErrNothingToPlot is returned when no track has a positioned sample.
var ErrNothingToPlot = errors.New("no positioned samples to plot")

const (
	width  = 10 * vg.Inch
	height = 8 * vg.Inch
)

// TopDown saves the XY paths of the ball and every car to path.
func TopDown(replay *core.Replay, path string) error {
	p := plot.New()
	p.Title.Text = "Top-down trajectories"
	p.X.Label.Text = "X (uu)"
	p.Y.Label.Text = "Y (uu)"

	added := 0
	add := func(label string, samples []core.Sample, idx int) error {
		pts := xyPoints(samples, func(v core.Vector3) (float64, float64) { return v.X, v.Y })
		if len(pts) == 0 {
			return nil
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(idx)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(label, line)
		added++
		return nil
	}

	if replay.Ball != nil {
		if err := add("ball", replay.Ball.Samples, 0); err != nil {
			return err
		}
	}
	for i, car := range replay.Cars {
		if err := add(trackLabel(car), car.Samples, i+1); err != nil {
			return err
		}
	}
	if added == 0 {
		return ErrNothingToPlot
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("save top-down plot: %w", err)
	}
	return nil
}

// Height saves the Z coordinate over time of one track to path.
func Height(track *core.Track, path string) error {
	if track == nil {
		return ErrNothingToPlot
	}
	pts := make(plotter.XYs, 0, len(track.Samples))
	for _, s := range track.Samples {
		if pos, ok := s.Position(); ok {
			pts = append(pts, plotter.XY{X: s.Time, Y: pos.Z})
		}
	}
	if len(pts) == 0 {
		return ErrNothingToPlot
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s height", trackLabel(*track))
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Z (uu)"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = plotutil.Color(0)
	line.Width = vg.Points(1)
	p.Add(line)

	if err := p.Save(width, height/2, path); err != nil {
		return fmt.Errorf("save height plot: %w", err)
	}
	return nil
}

func xyPoints(samples []core.Sample, proj func(core.Vector3) (float64, float64)) plotter.XYs {
	pts := make(plotter.XYs, 0, len(samples))
	for _, s := range samples {
		pos, ok := s.Position()
		if !ok {
			continue
		}
		x, y := proj(pos)
		pts = append(pts, plotter.XY{X: x, Y: y})
	}
	return pts
}

func trackLabel(t core.Track) string {
	switch {
	case t.Class == core.ClassBall:
		return "ball"
	case t.PlayerName != "":
		return fmt.Sprintf("%s (car %d)", t.PlayerName, t.ActorID)
	default:
		return fmt.Sprintf("car %d", t.ActorID)
	}
}
