package geo

import (
	"errors"
	"fmt"
	"math"
	"sort"

	geom "github.com/peterstace/simplefeatures/geom"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/arena-replay/rltrack/pkg/core"
)

// Arena coordinates are engine units (unreal units, 1uu = 1cm) in a right
// handed frame with Z up. There is no geodetic reference, so geometries carry
// no SRID.

// ErrTooFewPoints is returned when a path needs at least two positions.
var ErrTooFewPoints = errors.New("path needs at least two positioned samples")

// Path builds an XYZ LineString through every positioned sample, in order.
// Samples without a full position are skipped.
func Path(samples []core.Sample) (geom.LineString, error) {
	flatCoords := make([]float64, 0, len(samples)*3)
	for _, s := range samples {
		pos, ok := s.Position()
		if !ok {
			continue
		}
		flatCoords = append(flatCoords, pos.X, pos.Y, pos.Z)
	}
	if len(flatCoords) < 6 {
		return geom.LineString{}, fmt.Errorf("%w: got %d", ErrTooFewPoints, len(flatCoords)/3)
	}

	seq := geom.NewSequence(flatCoords, geom.DimXYZ)
	return geom.NewLineString(seq)
}

// PathWKT returns the path as WKT, or an empty string when there is no path.
func PathWKT(samples []core.Sample) string {
	ls, err := Path(samples)
	if err != nil {
		return ""
	}
	return ls.AsText()
}

// BoundingBox is the axis-aligned extent of a set of positions.
type BoundingBox struct {
	Min core.Vector3
	Max core.Vector3
}

// Stats summarizes the movement of one trajectory.
type Stats struct {
	Positions     int
	PlanarLength  float64 // XY length of the path
	SpatialLength float64 // XYZ length of the path
	Bounds        BoundingBox
	Duration      float64

	// Linear speed, from samples that carry a velocity.
	SpeedSamples int
	MeanSpeed    float64
	StdDevSpeed  float64
	MedianSpeed  float64
	MaxSpeed     float64
}

// Summarize computes path and speed statistics for samples in time order.
func Summarize(samples []core.Sample) Stats {
	var st Stats
	var xs, ys, zs, speeds []float64

	for _, s := range samples {
		if s.LinearVelocity != nil {
			speeds = append(speeds, s.LinearVelocity.Norm())
		}
		pos, ok := s.Position()
		if !ok {
			continue
		}
		xs = append(xs, pos.X)
		ys = append(ys, pos.Y)
		zs = append(zs, pos.Z)
	}

	st.Positions = len(xs)
	if len(samples) > 0 {
		st.Duration = samples[len(samples)-1].Time - samples[0].Time
	}
	if st.Positions > 0 {
		st.Bounds = BoundingBox{
			Min: core.Vector3{X: floats.Min(xs), Y: floats.Min(ys), Z: floats.Min(zs)},
			Max: core.Vector3{X: floats.Max(xs), Y: floats.Max(ys), Z: floats.Max(zs)},
		}
	}
	if ls, err := Path(samples); err == nil {
		st.PlanarLength = ls.Length()
	}
	for i := 1; i < len(xs); i++ {
		st.SpatialLength += floats.Distance(
			[]float64{xs[i-1], ys[i-1], zs[i-1]},
			[]float64{xs[i], ys[i], zs[i]},
			2,
		)
	}

	st.SpeedSamples = len(speeds)
	if len(speeds) > 0 {
		st.MeanSpeed, st.StdDevSpeed = stat.MeanStdDev(speeds, nil)
		if math.IsNaN(st.StdDevSpeed) {
			st.StdDevSpeed = 0
		}
		sort.Float64s(speeds)
		st.MedianSpeed = stat.Quantile(0.5, stat.Empirical, speeds, nil)
		st.MaxSpeed = speeds[len(speeds)-1]
	}
	return st
}
