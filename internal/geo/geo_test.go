package geo

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/arena-replay/rltrack/pkg/core"
)

func f64(v float64) *float64 { return &v }

func sampleAt(t, x, y, z float64) core.Sample {
	return core.Sample{Time: t, X: f64(x), Y: f64(y), Z: f64(z), Kind: core.KindUpdate}
}

func withVelocity(s core.Sample, v core.Vector3) core.Sample {
	s.LinearVelocity = &v
	return s
}

func TestPath(t *testing.T) {
	samples := []core.Sample{
		sampleAt(0, 0, 0, 0),
		{Time: 0.5},
		sampleAt(1, 3, 4, 0),
		sampleAt(2, 3, 4, 12),
	}

	ls, err := Path(samples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := ls.Coordinates().Length(); n != 3 {
		t.Errorf("expected 3 points, got %d", n)
	}
	if got := ls.Length(); math.Abs(got-5) > 1e-9 {
		t.Errorf("expected planar length 5, got %f", got)
	}
}

func TestPath_TooFewPoints(t *testing.T) {
	tests := []struct {
		name    string
		samples []core.Sample
	}{
		{"empty", nil},
		{"single", []core.Sample{sampleAt(0, 1, 1, 1)}},
		{"unpositioned", []core.Sample{{Time: 0}, {Time: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Path(tt.samples)
			if !errors.Is(err, ErrTooFewPoints) {
				t.Errorf("expected ErrTooFewPoints, got %v", err)
			}
		})
	}
}

func TestPathWKT(t *testing.T) {
	wkt := PathWKT([]core.Sample{sampleAt(0, 0, 0, 0), sampleAt(1, 1, 2, 3)})
	if !strings.HasPrefix(wkt, "LINESTRING Z") {
		t.Errorf("expected a 3D LINESTRING, got %q", wkt)
	}

	if wkt := PathWKT(nil); wkt != "" {
		t.Errorf("expected empty WKT, got %q", wkt)
	}
}

func TestSummarize(t *testing.T) {
	samples := []core.Sample{
		withVelocity(sampleAt(0, 0, 0, 0), core.Vector3{X: 3, Y: 4}),
		withVelocity(sampleAt(1, 3, 4, 0), core.Vector3{X: 6, Y: 8}),
		withVelocity(sampleAt(2, 3, 4, 12), core.Vector3{X: 0, Y: 0, Z: 15}),
		{Time: 3, Kind: core.KindUpdate},
	}

	st := Summarize(samples)

	if st.Positions != 3 {
		t.Errorf("expected 3 positions, got %d", st.Positions)
	}
	if st.Duration != 3 {
		t.Errorf("expected duration 3, got %f", st.Duration)
	}
	if math.Abs(st.PlanarLength-5) > 1e-9 {
		t.Errorf("expected planar length 5, got %f", st.PlanarLength)
	}
	if math.Abs(st.SpatialLength-17) > 1e-9 {
		t.Errorf("expected spatial length 17, got %f", st.SpatialLength)
	}
	if st.Bounds.Min != (core.Vector3{}) || st.Bounds.Max != (core.Vector3{X: 3, Y: 4, Z: 12}) {
		t.Errorf("unexpected bounds %+v", st.Bounds)
	}

	if st.SpeedSamples != 3 {
		t.Errorf("expected 3 speed samples, got %d", st.SpeedSamples)
	}
	if math.Abs(st.MeanSpeed-10) > 1e-9 {
		t.Errorf("expected mean speed 10, got %f", st.MeanSpeed)
	}
	if st.MedianSpeed != 10 {
		t.Errorf("expected median speed 10, got %f", st.MedianSpeed)
	}
	if st.MaxSpeed != 15 {
		t.Errorf("expected max speed 15, got %f", st.MaxSpeed)
	}
	if st.StdDevSpeed <= 0 {
		t.Errorf("expected positive speed deviation, got %f", st.StdDevSpeed)
	}
}

func TestSummarize_Empty(t *testing.T) {
	st := Summarize(nil)
	if st != (Stats{}) {
		t.Errorf("expected zero stats, got %+v", st)
	}
}

func TestSummarize_Stationary(t *testing.T) {
	st := Summarize([]core.Sample{sampleAt(0, 5, 5, 17), sampleAt(1, 5, 5, 17)})
	if st.Positions != 2 {
		t.Errorf("expected 2 positions, got %d", st.Positions)
	}
	if st.PlanarLength != 0 || st.SpatialLength != 0 {
		t.Errorf("expected zero lengths, got %f and %f", st.PlanarLength, st.SpatialLength)
	}
}

func TestSummarize_SingleSpeed(t *testing.T) {
	st := Summarize([]core.Sample{withVelocity(sampleAt(0, 0, 0, 0), core.Vector3{X: 2})})
	if st.MeanSpeed != 2 || st.StdDevSpeed != 0 || st.MaxSpeed != 2 {
		t.Errorf("unexpected speed stats %+v", st)
	}
}
