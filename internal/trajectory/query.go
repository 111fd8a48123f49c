package trajectory

import (
	"sort"

	"github.com/arena-replay/rltrack/pkg/core"
)

// NearestIndex returns the index of the sample closest in time to target.
// samples must be in non-decreasing time order. When target sits exactly
// halfway between two samples the earlier one wins. Returns -1 for an empty
// sequence.
func NearestIndex(samples []core.Sample, target float64) int {
	n := len(samples)
	if n == 0 {
		return -1
	}
	i := sort.Search(n, func(i int) bool { return samples[i].Time >= target })
	switch i {
	case 0:
		return 0
	case n:
		return n - 1
	}
	if target-samples[i-1].Time <= samples[i].Time-target {
		return i - 1
	}
	return i
}

// Nearest returns the sample closest in time to target.
func Nearest(samples []core.Sample, target float64) (core.Sample, bool) {
	i := NearestIndex(samples, target)
	if i < 0 {
		return core.Sample{}, false
	}
	return samples[i], true
}

// Interpolate linearly interpolates the position at time t between the two
// positioned samples that bracket it. Times outside the sequence clamp to the
// first or last positioned sample.
func Interpolate(samples []core.Sample, t float64) (core.Vector3, bool) {
	var (
		prev    core.Vector3
		prevT   float64
		hasPrev bool
	)
	for _, s := range samples {
		pos, ok := s.Position()
		if !ok {
			continue
		}
		if s.Time >= t {
			if !hasPrev || s.Time == prevT {
				return pos, true
			}
			f := (t - prevT) / (s.Time - prevT)
			return lerp(prev, pos, f), true
		}
		prev, prevT, hasPrev = pos, s.Time, true
	}
	return prev, hasPrev
}

func lerp(a, b core.Vector3, f float64) core.Vector3 {
	return core.Vector3{
		X: a.X + (b.X-a.X)*f,
		Y: a.Y + (b.Y-a.Y)*f,
		Z: a.Z + (b.Z-a.Z)*f,
	}
}

// ClassifyActivity reports whether a sample shows the entity moving or at rest.
func ClassifyActivity(s core.Sample) core.Activity {
	switch {
	case s.Kind == core.KindInitial:
		return core.ActivityActive
	case s.Sleeping == nil:
		return core.ActivityUnknown
	case *s.Sleeping:
		return core.ActivitySleeping
	default:
		return core.ActivityActive
	}
}

// ActivityCount tallies samples by activity.
type ActivityCount struct {
	Active   int
	Sleeping int
	Unknown  int
}

func (c ActivityCount) Total() int {
	return c.Active + c.Sleeping + c.Unknown
}

func CountActivity(samples []core.Sample) ActivityCount {
	var c ActivityCount
	for _, s := range samples {
		switch ClassifyActivity(s) {
		case core.ActivityActive:
			c.Active++
		case core.ActivitySleeping:
			c.Sleeping++
		default:
			c.Unknown++
		}
	}
	return c
}

// ActivePositions returns the samples classified active.
func ActivePositions(samples []core.Sample) []core.Sample {
	var out []core.Sample
	for _, s := range samples {
		if ClassifyActivity(s) == core.ActivityActive {
			out = append(out, s)
		}
	}
	return out
}
