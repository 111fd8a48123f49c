// Package trajectory accumulates per-actor physical-state samples and answers
// time queries over the assembled sequences.
package trajectory

import (
	"cmp"
	"slices"

	"github.com/arena-replay/rltrack/internal/parser"
	"github.com/arena-replay/rltrack/pkg/core"
)

// Sampler holds the raw samples of every tracked actor.
type Sampler struct {
	samples map[int][]core.Sample
}

func NewSampler() *Sampler {
	return &Sampler{samples: make(map[int][]core.Sample)}
}

// AddInitial appends the spawn sample of an actor. New actors without an
// initial location produce nothing.
func (s *Sampler) AddInitial(actorID int, time float64, it *parser.InitialTrajectory) bool {
	if it == nil || it.Location == nil {
		return false
	}
	s.samples[actorID] = append(s.samples[actorID], core.Sample{
		Time:     time,
		X:        it.Location.X,
		Y:        it.Location.Y,
		Z:        it.Location.Z,
		Kind:     core.KindInitial,
		ActorID:  actorID,
		Rotation: it.Rotation,
	})
	return true
}

// AddRigidBody appends an update sample. Updates without a location are
// dropped.
func (s *Sampler) AddRigidBody(actorID int, time float64, rb *parser.RigidBody) bool {
	if rb == nil || rb.Location == nil {
		return false
	}
	s.samples[actorID] = append(s.samples[actorID], core.Sample{
		Time:            time,
		X:               rb.Location.X,
		Y:               rb.Location.Y,
		Z:               rb.Location.Z,
		Kind:            core.KindUpdate,
		ActorID:         actorID,
		Sleeping:        rb.Sleeping,
		Rotation:        rb.Rotation,
		LinearVelocity:  rb.LinearVelocity,
		AngularVelocity: rb.AngularVelocity,
	})
	return true
}

// Samples returns a time-ordered copy of one actor's samples.
func (s *Sampler) Samples(actorID int) []core.Sample {
	out := slices.Clone(s.samples[actorID])
	sortByTime(out)
	return out
}

// MergeForPlayer merges the samples of the given cars into one timeline.
func (s *Sampler) MergeForPlayer(cars []core.CarRef) []core.Sample {
	return MergeCars(cars, s.samples)
}

// MergeCars concatenates the samples of each car in the given order and
// stably sorts the result by time. Every merged sample is tagged with the
// name of the car it came from.
func MergeCars(cars []core.CarRef, samplesByActor map[int][]core.Sample) []core.Sample {
	var merged []core.Sample
	for _, car := range cars {
		for _, sample := range samplesByActor[car.ActorID] {
			sample.CarActor = car.Name
			merged = append(merged, sample)
		}
	}
	sortByTime(merged)
	return merged
}

// sortByTime orders samples by time. Ties keep their current relative order.
func sortByTime(samples []core.Sample) {
	slices.SortStableFunc(samples, func(a, b core.Sample) int {
		return cmp.Compare(a.Time, b.Time)
	})
}
