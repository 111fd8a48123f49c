// pkg/core/events.go
package core

import "math"

// Vector3 is an engine-space vector (location or velocity).
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Norm returns the euclidean length of v.
func (v Vector3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Rotation carries either a quaternion (rigid body updates) or yaw/pitch/roll
// (initial trajectories). Absent components stay nil.
type Rotation struct {
	X     *float64 `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
	Z     *float64 `json:"z,omitempty"`
	W     *float64 `json:"w,omitempty"`
	Yaw   *float64 `json:"yaw,omitempty"`
	Pitch *float64 `json:"pitch,omitempty"`
	Roll  *float64 `json:"roll,omitempty"`
}

// SampleKind distinguishes the one-shot spawn sample from recurring updates.
type SampleKind string

const (
	KindInitial SampleKind = "initial"
	KindUpdate  SampleKind = "update"
)

// Activity is the moving/at-rest classification of a sample.
type Activity uint8

const (
	ActivityUnknown Activity = iota
	ActivityActive
	ActivitySleeping
)

func (a Activity) String() string {
	switch a {
	case ActivityActive:
		return "active"
	case ActivitySleeping:
		return "sleeping"
	default:
		return "unknown"
	}
}

// Sample is one timestamped physical-state observation of an entity.
// Samples are immutable once appended to a trajectory.
type Sample struct {
	Time            float64    `json:"time"`
	X               *float64   `json:"x"`
	Y               *float64   `json:"y"`
	Z               *float64   `json:"z"`
	Kind            SampleKind `json:"type"`
	ActorID         int        `json:"actor_id"`
	CarActor        string     `json:"car_actor,omitempty"`
	Sleeping        *bool      `json:"sleeping,omitempty"`
	Rotation        *Rotation  `json:"rotation,omitempty"`
	LinearVelocity  *Vector3   `json:"linear_velocity,omitempty"`
	AngularVelocity *Vector3   `json:"angular_velocity,omitempty"`
}

// Position returns the sample location and whether all three components are present.
func (s Sample) Position() (Vector3, bool) {
	if s.X == nil || s.Y == nil || s.Z == nil {
		return Vector3{}, false
	}
	return Vector3{X: *s.X, Y: *s.Y, Z: *s.Z}, true
}

// Track is the trajectory of a single ball or car actor.
type Track struct {
	ActorID    int
	Name       string
	Class      ActorClass
	PlayerName string // resolved owner, cars only
	Samples    []Sample
}

// PlayerTimeline is the merged trajectory of every car actor bound to one player.
type PlayerTimeline struct {
	PlayerName    string
	RecordActorID int
	Cars          []CarRef
	Samples       []Sample
}

// CarActorIDs returns the actor ids of the player's cars in order.
func (p PlayerTimeline) CarActorIDs() []int {
	ids := make([]int, 0, len(p.Cars))
	for _, c := range p.Cars {
		ids = append(ids, c.ActorID)
	}
	return ids
}
