package parser

import (
	"encoding/json"

	"github.com/arena-replay/rltrack/pkg/core"
)

// Document is an already-decoded match recording.
type Document struct {
	GameType      string                     `json:"game_type"`
	Names         []string                   `json:"names"`
	Properties    map[string]json.RawMessage `json:"properties"`
	NetworkFrames NetworkFrames              `json:"network_frames"`
}

// NetworkFrames wraps the ordered frame list.
type NetworkFrames struct {
	Frames []Frame `json:"frames"`
}

// Frame is one network frame. Frames are ordered with non-decreasing Time.
type Frame struct {
	Time          float64        `json:"time"`
	Delta         float64        `json:"delta"`
	NewActors     []NewActor     `json:"new_actors"`
	UpdatedActors []UpdatedActor `json:"updated_actors"`
}

// NewActor introduces an actor instance. NameID is nil when the recording
// carries no object name for it.
type NewActor struct {
	ActorID           int                `json:"actor_id"`
	NameID            *int               `json:"name_id"`
	ObjectID          int                `json:"object_id"`
	InitialTrajectory *InitialTrajectory `json:"initial_trajectory"`
}

// InitialTrajectory is the spawn location and orientation of a new actor.
type InitialTrajectory struct {
	Location *Location      `json:"location"`
	Rotation *core.Rotation `json:"rotation"`
}

// UpdatedActor carries one attribute update for an existing actor.
type UpdatedActor struct {
	ActorID   int       `json:"actor_id"`
	StreamID  int       `json:"stream_id"`
	ObjectID  int       `json:"object_id"`
	Attribute Attribute `json:"attribute"`
}

// Location is a position whose components may individually be absent.
type Location struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	Z *float64 `json:"z"`
}
