package model

import (
	"database/sql"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Replay{},
	&Track{},
	&Sample{},
	&Player{},
}

////////////////////////
// REPLAYS
////////////////////////

// Replay is one extracted recording. Metadata columns are zero when the
// recording lacked them (HasMetadata is false).
type Replay struct {
	gorm.Model
	Name         string         `json:"name" gorm:"size:255;index:idx_replay_name"`
	HasMetadata  bool           `json:"hasMetadata"`
	GameType     string         `json:"gameType" gorm:"size:127"`
	MapName      string         `json:"mapName" gorm:"size:127"`
	MatchType    string         `json:"matchType" gorm:"size:64"`
	TeamSize     int            `json:"teamSize"`
	TotalSeconds float64        `json:"totalSeconds"`
	NumFrames    int            `json:"numFrames"`
	RecordFPS    float64        `json:"recordFps"`
	PlayedAt     sql.NullTime   `json:"playedAt"`
	PlayerStats  datatypes.JSON `json:"playerStats"`
	Tracks       []Track        `json:"tracks" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Players      []Player       `json:"players" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (*Replay) TableName() string {
	return "replays"
}

////////////////////////
// TRAJECTORIES
////////////////////////

// Track is the trajectory header of one ball or car actor. Path is the
// positioned samples as a 3D line string, empty with fewer than two positions.
type Track struct {
	gorm.Model
	ReplayID      uint            `json:"replayId" gorm:"index:idx_track_replay_id"`
	ActorID       int             `json:"actorId" gorm:"index:idx_track_actor_id"`
	Name          string          `json:"name" gorm:"size:255"`
	Class         string          `json:"class" gorm:"size:32"`
	PlayerName    string          `json:"playerName" gorm:"size:255"`
	SampleCount   int             `json:"sampleCount"`
	ActiveCount   int             `json:"activeCount"`
	SleepingCount int             `json:"sleepingCount"`
	PlanarLength  float64         `json:"planarLength"`
	Path          geom.LineString `json:"path"`
	PathWKT       string          `json:"pathWkt"`
	Samples       []Sample        `json:"samples" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (*Track) TableName() string {
	return "tracks"
}

// Sample is one observation on a track, keyed by insertion order within the track.
type Sample struct {
	ID              uint            `json:"id" gorm:"primarykey;autoIncrement"`
	TrackID         uint            `json:"trackId" gorm:"index:idx_sample_track_id_time,priority:1"`
	Time            float64         `json:"time" gorm:"index:idx_sample_track_id_time,priority:2"`
	X               sql.NullFloat64 `json:"x"`
	Y               sql.NullFloat64 `json:"y"`
	Z               sql.NullFloat64 `json:"z"`
	Kind            string          `json:"type" gorm:"size:16"`
	ActorID         int             `json:"actorId"`
	Sleeping        sql.NullBool    `json:"sleeping"`
	Rotation        datatypes.JSON  `json:"rotation"`
	LinearVelocity  datatypes.JSON  `json:"linearVelocity"`
	AngularVelocity datatypes.JSON  `json:"angularVelocity"`
}

func (*Sample) TableName() string {
	return "samples"
}

// Player is a resolved player identity with the car actors it drove. Its
// merged timeline is the union of the referenced car tracks' samples.
type Player struct {
	gorm.Model
	ReplayID      uint           `json:"replayId" gorm:"index:idx_player_replay_id"`
	RecordActorID int            `json:"recordActorId"`
	Name          string         `json:"name" gorm:"size:255"`
	Cars          datatypes.JSON `json:"cars"`
	SampleCount   int            `json:"sampleCount"`
	ActiveCount   int            `json:"activeCount"`
}

func (*Player) TableName() string {
	return "players"
}
