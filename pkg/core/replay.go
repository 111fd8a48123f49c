// pkg/core/replay.go
package core

import "time"

// ReplayInfo is the pass-through metadata of a recorded match.
type ReplayInfo struct {
	GameType     string
	TeamSize     int
	MatchType    string
	MapName      string
	TotalSeconds float64
	NumFrames    int
	RecordFPS    float64
	Date         time.Time // zero when the recording carries no date
	PlayerStats  []PlayerStat
}

// PlayerStat is the end-of-match scoreboard line of one player.
type PlayerStat struct {
	Name  string `json:"name"`
	Team  int    `json:"team"`
	Score int    `json:"score"`
	Goals int    `json:"goals"`
	Saves int    `json:"saves"`
	Shots int    `json:"shots"`
	IsBot bool   `json:"is_bot"`
}

// StatFor returns the scoreboard line for the named player.
func (r *ReplayInfo) StatFor(name string) (PlayerStat, bool) {
	if r == nil {
		return PlayerStat{}, false
	}
	for _, s := range r.PlayerStats {
		if s.Name == name {
			return s, true
		}
	}
	return PlayerStat{}, false
}

// ExtractStats counts what the forward scan observed.
type ExtractStats struct {
	Frames           int
	NewActors        int
	UpdatedActors    int
	SamplesAppended  int
	SamplesDropped   int // rigid body updates without a location
	BindingsIgnored  int // later writes rejected by first-write-wins
	DelimitedNames   int // player-record strings skipped for carrying the delimiter
	OutOfOrderFrames int
}

// Replay is the result of one extraction: per-entity trajectories plus metadata.
type Replay struct {
	Info        *ReplayInfo
	MetadataErr error // set when required metadata is absent; trajectories are still valid

	// Names of car classes present in the name table, deduplicated, table order.
	CarNames []string
	// Car actors introduced in the first frame.
	FirstFrameCars []CarRef

	Ball    *Track
	Cars    []Track
	Players []PlayerTimeline
	Stats   ExtractStats
}
