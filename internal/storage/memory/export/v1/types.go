// Package v1 contains the v1 export format for extracted trajectories.
// A replay is exported as three documents: ball, cars and players.
package v1

import "github.com/arena-replay/rltrack/pkg/core"

// ReplayInfo is the metadata header shared by all three documents.
// TeamSize is only emitted on the cars and players documents.
type ReplayInfo struct {
	GameType     string  `json:"game_type"`
	TotalSeconds float64 `json:"total_seconds"`
	NumFrames    int     `json:"num_frames"`
	RecordFPS    float64 `json:"record_fps"`
	MapName      string  `json:"map_name"`
	TeamSize     *int    `json:"team_size,omitempty"`
}

// BallExport is the root of the ball document.
type BallExport struct {
	ReplayInfo        ReplayInfo    `json:"replay_info"`
	BallActorID       int           `json:"ball_actor_id"`
	TotalPositions    int           `json:"total_positions"`
	ActivePositions   int           `json:"active_positions"`
	SleepingPositions int           `json:"sleeping_positions"`
	Positions         []core.Sample `json:"positions"`
}

// CarsExport is the root of the cars document. Cars are listed per actor id.
type CarsExport struct {
	ReplayInfo     ReplayInfo        `json:"replay_info"`
	Players        []core.PlayerStat `json:"players"`
	TotalCars      int               `json:"total_cars"`
	TotalPositions int               `json:"total_positions"`
	Cars           []Car             `json:"cars"`
}

// Car is the trajectory of one car actor.
type Car struct {
	ActorID           int           `json:"actor_id"`
	Name              string        `json:"name"`
	Player            string        `json:"player"`
	TotalPositions    int           `json:"total_positions"`
	ActivePositions   int           `json:"active_positions"`
	SleepingPositions int           `json:"sleeping_positions"`
	Positions         []core.Sample `json:"positions"`
}

// PlayersExport is the root of the players document, keyed by display name.
type PlayersExport struct {
	ReplayInfo     ReplayInfo        `json:"replay_info"`
	TotalPlayers   int               `json:"total_players"`
	TotalPositions int               `json:"total_positions"`
	Players        map[string]Player `json:"players"`
}

// PlayerInfo is the scoreboard line of a player, zero when the replay has none.
type PlayerInfo struct {
	Team  int  `json:"team"`
	Score int  `json:"score"`
	Goals int  `json:"goals"`
	Saves int  `json:"saves"`
	Shots int  `json:"shots"`
	IsBot bool `json:"is_bot"`
}

// Player is the merged trajectory of every car a player drove.
type Player struct {
	PlayerInfo      PlayerInfo    `json:"player_info"`
	CarsUsed        []string      `json:"cars_used"`
	CarActorIDs     []int         `json:"car_actor_ids"`
	TotalPositions  int           `json:"total_positions"`
	ActivePositions int           `json:"active_positions"`
	Positions       []core.Sample `json:"positions"`
}
