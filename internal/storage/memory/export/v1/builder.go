package v1

import (
	"fmt"

	"github.com/arena-replay/rltrack/internal/trajectory"
	"github.com/arena-replay/rltrack/pkg/core"
)

// ReplayData contains everything needed to build the three documents.
// Info must be non-nil.
type ReplayData struct {
	Info    *core.ReplayInfo
	Ball    *core.Track
	Cars    []core.Track
	Players []core.PlayerTimeline
}

func replayInfo(info *core.ReplayInfo, withTeamSize bool) ReplayInfo {
	ri := ReplayInfo{
		GameType:     info.GameType,
		TotalSeconds: info.TotalSeconds,
		NumFrames:    info.NumFrames,
		RecordFPS:    info.RecordFPS,
		MapName:      info.MapName,
	}
	if withTeamSize {
		size := info.TeamSize
		ri.TeamSize = &size
	}
	return ri
}

// positions never returns nil so empty trajectories encode as [].
func positions(samples []core.Sample) []core.Sample {
	if samples == nil {
		return []core.Sample{}
	}
	return samples
}

// BuildBall creates the ball document. A missing ball track exports an empty
// trajectory with actor id -1.
func BuildBall(data *ReplayData) BallExport {
	export := BallExport{
		ReplayInfo:  replayInfo(data.Info, false),
		BallActorID: -1,
		Positions:   []core.Sample{},
	}
	if data.Ball == nil {
		return export
	}

	counts := trajectory.CountActivity(data.Ball.Samples)
	export.BallActorID = data.Ball.ActorID
	export.TotalPositions = len(data.Ball.Samples)
	export.ActivePositions = counts.Active
	export.SleepingPositions = counts.Sleeping
	export.Positions = positions(data.Ball.Samples)
	return export
}

// BuildCars creates the cars document.
func BuildCars(data *ReplayData) CarsExport {
	export := CarsExport{
		ReplayInfo: replayInfo(data.Info, true),
		Players:    make([]core.PlayerStat, 0, len(data.Info.PlayerStats)),
		TotalCars:  len(data.Cars),
		Cars:       make([]Car, 0, len(data.Cars)),
	}
	export.Players = append(export.Players, data.Info.PlayerStats...)

	for _, track := range data.Cars {
		counts := trajectory.CountActivity(track.Samples)
		export.Cars = append(export.Cars, Car{
			ActorID:           track.ActorID,
			Name:              track.Name,
			Player:            track.PlayerName,
			TotalPositions:    len(track.Samples),
			ActivePositions:   counts.Active,
			SleepingPositions: counts.Sleeping,
			Positions:         positions(track.Samples),
		})
		export.TotalPositions += len(track.Samples)
	}
	return export
}

// BuildPlayers creates the players document. When two player records share a
// display name, later ones are keyed "<name> #<record actor id>".
func BuildPlayers(data *ReplayData) PlayersExport {
	export := PlayersExport{
		ReplayInfo:   replayInfo(data.Info, true),
		TotalPlayers: len(data.Players),
		Players:      make(map[string]Player, len(data.Players)),
	}

	for _, p := range data.Players {
		key := p.PlayerName
		if _, taken := export.Players[key]; taken {
			key = fmt.Sprintf("%s #%d", p.PlayerName, p.RecordActorID)
		}

		var info PlayerInfo
		if stat, ok := data.Info.StatFor(p.PlayerName); ok {
			info = PlayerInfo{
				Team:  stat.Team,
				Score: stat.Score,
				Goals: stat.Goals,
				Saves: stat.Saves,
				Shots: stat.Shots,
				IsBot: stat.IsBot,
			}
		}

		carsUsed := make([]string, 0, len(p.Cars))
		for _, c := range p.Cars {
			carsUsed = append(carsUsed, c.Name)
		}

		export.Players[key] = Player{
			PlayerInfo:      info,
			CarsUsed:        carsUsed,
			CarActorIDs:     p.CarActorIDs(),
			TotalPositions:  len(p.Samples),
			ActivePositions: len(trajectory.ActivePositions(p.Samples)),
			Positions:       positions(p.Samples),
		}
		export.TotalPositions += len(p.Samples)
	}
	return export
}
