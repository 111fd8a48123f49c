// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"database/sql"
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/arena-replay/rltrack/internal/geo"
	"github.com/arena-replay/rltrack/internal/model"
	"github.com/arena-replay/rltrack/internal/trajectory"
	"github.com/arena-replay/rltrack/pkg/core"
)

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}

// toJSON encodes v for a JSON column. Nil pointers become SQL NULL.
func toJSON[T any](v *T) datatypes.JSON {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}

// CoreToReplay converts replay metadata to a GORM Replay. info may be nil.
func CoreToReplay(info *core.ReplayInfo, name string) model.Replay {
	r := model.Replay{
		Name:        name,
		PlayerStats: datatypes.JSON("[]"),
	}
	if info == nil {
		return r
	}

	r.HasMetadata = true
	r.GameType = info.GameType
	r.MapName = info.MapName
	r.MatchType = info.MatchType
	r.TeamSize = info.TeamSize
	r.TotalSeconds = info.TotalSeconds
	r.NumFrames = info.NumFrames
	r.RecordFPS = info.RecordFPS
	if !info.Date.IsZero() {
		r.PlayedAt = sql.NullTime{Time: info.Date, Valid: true}
	}
	if len(info.PlayerStats) > 0 {
		if data, err := json.Marshal(info.PlayerStats); err == nil {
			r.PlayerStats = datatypes.JSON(data)
		}
	}
	return r
}

// CoreToTrack converts a trajectory header to a GORM Track. Samples are
// converted separately so they can be batched.
func CoreToTrack(t core.Track, replayID uint) model.Track {
	counts := trajectory.CountActivity(t.Samples)
	track := model.Track{
		ReplayID:      replayID,
		ActorID:       t.ActorID,
		Name:          t.Name,
		Class:         t.Class.String(),
		PlayerName:    t.PlayerName,
		SampleCount:   len(t.Samples),
		ActiveCount:   counts.Active,
		SleepingCount: counts.Sleeping,
	}
	if path, err := geo.Path(t.Samples); err == nil {
		track.Path = path
		track.PathWKT = path.AsText()
		track.PlanarLength = path.Length()
	}
	return track
}

// CoreToSample converts one sample belonging to the given track.
func CoreToSample(s core.Sample, trackID uint) model.Sample {
	return model.Sample{
		TrackID:         trackID,
		Time:            s.Time,
		X:               nullFloat(s.X),
		Y:               nullFloat(s.Y),
		Z:               nullFloat(s.Z),
		Kind:            string(s.Kind),
		ActorID:         s.ActorID,
		Sleeping:        nullBool(s.Sleeping),
		Rotation:        toJSON(s.Rotation),
		LinearVelocity:  toJSON(s.LinearVelocity),
		AngularVelocity: toJSON(s.AngularVelocity),
	}
}

// CoreToPlayer converts a player timeline to a GORM Player.
func CoreToPlayer(p core.PlayerTimeline, replayID uint) model.Player {
	cars := datatypes.JSON("[]")
	if len(p.Cars) > 0 {
		if data, err := json.Marshal(p.Cars); err == nil {
			cars = datatypes.JSON(data)
		}
	}
	return model.Player{
		ReplayID:      replayID,
		RecordActorID: p.RecordActorID,
		Name:          p.PlayerName,
		Cars:          cars,
		SampleCount:   len(p.Samples),
		ActiveCount:   len(trajectory.ActivePositions(p.Samples)),
	}
}
