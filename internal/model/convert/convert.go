package convert

import (
	"encoding/json"

	"github.com/arena-replay/rltrack/internal/model"
	"github.com/arena-replay/rltrack/internal/trajectory"
	"github.com/arena-replay/rltrack/pkg/core"
)

func floatPtr(v float64, valid bool) *float64 {
	if !valid {
		return nil
	}
	return &v
}

// fromJSON decodes a JSON column, returning nil for NULL or invalid data.
func fromJSON[T any](data []byte) *T {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return nil
	}
	return v
}

func classFromString(s string) core.ActorClass {
	switch s {
	case core.ClassBall.String():
		return core.ClassBall
	case core.ClassCar.String():
		return core.ClassCar
	case core.ClassPlayerRecord.String():
		return core.ClassPlayerRecord
	default:
		return core.ClassOther
	}
}

// ReplayToCore converts a GORM Replay back to metadata. Returns nil when the
// replay was stored without metadata.
func ReplayToCore(r model.Replay) *core.ReplayInfo {
	if !r.HasMetadata {
		return nil
	}
	info := &core.ReplayInfo{
		GameType:     r.GameType,
		TeamSize:     r.TeamSize,
		MatchType:    r.MatchType,
		MapName:      r.MapName,
		TotalSeconds: r.TotalSeconds,
		NumFrames:    r.NumFrames,
		RecordFPS:    r.RecordFPS,
	}
	if r.PlayedAt.Valid {
		info.Date = r.PlayedAt.Time
	}
	if stats := fromJSON[[]core.PlayerStat](r.PlayerStats); stats != nil {
		info.PlayerStats = *stats
	}
	return info
}

// SampleToCore converts a stored sample back to a core sample.
func SampleToCore(s model.Sample) core.Sample {
	out := core.Sample{
		Time:            s.Time,
		X:               floatPtr(s.X.Float64, s.X.Valid),
		Y:               floatPtr(s.Y.Float64, s.Y.Valid),
		Z:               floatPtr(s.Z.Float64, s.Z.Valid),
		Kind:            core.SampleKind(s.Kind),
		ActorID:         s.ActorID,
		Rotation:        fromJSON[core.Rotation](s.Rotation),
		LinearVelocity:  fromJSON[core.Vector3](s.LinearVelocity),
		AngularVelocity: fromJSON[core.Vector3](s.AngularVelocity),
	}
	if s.Sleeping.Valid {
		sleeping := s.Sleeping.Bool
		out.Sleeping = &sleeping
	}
	return out
}

// TrackToCore converts a stored track and its preloaded samples.
func TrackToCore(t model.Track) core.Track {
	samples := make([]core.Sample, 0, len(t.Samples))
	for _, s := range t.Samples {
		samples = append(samples, SampleToCore(s))
	}
	return core.Track{
		ActorID:    t.ActorID,
		Name:       t.Name,
		Class:      classFromString(t.Class),
		PlayerName: t.PlayerName,
		Samples:    samples,
	}
}

// PlayerToCore rebuilds a player timeline by merging the samples of the cars
// it drove, tagged with the car name and ordered by time.
func PlayerToCore(p model.Player, carSamples map[int][]core.Sample) core.PlayerTimeline {
	var cars []core.CarRef
	if decoded := fromJSON[[]core.CarRef](p.Cars); decoded != nil {
		cars = *decoded
	}

	return core.PlayerTimeline{
		PlayerName:    p.Name,
		RecordActorID: p.RecordActorID,
		Cars:          cars,
		Samples:       trajectory.MergeCars(cars, carSamples),
	}
}
