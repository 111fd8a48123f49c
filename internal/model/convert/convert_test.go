package convert

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arena-replay/rltrack/pkg/core"
)

func f64(v float64) *float64 { return &v }
func boolp(v bool) *bool     { return &v }

func TestReplayRoundTrip(t *testing.T) {
	info := &core.ReplayInfo{
		GameType:     "TAGame.Replay_Soccar_TA",
		TeamSize:     3,
		MatchType:    "Online",
		MapName:      "stadium_p",
		TotalSeconds: 300.5,
		NumFrames:    9015,
		RecordFPS:    30,
		Date:         time.Date(2024, 5, 1, 20, 15, 0, 0, time.UTC),
		PlayerStats:  []core.PlayerStat{{Name: "Alice", Team: 1, Goals: 2, IsBot: true}},
	}

	r := CoreToReplay(info, "final.json")
	assert.True(t, r.HasMetadata)
	assert.Equal(t, "final.json", r.Name)
	assert.True(t, r.PlayedAt.Valid)

	assert.Equal(t, info, ReplayToCore(r))
}

func TestCoreToReplay_NoMetadata(t *testing.T) {
	r := CoreToReplay(nil, "broken.json")

	assert.False(t, r.HasMetadata)
	assert.JSONEq(t, "[]", string(r.PlayerStats))
	assert.Nil(t, ReplayToCore(r))
}

func TestCoreToReplay_NoDate(t *testing.T) {
	r := CoreToReplay(&core.ReplayInfo{MapName: "park_p"}, "x")
	assert.False(t, r.PlayedAt.Valid)
	assert.True(t, ReplayToCore(r).Date.IsZero())
}

func TestSampleRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		sample core.Sample
	}{
		{
			name: "initial with yaw",
			sample: core.Sample{
				Time: 0.5, X: f64(1), Y: f64(2), Z: f64(3), Kind: core.KindInitial, ActorID: 7,
				Rotation: &core.Rotation{Yaw: f64(0.25)},
			},
		},
		{
			name: "update with velocities",
			sample: core.Sample{
				Time: 1, X: f64(-4), Y: f64(5), Z: f64(17), Kind: core.KindUpdate, ActorID: 7,
				Sleeping:        boolp(true),
				Rotation:        &core.Rotation{X: f64(0), Y: f64(0), Z: f64(0.7), W: f64(0.7)},
				LinearVelocity:  &core.Vector3{X: 100},
				AngularVelocity: &core.Vector3{Z: -1},
			},
		},
		{
			name:   "missing location",
			sample: core.Sample{Time: 2, Kind: core.KindUpdate, ActorID: 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := CoreToSample(tt.sample, 42)
			assert.Equal(t, uint(42), m.TrackID)
			assert.Equal(t, tt.sample, SampleToCore(m))
		})
	}
}

func TestCoreToSample_NullColumns(t *testing.T) {
	m := CoreToSample(core.Sample{Time: 1, Y: f64(2)}, 1)

	assert.False(t, m.X.Valid)
	assert.True(t, m.Y.Valid)
	assert.False(t, m.Sleeping.Valid)
	assert.Nil(t, m.Rotation)
	assert.Nil(t, m.LinearVelocity)
}

func TestCoreToTrack(t *testing.T) {
	track := core.Track{
		ActorID:    10,
		Name:       "Car_TA_Octane",
		Class:      core.ClassCar,
		PlayerName: "Alice",
		Samples: []core.Sample{
			{Time: 0, X: f64(0), Y: f64(0), Z: f64(17), Kind: core.KindInitial},
			{Time: 1, X: f64(3), Y: f64(4), Z: f64(17), Kind: core.KindUpdate, Sleeping: boolp(true)},
		},
	}

	m := CoreToTrack(track, 5)

	assert.Equal(t, uint(5), m.ReplayID)
	assert.Equal(t, "car", m.Class)
	assert.Equal(t, 2, m.SampleCount)
	assert.Equal(t, 1, m.ActiveCount)
	assert.Equal(t, 1, m.SleepingCount)
	assert.InDelta(t, 5.0, m.PlanarLength, 1e-9)
	assert.True(t, strings.HasPrefix(m.PathWKT, "LINESTRING Z"), m.PathWKT)
	assert.Equal(t, 2, m.Path.Coordinates().Length())

	back := TrackToCore(m)
	assert.Equal(t, core.ClassCar, back.Class)
	assert.Equal(t, "Alice", back.PlayerName)
	assert.Empty(t, back.Samples, "samples are stored separately")
}

func TestCoreToTrack_SinglePosition(t *testing.T) {
	m := CoreToTrack(core.Track{Class: core.ClassBall, Samples: []core.Sample{{X: f64(1), Y: f64(1), Z: f64(1)}}}, 1)

	assert.Empty(t, m.PathWKT)
	assert.Zero(t, m.PlanarLength)
	assert.Equal(t, core.ClassBall, TrackToCore(m).Class)
}

func TestPlayerRoundTrip(t *testing.T) {
	p := core.PlayerTimeline{
		PlayerName:    "Alice",
		RecordActorID: 20,
		Cars:          []core.CarRef{{ActorID: 10, Name: "Car_A"}, {ActorID: 14, Name: "Car_B"}},
		Samples:       []core.Sample{{Time: 1}, {Time: 2}},
	}

	m := CoreToPlayer(p, 3)
	assert.Equal(t, uint(3), m.ReplayID)
	assert.Equal(t, 2, m.SampleCount)

	carSamples := map[int][]core.Sample{
		10: {{Time: 1, ActorID: 10}, {Time: 3, ActorID: 10}},
		14: {{Time: 2, ActorID: 14}},
	}
	back := PlayerToCore(m, carSamples)

	assert.Equal(t, "Alice", back.PlayerName)
	assert.Equal(t, []int{10, 14}, back.CarActorIDs())
	require.Len(t, back.Samples, 3)
	assert.Equal(t, []float64{1, 2, 3}, []float64{back.Samples[0].Time, back.Samples[1].Time, back.Samples[2].Time})
	assert.Equal(t, "Car_B", back.Samples[1].CarActor)
}

func TestPlayerToCore_TiesKeepCarOrder(t *testing.T) {
	m := CoreToPlayer(core.PlayerTimeline{
		PlayerName: "Bob",
		Cars:       []core.CarRef{{ActorID: 14, Name: "Car_B"}, {ActorID: 10, Name: "Car_A"}},
	}, 1)
	carSamples := map[int][]core.Sample{
		10: {{Time: 1, ActorID: 10}},
		14: {{Time: 1, ActorID: 14}},
	}

	back := PlayerToCore(m, carSamples)

	require.Len(t, back.Samples, 2)
	assert.Equal(t, 14, back.Samples[0].ActorID)
	assert.Equal(t, 10, back.Samples[1].ActorID)
}

func TestClassFromString(t *testing.T) {
	for _, c := range []core.ActorClass{core.ClassOther, core.ClassBall, core.ClassCar, core.ClassPlayerRecord} {
		assert.Equal(t, c, classFromString(c.String()))
	}
	assert.Equal(t, core.ClassOther, classFromString("bogus"))
}
