package v1

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arena-replay/rltrack/pkg/core"
)

func f64(v float64) *float64 { return &v }
func boolp(v bool) *bool     { return &v }

func update(t float64, sleeping *bool) core.Sample {
	return core.Sample{Time: t, X: f64(t), Y: f64(0), Z: f64(17), Kind: core.KindUpdate, Sleeping: sleeping}
}

func testInfo() *core.ReplayInfo {
	return &core.ReplayInfo{
		GameType:     "TAGame.Replay_Soccar_TA",
		TeamSize:     2,
		MapName:      "stadium_p",
		TotalSeconds: 312.5,
		NumFrames:    9000,
		RecordFPS:    30,
		PlayerStats: []core.PlayerStat{
			{Name: "Alice", Team: 0, Score: 420, Goals: 2, Saves: 1, Shots: 4},
			{Name: "Bob", Team: 1, Score: 150, IsBot: true},
		},
	}
}

func TestBuildBall(t *testing.T) {
	data := &ReplayData{
		Info: testInfo(),
		Ball: &core.Track{
			ActorID: 3,
			Name:    "Archetypes.Ball.Ball_Default",
			Class:   core.ClassBall,
			Samples: []core.Sample{
				{Time: 0, X: f64(0), Y: f64(0), Z: f64(93), Kind: core.KindInitial, ActorID: 3},
				update(1, boolp(false)),
				update(2, boolp(true)),
				update(3, nil),
			},
		},
	}

	export := BuildBall(data)

	assert.Equal(t, 3, export.BallActorID)
	assert.Equal(t, 4, export.TotalPositions)
	assert.Equal(t, 2, export.ActivePositions)
	assert.Equal(t, 1, export.SleepingPositions)
	assert.Equal(t, "stadium_p", export.ReplayInfo.MapName)
	assert.Nil(t, export.ReplayInfo.TeamSize, "ball document carries no team size")
	assert.Len(t, export.Positions, 4)
}

func TestBuildBall_NoBall(t *testing.T) {
	export := BuildBall(&ReplayData{Info: testInfo()})

	assert.Equal(t, -1, export.BallActorID)
	assert.Zero(t, export.TotalPositions)

	out, err := json.Marshal(export)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"positions":[]`)
}

func TestBuildCars(t *testing.T) {
	data := &ReplayData{
		Info: testInfo(),
		Cars: []core.Track{
			{ActorID: 10, Name: "Archetypes.Car.Car_Default", PlayerName: "Alice", Samples: []core.Sample{update(1, boolp(false)), update(2, boolp(true))}},
			{ActorID: 11, Name: "Archetypes.Car.Car_Default", PlayerName: "Bob", Samples: []core.Sample{update(1, nil)}},
			{ActorID: 12, Name: "Archetypes.Car.Car_Default"},
		},
	}

	export := BuildCars(data)

	require.NotNil(t, export.ReplayInfo.TeamSize)
	assert.Equal(t, 2, *export.ReplayInfo.TeamSize)
	assert.Equal(t, 3, export.TotalCars)
	assert.Equal(t, 3, export.TotalPositions)
	assert.Len(t, export.Players, 2)

	require.Len(t, export.Cars, 3, "cars sharing a class name stay separate")
	assert.Equal(t, Car{
		ActorID:           10,
		Name:              "Archetypes.Car.Car_Default",
		Player:            "Alice",
		TotalPositions:    2,
		ActivePositions:   1,
		SleepingPositions: 1,
		Positions:         data.Cars[0].Samples,
	}, export.Cars[0])
	assert.Equal(t, "", export.Cars[2].Player)
	assert.NotNil(t, export.Cars[2].Positions)
}

func TestBuildPlayers(t *testing.T) {
	data := &ReplayData{
		Info: testInfo(),
		Players: []core.PlayerTimeline{
			{
				PlayerName:    "Alice",
				RecordActorID: 20,
				Cars:          []core.CarRef{{ActorID: 10, Name: "Car_A"}, {ActorID: 14, Name: "Car_B"}},
				Samples:       []core.Sample{update(1, boolp(false)), update(2, boolp(true)), update(3, nil)},
			},
			{
				PlayerName:    "Carol",
				RecordActorID: 21,
				Cars:          []core.CarRef{{ActorID: 11, Name: "Car_A"}},
			},
		},
	}

	export := BuildPlayers(data)

	assert.Equal(t, 2, export.TotalPlayers)
	assert.Equal(t, 3, export.TotalPositions)

	alice, ok := export.Players["Alice"]
	require.True(t, ok)
	assert.Equal(t, PlayerInfo{Team: 0, Score: 420, Goals: 2, Saves: 1, Shots: 4}, alice.PlayerInfo)
	assert.Equal(t, []string{"Car_A", "Car_B"}, alice.CarsUsed)
	assert.Equal(t, []int{10, 14}, alice.CarActorIDs)
	assert.Equal(t, 3, alice.TotalPositions)
	assert.Equal(t, 1, alice.ActivePositions)

	carol, ok := export.Players["Carol"]
	require.True(t, ok)
	assert.Equal(t, PlayerInfo{}, carol.PlayerInfo, "no scoreboard line means zero info")
	assert.Empty(t, carol.Positions)
}

func TestBuildPlayers_DuplicateDisplayName(t *testing.T) {
	data := &ReplayData{
		Info: testInfo(),
		Players: []core.PlayerTimeline{
			{PlayerName: "Alice", RecordActorID: 20},
			{PlayerName: "Alice", RecordActorID: 27},
		},
	}

	export := BuildPlayers(data)

	assert.Len(t, export.Players, 2)
	assert.Contains(t, export.Players, "Alice")
	assert.Contains(t, export.Players, "Alice #27")
}

func TestSampleJSON(t *testing.T) {
	s := core.Sample{
		Time:     1.5,
		X:        f64(1),
		Y:        nil,
		Z:        f64(3),
		Kind:     core.KindUpdate,
		ActorID:  10,
		CarActor: "Car_A",
		Sleeping: boolp(false),
	}

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"time":1.5,"x":1,"y":null,"z":3,"type":"update","actor_id":10,"car_actor":"Car_A","sleeping":false}`, string(out))
}
