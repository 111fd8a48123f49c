package influxstorage

import (
	"bufio"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arena-replay/rltrack/internal/config"
	"github.com/arena-replay/rltrack/pkg/core"
)

func f64(v float64) *float64 { return &v }
func boolp(v bool) *bool     { return &v }

func TestSamplePoint(t *testing.T) {
	start := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	track := &core.Track{ActorID: 10, Name: "Car_TA", Class: core.ClassCar, PlayerName: "Alice"}
	s := core.Sample{
		Time: 1.5, X: f64(1), Y: f64(2), Z: f64(3), Kind: core.KindUpdate,
		Sleeping: boolp(false), LinearVelocity: &core.Vector3{X: 3, Y: 4},
	}

	point := SamplePoint("final", start, track, s)
	require.NotNil(t, point)

	line := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	assert.True(t, strings.HasPrefix(line, "car,"), line)
	assert.Contains(t, line, "player=Alice")
	assert.Contains(t, line, "replay=final")
	assert.Contains(t, line, "speed=5")
	assert.Contains(t, line, "sleeping=false")
	assert.True(t, strings.HasSuffix(line, "\n"), "line protocol is newline terminated")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(line), "1714593601500000000"), line)
}

func TestSamplePoint_NoPosition(t *testing.T) {
	track := &core.Track{Class: core.ClassBall}
	assert.Nil(t, SamplePoint("r", time.Now(), track, core.Sample{Time: 1, X: f64(1)}))
}

func TestBackend_FallsBackToBackupFile(t *testing.T) {
	backupPath := filepath.Join(t.TempDir(), "nested", "influx-backup.lp.gz")
	b := New(config.InfluxConfig{
		Host:       "127.0.0.1",
		Port:       "1",
		Protocol:   "http",
		Org:        "rltrack",
		Bucket:     "trajectories",
		BackupPath: backupPath,
	}, nil)

	require.NoError(t, b.Init())
	assert.True(t, b.UsingBackup())

	require.NoError(t, b.StartReplay(&core.ReplayInfo{Date: time.Unix(1000, 0)}, "final"))
	require.NoError(t, b.RecordBall(&core.Track{ActorID: 3, Name: "Ball_TA", Class: core.ClassBall, Samples: []core.Sample{
		{Time: 0, X: f64(0), Y: f64(0), Z: f64(93), Kind: core.KindInitial},
		{Time: 1, Kind: core.KindUpdate},
	}}))
	require.NoError(t, b.RecordPlayer(&core.PlayerTimeline{PlayerName: "Alice", RecordActorID: 20}))
	require.NoError(t, b.EndReplay())
	require.NoError(t, b.Close())

	f, err := os.Open(backupPath)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)

	var lines []string
	sc := bufio.NewScanner(gz)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	require.Len(t, lines, 2, "one line per point, the unpositioned sample skipped")
	for _, l := range lines {
		assert.NotEmpty(t, l)
	}
	assert.True(t, strings.HasPrefix(lines[0], "ball,"))
	assert.True(t, strings.HasPrefix(lines[1], "player,"))
}

func TestBackend_NoBackupPath(t *testing.T) {
	b := New(config.InfluxConfig{Host: "127.0.0.1", Port: "1", Protocol: "http"}, nil)
	assert.Error(t, b.Init())
	assert.NoError(t, b.Close())
}
