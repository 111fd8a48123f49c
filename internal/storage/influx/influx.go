// Package influxstorage streams trajectory samples to InfluxDB as points.
// When the server cannot be reached at Init, points are written as gzipped
// line protocol to a backup file for later import.
package influxstorage

import (
	"compress/gzip"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/arena-replay/rltrack/internal/config"
	"github.com/arena-replay/rltrack/pkg/core"
)

const pingTimeout = 5 * time.Second

// Backend writes points to InfluxDB or a backup file.
type Backend struct {
	cfg config.InfluxConfig
	log *slog.Logger

	client     influxdb2.Client
	writer     influxdb2_api.WriteAPI
	backup     *gzip.Writer
	backupFile *os.File
	valid      bool

	replay string
	start  time.Time
}

// New creates an InfluxDB backend.
func New(cfg config.InfluxConfig, log *slog.Logger) *Backend {
	if log == nil {
		log = slog.Default()
	}
	return &Backend{cfg: cfg, log: log}
}

// Init connects to InfluxDB, falling back to the backup file.
func (b *Backend) Init() error {
	b.client = influxdb2.NewClientWithOptions(
		b.cfg.URL(),
		b.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	running, err := b.client.Ping(ctx)
	if err != nil || !running {
		b.log.Warn("InfluxDB unreachable, writing to backup file", "url", b.cfg.URL(), "backupPath", b.cfg.BackupPath, "error", err)
		return b.openBackup()
	}

	if err := b.setupOrganizationAndBucket(context.Background()); err != nil {
		return err
	}
	b.writer = b.client.WriteAPI(b.cfg.Org, b.cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			b.log.Error("Error sending data to InfluxDB", "bucket", b.cfg.Bucket, "error", writeErr)
		}
	}(b.writer.Errors())

	b.valid = true
	b.log.Info("InfluxDB client initialized", "url", b.cfg.URL(), "bucket", b.cfg.Bucket)
	return nil
}

func (b *Backend) openBackup() error {
	if b.cfg.BackupPath == "" {
		return fmt.Errorf("influxDB unreachable and no backup path configured")
	}
	if dir := filepath.Dir(b.cfg.BackupPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating backup directory: %w", err)
		}
	}
	file, err := os.OpenFile(b.cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	b.backupFile = file
	b.backup = gzip.NewWriter(file)
	return nil
}

// setupOrganizationAndBucket ensures the org and bucket exist. Replays can be
// older than any retention window, so the bucket never expires data.
func (b *Backend) setupOrganizationAndBucket(ctx context.Context) error {
	orgs := b.client.OrganizationsAPI()
	org, err := orgs.FindOrganizationByName(ctx, b.cfg.Org)
	if err != nil {
		b.log.Info("Organization not found, creating", "org", b.cfg.Org)
		if org, err = orgs.CreateOrganizationWithName(ctx, b.cfg.Org); err != nil {
			return fmt.Errorf("error creating organization %s: %w", b.cfg.Org, err)
		}
	}

	buckets := b.client.BucketsAPI()
	if _, err := buckets.FindBucketByName(ctx, b.cfg.Bucket); err != nil {
		b.log.Info("Bucket not found, creating", "bucket", b.cfg.Bucket)
		if _, err := buckets.CreateBucketWithName(ctx, org, b.cfg.Bucket); err != nil {
			return fmt.Errorf("error creating bucket %s: %w", b.cfg.Bucket, err)
		}
	}
	return nil
}

// UsingBackup reports whether points go to the backup file.
func (b *Backend) UsingBackup() bool {
	return !b.valid
}

// Close flushes and releases the client and backup file.
func (b *Backend) Close() error {
	if b.writer != nil {
		b.writer.Flush()
	}
	if b.client != nil {
		b.client.Close()
	}
	if b.backup != nil {
		if err := b.backup.Close(); err != nil {
			return fmt.Errorf("error closing backup writer: %w", err)
		}
		b.backup = nil
	}
	if b.backupFile != nil {
		err := b.backupFile.Close()
		b.backupFile = nil
		return err
	}
	return nil
}

// StartReplay anchors sample timestamps at the replay date, or now when the
// replay carries none.
func (b *Backend) StartReplay(info *core.ReplayInfo, name string) error {
	b.replay = name
	b.start = time.Now().UTC()
	if info != nil && !info.Date.IsZero() {
		b.start = info.Date
	}
	return nil
}

// EndReplay flushes buffered points.
func (b *Backend) EndReplay() error {
	if b.writer != nil {
		b.writer.Flush()
	}
	if b.backup != nil {
		if err := b.backup.Flush(); err != nil {
			return fmt.Errorf("error flushing backup writer: %w", err)
		}
	}
	return nil
}

// RecordBall writes one point per ball sample.
func (b *Backend) RecordBall(t *core.Track) error {
	return b.writeTrack(t)
}

// RecordCar writes one point per car sample.
func (b *Backend) RecordCar(t *core.Track) error {
	return b.writeTrack(t)
}

func (b *Backend) writeTrack(t *core.Track) error {
	for _, s := range t.Samples {
		point := SamplePoint(b.replay, b.start, t, s)
		if point == nil {
			continue
		}
		if err := b.writePoint(point); err != nil {
			return err
		}
	}
	return nil
}

// RecordPlayer writes a single summary point for the player.
func (b *Backend) RecordPlayer(p *core.PlayerTimeline) error {
	point := influxdb2_write.NewPoint(
		"player",
		map[string]string{
			"replay":          b.replay,
			"player":          p.PlayerName,
			"record_actor_id": strconv.Itoa(p.RecordActorID),
		},
		map[string]interface{}{
			"cars":      len(p.Cars),
			"positions": len(p.Samples),
		},
		b.start,
	)
	return b.writePoint(point)
}

func (b *Backend) writePoint(point *influxdb2_write.Point) error {
	if b.valid {
		b.writer.WritePoint(point)
		return nil
	}
	if b.backup == nil {
		return fmt.Errorf("influxDB client not initialized and backup writer not available")
	}
	lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := b.backup.Write([]byte(lineProtocol)); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// SamplePoint converts a sample to a point in the track's class measurement.
// Returns nil for samples without a position, which carry no field worth storing.
func SamplePoint(replay string, start time.Time, t *core.Track, s core.Sample) *influxdb2_write.Point {
	pos, ok := s.Position()
	if !ok {
		return nil
	}

	tags := map[string]string{
		"replay":   replay,
		"actor_id": strconv.Itoa(t.ActorID),
		"name":     t.Name,
		"type":     string(s.Kind),
	}
	if t.PlayerName != "" {
		tags["player"] = t.PlayerName
	}

	fields := map[string]interface{}{
		"x": pos.X,
		"y": pos.Y,
		"z": pos.Z,
	}
	if s.Sleeping != nil {
		fields["sleeping"] = *s.Sleeping
	}
	if s.LinearVelocity != nil {
		fields["speed"] = s.LinearVelocity.Norm()
	}

	ts := start.Add(time.Duration(s.Time * float64(time.Second)))
	return influxdb2_write.NewPoint(t.Class.String(), tags, fields, ts)
}
