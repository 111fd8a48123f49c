// Package gormstorage persists trajectories through GORM. Track and player
// headers are inserted as they arrive; samples are queued and bulk inserted in
// batches inside a transaction.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"gorm.io/gorm"

	"github.com/arena-replay/rltrack/internal/database"
	"github.com/arena-replay/rltrack/internal/model"
	"github.com/arena-replay/rltrack/internal/model/convert"
	"github.com/arena-replay/rltrack/internal/queue"
	"github.com/arena-replay/rltrack/pkg/core"
)

const defaultBatchSize = 2000

var (
	// ErrNoDatabase is returned by Init when no connection was injected.
	ErrNoDatabase = errors.New("gorm backend requires a database connection")
	// ErrNoReplay is returned when recording outside StartReplay/EndReplay.
	ErrNoReplay = errors.New("no replay started")
	// ErrReplayNotFound is returned by LoadReplay for an unknown name.
	ErrReplayNotFound = errors.New("replay not found")
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB        *gorm.DB
	Logger    *slog.Logger
	BatchSize int // samples per insert, default 2000
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps     Dependencies
	log      *slog.Logger
	samples  *queue.Queue[model.Sample]
	replayID uint
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.BatchSize <= 0 {
		deps.BatchSize = defaultBatchSize
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Backend{
		deps:    deps,
		log:     log,
		samples: queue.New[model.Sample](),
	}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// SetDB injects a connection opened after construction.
func (b *Backend) SetDB(db *gorm.DB) {
	b.deps.DB = db
}

// Init runs schema migration.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return ErrNoDatabase
	}
	if err := database.Migrate(b.deps.DB, b.log); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	return nil
}

// Close writes any queued samples.
func (b *Backend) Close() error {
	if b.deps.DB == nil {
		return nil
	}
	return b.flush(true)
}

// StartReplay inserts the replay row that every following record references.
func (b *Backend) StartReplay(info *core.ReplayInfo, name string) error {
	if b.deps.DB == nil {
		return ErrNoDatabase
	}
	r := convert.CoreToReplay(info, name)
	if err := b.deps.DB.Create(&r).Error; err != nil {
		return fmt.Errorf("failed to insert replay: %w", err)
	}
	b.replayID = r.ID
	b.log.Debug("Replay row created", "replay", name, "id", r.ID, "hasMetadata", r.HasMetadata)
	return nil
}

// EndReplay flushes all queued samples and closes the replay.
func (b *Backend) EndReplay() error {
	if b.replayID == 0 {
		return ErrNoReplay
	}
	err := b.flush(true)
	b.replayID = 0
	return err
}

// RecordBall persists the ball track.
func (b *Backend) RecordBall(t *core.Track) error {
	return b.recordTrack(t)
}

// RecordCar persists one car track.
func (b *Backend) RecordCar(t *core.Track) error {
	return b.recordTrack(t)
}

func (b *Backend) recordTrack(t *core.Track) error {
	if b.replayID == 0 {
		return ErrNoReplay
	}

	track := convert.CoreToTrack(*t, b.replayID)
	if err := b.deps.DB.Create(&track).Error; err != nil {
		return fmt.Errorf("failed to insert track %d: %w", t.ActorID, err)
	}

	rows := make([]model.Sample, 0, len(t.Samples))
	for _, s := range t.Samples {
		rows = append(rows, convert.CoreToSample(s, track.ID))
	}
	b.samples.Push(rows...)

	if b.samples.Len() >= b.deps.BatchSize {
		return b.flush(false)
	}
	return nil
}

// RecordPlayer persists a player header. Its samples live on the car tracks.
func (b *Backend) RecordPlayer(p *core.PlayerTimeline) error {
	if b.replayID == 0 {
		return ErrNoReplay
	}
	player := convert.CoreToPlayer(*p, b.replayID)
	if err := b.deps.DB.Create(&player).Error; err != nil {
		return fmt.Errorf("failed to insert player %q: %w", p.PlayerName, err)
	}
	return nil
}

// Pending returns the number of queued samples.
func (b *Backend) Pending() int {
	return b.samples.Len()
}

// flush inserts full batches, or everything when all is set. A failed batch
// is put back on the queue.
func (b *Backend) flush(all bool) error {
	for {
		n := b.samples.Len()
		if n == 0 || (!all && n < b.deps.BatchSize) {
			return nil
		}

		items := b.samples.Take(b.deps.BatchSize)
		tx := b.deps.DB.Begin()
		if err := tx.CreateInBatches(&items, b.deps.BatchSize).Error; err != nil {
			tx.Rollback()
			b.samples.Requeue(items...)
			b.log.Error("Error creating samples", "count", len(items), "error", err)
			return fmt.Errorf("failed to insert samples: %w", err)
		}
		if err := tx.Commit().Error; err != nil {
			b.samples.Requeue(items...)
			return fmt.Errorf("failed to commit samples: %w", err)
		}
		b.log.Debug("Samples written", "count", len(items))
	}
}

// LoadReplay reads back the most recent replay stored under name.
func (b *Backend) LoadReplay(name string) (*core.Replay, error) {
	if b.deps.DB == nil {
		return nil, ErrNoDatabase
	}

	byID := func(db *gorm.DB) *gorm.DB { return db.Order("id") }
	var r model.Replay
	err := b.deps.DB.
		Preload("Tracks", byID).
		Preload("Tracks.Samples", byID).
		Preload("Players", byID).
		Where("name = ?", name).
		Order("id desc").
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrReplayNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load replay %s: %w", name, err)
	}

	out := &core.Replay{Info: convert.ReplayToCore(r)}
	carSamples := make(map[int][]core.Sample)
	for _, mt := range r.Tracks {
		track := convert.TrackToCore(mt)
		switch track.Class {
		case core.ClassBall:
			if out.Ball == nil {
				out.Ball = &track
			}
		case core.ClassCar:
			out.Cars = append(out.Cars, track)
			carSamples[track.ActorID] = track.Samples
			if !slices.Contains(out.CarNames, track.Name) {
				out.CarNames = append(out.CarNames, track.Name)
			}
		}
	}
	for _, mp := range r.Players {
		out.Players = append(out.Players, convert.PlayerToCore(mp, carSamples))
	}
	return out, nil
}
