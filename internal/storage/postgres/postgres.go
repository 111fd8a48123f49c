// Package postgres implements the storage.Backend interface using GORM/PostgreSQL.
// The connection is opened in Init so a misconfigured server fails the command
// before any replay is parsed.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/arena-replay/rltrack/internal/config"
	"github.com/arena-replay/rltrack/internal/database"
	gormstorage "github.com/arena-replay/rltrack/internal/storage/gorm"
)

// Backend wraps the GORM backend with a Postgres connection.
type Backend struct {
	*gormstorage.Backend
	cfg config.DBConfig
	log *slog.Logger
}

// New creates a new Postgres storage backend.
func New(cfg config.DBConfig, log *slog.Logger) *Backend {
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{Logger: log}),
		cfg:     cfg,
		log:     log,
	}
}

// Init connects to Postgres and migrates the schema.
func (b *Backend) Init() error {
	if b.DB() == nil {
		db, err := database.GetPostgresDB(b.cfg, b.log)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		b.SetDB(db)
	}
	return b.Backend.Init()
}

// Close flushes pending samples and closes the connection pool.
func (b *Backend) Close() error {
	if b.DB() == nil {
		return nil
	}
	if err := b.Backend.Close(); err != nil {
		return err
	}
	sqlDB, err := b.DB().DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}
