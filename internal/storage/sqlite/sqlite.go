// Package sqlitestorage implements the storage.Backend interface on a SQLite
// file. It wraps the GORM backend via composition; the only SQLite-specific
// concerns are opening the file and releasing it on Close.
package sqlitestorage

import (
	"fmt"
	"log/slog"

	"github.com/arena-replay/rltrack/internal/config"
	"github.com/arena-replay/rltrack/internal/database"
	gormstorage "github.com/arena-replay/rltrack/internal/storage/gorm"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	cfg config.SQLiteConfig
}

// New opens the SQLite database at cfg.Path. An empty path uses a private
// in-memory database.
func New(cfg config.SQLiteConfig, log *slog.Logger) (*Backend, error) {
	db, err := database.GetSqliteDB(cfg.Path, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite DB: %w", err)
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:     db,
			Logger: log,
		}),
		cfg: cfg,
	}, nil
}

// Close flushes pending samples and closes the database file.
func (b *Backend) Close() error {
	if err := b.Backend.Close(); err != nil {
		return err
	}
	sqlDB, err := b.DB().DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}
