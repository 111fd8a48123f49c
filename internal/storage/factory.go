package storage

import (
	"fmt"
	"log/slog"

	"github.com/arena-replay/rltrack/internal/config"
	csvstorage "github.com/arena-replay/rltrack/internal/storage/csv"
	influxstorage "github.com/arena-replay/rltrack/internal/storage/influx"
	"github.com/arena-replay/rltrack/internal/storage/memory"
	"github.com/arena-replay/rltrack/internal/storage/postgres"
	sqlitestorage "github.com/arena-replay/rltrack/internal/storage/sqlite"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, log *slog.Logger) (Backend, error) {
	switch cfg.Type {
	case "memory", "":
		return memory.New(cfg.Memory), nil
	case "sqlite":
		b, err := sqlitestorage.New(cfg.SQLite, log)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "postgres":
		return postgres.New(cfg.Postgres, log), nil
	case "csv":
		return csvstorage.New(cfg.CSV), nil
	case "influx":
		return influxstorage.New(cfg.Influx, log), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
