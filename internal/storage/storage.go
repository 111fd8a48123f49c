package storage

import (
	"fmt"

	"github.com/arena-replay/rltrack/pkg/core"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Replay management
	StartReplay(info *core.ReplayInfo, name string) error
	EndReplay() error

	// Trajectory recording
	RecordBall(t *core.Track) error
	RecordCar(t *core.Track) error
	RecordPlayer(p *core.PlayerTimeline) error
}

// Exporter is an optional interface for backends that produce files.
type Exporter interface {
	ExportedFiles() []string
}

// Loader is an optional interface for backends that can read a stored replay back.
type Loader interface {
	LoadReplay(name string) (*core.Replay, error)
}

// Write drives one replay through backend: the ball first, then every car,
// then every player. EndReplay runs even when recording fails so that
// buffered data is flushed.
func Write(backend Backend, replay *core.Replay, name string) error {
	if err := backend.StartReplay(replay.Info, name); err != nil {
		return fmt.Errorf("start replay %s: %w", name, err)
	}

	if err := record(backend, replay); err != nil {
		if endErr := backend.EndReplay(); endErr != nil {
			return fmt.Errorf("%w (end replay: %v)", err, endErr)
		}
		return err
	}

	if err := backend.EndReplay(); err != nil {
		return fmt.Errorf("end replay %s: %w", name, err)
	}
	return nil
}

func record(backend Backend, replay *core.Replay) error {
	if replay.Ball != nil {
		if err := backend.RecordBall(replay.Ball); err != nil {
			return fmt.Errorf("record ball: %w", err)
		}
	}
	for i := range replay.Cars {
		if err := backend.RecordCar(&replay.Cars[i]); err != nil {
			return fmt.Errorf("record car %d: %w", replay.Cars[i].ActorID, err)
		}
	}
	for i := range replay.Players {
		if err := backend.RecordPlayer(&replay.Players[i]); err != nil {
			return fmt.Errorf("record player %q: %w", replay.Players[i].PlayerName, err)
		}
	}
	return nil
}
