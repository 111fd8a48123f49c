// Package memory buffers one replay's trajectories in memory and exports them
// as the v1 JSON documents when the replay ends.
package memory

import (
	"sync"

	"github.com/arena-replay/rltrack/internal/config"
	"github.com/arena-replay/rltrack/pkg/core"
)

// Backend stores replay trajectories in memory and exports to JSON
type Backend struct {
	cfg  config.MemoryConfig
	info *core.ReplayInfo
	name string

	ball    *core.Track
	cars    []core.Track
	players []core.PlayerTimeline

	lastExportPaths []string
	mu              sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartReplay begins buffering a new replay. info may be nil.
func (b *Backend) StartReplay(info *core.ReplayInfo, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.info = info
	b.name = name
	b.ball = nil
	b.cars = nil
	b.players = nil
	b.lastExportPaths = nil
	return nil
}

// EndReplay finalizes and exports the replay documents
func (b *Backend) EndReplay() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.exportJSON()
}

// RecordBall stores the ball trajectory
func (b *Backend) RecordBall(t *core.Track) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ball = t
	return nil
}

// RecordCar appends one car trajectory
func (b *Backend) RecordCar(t *core.Track) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cars = append(b.cars, *t)
	return nil
}

// RecordPlayer appends one player timeline
func (b *Backend) RecordPlayer(p *core.PlayerTimeline) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.players = append(b.players, *p)
	return nil
}

// ExportedFiles returns the paths written by the last EndReplay.
func (b *Backend) ExportedFiles() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return append([]string(nil), b.lastExportPaths...)
}
