// Package worker extracts batches of replay files. Parsing and extraction run
// on a pool of dispatcher workers; storage writes are funneled through a
// single-worker queue because backends hold per-replay state.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/arena-replay/rltrack/internal/dispatcher"
	"github.com/arena-replay/rltrack/internal/extract"
	"github.com/arena-replay/rltrack/internal/names"
	"github.com/arena-replay/rltrack/internal/parser"
	"github.com/arena-replay/rltrack/internal/storage"
	"github.com/arena-replay/rltrack/pkg/core"
)

// Dispatcher commands registered by RegisterHandlers.
const (
	CommandExtract = "replay:extract"
	CommandStore   = "replay:store"
)

// ErrNoPath is returned for an extract event without a file argument.
var ErrNoPath = errors.New("no replay path given")

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Logger  *slog.Logger
	Rules   names.Rules
	Workers int // extraction goroutines, default 1
}

// Result is the outcome of one replay file.
type Result struct {
	Path     string
	Replay   *core.Replay
	Err      error
	Duration time.Duration
}

// Manager extracts replay files and hands them to a storage backend.
type Manager struct {
	deps       Dependencies
	backend    storage.Backend
	dispatcher *dispatcher.Dispatcher

	mu      sync.Mutex
	results []Result
}

// NewManager creates a new worker manager. backend may be nil, in which case
// replays are extracted but not stored.
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Workers <= 0 {
		deps.Workers = 1
	}
	if deps.Rules.BallPrefix == "" {
		deps.Rules = names.DefaultRules()
	}
	return &Manager{
		deps:    deps,
		backend: backend,
	}
}

// RegisterHandlers registers the extract and store handlers with the dispatcher.
// Extract is registered first so Close drains it before the store queue.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	m.dispatcher = d
	d.Register(CommandExtract, m.handleExtract,
		dispatcher.Buffered(m.deps.Workers*4), dispatcher.Workers(m.deps.Workers), dispatcher.Blocking(), dispatcher.Logged())
	d.Register(CommandStore, m.handleStore,
		dispatcher.Buffered(m.deps.Workers*4), dispatcher.Blocking(), dispatcher.Logged())
}

// Results returns the finished results ordered by path.
func (m *Manager) Results() []Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]Result(nil), m.results...)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (m *Manager) addResult(r Result) {
	m.mu.Lock()
	m.results = append(m.results, r)
	m.mu.Unlock()
}

func (m *Manager) handleExtract(ctx context.Context, e dispatcher.Event) (any, error) {
	if len(e.Args) == 0 {
		return nil, ErrNoPath
	}
	path := e.Args[0]
	start := time.Now()

	if err := ctx.Err(); err != nil {
		m.addResult(Result{Path: path, Err: err})
		return nil, err
	}

	replay, err := ExtractFile(ctx, path, m.deps.Logger, m.deps.Rules)
	if err != nil {
		m.addResult(Result{Path: path, Err: err, Duration: time.Since(start)})
		return nil, err
	}

	res := Result{Path: path, Replay: replay, Duration: time.Since(start)}
	if m.backend == nil || m.dispatcher == nil {
		m.addResult(res)
		return res, nil
	}
	queued, err := m.dispatcher.Dispatch(ctx, dispatcher.Event{Command: CommandStore, Args: []string{path}, Payload: res})
	if err != nil {
		res.Err = fmt.Errorf("error queueing store: %w", err)
		m.addResult(res)
	}
	return queued, err
}

func (m *Manager) handleStore(ctx context.Context, e dispatcher.Event) (any, error) {
	res, ok := e.Payload.(Result)
	if !ok {
		return nil, fmt.Errorf("store event carries %T, want Result", e.Payload)
	}

	if err := ctx.Err(); err != nil {
		res.Err = err
	} else if err := storage.Write(m.backend, res.Replay, filepath.Base(res.Path)); err != nil {
		res.Err = fmt.Errorf("error storing replay: %w", err)
	}
	m.addResult(res)
	return nil, res.Err
}

// ExtractFile parses and extracts the replay at path. Log records carry the
// file name under "replay".
func ExtractFile(ctx context.Context, path string, logger *slog.Logger, rules names.Rules) (*core.Replay, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("replay", filepath.Base(path))

	doc, err := parser.NewParser(log).ParseFile(path)
	if err != nil {
		return nil, err
	}

	ex, err := extract.New(log, extract.WithRules(rules))
	if err != nil {
		return nil, err
	}
	replay, err := ex.Extract(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("error extracting %s: %w", path, err)
	}
	return replay, nil
}
