// Package csvstorage writes trajectories as flat CSV tables, one row per
// sample, for spreadsheet and dataframe tooling.
package csvstorage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/arena-replay/rltrack/internal/config"
	"github.com/arena-replay/rltrack/pkg/core"
)

// OptionalFloat renders a missing value as an empty cell.
type OptionalFloat struct{ V *float64 }

func (f OptionalFloat) MarshalCSV() (string, error) {
	if f.V == nil {
		return "", nil
	}
	return strconv.FormatFloat(*f.V, 'g', -1, 64), nil
}

func (f *OptionalFloat) UnmarshalCSV(s string) error {
	if s == "" {
		f.V = nil
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	f.V = &v
	return nil
}

// OptionalBool renders a missing value as an empty cell.
type OptionalBool struct{ V *bool }

func (b OptionalBool) MarshalCSV() (string, error) {
	if b.V == nil {
		return "", nil
	}
	return strconv.FormatBool(*b.V), nil
}

func (b *OptionalBool) UnmarshalCSV(s string) error {
	if s == "" {
		b.V = nil
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	b.V = &v
	return nil
}

// SampleRow is one sample of a ball or car track.
type SampleRow struct {
	Replay   string        `csv:"replay"`
	Entity   string        `csv:"entity"`
	ActorID  int           `csv:"actor_id"`
	Name     string        `csv:"name"`
	Player   string        `csv:"player"`
	Time     float64       `csv:"time"`
	X        OptionalFloat `csv:"x"`
	Y        OptionalFloat `csv:"y"`
	Z        OptionalFloat `csv:"z"`
	Kind     string        `csv:"type"`
	Sleeping OptionalBool  `csv:"sleeping"`
	Speed    OptionalFloat `csv:"speed"`
}

// PlayerRow is one resolved player with the car actors it drove.
type PlayerRow struct {
	Replay         string `csv:"replay"`
	Player         string `csv:"player"`
	RecordActorID  int    `csv:"record_actor_id"`
	CarActorIDs    string `csv:"car_actor_ids"`
	CarsUsed       string `csv:"cars_used"`
	TotalPositions int    `csv:"total_positions"`
}

// Backend appends rows to <outputDir>/samples.csv and players.csv. Headers
// are written once per file.
type Backend struct {
	cfg         config.CSVConfig
	samplesFile *os.File
	playersFile *os.File
	replay      string

	samplesHeaderWritten bool
	playersHeaderWritten bool
}

// New creates a CSV backend.
func New(cfg config.CSVConfig) *Backend {
	return &Backend{cfg: cfg}
}

// SamplesPath returns the samples table location.
func (b *Backend) SamplesPath() string {
	return filepath.Join(b.cfg.OutputDir, "samples.csv")
}

// PlayersPath returns the players table location.
func (b *Backend) PlayersPath() string {
	return filepath.Join(b.cfg.OutputDir, "players.csv")
}

// Init creates the output directory and truncates both tables.
func (b *Backend) Init() error {
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(b.SamplesPath())
	if err != nil {
		return fmt.Errorf("creating samples.csv: %w", err)
	}
	b.samplesFile = f

	f, err = os.Create(b.PlayersPath())
	if err != nil {
		b.samplesFile.Close()
		return fmt.Errorf("creating players.csv: %w", err)
	}
	b.playersFile = f
	return nil
}

// Close closes both tables.
func (b *Backend) Close() error {
	var firstErr error
	for _, f := range []*os.File{b.samplesFile, b.playersFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.samplesFile, b.playersFile = nil, nil
	return firstErr
}

// StartReplay sets the replay column for following rows.
func (b *Backend) StartReplay(_ *core.ReplayInfo, name string) error {
	b.replay = name
	return nil
}

// EndReplay flushes both tables to disk.
func (b *Backend) EndReplay() error {
	for _, f := range []*os.File{b.samplesFile, b.playersFile} {
		if f == nil {
			continue
		}
		if err := f.Sync(); err != nil {
			return fmt.Errorf("syncing %s: %w", f.Name(), err)
		}
	}
	return nil
}

// RecordBall writes the ball samples.
func (b *Backend) RecordBall(t *core.Track) error {
	return b.writeTrack(t)
}

// RecordCar writes one car's samples.
func (b *Backend) RecordCar(t *core.Track) error {
	return b.writeTrack(t)
}

func (b *Backend) writeTrack(t *core.Track) error {
	if b.samplesFile == nil {
		return fmt.Errorf("csv backend not initialized")
	}
	if len(t.Samples) == 0 {
		return nil
	}

	rows := make([]SampleRow, 0, len(t.Samples))
	for _, s := range t.Samples {
		row := SampleRow{
			Replay:   b.replay,
			Entity:   t.Class.String(),
			ActorID:  t.ActorID,
			Name:     t.Name,
			Player:   t.PlayerName,
			Time:     s.Time,
			X:        OptionalFloat{s.X},
			Y:        OptionalFloat{s.Y},
			Z:        OptionalFloat{s.Z},
			Kind:     string(s.Kind),
			Sleeping: OptionalBool{s.Sleeping},
		}
		if s.LinearVelocity != nil {
			speed := s.LinearVelocity.Norm()
			row.Speed = OptionalFloat{&speed}
		}
		rows = append(rows, row)
	}

	if !b.samplesHeaderWritten {
		if err := gocsv.Marshal(rows, b.samplesFile); err != nil {
			return fmt.Errorf("writing samples: %w", err)
		}
		b.samplesHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(rows, b.samplesFile); err != nil {
		return fmt.Errorf("writing samples: %w", err)
	}
	return nil
}

// RecordPlayer writes one player row.
func (b *Backend) RecordPlayer(p *core.PlayerTimeline) error {
	if b.playersFile == nil {
		return fmt.Errorf("csv backend not initialized")
	}

	ids := make([]string, 0, len(p.Cars))
	names := make([]string, 0, len(p.Cars))
	for _, c := range p.Cars {
		ids = append(ids, strconv.Itoa(c.ActorID))
		names = append(names, c.Name)
	}
	rows := []PlayerRow{{
		Replay:         b.replay,
		Player:         p.PlayerName,
		RecordActorID:  p.RecordActorID,
		CarActorIDs:    strings.Join(ids, ";"),
		CarsUsed:       strings.Join(names, ";"),
		TotalPositions: len(p.Samples),
	}}

	if !b.playersHeaderWritten {
		if err := gocsv.Marshal(rows, b.playersFile); err != nil {
			return fmt.Errorf("writing players: %w", err)
		}
		b.playersHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(rows, b.playersFile); err != nil {
		return fmt.Errorf("writing players: %w", err)
	}
	return nil
}
