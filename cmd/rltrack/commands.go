package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/arena-replay/rltrack/internal/config"
	"github.com/arena-replay/rltrack/internal/dispatcher"
	"github.com/arena-replay/rltrack/internal/plot"
	"github.com/arena-replay/rltrack/internal/report"
	"github.com/arena-replay/rltrack/internal/sanitize"
	"github.com/arena-replay/rltrack/internal/storage"
	"github.com/arena-replay/rltrack/internal/trajectory"
	"github.com/arena-replay/rltrack/internal/worker"
	"github.com/arena-replay/rltrack/pkg/core"
)

// errUsage marks command line mistakes, reported with the usage text.
var errUsage = errors.New("invalid usage")

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

func (a *app) registerCommands(d *dispatcher.Dispatcher) {
	d.Register("extract", a.runExtract, dispatcher.Logged())
	d.Register("summary", a.runSummary, dispatcher.Logged())
	d.Register("nearest", a.runNearest, dispatcher.Logged())
	d.Register("plot", a.runPlot, dispatcher.Logged())
	d.Register("sanitize", a.runSanitize, dispatcher.Logged())
}

func (a *app) openBackend() (storage.Backend, error) {
	cfg := config.GetStorageConfig()
	backend, err := storage.NewBackend(cfg, a.logger)
	if err != nil {
		return nil, err
	}
	if err := backend.Init(); err != nil {
		return nil, fmt.Errorf("error initializing %s storage: %w", cfg.Type, err)
	}
	a.logger.Info("Storage backend initialized", "type", cfg.Type)
	return backend, nil
}

func (a *app) runExtract(ctx context.Context, e dispatcher.Event) (any, error) {
	if len(e.Args) == 0 {
		return nil, usageError("extract needs at least one replay file")
	}

	backend, err := a.openBackend()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			a.logger.Error("Error closing storage backend", "error", err)
		}
	}()

	pool, err := dispatcher.NewWithContext(ctx, a.logger)
	if err != nil {
		return nil, err
	}
	m := worker.NewManager(worker.Dependencies{
		Logger:  a.logger,
		Rules:   config.NamesRules(),
		Workers: a.flags.workers,
	}, backend)
	m.RegisterHandlers(pool)

	for _, path := range e.Args {
		if _, err := pool.Dispatch(ctx, dispatcher.Event{Command: worker.CommandExtract, Args: []string{path}}); err != nil {
			pool.Close()
			return nil, err
		}
	}
	pool.Close()

	failed := 0
	for _, r := range m.Results() {
		if r.Err != nil {
			failed++
			fmt.Fprintf(a.stdout, "FAIL %s: %v\n", r.Path, r.Err)
			continue
		}
		fmt.Fprintf(a.stdout, "ok   %s: %d cars, %d players, %d samples (%s)\n",
			r.Path, len(r.Replay.Cars), len(r.Replay.Players), r.Replay.Stats.SamplesAppended, r.Duration.Round(time.Millisecond))
		if r.Replay.MetadataErr != nil {
			fmt.Fprintf(a.stdout, "     metadata: %v\n", r.Replay.MetadataErr)
		}
	}
	if exp, ok := backend.(storage.Exporter); ok && len(e.Args) == 1 {
		for _, path := range exp.ExportedFiles() {
			fmt.Fprintf(a.stdout, "     wrote %s\n", path)
		}
	}
	if failed > 0 {
		return nil, fmt.Errorf("%d of %d replays failed", failed, len(e.Args))
	}
	return nil, nil
}

func (a *app) loadReplay(ctx context.Context, args []string, command string) (*core.Replay, error) {
	if a.flags.stored != "" {
		backend, err := a.openBackend()
		if err != nil {
			return nil, err
		}
		defer backend.Close()

		loader, ok := backend.(storage.Loader)
		if !ok {
			return nil, fmt.Errorf("storage backend %q cannot load stored replays", config.GetStorageConfig().Type)
		}
		return loader.LoadReplay(a.flags.stored)
	}

	if len(args) != 1 {
		return nil, usageError("%s needs exactly one replay file", command)
	}
	return worker.ExtractFile(ctx, args[0], a.logger, config.NamesRules())
}

func (a *app) runSummary(ctx context.Context, e dispatcher.Event) (any, error) {
	replay, err := a.loadReplay(ctx, e.Args, "summary")
	if err != nil {
		return nil, err
	}
	return nil, report.Write(a.stdout, report.Build(replay))
}

func (a *app) runNearest(ctx context.Context, e dispatcher.Event) (any, error) {
	if !a.flags.set.Changed("time") {
		return nil, usageError("nearest needs --time")
	}
	replay, err := a.loadReplay(ctx, e.Args, "nearest")
	if err != nil {
		return nil, err
	}

	t := a.flags.time
	fmt.Fprintf(a.stdout, "Nearest samples to t=%.3fs\n", t)
	if replay.Ball != nil {
		a.printNearest(fmt.Sprintf("ball %d", replay.Ball.ActorID), replay.Ball.Samples, t)
	}
	for _, car := range replay.Cars {
		label := fmt.Sprintf("car %d", car.ActorID)
		if car.PlayerName != "" {
			label += " (" + car.PlayerName + ")"
		}
		a.printNearest(label, car.Samples, t)
	}
	for _, p := range replay.Players {
		a.printNearest("player "+p.PlayerName, p.Samples, t)
	}
	return nil, nil
}

func (a *app) printNearest(label string, samples []core.Sample, t float64) {
	s, ok := trajectory.Nearest(samples, t)
	if !ok {
		fmt.Fprintf(a.stdout, "  %-24s no samples\n", label)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  %-24s t=%.3f", label, s.Time)
	if pos, ok := s.Position(); ok {
		fmt.Fprintf(&b, " pos=(%.2f, %.2f, %.2f)", pos.X, pos.Y, pos.Z)
	} else {
		b.WriteString(" pos=?")
	}
	fmt.Fprintf(&b, " %s %s", s.Kind, trajectory.ClassifyActivity(s))
	if s.CarActor != "" {
		fmt.Fprintf(&b, " car=%s", s.CarActor)
	}
	if ip, ok := trajectory.Interpolate(samples, t); ok {
		fmt.Fprintf(&b, " interpolated=(%.2f, %.2f, %.2f)", ip.X, ip.Y, ip.Z)
	}
	fmt.Fprintln(a.stdout, b.String())
}

func (a *app) runPlot(ctx context.Context, e dispatcher.Event) (any, error) {
	replay, err := a.loadReplay(ctx, e.Args, "plot")
	if err != nil {
		return nil, err
	}

	base := "replay"
	if len(e.Args) == 1 {
		base = strings.TrimSuffix(filepath.Base(e.Args[0]), ".gz")
		base = strings.TrimSuffix(base, filepath.Ext(base))
	} else if a.flags.stored != "" {
		base = a.flags.stored
	}

	topDown := filepath.Join(a.flags.out, base+"_topdown.png")
	if err := plot.TopDown(replay, topDown); err != nil {
		return nil, err
	}
	fmt.Fprintf(a.stdout, "wrote %s\n", topDown)

	if replay.Ball != nil {
		height := filepath.Join(a.flags.out, base+"_ball_height.png")
		if err := plot.Height(replay.Ball, height); err != nil && !errors.Is(err, plot.ErrNothingToPlot) {
			return nil, err
		} else if err == nil {
			fmt.Fprintf(a.stdout, "wrote %s\n", height)
		}
	}
	return nil, nil
}

func (a *app) runSanitize(_ context.Context, e dispatcher.Event) (any, error) {
	if len(e.Args) != 2 {
		return nil, usageError("sanitize needs an input and an output file")
	}
	if err := sanitize.File(e.Args[0], e.Args[1]); err != nil {
		return nil, err
	}
	fmt.Fprintf(a.stdout, "wrote %s\n", e.Args[1])
	return nil, nil
}
