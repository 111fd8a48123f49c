// Package extract reconstructs ball, car and player trajectories from a
// decoded recording.
//
// Extraction runs in two phases. The scan walks every frame once, registering
// actors, collecting raw bindings and appending samples. The join then groups
// cars under players and assembles time-ordered timelines. Bindings can arrive
// in either order across the stream, so no player is resolved before the scan
// has finished.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/arena-replay/rltrack/internal/cache"
	"github.com/arena-replay/rltrack/internal/names"
	"github.com/arena-replay/rltrack/internal/parser"
	"github.com/arena-replay/rltrack/internal/resolver"
	"github.com/arena-replay/rltrack/internal/trajectory"
	"github.com/arena-replay/rltrack/pkg/core"
)

// cancelCheckFrames is how often the scan checks for cancellation.
const cancelCheckFrames = 1024

// ErrMissingBallActor is returned when the name table has no ball entry.
var ErrMissingBallActor = errors.New("no ball actor in name table")

// Option configures an Extractor.
type Option func(*Extractor)

// WithRules overrides the name classification rules.
func WithRules(rules names.Rules) Option {
	return func(e *Extractor) {
		e.rules = rules
	}
}

// Extractor turns documents into replays. It holds no per-replay state and
// may be reused.
type Extractor struct {
	logger *slog.Logger
	rules  names.Rules

	// OTEL metrics
	frames   metric.Int64Counter
	samples  metric.Int64Counter
	dropped  metric.Int64Counter
	bindings metric.Int64Counter
}

// New creates an Extractor.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger *slog.Logger, opts ...Option) (*Extractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{
		logger: logger,
		rules:  names.DefaultRules(),
	}
	for _, opt := range opts {
		opt(e)
	}

	m := meter()
	var err error

	e.frames, err = m.Int64Counter(
		"extract.frames",
		metric.WithDescription("Total network frames scanned"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frames counter: %w", err)
	}

	e.samples, err = m.Int64Counter(
		"extract.samples",
		metric.WithDescription("Total trajectory samples appended"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating samples counter: %w", err)
	}

	e.dropped, err = m.Int64Counter(
		"extract.samples.dropped",
		metric.WithDescription("Total rigid body updates dropped for lacking a location"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	e.bindings, err = m.Int64Counter(
		"extract.bindings",
		metric.WithDescription("Total car and player bindings recorded"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating bindings counter: %w", err)
	}

	return e, nil
}

// scan is the per-replay state of the forward pass.
type scan struct {
	table    *names.Table
	registry *cache.ActorRegistry
	resolver *resolver.Resolver
	sampler  *trajectory.Sampler

	firstFrameCars []core.CarRef
	carBindings    int
	nameBindings   int
	stats          core.ExtractStats
}

// Extract runs both phases over doc.
// Returns ErrMissingBallActor or names.ErrOutOfRange (wrapped) for unusable
// input, and the context error (wrapped) when ctx is canceled mid-scan. Missing metadata does not fail extraction; it is reported on
// Replay.MetadataErr.
func (e *Extractor) Extract(ctx context.Context, doc *parser.Document) (*core.Replay, error) {
	table := names.NewTable(doc.Names, e.rules)
	if _, _, ok := table.FindFirst(core.ClassBall); !ok {
		return nil, ErrMissingBallActor
	}

	s := &scan{
		table:    table,
		registry: cache.NewActorRegistry(table),
		resolver: resolver.New(e.logger),
		sampler:  trajectory.NewSampler(),
	}

	e.logger.Info("Scanning frames", "frames", len(doc.NetworkFrames.Frames), "names", table.Len())
	if err := e.scanFrames(ctx, s, doc.NetworkFrames.Frames); err != nil {
		return nil, err
	}

	replay := e.join(s)

	replay.Info, replay.MetadataErr = parser.ParseReplayInfo(doc)
	if replay.MetadataErr != nil {
		e.logger.Warn("Replay metadata incomplete", "error", replay.MetadataErr)
	}

	e.record(ctx, replay.Stats, s)

	e.logger.Info("Extraction complete",
		"actors", s.registry.Len(),
		"cars", len(replay.Cars),
		"players", len(replay.Players),
		"samples", replay.Stats.SamplesAppended,
		"dropped", replay.Stats.SamplesDropped)
	return replay, nil
}

func (e *Extractor) scanFrames(ctx context.Context, s *scan, frames []parser.Frame) error {
	prev := 0.0
	for i := range frames {
		if i%cancelCheckFrames == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("scan stopped at frame %d: %w", i, err)
			}
		}
		frame := &frames[i]
		if i > 0 && frame.Time < prev {
			s.stats.OutOfOrderFrames++
			e.logger.Warn("Frame time went backwards", "frame", i, "time", frame.Time, "previous", prev)
		}
		prev = frame.Time
		s.stats.Frames++

		for _, na := range frame.NewActors {
			if err := e.onNewActor(s, i, frame.Time, na); err != nil {
				return err
			}
		}
		for _, ua := range frame.UpdatedActors {
			e.onUpdatedActor(s, frame.Time, ua)
		}
	}
	return nil
}

func (e *Extractor) onNewActor(s *scan, frameIdx int, time float64, na parser.NewActor) error {
	s.stats.NewActors++
	if na.NameID == nil {
		e.logger.Debug("New actor without name id", "actor_id", na.ActorID)
		return nil
	}

	actor, registered, err := s.registry.OnNewActor(*na.NameID, na.ActorID)
	if err != nil {
		return fmt.Errorf("frame %d, actor %d: %w", frameIdx, na.ActorID, err)
	}
	if !actor.Class.Tracked() {
		return nil
	}
	if !registered && s.registry.ClassOf(na.ActorID) != actor.Class {
		e.logger.Warn("Actor id reintroduced with a different class",
			"actor_id", na.ActorID,
			"class", actor.Class,
			"registered", s.registry.ClassOf(na.ActorID))
		return nil
	}

	if frameIdx == 0 && actor.Class == core.ClassCar && registered {
		s.firstFrameCars = append(s.firstFrameCars, core.CarRef{ActorID: actor.ID, Name: actor.Name})
	}
	if s.sampler.AddInitial(na.ActorID, time, na.InitialTrajectory) {
		s.stats.SamplesAppended++
	}
	return nil
}

func (e *Extractor) onUpdatedActor(s *scan, time float64, ua parser.UpdatedActor) {
	s.stats.UpdatedActors++
	class := s.registry.ClassOf(ua.ActorID)
	attr := ua.Attribute

	switch attr.Kind {
	case parser.AttrRigidBody:
		if !class.Tracked() {
			return
		}
		if s.sampler.AddRigidBody(ua.ActorID, time, attr.RigidBody) {
			s.stats.SamplesAppended++
		} else {
			s.stats.SamplesDropped++
			e.logger.Debug("Dropped rigid body update without location", "actor_id", ua.ActorID, "time", time)
		}

	case parser.AttrActiveActor:
		if class != core.ClassCar {
			return
		}
		if s.resolver.ObserveActiveActor(ua.ActorID, attr.ActiveActor.Actor) {
			s.carBindings++
		}

	case parser.AttrString:
		if class != core.ClassPlayerRecord {
			return
		}
		if !s.table.Rules().IsDisplayName(attr.String) {
			if attr.String != "" {
				s.stats.DelimitedNames++
			}
			return
		}
		if s.resolver.ObserveString(ua.ActorID, attr.String) {
			s.nameBindings++
		}
	}
}

func (e *Extractor) join(s *scan) *core.Replay {
	players := s.resolver.Resolve(s.registry)
	e.logger.Info("Resolved players", "players", len(players), "car_bindings", s.carBindings, "name_bindings", s.nameBindings)

	owners := make(map[int]string)
	replay := &core.Replay{
		CarNames:       s.table.UniqueNames(core.ClassCar),
		FirstFrameCars: s.firstFrameCars,
	}

	for _, p := range players {
		for _, car := range p.Cars {
			owners[car.ActorID] = p.PlayerName
		}
		replay.Players = append(replay.Players, core.PlayerTimeline{
			PlayerName:    p.PlayerName,
			RecordActorID: p.RecordActorID,
			Cars:          p.Cars,
			Samples:       s.sampler.MergeForPlayer(p.Cars),
		})
	}
	for _, id := range s.resolver.UnboundRecords() {
		name, _ := s.resolver.PlayerName(id)
		e.logger.Debug("Player record has no car", "record_actor_id", id, "name", name)
	}

	if ballID, ok := s.registry.BallActorID(); ok {
		ball, _ := s.registry.Get(ballID)
		replay.Ball = &core.Track{
			ActorID: ballID,
			Name:    ball.Name,
			Class:   core.ClassBall,
			Samples: s.sampler.Samples(ballID),
		}
	} else {
		e.logger.Warn("Ball never introduced in the frame stream")
	}

	for _, id := range s.registry.Cars() {
		car, _ := s.registry.Get(id)
		if _, owned := owners[id]; !owned {
			recordID, bound := s.resolver.CarBinding(id)
			e.logger.Debug("Car has no resolved player", "car_actor_id", id, "bound", bound, "record_actor_id", recordID)
		}
		replay.Cars = append(replay.Cars, core.Track{
			ActorID:    id,
			Name:       car.Name,
			Class:      core.ClassCar,
			PlayerName: owners[id],
			Samples:    s.sampler.Samples(id),
		})
	}

	s.stats.BindingsIgnored = s.resolver.Ignored()
	replay.Stats = s.stats
	return replay
}

func (e *Extractor) record(ctx context.Context, stats core.ExtractStats, s *scan) {
	e.frames.Add(ctx, int64(stats.Frames))
	e.samples.Add(ctx, int64(stats.SamplesAppended))
	e.dropped.Add(ctx, int64(stats.SamplesDropped))
	e.bindings.Add(ctx, int64(s.carBindings), metric.WithAttributes(attribute.String("kind", "car")))
	e.bindings.Add(ctx, int64(s.nameBindings), metric.WithAttributes(attribute.String("kind", "player")))
}
