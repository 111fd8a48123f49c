// Package resolver links car actors to the player-identity records that drive
// them and those records to display names.
//
// Bindings are collected while frames are scanned and joined afterwards:
// a car may reference its record before or after the record receives a name.
package resolver

import (
	"log/slog"

	"github.com/arena-replay/rltrack/pkg/core"
)

// ActorLookup resolves an actor id to its registered actor.
type ActorLookup interface {
	Get(actorID int) (core.Actor, bool)
}

type carBinding struct {
	carActorID int
	recordID   int
}

// Resolver accumulates first-write-wins bindings.
type Resolver struct {
	logger *slog.Logger

	carToRecord map[int]int
	carOrder    []carBinding
	recordNames map[int]string
	nameOrder   []int

	ignoredCar    int
	ignoredRecord int
}

func New(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		logger:      logger,
		carToRecord: make(map[int]int),
		recordNames: make(map[int]string),
	}
}

// ObserveActiveActor binds carActorID to the referenced actor unless the car
// is already bound. Negative references are the encoding of "no actor".
func (r *Resolver) ObserveActiveActor(carActorID int, ref *int) bool {
	if ref == nil || *ref < 0 {
		return false
	}
	if existing, ok := r.carToRecord[carActorID]; ok {
		if existing != *ref {
			r.ignoredCar++
			r.logger.Debug("Ignoring car rebinding",
				"car_actor_id", carActorID,
				"bound", existing,
				"ignored", *ref)
		}
		return false
	}
	r.carToRecord[carActorID] = *ref
	r.carOrder = append(r.carOrder, carBinding{carActorID: carActorID, recordID: *ref})
	r.logger.Debug("Bound car to actor", "car_actor_id", carActorID, "actor_id", *ref)
	return true
}

// ObserveString binds a display name to a player record unless one is already
// bound. Callers filter out non-display values first.
func (r *Resolver) ObserveString(recordActorID int, value string) bool {
	if existing, ok := r.recordNames[recordActorID]; ok {
		if existing != value {
			r.ignoredRecord++
			r.logger.Debug("Ignoring player rename",
				"record_actor_id", recordActorID,
				"bound", existing,
				"ignored", value)
		}
		return false
	}
	r.recordNames[recordActorID] = value
	r.nameOrder = append(r.nameOrder, recordActorID)
	r.logger.Debug("Bound player name", "record_actor_id", recordActorID, "name", value)
	return true
}

// CarBinding returns the actor a car was first bound to.
func (r *Resolver) CarBinding(carActorID int) (int, bool) {
	id, ok := r.carToRecord[carActorID]
	return id, ok
}

// PlayerName returns the name first bound to a player record.
func (r *Resolver) PlayerName(recordActorID int) (string, bool) {
	name, ok := r.recordNames[recordActorID]
	return name, ok
}

// Ignored returns the number of conflicting bindings that were dropped.
func (r *Resolver) Ignored() int {
	return r.ignoredCar + r.ignoredRecord
}

// Resolve joins car bindings with record names. Players are returned in the
// order their first car was bound; each player's cars keep binding order.
// Cars whose referenced actor is not a named player record are left out.
// Players are keyed by record actor id, so two records sharing a name stay
// separate.
func (r *Resolver) Resolve(actors ActorLookup) []core.PlayerCars {
	index := make(map[int]int)
	var out []core.PlayerCars

	for _, b := range r.carOrder {
		name, ok := r.recordNames[b.recordID]
		if !ok {
			r.logger.Debug("Car references an unnamed actor", "car_actor_id", b.carActorID, "actor_id", b.recordID)
			continue
		}
		record, ok := actors.Get(b.recordID)
		if !ok || record.Class != core.ClassPlayerRecord {
			r.logger.Debug("Car references a non player record", "car_actor_id", b.carActorID, "actor_id", b.recordID)
			continue
		}

		car := core.CarRef{ActorID: b.carActorID}
		if a, ok := actors.Get(b.carActorID); ok {
			car.Name = a.Name
		}

		i, ok := index[b.recordID]
		if !ok {
			i = len(out)
			index[b.recordID] = i
			out = append(out, core.PlayerCars{RecordActorID: b.recordID, PlayerName: name})
		}
		out[i].Cars = append(out[i].Cars, car)
	}
	return out
}

// UnboundRecords returns named records no car was bound to, in naming order.
func (r *Resolver) UnboundRecords() []int {
	referenced := make(map[int]struct{}, len(r.carOrder))
	for _, b := range r.carOrder {
		referenced[b.recordID] = struct{}{}
	}
	var out []int
	for _, id := range r.nameOrder {
		if _, ok := referenced[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
