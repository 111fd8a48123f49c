// Package cache holds the per-replay actor registry.
package cache

import (
	"sync"

	"github.com/arena-replay/rltrack/internal/names"
	"github.com/arena-replay/rltrack/pkg/core"
)

// ActorRegistry caches the class of every tracked actor when it is introduced
// so later update events are classified by actor id without touching the name table.
// It only grows: recordings carry no removal events.
type ActorRegistry struct {
	m      sync.Mutex
	table  *names.Table
	actors map[int]core.Actor

	cars    []int
	ballID  int
	hasBall bool
}

func NewActorRegistry(table *names.Table) *ActorRegistry {
	return &ActorRegistry{
		m:      sync.Mutex{},
		table:  table,
		actors: make(map[int]core.Actor),
	}
}

// OnNewActor classifies nameID and records the actor when it is a ball, car or
// player record. The returned bool is false for untracked (Other) actors and
// for ids that are already registered; the first registration is kept.
func (r *ActorRegistry) OnNewActor(nameID, actorID int) (core.Actor, bool, error) {
	name, err := r.table.Lookup(nameID)
	if err != nil {
		return core.Actor{}, false, err
	}
	actor := core.Actor{
		ID:     actorID,
		NameID: nameID,
		Name:   name,
		Class:  r.table.Rules().Classify(name),
	}
	if actor.Class == core.ClassOther {
		return actor, false, nil
	}

	r.m.Lock()
	defer r.m.Unlock()
	if existing, ok := r.actors[actorID]; ok {
		return existing, false, nil
	}
	r.actors[actorID] = actor

	switch actor.Class {
	case core.ClassBall:
		if !r.hasBall {
			r.ballID = actorID
			r.hasBall = true
		}
	case core.ClassCar:
		r.cars = append(r.cars, actorID)
	}
	return actor, true, nil
}

func (r *ActorRegistry) Get(actorID int) (core.Actor, bool) {
	r.m.Lock()
	defer r.m.Unlock()
	if a, ok := r.actors[actorID]; ok {
		return a, true
	}
	return core.Actor{}, false
}

// ClassOf returns ClassOther for unknown actors.
func (r *ActorRegistry) ClassOf(actorID int) core.ActorClass {
	a, ok := r.Get(actorID)
	if !ok {
		return core.ClassOther
	}
	return a.Class
}

// BallActorID returns the first ball actor registered.
func (r *ActorRegistry) BallActorID() (int, bool) {
	r.m.Lock()
	defer r.m.Unlock()
	return r.ballID, r.hasBall
}

// Cars returns car actor ids in the order they were introduced.
func (r *ActorRegistry) Cars() []int {
	r.m.Lock()
	defer r.m.Unlock()
	return append([]int(nil), r.cars...)
}

func (r *ActorRegistry) Len() int {
	r.m.Lock()
	defer r.m.Unlock()
	return len(r.actors)
}
