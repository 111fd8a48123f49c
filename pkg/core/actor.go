// pkg/core/actor.go
package core

// ActorClass is the semantic category of an actor, derived once from its name.
type ActorClass uint8

const (
	ClassOther ActorClass = iota
	ClassBall
	ClassCar
	ClassPlayerRecord
)

func (c ActorClass) String() string {
	switch c {
	case ClassBall:
		return "ball"
	case ClassCar:
		return "car"
	case ClassPlayerRecord:
		return "player_record"
	default:
		return "other"
	}
}

// Tracked reports whether samples are collected for actors of this class.
func (c ActorClass) Tracked() bool {
	return c == ClassBall || c == ClassCar
}

// Actor is a live in-match object instance.
// ID is the transient actor id assigned when the instance was introduced.
type Actor struct {
	ID     int
	NameID int
	Name   string
	Class  ActorClass
}

// CarRef identifies one car actor bound to a player.
type CarRef struct {
	ActorID int    `json:"actor_id"`
	Name    string `json:"name"`
}

// PlayerCars is the resolved association of a player-identity record with the
// car actors that referenced it, in car binding order.
type PlayerCars struct {
	RecordActorID int
	PlayerName    string
	Cars          []CarRef
}

// CarActorIDs returns the actor ids of the player's cars in order.
func (p PlayerCars) CarActorIDs() []int {
	ids := make([]int, 0, len(p.Cars))
	for _, c := range p.Cars {
		ids = append(ids, c.ActorID)
	}
	return ids
}
