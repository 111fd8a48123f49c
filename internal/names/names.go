// Package names resolves name-table identifiers to their semantic class.
package names

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arena-replay/rltrack/pkg/core"
)

// ErrOutOfRange is returned when an identifier is not a valid name-table index.
var ErrOutOfRange = errors.New("name id out of range")

// Rules controls how names are classified.
type Rules struct {
	BallPrefix         string
	CarPrefix          string
	PlayerRecordPrefix string
	// CarExclusions mark subordinate actors (wheels, cameras) that share the
	// car prefix but are not the drivable vehicle.
	CarExclusions []string
	// PlayerNameDelimiter marks internal strings that are never display names.
	PlayerNameDelimiter string
}

// DefaultRules returns the class prefixes used by recordings of the game.
func DefaultRules() Rules {
	return Rules{
		BallPrefix:          "Ball_TA_",
		CarPrefix:           "Car_TA_",
		PlayerRecordPrefix:  "PRI_TA",
		CarExclusions:       []string{"Component", "Camera"},
		PlayerNameDelimiter: "|",
	}
}

// Classify returns the class of a raw name under these rules.
func (r Rules) Classify(name string) core.ActorClass {
	switch {
	case r.BallPrefix != "" && strings.HasPrefix(name, r.BallPrefix):
		return core.ClassBall
	case r.CarPrefix != "" && strings.HasPrefix(name, r.CarPrefix):
		for _, ex := range r.CarExclusions {
			if ex != "" && strings.Contains(name, ex) {
				return core.ClassOther
			}
		}
		return core.ClassCar
	case r.PlayerRecordPrefix != "" && strings.HasPrefix(name, r.PlayerRecordPrefix):
		return core.ClassPlayerRecord
	default:
		return core.ClassOther
	}
}

// IsDisplayName reports whether a player-record string value may be bound as
// a player name.
func (r Rules) IsDisplayName(value string) bool {
	if value == "" {
		return false
	}
	return r.PlayerNameDelimiter == "" || !strings.Contains(value, r.PlayerNameDelimiter)
}

// Table is the immutable name table of one recording.
type Table struct {
	names []string
	rules Rules
}

// NewTable wraps names. The slice is copied.
func NewTable(names []string, rules Rules) *Table {
	return &Table{
		names: append([]string(nil), names...),
		rules: rules,
	}
}

func (t *Table) Len() int {
	return len(t.names)
}

func (t *Table) Rules() Rules {
	return t.rules
}

// Lookup returns the name stored at id.
func (t *Table) Lookup(id int) (string, error) {
	if id < 0 || id >= len(t.names) {
		return "", fmt.Errorf("%w: %d (table has %d names)", ErrOutOfRange, id, len(t.names))
	}
	return t.names[id], nil
}

// Classify looks up id and classifies its name.
func (t *Table) Classify(id int) (core.ActorClass, error) {
	name, err := t.Lookup(id)
	if err != nil {
		return core.ClassOther, err
	}
	return t.rules.Classify(name), nil
}

// FindFirst returns the index and name of the first entry of the given class.
func (t *Table) FindFirst(class core.ActorClass) (int, string, bool) {
	for i, name := range t.names {
		if t.rules.Classify(name) == class {
			return i, name, true
		}
	}
	return -1, "", false
}

// UniqueNames returns the distinct names of the given class in table order.
func (t *Table) UniqueNames(class core.ActorClass) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, name := range t.names {
		if t.rules.Classify(name) != class {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
