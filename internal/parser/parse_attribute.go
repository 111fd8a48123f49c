package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/arena-replay/rltrack/pkg/core"
)

// ErrMalformedAttribute is returned when a recognized attribute kind carries a
// payload that cannot be decoded.
var ErrMalformedAttribute = errors.New("malformed attribute payload")

// AttributeKind tags the variant held by an Attribute.
type AttributeKind uint8

const (
	AttrOther AttributeKind = iota
	AttrRigidBody
	AttrActiveActor
	AttrString
)

func (k AttributeKind) String() string {
	switch k {
	case AttrRigidBody:
		return "RigidBody"
	case AttrActiveActor:
		return "ActiveActor"
	case AttrString:
		return "String"
	default:
		return "Other"
	}
}

// Attribute is the decoded payload of an updated-actor event.
// Exactly one of the variant fields is meaningful, selected by Kind.
type Attribute struct {
	Kind        AttributeKind
	RigidBody   *RigidBody
	ActiveActor *ActiveActor
	String      string
	// OtherKind names the unrecognized attribute, for logging.
	OtherKind string
}

// RigidBody is a physical state update.
type RigidBody struct {
	Sleeping        *bool          `json:"sleeping"`
	Location        *Location      `json:"location"`
	Rotation        *core.Rotation `json:"rotation"`
	LinearVelocity  *core.Vector3  `json:"linear_velocity"`
	AngularVelocity *core.Vector3  `json:"angular_velocity"`
}

// ActiveActor references another actor. Actor is nil when absent.
type ActiveActor struct {
	Active bool `json:"active"`
	Actor  *int `json:"actor"`
}

// UnmarshalJSON decodes {"<Kind>": payload} into the tagged variant.
func (a *Attribute) UnmarshalJSON(data []byte) error {
	*a = Attribute{Kind: AttrOther}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		// null, or a unit variant serialized as a bare string
		var name string
		if json.Unmarshal(trimmed, &name) == nil {
			a.OtherKind = name
		}
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedAttribute, err)
	}

	if raw, ok := fields["RigidBody"]; ok {
		var rb RigidBody
		if err := json.Unmarshal(raw, &rb); err != nil {
			return fmt.Errorf("%w: RigidBody: %v", ErrMalformedAttribute, err)
		}
		a.Kind = AttrRigidBody
		a.RigidBody = &rb
		return nil
	}

	if raw, ok := fields["ActiveActor"]; ok {
		var aa ActiveActor
		if err := json.Unmarshal(raw, &aa); err != nil {
			return fmt.Errorf("%w: ActiveActor: %v", ErrMalformedAttribute, err)
		}
		a.Kind = AttrActiveActor
		a.ActiveActor = &aa
		return nil
	}

	if raw, ok := fields["String"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("%w: String: %v", ErrMalformedAttribute, err)
		}
		a.Kind = AttrString
		a.String = s
		return nil
	}

	for k := range fields {
		a.OtherKind = k
		break
	}
	return nil
}
