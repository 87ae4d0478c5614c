// Package replay defines the in-memory model of an already-parsed Rocket
// League replay: the object name table and the ordered network frames with
// their create/update/delete actor lists. Decoding the binary container is
// the job of an external exporter; this package only consumes its JSON dump.
package replay

import (
	"encoding/json"
	"fmt"
)

// ActorID identifies one live actor instance for its lifetime within a
// match. IDs are reused after deletion.
type ActorID int32

// ObjectID is a per-match index into the object name table. It names an
// archetype or replicated property and is assigned arbitrarily per match.
type ObjectID int32

// Vector3 is a position or velocity in simulation space.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion stores an orientation.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// RigidBody is the replicated physics state of an object at a point in
// time: position, orientation and velocities.
type RigidBody struct {
	Sleeping        bool       `json:"sleeping"`
	Location        Vector3    `json:"location"`
	Rotation        Quaternion `json:"rotation"`
	LinearVelocity  *Vector3   `json:"linear_velocity"`
	AngularVelocity *Vector3   `json:"angular_velocity"`
}

// ActiveActor is an attribute value referencing another actor.
type ActiveActor struct {
	Active bool    `json:"active"`
	Actor  ActorID `json:"actor"`
}

// Demolition is the payload of a demolish notification. Only the victim is
// needed for projection; the attacker is carried for completeness.
type Demolition struct {
	AttackerFlag bool    `json:"attacker_flag"`
	Attacker     ActorID `json:"attacker"`
	VictimFlag   bool    `json:"victim_flag"`
	Victim       ActorID `json:"victim"`
}

// AttrKind tags the variant held by an Attribute.
type AttrKind uint8

const (
	// AttrOther is any attribute type the projector does not interpret.
	AttrOther AttrKind = iota
	AttrString
	AttrActiveActor
	AttrRigidBody
	AttrDemolish
)

func (k AttrKind) String() string {
	switch k {
	case AttrString:
		return "string"
	case AttrActiveActor:
		return "active_actor"
	case AttrRigidBody:
		return "rigid_body"
	case AttrDemolish:
		return "demolish"
	default:
		return "other"
	}
}

// Attribute is the tagged union of replicated attribute values the
// projector understands. Exactly one of the variant fields is meaningful,
// selected by Kind. Both demolish wire notifications ("Demolish" and
// "DemolishFx") normalize to AttrDemolish; they carry the same meaning.
type Attribute struct {
	Kind        AttrKind
	Str         string
	ActiveActor ActiveActor
	RigidBody   *RigidBody
	Demolition  *Demolition
}

// UnmarshalJSON decodes the exporter's single-key attribute object, e.g.
// {"ActiveActor": {"active": true, "actor": 12}}. Unknown variants decode
// to AttrOther rather than failing.
func (a *Attribute) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("decoding attribute: %w", err)
	}

	for name, raw := range m {
		switch name {
		case "String":
			a.Kind = AttrString
			if err := json.Unmarshal(raw, &a.Str); err != nil {
				return fmt.Errorf("decoding string attribute: %w", err)
			}
		case "ActiveActor":
			a.Kind = AttrActiveActor
			if err := json.Unmarshal(raw, &a.ActiveActor); err != nil {
				return fmt.Errorf("decoding active actor attribute: %w", err)
			}
		case "RigidBody":
			a.Kind = AttrRigidBody
			a.RigidBody = &RigidBody{}
			if err := json.Unmarshal(raw, a.RigidBody); err != nil {
				return fmt.Errorf("decoding rigid body attribute: %w", err)
			}
		case "Demolish", "DemolishFx":
			a.Kind = AttrDemolish
			a.Demolition = &Demolition{}
			if err := json.Unmarshal(raw, a.Demolition); err != nil {
				return fmt.Errorf("decoding demolish attribute: %w", err)
			}
		default:
			a.Kind = AttrOther
		}
	}
	return nil
}

// NewActor is one entry of a frame's creation list.
type NewActor struct {
	ActorID         ActorID  `json:"actor_id"`
	NameID          *int32   `json:"name_id"`
	ObjectID        ObjectID `json:"object_id"`
	InitialLocation *Vector3 `json:"initial_location"`
}

// UpdatedActor is one entry of a frame's update list.
type UpdatedActor struct {
	ActorID   ActorID   `json:"actor_id"`
	StreamID  int32     `json:"stream_id"`
	ObjectID  ObjectID  `json:"object_id"`
	Attribute Attribute `json:"attribute"`
}

// Frame is one discrete tick of the recorded match.
type Frame struct {
	Time          float64        `json:"time"`
	Delta         float64        `json:"delta"`
	NewActors     []NewActor     `json:"new_actors"`
	UpdatedActors []UpdatedActor `json:"updated_actors"`
	DeletedActors []ActorID      `json:"deleted_actors"`
}

// Replay is a fully materialized, integrity-checked replay as handed over
// by the parsing collaborator.
type Replay struct {
	Objects []string `json:"objects"`
	Names   []string `json:"names"`
	Frames  []Frame  `json:"-"`
}

// ObjectName resolves an object id against the name table. Returns the
// empty string for out-of-range ids.
func (r *Replay) ObjectName(id ObjectID) string {
	if id < 0 || int(id) >= len(r.Objects) {
		return ""
	}
	return r.Objects[id]
}
