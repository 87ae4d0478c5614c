package registry

import (
	"github.com/loganintech/rl-replay-zone-visualizer/internal/replay"
)

// Kind tags an entity variant.
type Kind uint8

const (
	KindPlayer Kind = iota
	KindCar
	KindTeam
	KindBall
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindCar:
		return "car"
	case KindTeam:
		return "team"
	case KindBall:
		return "ball"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind name, so JSON exports carry "player"
// rather than a bare tag number.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Entity is the sealed union of live game entities. The projector's
// dispatch is a total type switch over the four variants below.
type Entity interface {
	Kind() Kind
	clone() Entity

	sealed()
}

// Player is a participant in the match. Name defaults to "Unknown" until
// the name property is observed. Color is assigned exactly once, the
// first time the player's team becomes known.
type Player struct {
	Name          string
	Side          Side
	SideKnown     bool
	Color         Color
	ColorAssigned bool
	CarID         replay.ActorID
	HasCar        bool
}

func (*Player) Kind() Kind { return KindPlayer }
func (*Player) sealed()    {}

func (p *Player) clone() Entity {
	cp := *p
	return &cp
}

// NewPlayer returns a player with the default name and no color, car or
// team yet.
func NewPlayer() *Player {
	return &Player{Name: "Unknown", Color: ColorUnassigned}
}

// Car holds the last known rigid-body state of a car actor. Body is nil
// until the first transform update arrives.
type Car struct {
	Body *replay.RigidBody
}

func (*Car) Kind() Kind { return KindCar }
func (*Car) sealed()    {}

func (c *Car) clone() Entity {
	cp := &Car{}
	if c.Body != nil {
		body := *c.Body
		cp.Body = &body
	}
	return cp
}

// Team is the actor representing one side. Team-assignment updates are
// resolved by comparing the referenced actor identity against the team
// entity, not by value.
type Team struct {
	Side Side
}

func (*Team) Kind() Kind { return KindTeam }
func (*Team) sealed()    {}

func (t *Team) clone() Entity {
	cp := *t
	return &cp
}

// Ball is the singleton ball actor. Body is nil until the first transform
// update.
type Ball struct {
	Body *replay.RigidBody
}

func (*Ball) Kind() Kind { return KindBall }
func (*Ball) sealed()    {}

func (b *Ball) clone() Entity {
	cp := &Ball{}
	if b.Body != nil {
		body := *b.Body
		cp.Body = &body
	}
	return cp
}
