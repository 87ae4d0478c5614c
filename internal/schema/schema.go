// Package schema resolves the fixed set of well-known archetype and
// property names against a match's object name table. Object ids are
// assigned arbitrarily per match, so the mapping must be rebuilt on every
// load and is immutable afterwards.
package schema

import (
	"github.com/loganintech/rl-replay-zone-visualizer/internal/replay"
)

// Role names a semantic role the projector recognizes, independent of the
// per-match object id that carries it.
type Role uint8

const (
	RoleBall Role = iota
	RoleTeam0
	RoleTeam1
	RoleCar
	RolePlayer
	RolePlayerCar
	RolePlayerTeam
	RolePlayerName
	RoleRigidBody

	roleCount
)

func (r Role) String() string {
	switch r {
	case RoleBall:
		return "ball"
	case RoleTeam0:
		return "team0"
	case RoleTeam1:
		return "team1"
	case RoleCar:
		return "car"
	case RolePlayer:
		return "player"
	case RolePlayerCar:
		return "player_car"
	case RolePlayerTeam:
		return "player_team"
	case RolePlayerName:
		return "player_name"
	case RoleRigidBody:
		return "rigid_body"
	default:
		return "unknown"
	}
}

// wellKnownNames maps the replay's object name strings to roles. The names
// are fixed by the game's replication schema.
var wellKnownNames = map[string]Role{
	"Archetypes.Ball.Ball_Default":            RoleBall,
	"Archetypes.Teams.Team0":                  RoleTeam0,
	"Archetypes.Teams.Team1":                  RoleTeam1,
	"Archetypes.Car.Car_Default":              RoleCar,
	"TAGame.Default__PRI_TA":                  RolePlayer,
	"Engine.Pawn:PlayerReplicationInfo":       RolePlayerCar,
	"Engine.PlayerReplicationInfo:Team":       RolePlayerTeam,
	"Engine.PlayerReplicationInfo:PlayerName": RolePlayerName,
	"TAGame.RBActor_TA:ReplicatedRBState":     RoleRigidBody,
}

// Mapping is the immutable role table for one match. A role whose name
// never appears in the table stays unresolved; that feature simply never
// triggers for this match.
type Mapping struct {
	ids      [roleCount]replay.ObjectID
	resolved [roleCount]bool
	byObject map[replay.ObjectID]Role
}

// Resolve scans the object name table once and records the index of every
// well-known name. Unmatched names are ignored; there is no failure mode.
func Resolve(objects []string) *Mapping {
	m := &Mapping{
		byObject: make(map[replay.ObjectID]Role, len(wellKnownNames)),
	}
	for index, name := range objects {
		role, ok := wellKnownNames[name]
		if !ok {
			continue
		}
		id := replay.ObjectID(index)
		m.ids[role] = id
		m.resolved[role] = true
		m.byObject[id] = role
	}
	return m
}

// ObjectID returns the object id carrying the given role this match, and
// whether the role was resolved at all.
func (m *Mapping) ObjectID(r Role) (replay.ObjectID, bool) {
	if r >= roleCount || !m.resolved[r] {
		return 0, false
	}
	return m.ids[r], true
}

// RoleOf is the reverse lookup used on the projector's hot path: which
// role, if any, does this object id carry.
func (m *Mapping) RoleOf(id replay.ObjectID) (Role, bool) {
	role, ok := m.byObject[id]
	return role, ok
}

// Resolved reports whether the role was found in this match's table.
func (m *Mapping) Resolved(r Role) bool {
	return r < roleCount && m.resolved[r]
}
