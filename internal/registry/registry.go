// Package registry holds the live game entities reconstructed from a
// replay, keyed by actor identifier. The registry has exactly one writer
// (the frame projector, driven synchronously from the playback loop), so
// it carries no locking of its own.
package registry

import (
	"github.com/loganintech/rl-replay-zone-visualizer/internal/replay"
)

// Registry maps actor identifiers to live entities, plus the auxiliary
// state needed for cascade cleanup and color bookkeeping: a reverse
// car-to-owner index and the per-side palette allocation counters.
type Registry struct {
	entities map[replay.ActorID]Entity
	owners   map[replay.ActorID]replay.ActorID // car actor -> owning player actor
	palette  paletteAllocator

	ballID   replay.ActorID
	ballSeen bool
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		entities: make(map[replay.ActorID]Entity),
		owners:   make(map[replay.ActorID]replay.ActorID),
	}
}

// Reset drops all entities and allocation state, as when playback wraps
// around to frame zero.
func (r *Registry) Reset() {
	r.entities = make(map[replay.ActorID]Entity)
	r.owners = make(map[replay.ActorID]replay.ActorID)
	r.palette = paletteAllocator{}
	r.ballID = 0
	r.ballSeen = false
}

// Len returns the number of live entities.
func (r *Registry) Len() int {
	return len(r.entities)
}

// Get returns the entity for the actor id, if any.
func (r *Registry) Get(id replay.ActorID) (Entity, bool) {
	e, ok := r.entities[id]
	return e, ok
}

// InsertIfAbsent adds the entity unless the id is already live. Returns
// whether the entity was inserted.
func (r *Registry) InsertIfAbsent(id replay.ActorID, e Entity) bool {
	if _, ok := r.entities[id]; ok {
		return false
	}
	r.entities[id] = e
	return true
}

// Player returns the player entity at id, if the id is live and a player.
func (r *Registry) Player(id replay.ActorID) (*Player, bool) {
	p, ok := r.entities[id].(*Player)
	return p, ok
}

// Car returns the car entity at id, if the id is live and a car.
func (r *Registry) Car(id replay.ActorID) (*Car, bool) {
	c, ok := r.entities[id].(*Car)
	return c, ok
}

// Team returns the team entity at id, if the id is live and a team.
func (r *Registry) Team(id replay.ActorID) (*Team, bool) {
	t, ok := r.entities[id].(*Team)
	return t, ok
}

// SeedBall records the ball's actor identifier and inserts the singleton
// ball entity. The first observed identifier is stable for the rest of
// the match; later creations under a different id are ignored.
func (r *Registry) SeedBall(id replay.ActorID) bool {
	if r.ballSeen && id != r.ballID {
		return false
	}
	if !r.ballSeen {
		r.ballID = id
		r.ballSeen = true
	}
	r.entities[id] = &Ball{}
	return true
}

// Ball returns the singleton ball entity if it has been observed.
func (r *Registry) Ball() (*Ball, bool) {
	if !r.ballSeen {
		return nil, false
	}
	b, ok := r.entities[r.ballID].(*Ball)
	return b, ok
}

// BallID returns the ball's stable actor id once observed.
func (r *Registry) BallID() (replay.ActorID, bool) {
	return r.ballID, r.ballSeen
}

// LinkCar records that the player owns the car, replacing any previous
// link on either end. A car is owned by at most one player and a player
// links to at most one car.
func (r *Registry) LinkCar(playerID, carID replay.ActorID) {
	p, ok := r.Player(playerID)
	if !ok {
		return
	}
	if p.HasCar && p.CarID != carID {
		delete(r.owners, p.CarID)
	}
	if prevOwner, ok := r.owners[carID]; ok && prevOwner != playerID {
		if prev, ok := r.Player(prevOwner); ok {
			prev.HasCar = false
		}
	}
	p.CarID = carID
	p.HasCar = true
	r.owners[carID] = playerID
}

// AssignTeam sets the player's side and, if the player has no color yet,
// allocates the next palette slot for that side. Colors are assigned
// exactly once; later team re-assignments never re-color.
func (r *Registry) AssignTeam(playerID replay.ActorID, side Side) {
	p, ok := r.Player(playerID)
	if !ok {
		return
	}
	p.Side = side
	p.SideKnown = true
	if !p.ColorAssigned {
		p.Color = r.palette.Next(side)
		p.ColorAssigned = true
	}
}

// ColorsAllocated reports the palette counter for a side.
func (r *Registry) ColorsAllocated(s Side) int {
	return r.palette.Allocated(s)
}

// RemoveCar deletes a car entity and clears its owner's link so the link
// never dangles. No-op when the id is not a live car.
func (r *Registry) RemoveCar(id replay.ActorID) bool {
	if _, ok := r.Car(id); !ok {
		return false
	}
	delete(r.entities, id)
	if ownerID, ok := r.owners[id]; ok {
		delete(r.owners, id)
		if p, ok := r.Player(ownerID); ok && p.HasCar && p.CarID == id {
			p.HasCar = false
		}
	}
	return true
}

// Delete removes the entity at id and returns it. Deleting a player
// cascades to its linked car. Deleting a car clears the owner's link but
// never deletes the owning player. Unknown ids are a no-op.
func (r *Registry) Delete(id replay.ActorID) (Entity, bool) {
	e, ok := r.entities[id]
	if !ok {
		return nil, false
	}

	switch v := e.(type) {
	case *Player:
		delete(r.entities, id)
		if v.HasCar {
			r.RemoveCar(v.CarID)
		}
	case *Car:
		r.RemoveCar(id)
	case *Team, *Ball:
		delete(r.entities, id)
	}
	return e, true
}

// ForEach calls fn for every live entity. Iteration order is undefined;
// callers needing determinism sort the ids themselves.
func (r *Registry) ForEach(fn func(id replay.ActorID, e Entity)) {
	for id, e := range r.entities {
		fn(id, e)
	}
}

// Restore replaces the registry contents in place with a deep copy of
// other, so holders of this registry pointer observe the restored state.
func (r *Registry) Restore(other *Registry) {
	cp := other.Clone()
	r.entities = cp.entities
	r.owners = cp.owners
	r.palette = cp.palette
	r.ballID = cp.ballID
	r.ballSeen = cp.ballSeen
}

// Clone deep-copies the registry, including allocation counters and the
// ball bookkeeping. Used for seek checkpoints.
func (r *Registry) Clone() *Registry {
	cp := &Registry{
		entities: make(map[replay.ActorID]Entity, len(r.entities)),
		owners:   make(map[replay.ActorID]replay.ActorID, len(r.owners)),
		palette:  r.palette,
		ballID:   r.ballID,
		ballSeen: r.ballSeen,
	}
	for id, e := range r.entities {
		cp.entities[id] = e.clone()
	}
	for car, owner := range r.owners {
		cp.owners[car] = owner
	}
	return cp
}
