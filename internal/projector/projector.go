// Package projector folds one frame's create/update/delete lists into the
// actor registry. No condition inside the projector aborts frame
// processing: dangling references and malformed attributes are logged at
// debug level and skipped.
package projector

import (
	"log/slog"

	"github.com/loganintech/rl-replay-zone-visualizer/internal/registry"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/replay"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/schema"
)

// Projector applies frames to a registry. It keeps no state of its own;
// all reconstructed state lives in the registry.
type Projector struct {
	mapping *schema.Mapping
	rep     *replay.Replay
	logger  *slog.Logger
}

// New creates a projector for one match's role mapping. rep supplies the
// name table for debug logging and may be nil.
func New(mapping *schema.Mapping, rep *replay.Replay, logger *slog.Logger) *Projector {
	if rep == nil {
		rep = &replay.Replay{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Projector{mapping: mapping, rep: rep, logger: logger}
}

// Apply folds one frame into the registry: creations, then updates, then
// deletions, each in the order given by the frame.
func (p *Projector) Apply(reg *registry.Registry, frame *replay.Frame) {
	for i := range frame.NewActors {
		p.applyCreation(reg, &frame.NewActors[i])
	}
	for i := range frame.UpdatedActors {
		p.applyUpdate(reg, &frame.UpdatedActors[i])
	}
	for _, id := range frame.DeletedActors {
		reg.Delete(id)
	}
}

func (p *Projector) applyCreation(reg *registry.Registry, actor *replay.NewActor) {
	role, ok := p.mapping.RoleOf(actor.ObjectID)
	if !ok {
		return
	}

	switch role {
	case schema.RoleBall:
		if !reg.SeedBall(actor.ActorID) {
			p.logger.Debug("ignoring duplicate ball actor", "actor", actor.ActorID)
		}
	case schema.RoleCar:
		reg.InsertIfAbsent(actor.ActorID, &registry.Car{})
	case schema.RoleTeam0:
		reg.InsertIfAbsent(actor.ActorID, &registry.Team{Side: registry.SideOrange})
	case schema.RoleTeam1:
		reg.InsertIfAbsent(actor.ActorID, &registry.Team{Side: registry.SideBlue})
	case schema.RolePlayer:
		reg.InsertIfAbsent(actor.ActorID, registry.NewPlayer())
	case schema.RolePlayerCar, schema.RolePlayerTeam, schema.RolePlayerName, schema.RoleRigidBody:
		// Property roles never appear in creation lists.
	}
}

func (p *Projector) applyUpdate(reg *registry.Registry, actor *replay.UpdatedActor) {
	if role, ok := p.mapping.RoleOf(actor.ObjectID); ok {
		p.dispatchProperty(reg, role, actor)
	}

	// Demolish notifications remove the victim's car regardless of which
	// property carried them, in addition to the dispatch above.
	if actor.Attribute.Kind == replay.AttrDemolish && actor.Attribute.Demolition != nil {
		reg.RemoveCar(actor.Attribute.Demolition.Victim)
	}
}

func (p *Projector) dispatchProperty(reg *registry.Registry, role schema.Role, actor *replay.UpdatedActor) {
	attr := &actor.Attribute

	switch role {
	case schema.RolePlayerTeam:
		if attr.Kind != replay.AttrActiveActor {
			p.malformed(role, actor)
			return
		}
		team, ok := reg.Team(attr.ActiveActor.Actor)
		if !ok {
			p.logger.Debug("team assignment references unknown team actor",
				"player", actor.ActorID, "referenced", attr.ActiveActor.Actor)
			return
		}
		reg.AssignTeam(actor.ActorID, team.Side)

	case schema.RolePlayerName:
		if attr.Kind != replay.AttrString {
			p.malformed(role, actor)
			return
		}
		if player, ok := reg.Player(actor.ActorID); ok {
			player.Name = attr.Str
		}

	case schema.RolePlayerCar:
		// Addressed to the car actor; the attribute references the owner.
		if attr.Kind != replay.AttrActiveActor {
			p.malformed(role, actor)
			return
		}
		if _, ok := reg.Car(actor.ActorID); !ok {
			p.logger.Debug("car ownership update for untracked car", "car", actor.ActorID)
			return
		}
		reg.LinkCar(attr.ActiveActor.Actor, actor.ActorID)

	case schema.RoleRigidBody:
		if attr.Kind != replay.AttrRigidBody || attr.RigidBody == nil {
			p.malformed(role, actor)
			return
		}
		body := *attr.RigidBody
		e, _ := reg.Get(actor.ActorID)
		switch e := e.(type) {
		case *registry.Car:
			e.Body = &body
		case *registry.Ball:
			e.Body = &body
		}

	case schema.RoleBall, schema.RoleTeam0, schema.RoleTeam1, schema.RoleCar, schema.RolePlayer:
		// Archetype roles carry no interpreted update properties.
	}
}

func (p *Projector) malformed(role schema.Role, actor *replay.UpdatedActor) {
	p.logger.Debug("ignoring malformed attribute",
		"role", role.String(),
		"object", p.rep.ObjectName(actor.ObjectID),
		"actor", actor.ActorID,
		"kind", actor.Attribute.Kind.String())
}
