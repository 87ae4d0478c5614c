// Package snapshot produces the read-only render input for one tick: raw
// simulation-space positions and colors for every drawable entity. It
// never mutates the registry.
package snapshot

import (
	"sort"

	"github.com/loganintech/rl-replay-zone-visualizer/internal/registry"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/replay"
)

// Standard arena extent in simulation units, for viewers that need to
// scale positions to a surface.
const (
	MapWidth  = 8240.0
	MapHeight = 10280.0
)

// Object is one drawable entity.
type Object struct {
	Actor    replay.ActorID `json:"actor"`
	Kind     registry.Kind  `json:"kind"`
	Name     string         `json:"name,omitempty"`
	Position replay.Vector3 `json:"position"`
	Color    registry.Color `json:"color"`
}

// Capture returns one Object per player whose car position is known, plus
// the ball when its transform is known, ordered by actor id. An empty
// registry yields an empty snapshot; rendering nothing is valid.
func Capture(reg *registry.Registry) []Object {
	objects := make([]Object, 0, reg.Len())

	reg.ForEach(func(id replay.ActorID, e registry.Entity) {
		player, ok := e.(*registry.Player)
		if !ok || !player.HasCar {
			return
		}
		car, ok := reg.Car(player.CarID)
		if !ok || car.Body == nil {
			return
		}
		objects = append(objects, Object{
			Actor:    id,
			Kind:     registry.KindPlayer,
			Name:     player.Name,
			Position: car.Body.Location,
			Color:    player.Color,
		})
	})

	if ball, ok := reg.Ball(); ok && ball.Body != nil {
		id, _ := reg.BallID()
		objects = append(objects, Object{
			Actor:    id,
			Kind:     registry.KindBall,
			Position: ball.Body.Location,
			Color:    registry.ColorUnassigned,
		})
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Actor < objects[j].Actor
	})
	return objects
}
