// Package trail accumulates the path each entity travels over a playback
// run and renders it as a simplified line string for export.
package trail

import (
	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/loganintech/rl-replay-zone-visualizer/internal/replay"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/snapshot"
)

// Builder collects per-actor positions from published snapshots.
type Builder struct {
	coords map[replay.ActorID][]float64 // flat XY sequence
	names  map[replay.ActorID]string
	order  []replay.ActorID
}

// NewBuilder returns an empty trail builder.
func NewBuilder() *Builder {
	return &Builder{
		coords: make(map[replay.ActorID][]float64),
		names:  make(map[replay.ActorID]string),
	}
}

// Observe appends the position of every object in the snapshot to its
// actor's trail.
func (b *Builder) Observe(objects []snapshot.Object) {
	for _, obj := range objects {
		if _, seen := b.coords[obj.Actor]; !seen {
			b.order = append(b.order, obj.Actor)
		}
		b.coords[obj.Actor] = append(b.coords[obj.Actor], obj.Position.X, obj.Position.Y)
		if obj.Name != "" {
			b.names[obj.Actor] = obj.Name
		}
	}
}

// Reset drops all accumulated trails.
func (b *Builder) Reset() {
	b.coords = make(map[replay.ActorID][]float64)
	b.names = make(map[replay.ActorID]string)
	b.order = nil
}

// Trail is one actor's travelled path.
type Trail struct {
	Actor  replay.ActorID `json:"actor"`
	Name   string         `json:"name,omitempty"`
	Points int            `json:"points"`
	WKT    string         `json:"wkt"`
}

// Build renders the accumulated paths as WKT line strings, simplified
// with the given tolerance (simulation units; 0 disables simplification).
// Actors with fewer than two recorded positions are skipped.
func (b *Builder) Build(tolerance float64) []Trail {
	trails := make([]Trail, 0, len(b.order))
	for _, actor := range b.order {
		flat := b.coords[actor]
		if len(flat) < 4 {
			continue
		}

		ls := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
		if tolerance > 0 {
			if simplified := ls.Simplify(tolerance); !simplified.IsEmpty() {
				ls = simplified
			}
		}

		trails = append(trails, Trail{
			Actor:  actor,
			Name:   b.names[actor],
			Points: ls.Coordinates().Length(),
			WKT:    ls.AsText(),
		})
	}
	return trails
}
