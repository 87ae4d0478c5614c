// Package cursor tracks the current position in the frame sequence and
// drives the projector, one frame at a time or in bulk during seeks.
//
// Backward seeks restore the nearest earlier checkpoint (a registry
// snapshot taken every Interval frames on the way forward) and replay the
// remainder, so the registry after any seek is exactly the state that
// forward stepping would have produced at that index.
package cursor

import (
	"github.com/loganintech/rl-replay-zone-visualizer/internal/projector"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/registry"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/replay"
)

// DefaultCheckpointInterval matches the discrete seek step, so a backward
// seek typically replays at most one segment.
const DefaultCheckpointInterval = 150

// Cursor owns the registry it mutates and the checkpoint store.
type Cursor struct {
	frames   []replay.Frame
	proj     *projector.Projector
	reg      *registry.Registry
	interval int

	index       int
	checkpoints map[int]*registry.Registry // frame index -> state before that frame

	framesApplied uint64
}

// New creates a cursor positioned at frame zero with an empty registry.
// interval <= 0 selects DefaultCheckpointInterval.
func New(frames []replay.Frame, proj *projector.Projector, reg *registry.Registry, interval int) *Cursor {
	if interval <= 0 {
		interval = DefaultCheckpointInterval
	}
	return &Cursor{
		frames:      frames,
		proj:        proj,
		reg:         reg,
		interval:    interval,
		checkpoints: make(map[int]*registry.Registry),
	}
}

// Index returns the current frame index.
func (c *Cursor) Index() int { return c.index }

// Total returns the number of frames in the sequence.
func (c *Cursor) Total() int { return len(c.frames) }

// Registry returns the live registry the cursor projects into.
func (c *Cursor) Registry() *registry.Registry { return c.reg }

// CurrentTime returns the timestamp of the frame at the current index,
// or zero for an empty sequence. After an Advance past the last frame it
// returns the final frame's timestamp.
func (c *Cursor) CurrentTime() float64 {
	if len(c.frames) == 0 {
		return 0
	}
	i := c.index
	if i >= len(c.frames) {
		i = len(c.frames) - 1
	}
	return c.frames[i].Time
}

// FramesApplied returns the count of frames projected since creation,
// including frames replayed during seeks.
func (c *Cursor) FramesApplied() uint64 { return c.framesApplied }

// Advance applies the current frame and moves forward by one without
// looping. It returns false once the sequence is exhausted, leaving the
// end-of-match state in the registry for bulk walks that need to export
// the state after the final frame.
func (c *Cursor) Advance() bool {
	if c.index >= len(c.frames) {
		return false
	}

	c.checkpoint()
	c.proj.Apply(c.reg, &c.frames[c.index])
	c.framesApplied++
	c.index++

	return c.index < len(c.frames)
}

// Step applies the current frame and advances by one. Past the last frame
// the cursor wraps to zero and clears the registry; a match replays as a
// loop.
func (c *Cursor) Step() {
	if len(c.frames) == 0 {
		return
	}

	c.Advance()
	if c.index >= len(c.frames) {
		c.index = 0
		c.reg.Reset()
	}
}

// Seek moves by a signed frame count. Positive offsets re-run Step,
// re-deriving every intervening state change. Negative offsets wrap the
// index backward, restore the nearest checkpoint at or before the target
// and replay the remainder.
func (c *Cursor) Seek(offset int) {
	if len(c.frames) == 0 || offset == 0 {
		return
	}

	if offset > 0 {
		for i := 0; i < offset; i++ {
			c.Step()
		}
		return
	}

	total := len(c.frames)
	target := ((c.index+offset)%total + total) % total
	c.jump(target)
}

// jump repositions the cursor at target by checkpoint restore plus
// replay.
func (c *Cursor) jump(target int) {
	base := c.nearestCheckpoint(target)
	if cp, ok := c.checkpoints[base]; ok {
		c.reg.Restore(cp)
	} else {
		base = 0
		c.reg.Reset()
	}

	c.index = base
	for c.index < target {
		c.checkpoint()
		c.proj.Apply(c.reg, &c.frames[c.index])
		c.framesApplied++
		c.index++
	}
}

// nearestCheckpoint returns the greatest stored checkpoint index at or
// before target, or 0 when none exists yet.
func (c *Cursor) nearestCheckpoint(target int) int {
	base := (target / c.interval) * c.interval
	for base > 0 {
		if _, ok := c.checkpoints[base]; ok {
			return base
		}
		base -= c.interval
	}
	return 0
}

// checkpoint snapshots the registry before the current frame when the
// index falls on an interval boundary. Projection is deterministic from
// frame zero, so checkpoints stay valid across playback loops.
func (c *Cursor) checkpoint() {
	if c.index%c.interval != 0 {
		return
	}
	if _, ok := c.checkpoints[c.index]; ok {
		return
	}
	c.checkpoints[c.index] = c.reg.Clone()
}
