package cursor_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loganintech/rl-replay-zone-visualizer/internal/cursor"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/projector"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/registry"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/replay"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/schema"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/snapshot"
)

const (
	objPlayer = 0
	objCar    = 1
	objOwner  = 2
	objRB     = 3
	objName   = 4
)

func testMapping() *schema.Mapping {
	return schema.Resolve([]string{
		"TAGame.Default__PRI_TA",
		"Archetypes.Car.Car_Default",
		"Engine.Pawn:PlayerReplicationInfo",
		"TAGame.RBActor_TA:ReplicatedRBState",
		"Engine.PlayerReplicationInfo:PlayerName",
	})
}

// buildFrames produces n frames: frame 0 creates a player and car and
// links them; every later frame moves the car to x = frame index.
func buildFrames(n int) []replay.Frame {
	frames := make([]replay.Frame, n)
	frames[0] = replay.Frame{
		Time: 0,
		NewActors: []replay.NewActor{
			{ActorID: 1, ObjectID: objPlayer},
			{ActorID: 2, ObjectID: objCar},
		},
		UpdatedActors: []replay.UpdatedActor{
			{
				ActorID:  2,
				ObjectID: objOwner,
				Attribute: replay.Attribute{
					Kind:        replay.AttrActiveActor,
					ActiveActor: replay.ActiveActor{Active: true, Actor: 1},
				},
			},
		},
	}
	for i := 1; i < n; i++ {
		frames[i] = replay.Frame{
			Time: float64(i) / 30.0,
			UpdatedActors: []replay.UpdatedActor{
				{
					ActorID:  2,
					ObjectID: objRB,
					Attribute: replay.Attribute{
						Kind:      replay.AttrRigidBody,
						RigidBody: &replay.RigidBody{Location: replay.Vector3{X: float64(i)}},
					},
				},
				{
					ActorID:  1,
					ObjectID: objName,
					Attribute: replay.Attribute{
						Kind: replay.AttrString,
						Str:  fmt.Sprintf("frame-%d", i),
					},
				},
			},
		}
	}
	return frames
}

func newCursor(frames []replay.Frame, interval int) *cursor.Cursor {
	proj := projector.New(testMapping(), nil, nil)
	return cursor.New(frames, proj, registry.New(), interval)
}

func TestStepAdvances(t *testing.T) {
	cur := newCursor(buildFrames(10), 4)

	cur.Step()
	assert.Equal(t, 1, cur.Index())

	p, ok := cur.Registry().Player(1)
	require.True(t, ok)
	assert.True(t, p.HasCar)
}

func TestStepWrapsAndClears(t *testing.T) {
	cur := newCursor(buildFrames(5), 2)

	for i := 0; i < 5; i++ {
		cur.Step()
	}

	assert.Equal(t, 0, cur.Index())
	assert.Equal(t, 0, cur.Registry().Len(), "registry clears on wrap")
	assert.Equal(t, uint64(5), cur.FramesApplied())
}

func TestSeekBackwardMatchesForwardState(t *testing.T) {
	frames := buildFrames(40)

	// Walk a reference cursor straight to frame 25.
	ref := newCursor(frames, 8)
	ref.Seek(25)
	want := snapshot.Capture(ref.Registry())

	// Walk another cursor past it, then seek back.
	cur := newCursor(frames, 8)
	cur.Seek(35)
	cur.Seek(-10)

	require.Equal(t, 25, cur.Index())
	got := snapshot.Capture(cur.Registry())
	assert.Equal(t, want, got, "state after -10 equals state reached forward")

	p, ok := cur.Registry().Player(1)
	require.True(t, ok)
	assert.Equal(t, "frame-24", p.Name)
}

func TestSeekBackwardWrapsAround(t *testing.T) {
	frames := buildFrames(20)

	cur := newCursor(frames, 5)
	cur.Seek(3)
	cur.Seek(-8) // wraps to index 15

	assert.Equal(t, 15, cur.Index())

	ref := newCursor(frames, 5)
	ref.Seek(15)
	assert.Equal(t, snapshot.Capture(ref.Registry()), snapshot.Capture(cur.Registry()))
}

func TestSeekBackwardBeforeFirstCheckpoint(t *testing.T) {
	frames := buildFrames(12)

	cur := newCursor(frames, 100) // no interior checkpoints
	cur.Seek(10)
	cur.Seek(-4)

	assert.Equal(t, 6, cur.Index())
	p, ok := cur.Registry().Player(1)
	require.True(t, ok)
	assert.Equal(t, "frame-5", p.Name)
}

func TestSeekZeroAndEmptySequence(t *testing.T) {
	cur := newCursor(buildFrames(5), 2)
	cur.Seek(0)
	assert.Equal(t, 0, cur.Index())

	empty := newCursor(nil, 2)
	empty.Step()
	empty.Seek(-3)
	assert.Equal(t, 0, empty.Index())
	assert.Equal(t, 0.0, empty.CurrentTime())
}

func TestCheckpointsSurviveLoopWrap(t *testing.T) {
	frames := buildFrames(10)
	cur := newCursor(frames, 4)

	// One full loop plus a bit, then seek back across the wrap boundary.
	cur.Seek(13)
	cur.Seek(-5)

	assert.Equal(t, 8, cur.Index())

	ref := newCursor(frames, 4)
	ref.Seek(8)
	assert.Equal(t, snapshot.Capture(ref.Registry()), snapshot.Capture(cur.Registry()))
}

func TestAdvanceKeepsEndOfMatchState(t *testing.T) {
	frames := buildFrames(5)
	cur := newCursor(frames, 2)

	// A dump walk applies every frame without looping.
	for i := 0; i < 5; i++ {
		cur.Advance()
	}

	assert.Equal(t, 5, cur.Index())
	assert.Equal(t, uint64(5), cur.FramesApplied())

	objects := snapshot.Capture(cur.Registry())
	require.Len(t, objects, 1, "end-of-match state survives the final frame")
	assert.Equal(t, 4.0, objects[0].Position.X)

	p, ok := cur.Registry().Player(1)
	require.True(t, ok)
	assert.Equal(t, "frame-4", p.Name)

	assert.False(t, cur.Advance(), "sequence exhausted")
	assert.InDelta(t, 4.0/30.0, cur.CurrentTime(), 1e-9)

	// The next Step starts the loop over with a cleared registry.
	cur.Step()
	assert.Equal(t, 0, cur.Index())
	assert.Equal(t, 0, cur.Registry().Len())
}

func TestCurrentTime(t *testing.T) {
	frames := buildFrames(10)
	cur := newCursor(frames, 4)
	cur.Seek(6)
	assert.InDelta(t, 6.0/30.0, cur.CurrentTime(), 1e-9)
}
