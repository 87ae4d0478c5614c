package snapshot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loganintech/rl-replay-zone-visualizer/internal/registry"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/replay"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/snapshot"
)

func TestCaptureEmptyRegistry(t *testing.T) {
	objects := snapshot.Capture(registry.New())
	assert.NotNil(t, objects)
	assert.Empty(t, objects)
}

func TestCaptureSkipsPlayersWithoutPosition(t *testing.T) {
	reg := registry.New()

	// Player without a car.
	reg.InsertIfAbsent(1, registry.NewPlayer())

	// Player with a car whose transform is still unknown.
	reg.InsertIfAbsent(2, registry.NewPlayer())
	reg.InsertIfAbsent(5, &registry.Car{})
	reg.LinkCar(2, 5)

	assert.Empty(t, snapshot.Capture(reg))
}

func TestCapturePlayersAndBall(t *testing.T) {
	reg := registry.New()

	reg.InsertIfAbsent(3, registry.NewPlayer())
	reg.InsertIfAbsent(6, &registry.Car{Body: &replay.RigidBody{Location: replay.Vector3{X: 7, Y: 8}}})
	reg.LinkCar(3, 6)
	reg.AssignTeam(3, registry.SideBlue)
	p, _ := reg.Player(3)
	p.Name = "Kronovi"

	reg.SeedBall(9)
	ball, _ := reg.Ball()
	ball.Body = &replay.RigidBody{Location: replay.Vector3{Z: 93}}

	objects := snapshot.Capture(reg)
	require.Len(t, objects, 2)

	// Sorted by actor id: player 3 first, ball 9 second.
	assert.Equal(t, replay.ActorID(3), objects[0].Actor)
	assert.Equal(t, registry.KindPlayer, objects[0].Kind)
	assert.Equal(t, "Kronovi", objects[0].Name)
	assert.Equal(t, 7.0, objects[0].Position.X)
	assert.Equal(t, p.Color, objects[0].Color)

	assert.Equal(t, replay.ActorID(9), objects[1].Actor)
	assert.Equal(t, registry.KindBall, objects[1].Kind)
	assert.Equal(t, 93.0, objects[1].Position.Z)
	assert.Equal(t, registry.ColorUnassigned, objects[1].Color)
}

func TestCaptureBallWithoutBodySkipped(t *testing.T) {
	reg := registry.New()
	reg.SeedBall(9)

	assert.Empty(t, snapshot.Capture(reg))
}

func TestCaptureIsReadOnly(t *testing.T) {
	reg := registry.New()
	reg.InsertIfAbsent(3, registry.NewPlayer())
	reg.InsertIfAbsent(6, &registry.Car{Body: &replay.RigidBody{}})
	reg.LinkCar(3, 6)

	before := reg.Clone()
	_ = snapshot.Capture(reg)

	assert.Equal(t, before.Len(), reg.Len())
	p, ok := reg.Player(3)
	require.True(t, ok)
	assert.True(t, p.HasCar)
}

func TestArenaConstants(t *testing.T) {
	assert.Equal(t, 8240.0, snapshot.MapWidth)
	assert.Equal(t, 10280.0, snapshot.MapHeight)
}
