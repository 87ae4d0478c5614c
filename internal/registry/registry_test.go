package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loganintech/rl-replay-zone-visualizer/internal/registry"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/replay"
)

func TestPaletteAssignOncePerPlayer(t *testing.T) {
	reg := registry.New()
	reg.InsertIfAbsent(1, registry.NewPlayer())

	reg.AssignTeam(1, registry.SideOrange)
	p, ok := reg.Player(1)
	require.True(t, ok)
	first := p.Color
	assert.True(t, p.ColorAssigned)
	assert.NotEqual(t, registry.ColorUnassigned, first)

	// Re-assignment, even to the other side, never re-colors.
	reg.AssignTeam(1, registry.SideBlue)
	assert.Equal(t, first, p.Color)
	assert.Equal(t, registry.SideBlue, p.Side)
	assert.Equal(t, 1, reg.ColorsAllocated(registry.SideOrange))
	assert.Equal(t, 0, reg.ColorsAllocated(registry.SideBlue))
}

func TestPaletteDistinctThenWraps(t *testing.T) {
	reg := registry.New()

	colors := make([]registry.Color, 0, 5)
	for id := replay.ActorID(1); id <= 5; id++ {
		reg.InsertIfAbsent(id, registry.NewPlayer())
		reg.AssignTeam(id, registry.SideBlue)
		p, ok := reg.Player(id)
		require.True(t, ok)
		colors = append(colors, p.Color)
	}

	// First four are distinct.
	seen := make(map[registry.Color]bool)
	for _, c := range colors[:4] {
		assert.False(t, seen[c])
		seen[c] = true
	}
	// Fifth wraps around to the first slot.
	assert.Equal(t, colors[0], colors[4])
	assert.Equal(t, 5, reg.ColorsAllocated(registry.SideBlue))
}

func TestSidesAllocateIndependently(t *testing.T) {
	reg := registry.New()
	reg.InsertIfAbsent(1, registry.NewPlayer())
	reg.InsertIfAbsent(2, registry.NewPlayer())

	reg.AssignTeam(1, registry.SideOrange)
	reg.AssignTeam(2, registry.SideBlue)

	p1, _ := reg.Player(1)
	p2, _ := reg.Player(2)
	assert.NotEqual(t, p1.Color, p2.Color)
	assert.Equal(t, 1, reg.ColorsAllocated(registry.SideOrange))
	assert.Equal(t, 1, reg.ColorsAllocated(registry.SideBlue))
}

func TestBallFirstObservationWins(t *testing.T) {
	reg := registry.New()

	require.True(t, reg.SeedBall(10))
	id, ok := reg.BallID()
	require.True(t, ok)
	assert.Equal(t, replay.ActorID(10), id)

	// A creation under a different id is refused.
	assert.False(t, reg.SeedBall(11))
	id, _ = reg.BallID()
	assert.Equal(t, replay.ActorID(10), id)

	// Re-creation under the same id is fine (fresh entity, same slot).
	assert.True(t, reg.SeedBall(10))
	_, ok = reg.Ball()
	assert.True(t, ok)
}

func TestLinkCarReplacesBothEnds(t *testing.T) {
	reg := registry.New()
	reg.InsertIfAbsent(1, registry.NewPlayer())
	reg.InsertIfAbsent(2, registry.NewPlayer())
	reg.InsertIfAbsent(5, &registry.Car{})
	reg.InsertIfAbsent(6, &registry.Car{})

	reg.LinkCar(1, 5)
	p1, _ := reg.Player(1)
	assert.True(t, p1.HasCar)
	assert.Equal(t, replay.ActorID(5), p1.CarID)

	// Player 1 respawns into car 6; then player 2 takes car 6 over.
	reg.LinkCar(1, 6)
	assert.Equal(t, replay.ActorID(6), p1.CarID)

	reg.LinkCar(2, 6)
	p2, _ := reg.Player(2)
	assert.True(t, p2.HasCar)
	assert.False(t, p1.HasCar)
}

func TestDeletePlayerCascadesToCar(t *testing.T) {
	reg := registry.New()
	reg.InsertIfAbsent(2, registry.NewPlayer())
	reg.InsertIfAbsent(5, &registry.Car{})
	reg.LinkCar(2, 5)

	_, ok := reg.Delete(2)
	require.True(t, ok)

	_, ok = reg.Get(2)
	assert.False(t, ok)
	_, ok = reg.Get(5)
	assert.False(t, ok, "linked car should be removed with its player")
	assert.Equal(t, 0, reg.Len())
}

func TestDeleteCarClearsOwnerLink(t *testing.T) {
	reg := registry.New()
	reg.InsertIfAbsent(2, registry.NewPlayer())
	reg.InsertIfAbsent(5, &registry.Car{})
	reg.LinkCar(2, 5)

	_, ok := reg.Delete(5)
	require.True(t, ok)

	p, ok := reg.Player(2)
	require.True(t, ok, "owning player survives car deletion")
	assert.False(t, p.HasCar)
}

func TestRemoveCarIgnoresNonCars(t *testing.T) {
	reg := registry.New()
	reg.InsertIfAbsent(2, registry.NewPlayer())

	assert.False(t, reg.RemoveCar(2), "a player id is not removable as a car")
	assert.False(t, reg.RemoveCar(99))
	_, ok := reg.Player(2)
	assert.True(t, ok)
}

func TestDeleteUnknownIsNoOp(t *testing.T) {
	reg := registry.New()
	_, ok := reg.Delete(42)
	assert.False(t, ok)
}

func TestCloneIsDeep(t *testing.T) {
	reg := registry.New()
	reg.InsertIfAbsent(1, registry.NewPlayer())
	reg.InsertIfAbsent(5, &registry.Car{Body: &replay.RigidBody{Location: replay.Vector3{X: 1}}})
	reg.LinkCar(1, 5)
	reg.AssignTeam(1, registry.SideOrange)

	cp := reg.Clone()

	// Mutate the original; the clone must not move.
	car, _ := reg.Car(5)
	car.Body.Location.X = 99
	p, _ := reg.Player(1)
	p.Name = "changed"

	clonedCar, ok := cp.Car(5)
	require.True(t, ok)
	assert.Equal(t, 1.0, clonedCar.Body.Location.X)

	clonedPlayer, ok := cp.Player(1)
	require.True(t, ok)
	assert.Equal(t, "Unknown", clonedPlayer.Name)
	assert.Equal(t, 1, cp.ColorsAllocated(registry.SideOrange))
}

func TestRestoreKeepsPointerIdentity(t *testing.T) {
	reg := registry.New()
	reg.InsertIfAbsent(1, registry.NewPlayer())
	snapshot := reg.Clone()

	reg.InsertIfAbsent(2, registry.NewPlayer())
	reg.Delete(1)

	// Consumers hold reg itself; Restore must rewrite it in place.
	same := reg
	reg.Restore(snapshot)

	assert.Equal(t, 1, same.Len())
	_, ok := same.Player(1)
	assert.True(t, ok)
	_, ok = same.Player(2)
	assert.False(t, ok)
}

func TestResetClearsAllocationState(t *testing.T) {
	reg := registry.New()
	reg.InsertIfAbsent(1, registry.NewPlayer())
	reg.AssignTeam(1, registry.SideOrange)
	reg.SeedBall(9)

	reg.Reset()

	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 0, reg.ColorsAllocated(registry.SideOrange))
	_, ok := reg.BallID()
	assert.False(t, ok)
}

func TestKindStrings(t *testing.T) {
	assert.Equal(t, "player", registry.KindPlayer.String())
	assert.Equal(t, "car", registry.KindCar.String())
	assert.Equal(t, "team", registry.KindTeam.String())
	assert.Equal(t, "ball", registry.KindBall.String())
}
