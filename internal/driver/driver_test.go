package driver_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loganintech/rl-replay-zone-visualizer/internal/cursor"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/driver"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/projector"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/registry"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/replay"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/schema"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/storage"
)

// recordingBackend counts lifecycle calls and keeps the last tick.
type recordingBackend struct {
	mu       sync.Mutex
	ticks    int
	lastTick storage.Tick
}

func (b *recordingBackend) Init() error                          { return nil }
func (b *recordingBackend) Close() error                         { return nil }
func (b *recordingBackend) StartReplay(storage.ReplayMeta) error { return nil }
func (b *recordingBackend) EndReplay() error                     { return nil }

func (b *recordingBackend) RecordSnapshot(t storage.Tick) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ticks++
	b.lastTick = t
	return nil
}

func (b *recordingBackend) tickCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ticks
}

func testFrames(n int) []replay.Frame {
	frames := make([]replay.Frame, n)
	for i := range frames {
		frames[i] = replay.Frame{Time: float64(i) / 30.0}
	}
	return frames
}

func testDriver(n int, backends []storage.Backend) *driver.Driver {
	mapping := schema.Resolve(nil)
	cur := cursor.New(testFrames(n), projector.New(mapping, nil, nil), registry.New(), 10)
	return driver.New(driver.Config{UPS: 200, FPS: 100, SeekStep: 5, RateStep: 10}, cur, backends, nil, nil)
}

func runDriver(t *testing.T, d *driver.Driver) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = d.Run(ctx)
		close(done)
	}()
	return func() {
		stop()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("driver did not stop")
		}
	}
}

func TestStatusReportsPosition(t *testing.T) {
	d := testDriver(50, nil)
	cancel := runDriver(t, d)
	defer cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer ctxCancel()

	st, err := d.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, st.Total)
	assert.Equal(t, 200, st.UPS)
	assert.False(t, st.Paused)
}

func TestPublishReachesBackends(t *testing.T) {
	backend := &recordingBackend{}
	d := testDriver(50, []storage.Backend{backend})
	cancel := runDriver(t, d)

	require.Eventually(t, func() bool {
		return backend.tickCount() > 0
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, 50, backend.lastTick.Total)
}

func TestTogglePause(t *testing.T) {
	d := testDriver(1000, nil)
	cancel := runDriver(t, d)
	defer cancel()

	d.TogglePause()

	ctx, ctxCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer ctxCancel()
	st, err := d.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Paused)

	// While paused the frame index holds still.
	frame := st.Frame
	time.Sleep(50 * time.Millisecond)
	st, err = d.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, frame, st.Frame)
}

func TestSeekWhilePaused(t *testing.T) {
	d := testDriver(1000, nil)
	cancel := runDriver(t, d)
	defer cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer ctxCancel()

	d.TogglePause()
	before, err := d.Status(ctx)
	require.NoError(t, err)

	d.SeekForward()
	after, err := d.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Frame+5, after.Frame)

	d.SeekBackward()
	back, err := d.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Frame, back.Frame)
}

func TestAdjustRateClampsAtFloor(t *testing.T) {
	d := testDriver(1000, nil)
	cancel := runDriver(t, d)
	defer cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer ctxCancel()

	for i := 0; i < 30; i++ {
		d.Slower()
	}
	st, err := d.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, st.UPS, "rate bottoms out instead of stalling")

	d.Faster()
	st, err = d.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, st.UPS)
}
