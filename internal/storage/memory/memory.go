// Package memory buffers every published snapshot in memory and writes a
// single JSON export when the replay ends.
package memory

import (
	"sync"

	"github.com/loganintech/rl-replay-zone-visualizer/internal/config"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/storage"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/trail"
)

// Backend stores playback data in memory and exports to JSON.
type Backend struct {
	cfg    config.MemoryConfig
	meta   storage.ReplayMeta
	ticks  []storage.Tick
	trails *trail.Builder

	recorded uint
	lastPath string
	mu       sync.RWMutex
}

// New creates a new memory backend.
func New(cfg config.MemoryConfig) *Backend {
	if cfg.SnapshotEvery < 1 {
		cfg.SnapshotEvery = 1
	}
	return &Backend{
		cfg:    cfg,
		trails: trail.NewBuilder(),
	}
}

// Init initializes the backend.
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources.
func (b *Backend) Close() error {
	return nil
}

// StartReplay begins recording a new playback session.
func (b *Backend) StartReplay(meta storage.ReplayMeta) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.meta = meta
	b.ticks = nil
	b.trails.Reset()
	b.recorded = 0

	return nil
}

// EndReplay finalizes and exports the recorded session.
func (b *Backend) EndReplay() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.exportJSON()
}

// RecordSnapshot buffers one tick. Ticks between SnapshotEvery
// boundaries are dropped but still feed the trail builder, so the
// exported trails keep full resolution.
func (b *Backend) RecordSnapshot(t storage.Tick) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cfg.IncludeTrails {
		b.trails.Observe(t.Objects)
	}

	b.recorded++
	if (b.recorded-1)%uint(b.cfg.SnapshotEvery) != 0 {
		return nil
	}

	b.ticks = append(b.ticks, t)
	return nil
}

// LastExportPath returns the path of the most recent export, or "" if
// nothing has been exported yet.
func (b *Backend) LastExportPath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastPath
}

// TickCount returns the number of buffered ticks.
func (b *Backend) TickCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.ticks)
}
