// Package storage defines the sink interface the playback driver
// publishes snapshots to, and a factory selecting a backend from
// configuration.
package storage

import (
	"time"

	"github.com/loganintech/rl-replay-zone-visualizer/internal/snapshot"
)

// ReplayMeta describes the replay being played back.
type ReplayMeta struct {
	Source      string    `json:"source"`
	TotalFrames int       `json:"totalFrames"`
	LoadedAt    time.Time `json:"loadedAt"`
}

// Tick is one published snapshot.
type Tick struct {
	Frame   int               `json:"frame"`
	Total   int               `json:"total"`
	Time    float64           `json:"time"`
	Objects []snapshot.Object `json:"objects"`
}

// Backend is the interface all snapshot sinks must satisfy.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Replay session management
	StartReplay(meta ReplayMeta) error
	EndReplay() error

	// Snapshot recording, called once per render tick
	RecordSnapshot(t Tick) error
}
