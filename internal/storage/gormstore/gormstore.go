// Package gormstore implements the storage.Backend interface on top of a
// GORM database handle. SQLite and Postgres backends embed it and only
// provide the connection.
package gormstore

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/loganintech/rl-replay-zone-visualizer/internal/logging"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/storage"
)

// Session is one recorded playback run.
type Session struct {
	ID          uint      `gorm:"primarykey"`
	Source      string    `gorm:"size:255"`
	TotalFrames int       ``
	LoadedAt    time.Time ``
	EndedAt     *time.Time
}

// Snapshot is one recorded tick. Objects holds the drawable entities as
// a JSON array so viewers can query positions without a join.
type Snapshot struct {
	ID        uint           `gorm:"primarykey"`
	SessionID uint           `gorm:"index"`
	Frame     int            ``
	Total     int            ``
	Time      float64        ``
	Objects   datatypes.JSON ``
}

// Models lists every table the backend migrates.
var Models = []any{
	&Session{},
	&Snapshot{},
}

const batchSize = 500

// Dependencies holds everything the GORM backend needs.
type Dependencies struct {
	DB  *gorm.DB
	Log *logging.SlogManager
}

// Backend implements storage.Backend with batched inserts.
type Backend struct {
	deps      Dependencies
	session   Session
	pending   []Snapshot
	sessionOK bool
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	return &Backend{deps: deps}
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return fmt.Errorf("gormstore: no database handle")
	}
	if err := b.deps.DB.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close flushes pending rows.
func (b *Backend) Close() error {
	return b.flush()
}

// StartReplay inserts the session row.
func (b *Backend) StartReplay(meta storage.ReplayMeta) error {
	b.session = Session{
		Source:      meta.Source,
		TotalFrames: meta.TotalFrames,
		LoadedAt:    meta.LoadedAt,
	}
	if err := b.deps.DB.Create(&b.session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.sessionOK = true
	return nil
}

// EndReplay flushes pending rows and stamps the session end time.
func (b *Backend) EndReplay() error {
	if err := b.flush(); err != nil {
		return err
	}
	if !b.sessionOK {
		return nil
	}
	now := time.Now()
	err := b.deps.DB.Model(&Session{}).
		Where("id = ?", b.session.ID).
		Update("ended_at", &now).Error
	b.sessionOK = false
	return err
}

// RecordSnapshot buffers one tick for batched insertion.
func (b *Backend) RecordSnapshot(t storage.Tick) error {
	if !b.sessionOK {
		return fmt.Errorf("gormstore: RecordSnapshot before StartReplay")
	}

	raw, err := json.Marshal(t.Objects)
	if err != nil {
		return fmt.Errorf("failed to marshal objects: %w", err)
	}

	b.pending = append(b.pending, Snapshot{
		SessionID: b.session.ID,
		Frame:     t.Frame,
		Total:     t.Total,
		Time:      t.Time,
		Objects:   datatypes.JSON(raw),
	})

	if len(b.pending) >= batchSize {
		return b.flush()
	}
	return nil
}

func (b *Backend) flush() error {
	if len(b.pending) == 0 {
		return nil
	}
	rows := b.pending
	b.pending = nil

	if err := b.deps.DB.CreateInBatches(rows, batchSize).Error; err != nil {
		if b.deps.Log != nil {
			b.deps.Log.Logger().Error("Failed to insert snapshot batch", "count", len(rows), "error", err)
		}
		return fmt.Errorf("failed to insert snapshot batch: %w", err)
	}
	return nil
}
