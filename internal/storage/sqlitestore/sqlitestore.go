// Package sqlitestore implements the storage.Backend interface on a local
// SQLite file. It wraps the GORM backend via composition; the only
// SQLite-specific concerns are opening the file and the write PRAGMAs.
package sqlitestore

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/loganintech/rl-replay-zone-visualizer/internal/logging"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/storage/gormstore"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	Path string
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstore.Backend
	db *gorm.DB
}

// New opens the SQLite database and creates the backend.
func New(cfg Config, logManager *logging.SlogManager) (*Backend, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB at %s: %w", cfg.Path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA temp_store = MEMORY;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	return &Backend{
		Backend: gormstore.New(gormstore.Dependencies{DB: db, Log: logManager}),
		db:      db,
	}, nil
}
