// Package postgresstore implements the storage.Backend interface on
// GORM/PostgreSQL. It wraps the GORM backend via composition and only
// owns the connection.
package postgresstore

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/loganintech/rl-replay-zone-visualizer/internal/logging"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/storage/gormstore"
)

// Config holds the Postgres connection settings.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// Backend wraps the GORM backend for Postgres-specific behavior.
type Backend struct {
	*gormstore.Backend
	db *gorm.DB
}

// New connects to Postgres and creates the backend.
func New(cfg Config, logManager *logging.SlogManager) (*Backend, error) {
	dsn := fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        10000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)

	return &Backend{
		Backend: gormstore.New(gormstore.Dependencies{DB: db, Log: logManager}),
		db:      db,
	}, nil
}
