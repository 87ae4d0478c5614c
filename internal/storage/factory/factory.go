// Package factory selects a storage backend from configuration.
package factory

import (
	"fmt"

	"github.com/loganintech/rl-replay-zone-visualizer/internal/config"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/logging"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/storage"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/storage/memory"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/storage/postgresstore"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/storage/sqlitestore"
)

// NewBackend creates a storage backend based on storage.type.
func NewBackend(logManager *logging.SlogManager) (storage.Backend, error) {
	switch t := config.GetString("storage.type"); t {
	case "postgres":
		return postgresstore.New(postgresstore.Config{
			Host:     config.GetString("storage.postgres.host"),
			Port:     config.GetString("storage.postgres.port"),
			Username: config.GetString("storage.postgres.username"),
			Password: config.GetString("storage.postgres.password"),
			Database: config.GetString("storage.postgres.database"),
		}, logManager)
	case "sqlite":
		return sqlitestore.New(sqlitestore.Config{
			Path: config.GetString("storage.sqlite.path"),
		}, logManager)
	case "memory":
		return memory.New(config.Memory()), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", t)
	}
}
