// Package config loads the viewer's JSON configuration via viper and
// exposes typed accessors for the handful of call sites that read it.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// MemoryConfig holds JSON export backend settings.
type MemoryConfig struct {
	OutputDir      string  `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool    `json:"compressOutput" mapstructure:"compressOutput"`
	TrailTolerance float64 `json:"trailTolerance" mapstructure:"trailTolerance"`
	IncludeTrails  bool    `json:"includeTrails" mapstructure:"includeTrails"`
	SnapshotEvery  int     `json:"snapshotEvery" mapstructure:"snapshotEvery"`
}

// Load reads configuration from a JSON file in configDir and sets default
// values. A missing config file is not an error; defaults apply.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("playback.ups", 120)
	viper.SetDefault("playback.fps", 60)
	viper.SetDefault("playback.seekStep", 150)
	viper.SetDefault("playback.checkpointInterval", 150)
	viper.SetDefault("playback.rateStep", 10)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", ".")
	viper.SetDefault("storage.memory.compressOutput", false)
	viper.SetDefault("storage.memory.includeTrails", true)
	viper.SetDefault("storage.memory.trailTolerance", 50.0)
	viper.SetDefault("storage.memory.snapshotEvery", 1)
	viper.SetDefault("storage.sqlite.path", "./replay.db")
	viper.SetDefault("storage.postgres.host", "localhost")
	viper.SetDefault("storage.postgres.port", "5432")
	viper.SetDefault("storage.postgres.username", "postgres")
	viper.SetDefault("storage.postgres.password", "postgres")
	viper.SetDefault("storage.postgres.database", "replayvis")

	viper.SetDefault("stream.enabled", false)
	viper.SetDefault("stream.url", "ws://localhost:5001/stream")
	viper.SetDefault("stream.secret", "")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "replayvis-metrics")
	viper.SetDefault("influx.bucket", "projector_performance")
	viper.SetDefault("influx.flushInterval", time.Second)

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", false)

	viper.SetConfigName("replayvis.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// Memory returns the JSON export backend settings.
func Memory() MemoryConfig {
	var cfg MemoryConfig
	if err := viper.UnmarshalKey("storage.memory", &cfg); err != nil {
		return MemoryConfig{OutputDir: "."}
	}
	return cfg
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
