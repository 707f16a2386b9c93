// Package config loads the sqr1 settings from a YAML file and SQR1_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matt-steen/sqr1/pkg/kv"
	"github.com/rs/zerolog"
)

// Config is the complete sqr1 configuration.
type Config struct {
	Storage kv.Config    `koanf:"storage"`
	Log     LogConfig    `koanf:"log"`
	Server  ServerConfig `koanf:"server"`
}

// LogConfig controls the global zerolog logger.
type LogConfig struct {
	Level   string `koanf:"level"`
	File    string `koanf:"file"`
	Console bool   `koanf:"console"`
}

// ServerConfig controls the HTTP server started by "sqr1 serve".
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// Default returns the settings used for anything the file and environment leave out.
func Default() Config {
	return Config{
		Storage: kv.Config{
			Driver:      kv.DriverSQLite,
			SQLitePath:  DefaultSQLitePath(),
			RedisPrefix: "sqr1:",
			MaxRetries:  kv.DefaultMaxRetries,
		},
		Log: LogConfig{
			Level:   zerolog.InfoLevel.String(),
			Console: true,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// DefaultSQLitePath is $XDG_DATA_HOME/sqr1/sqr1.db, falling back to ~/.local/share.
func DefaultSQLitePath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "sqr1.db"
		}

		dataDir = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataDir, "sqr1", "sqr1.db")
}

// Validate checks that the selected backend has what it needs and that the log level parses.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case kv.DriverMemory:
	case kv.DriverSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("storage.sqlite_path is required for the sqlite driver"))
		}
	case kv.DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for the postgres driver"))
		}
	case kv.DriverRedis:
		if c.Storage.RedisURL == "" {
			errs = append(errs, errors.New("storage.redis_url is required for the redis driver"))
		}
	case kv.DriverS3:
		if c.Storage.S3Bucket == "" {
			errs = append(errs, errors.New("storage.s3_bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}

	if c.Storage.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("storage.max_retries must not be negative, got %d", c.Storage.MaxRetries))
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}

// LogLevel returns the parsed log level, or info when it does not parse.
func (c *Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		return zerolog.InfoLevel
	}

	return level
}
