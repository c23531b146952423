// Package config loads dbmaint settings from the environment.
//
// Values come from process environment variables, optionally seeded from
// dotenv files. Variables already set in the environment win over dotenv files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/maloquacious/dbmaint/internal/store"
)

// Config holds all configuration for dbmaint.
type Config struct {
	Database    DatabaseConfig
	Log         LogConfig
	Maintenance MaintenanceConfig
}

// DatabaseConfig holds the backing store connection settings.
type DatabaseConfig struct {
	URL       string `env:"DATABASE_URL" env-required:"true" env-description:"database URL or SQLite file path"`
	AuthToken string `env:"DATABASE_AUTH_TOKEN" env-description:"auth token for remote stores"` // Secret - never logged
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `env:"LOG_LEVEL" env-default:"info" env-description:"debug, info, warn or error"`
}

// MaintenanceConfig holds table maintenance settings.
type MaintenanceConfig struct {
	// InterruptTimeout bounds how long an interrupt waits for an in-flight destructive phase.
	InterruptTimeout time.Duration `env:"DBMAINT_INTERRUPT_TIMEOUT" env-default:"5s"`
}

// Load reads dotenv files (missing files are skipped) and then the environment.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if f == "" {
			continue
		}
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	c.Database.URL = strings.TrimSpace(c.Database.URL)
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if _, local := store.LocalPath(c.Database.URL); !local && !store.IsRemoteURL(c.Database.URL) {
		return fmt.Errorf("DATABASE_URL %s is neither a SQLite file nor a libsql URL", c.Database.Redacted())
	}
	if c.Maintenance.InterruptTimeout <= 0 {
		return fmt.Errorf("DBMAINT_INTERRUPT_TIMEOUT must be positive, got %s", c.Maintenance.InterruptTimeout)
	}
	return nil
}

// Redacted returns the URL with credentials and query parameters removed.
func (c *DatabaseConfig) Redacted() string {
	return store.RedactURL(c.URL)
}

// Usage returns a description of the supported environment variables.
func Usage() string {
	text, err := cleanenv.GetDescription(&Config{}, nil)
	if err != nil {
		return ""
	}
	return text
}
