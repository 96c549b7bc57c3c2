// Package config loads engine settings from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig `envPrefix:"SCHEMAFORGE_"`
	Logging  LoggingConfig  `envPrefix:"SCHEMAFORGE_"`
}

// DatabaseConfig represents connection and execution settings
type DatabaseConfig struct {
	URL              string `env:"DB_URL"`
	DefaultDialect   string `env:"DEFAULT_DIALECT"   envDefault:"postgres"`
	StatementTimeout string `env:"STATEMENT_TIMEOUT" envDefault:"30s"`
}

// LoggingConfig represents logging settings
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"` // text, json
}

// Load parses configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment configuration: %w", err)
	}
	if _, err := cfg.Timeout(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Timeout returns the parsed statement timeout
func (c *Config) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Database.StatementTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid statement timeout %q: %w", c.Database.StatementTimeout, err)
	}
	return d, nil
}
