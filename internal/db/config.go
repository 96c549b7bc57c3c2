// Package db owns the per-engine database drivers and the shared
// connection cache. Drivers are selected purely by the connection
// config's Type field; an unrecognized type fails fast before any
// connection attempt.
package db

import (
	"fmt"
	"strings"

	"github.com/tordrt/schemaforge/internal/schema"
)

// Config identifies one database connection
type Config struct {
	Name     string         `json:"name,omitempty"`
	Type     schema.Dialect `json:"type"`
	Host     string         `json:"host,omitempty"`
	Port     int            `json:"port,omitempty"`
	User     string         `json:"user,omitempty"`
	Password string         `json:"password,omitempty"`
	Database string         `json:"database,omitempty"`
	FilePath string         `json:"filePath,omitempty"` // SQLite only
	URL      string         `json:"url,omitempty"`      // raw DSN, overrides the field-built one
}

// Key returns the cache identity for this connection
func (c Config) Key() string {
	if c.Name != "" {
		return c.Name
	}
	if c.URL != "" {
		return fmt.Sprintf("%s:%s", c.Type, c.URL)
	}
	if c.Type == schema.SQLite {
		return fmt.Sprintf("%s:%s", c.Type, c.FilePath)
	}
	return fmt.Sprintf("%s:%s@%s:%d/%s", c.Type, c.User, c.Host, c.Port, c.Database)
}

// DSN builds the driver connection string for the config's dialect
func (c Config) DSN() (string, error) {
	if c.URL != "" {
		return c.URL, nil
	}
	switch c.Type {
	case schema.Postgres:
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, c.Database), nil
	case schema.MySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", c.User, c.Password, c.Host, c.Port, c.Database), nil
	case schema.SQLite:
		if c.FilePath == "" {
			return "", fmt.Errorf("SQLite connection requires a file path")
		}
		return c.FilePath, nil
	default:
		return "", fmt.Errorf("unsupported database type: %q", c.Type)
	}
}

// ParseURL detects the database type from a connection URL and returns
// a config carrying the raw DSN. Supported schemes: postgres://,
// postgresql://, mysql://, sqlite://.
func ParseURL(url string) (Config, error) {
	if url == "" {
		return Config{}, fmt.Errorf("database URL is required")
	}

	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return Config{Type: schema.Postgres, URL: url}, nil
	}

	if strings.HasPrefix(url, "mysql://") {
		// Strip mysql:// prefix for the Go MySQL driver
		return Config{Type: schema.MySQL, URL: strings.TrimPrefix(url, "mysql://")}, nil
	}

	if strings.HasPrefix(url, "sqlite://") {
		path := strings.TrimPrefix(url, "sqlite://")
		return Config{Type: schema.SQLite, FilePath: path, URL: path}, nil
	}

	return Config{}, fmt.Errorf("invalid database URL scheme (must start with postgres://, mysql://, or sqlite://)")
}
