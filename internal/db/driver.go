package db

import (
	"context"
	"fmt"
	"time"

	"github.com/tordrt/schemaforge/internal/schema"
)

// pingTimeout bounds liveness checks, which run while the connection
// cache holds its lock.
const pingTimeout = 2 * time.Second

// Status describes a driver's connection state
type Status struct {
	Connected     bool      `json:"connected"`
	LastConnected time.Time `json:"lastConnected,omitempty"`
}

// Rows is a minimal materialized query result, enough for catalog reads
type Rows struct {
	Columns []string
	Values  [][]any
}

// RowCount returns the number of result rows
func (r *Rows) RowCount() int { return len(r.Values) }

// Driver is the per-connection capability the coordinator executes
// against. Implementations must be safe to reconnect after a failed or
// closed connection.
type Driver interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool
	// Exec runs a statement and returns the affected row count
	Exec(ctx context.Context, sql string) (int64, error)
	// Query runs a statement and materializes the result rows
	Query(ctx context.Context, sql string, args ...any) (*Rows, error)
	Status() Status
}

// New builds an unconnected driver for the config. Unknown types fail
// fast before any connection attempt.
func New(cfg Config) (Driver, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	switch cfg.Type {
	case schema.Postgres:
		return &postgresDriver{dsn: dsn}, nil
	case schema.MySQL:
		return &mysqlDriver{dsn: dsn}, nil
	case schema.SQLite:
		return &sqliteDriver{path: dsn}, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %q", cfg.Type)
	}
}
