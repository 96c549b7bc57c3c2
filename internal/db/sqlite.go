package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteDriver manages one connection to a SQLite database file
type sqliteDriver struct {
	path          string
	db            *sql.DB
	lastConnected time.Time
}

func (d *sqliteDriver) Connect(ctx context.Context) error {
	db, err := sql.Open("sqlite3", d.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// DDL on SQLite needs a single writer; cap the pool at one
	// connection so transactions see their own statements.
	db.SetMaxOpenConns(1)

	d.db = db
	d.lastConnected = time.Now()
	return nil
}

func (d *sqliteDriver) Disconnect(_ context.Context) error {
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

func (d *sqliteDriver) IsConnected() bool {
	if d.db == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return d.db.PingContext(ctx) == nil
}

func (d *sqliteDriver) Exec(ctx context.Context, query string) (int64, error) {
	if d.db == nil {
		return 0, fmt.Errorf("not connected")
	}
	res, err := d.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return rows, nil
}

func (d *sqliteDriver) Query(ctx context.Context, query string, args ...any) (*Rows, error) {
	if d.db == nil {
		return nil, fmt.Errorf("not connected")
	}
	return scanRows(ctx, d.db, query, args...)
}

func (d *sqliteDriver) Status() Status {
	return Status{Connected: d.IsConnected(), LastConnected: d.lastConnected}
}
