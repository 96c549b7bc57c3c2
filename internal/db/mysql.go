package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// mysqlDriver manages one connection pool to MySQL
type mysqlDriver struct {
	dsn           string
	db            *sql.DB
	lastConnected time.Time
}

func (d *mysqlDriver) Connect(ctx context.Context) error {
	db, err := sql.Open("mysql", d.dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Transactions are driven with raw BEGIN/COMMIT statements, which
	// are per-session; cap the pool at one connection so every
	// statement of a batch lands on the same session.
	db.SetMaxOpenConns(1)

	d.db = db
	d.lastConnected = time.Now()
	return nil
}

func (d *mysqlDriver) Disconnect(_ context.Context) error {
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

func (d *mysqlDriver) IsConnected() bool {
	if d.db == nil {
		return false
	}
	// The liveness check runs under the cache mutex; a bounded
	// deadline keeps a hung server from stalling other connections.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return d.db.PingContext(ctx) == nil
}

func (d *mysqlDriver) Exec(ctx context.Context, query string) (int64, error) {
	if d.db == nil {
		return 0, fmt.Errorf("not connected")
	}
	res, err := d.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		// Some statements legitimately report no affected-row count.
		return 0, nil
	}
	return rows, nil
}

func (d *mysqlDriver) Query(ctx context.Context, query string, args ...any) (*Rows, error) {
	if d.db == nil {
		return nil, fmt.Errorf("not connected")
	}
	return scanRows(ctx, d.db, query, args...)
}

func (d *mysqlDriver) Status() Status {
	return Status{Connected: d.IsConnected(), LastConnected: d.lastConnected}
}

// scanRows materializes a database/sql result, shared by the MySQL and
// SQLite drivers.
func scanRows(ctx context.Context, db *sql.DB, query string, args ...any) (*Rows, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &Rows{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		// database/sql scans text as []byte; normalize to string
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Values = append(result.Values, values)
	}
	return result, rows.Err()
}
