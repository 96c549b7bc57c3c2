package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// postgresDriver manages one connection to PostgreSQL
type postgresDriver struct {
	dsn           string
	conn          *pgx.Conn
	lastConnected time.Time
}

func (d *postgresDriver) Connect(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, d.dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return fmt.Errorf("failed to ping database: %w", err)
	}

	d.conn = conn
	d.lastConnected = time.Now()
	return nil
}

func (d *postgresDriver) Disconnect(ctx context.Context) error {
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close(ctx)
	d.conn = nil
	return err
}

func (d *postgresDriver) IsConnected() bool {
	return d.conn != nil && !d.conn.IsClosed()
}

func (d *postgresDriver) Exec(ctx context.Context, sql string) (int64, error) {
	if d.conn == nil {
		return 0, fmt.Errorf("not connected")
	}
	tag, err := d.conn.Exec(ctx, sql)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (d *postgresDriver) Query(ctx context.Context, sql string, args ...any) (*Rows, error) {
	if d.conn == nil {
		return nil, fmt.Errorf("not connected")
	}
	rows, err := d.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := &Rows{}
	for _, fd := range rows.FieldDescriptions() {
		result.Columns = append(result.Columns, fd.Name)
	}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		result.Values = append(result.Values, values)
	}
	return result, rows.Err()
}

func (d *postgresDriver) Status() Status {
	return Status{Connected: d.IsConnected(), LastConnected: d.lastConnected}
}
