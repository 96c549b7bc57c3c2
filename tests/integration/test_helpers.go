//go:build integration
// +build integration

package integration

import (
	"context"
	"testing"

	"github.com/tordrt/schemaforge"
	"github.com/tordrt/schemaforge/internal/db"
)

// requireSuccess fails the test when a result carries an error
func requireSuccess(t *testing.T, result schemaforge.DDLResult) {
	t.Helper()
	if !result.Success {
		t.Fatalf("Expected success, got: %s (sql: %s)", result.Error, result.SQL)
	}
}

// requireAllSuccess fails the test when any result in the batch failed
func requireAllSuccess(t *testing.T, results []schemaforge.DDLResult) {
	t.Helper()
	for i, r := range results {
		if !r.Success {
			t.Fatalf("Expected result %d to succeed, got: %s", i+1, r.Error)
		}
	}
}

// scalarCount runs a COUNT(*) query through a raw driver and returns
// the result as an int
func scalarCount(t *testing.T, ctx context.Context, cfg db.Config, sql string) int {
	t.Helper()

	drv, err := db.New(cfg)
	if err != nil {
		t.Fatalf("Failed to build driver: %v", err)
	}
	if err := drv.Connect(ctx); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer drv.Disconnect(ctx)

	rows, err := drv.Query(ctx, sql)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if rows.RowCount() == 0 || len(rows.Values[0]) == 0 {
		t.Fatalf("Expected a scalar result from %q", sql)
	}

	switch v := rows.Values[0][0].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case string:
		n := 0
		for _, c := range v {
			if c < '0' || c > '9' {
				t.Fatalf("Unexpected count value %q", v)
			}
			n = n*10 + int(c-'0')
		}
		return n
	default:
		t.Fatalf("Unexpected count type %T", v)
		return 0
	}
}
