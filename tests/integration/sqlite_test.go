//go:build integration
// +build integration

package integration

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tordrt/schemaforge"
	"github.com/tordrt/schemaforge/internal/db"
	"github.com/tordrt/schemaforge/internal/schema"
)

func newSQLiteEngine(t *testing.T) (*schemaforge.Engine, db.Config) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	engine, err := schemaforge.New("sqlite://"+path, nil)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	t.Cleanup(func() { engine.Close(context.Background()) })

	return engine, db.Config{Type: schema.SQLite, FilePath: path}
}

func TestSQLiteCreateTableAndIndex(t *testing.T) {
	ctx := context.Background()
	engine, cfg := newSQLiteEngine(t)

	def := &schemaforge.TableDefinition{
		Name: "users",
		Columns: []schemaforge.ColumnDefinition{
			{Name: "id", Type: "INTEGER", PrimaryKey: true},
			{Name: "email", Type: "TEXT"},
			{Name: "status", Type: "TEXT", Nullable: true, Default: schema.String("active")},
		},
	}
	result, err := engine.CreateTable(ctx, def)
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	requireSuccess(t, result)

	count := scalarCount(t, ctx, cfg,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='users'")
	if count != 1 {
		t.Errorf("Expected users table in sqlite_master, got %d entries", count)
	}

	// Index creation with no supplied context forces live inspection
	idx := &schemaforge.IndexDefinition{
		Name: "idx_users_email", Table: "users", Columns: []string{"email"},
	}
	result, err = engine.CreateIndex(ctx, idx, nil)
	if err != nil {
		t.Fatalf("CreateIndex failed: %v", err)
	}
	requireSuccess(t, result)

	count = scalarCount(t, ctx, cfg,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_users_email'")
	if count != 1 {
		t.Errorf("Expected idx_users_email in sqlite_master, got %d entries", count)
	}
}

func TestSQLiteIndexOnMissingColumnRejected(t *testing.T) {
	ctx := context.Background()
	engine, _ := newSQLiteEngine(t)

	result, err := engine.CreateTable(ctx, &schemaforge.TableDefinition{
		Name: "users",
		Columns: []schemaforge.ColumnDefinition{
			{Name: "id", Type: "INTEGER", PrimaryKey: true},
		},
	})
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	requireSuccess(t, result)

	idx := &schemaforge.IndexDefinition{
		Name: "idx_users_phone", Table: "users", Columns: []string{"phone"},
	}
	result, err = engine.CreateIndex(ctx, idx, nil)
	if err != nil {
		t.Fatalf("CreateIndex returned an unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("Expected index on a missing column to be rejected")
	}
	if result.SQL != "" {
		t.Errorf("Expected no SQL on validation failure, got %q", result.SQL)
	}
}

func TestSQLiteTransactionRollback(t *testing.T) {
	ctx := context.Background()
	engine, cfg := newSQLiteEngine(t)

	result, err := engine.CreateTable(ctx, &schemaforge.TableDefinition{
		Name: "a",
		Columns: []schemaforge.ColumnDefinition{
			{Name: "id", Type: "INTEGER", PrimaryKey: true},
		},
	})
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	requireSuccess(t, result)

	statements := []string{
		`CREATE TABLE "b" ("id" INTEGER NOT NULL)`,
		`CREATE TABLE "a" ("id" INTEGER NOT NULL)`, // already exists
		`CREATE TABLE "c" ("id" INTEGER NOT NULL)`,
	}
	results, err := engine.ExecuteTransaction(ctx, statements)
	if err != nil {
		t.Fatalf("ExecuteTransaction failed: %v", err)
	}

	if len(results) != len(statements) {
		t.Fatalf("Expected %d results, got %d", len(statements), len(results))
	}
	if !results[0].Success {
		t.Errorf("Expected first statement to succeed before rollback: %s", results[0].Error)
	}
	if results[1].Success || results[2].Success {
		t.Error("Expected failing statement and its successors to be marked failed")
	}

	// The rollback must undo the first statement too
	count := scalarCount(t, ctx, cfg,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('b', 'c')")
	if count != 0 {
		t.Errorf("Expected rolled-back tables to be absent, found %d", count)
	}
}

func TestSQLiteModifyColumnRequiresRecreation(t *testing.T) {
	ctx := context.Background()
	engine, _ := newSQLiteEngine(t)

	result, err := engine.CreateTable(ctx, &schemaforge.TableDefinition{
		Name: "users",
		Columns: []schemaforge.ColumnDefinition{
			{Name: "id", Type: "INTEGER", PrimaryKey: true},
			{Name: "email", Type: "TEXT"},
		},
	})
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	requireSuccess(t, result)

	col := &schemaforge.ColumnDefinition{Name: "email", Type: "VARCHAR", Length: 320}
	_, err = engine.ModifyColumn(ctx, "users", col)
	if !errors.Is(err, schemaforge.ErrTableRecreationRequired) {
		t.Errorf("Expected ErrTableRecreationRequired, got %v", err)
	}
}

func TestSQLiteOptimizeTableIndexes(t *testing.T) {
	ctx := context.Background()
	engine, _ := newSQLiteEngine(t)

	result, err := engine.CreateTable(ctx, &schemaforge.TableDefinition{
		Name: "orders",
		Columns: []schemaforge.ColumnDefinition{
			{Name: "id", Type: "INTEGER", PrimaryKey: true},
			{Name: "user_id", Type: "INTEGER"},
			{Name: "status", Type: "TEXT", Nullable: true},
		},
	})
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	requireSuccess(t, result)

	ops := []schemaforge.IndexOperation{
		{
			Action: schemaforge.IndexCreate,
			Index: &schemaforge.IndexDefinition{
				Name: "idx_orders_user", Table: "orders", Columns: []string{"user_id"},
			},
		},
		{
			Action: schemaforge.IndexCreate,
			Index: &schemaforge.IndexDefinition{
				Name: "idx_orders_user_status", Table: "orders", Columns: []string{"user_id", "status"},
			},
		},
	}
	results, err := engine.BatchIndexOperations(ctx, ops, nil)
	if err != nil {
		t.Fatalf("BatchIndexOperations failed: %v", err)
	}
	requireAllSuccess(t, results)

	plan, err := engine.OptimizeTableIndexes(ctx, "orders")
	if err != nil {
		t.Fatalf("OptimizeTableIndexes failed: %v", err)
	}

	if plan.Report.Analysis.IndexCount != 2 {
		t.Errorf("Expected 2 live indexes in the report, got %d", plan.Report.Analysis.IndexCount)
	}

	foundDrop := false
	for _, op := range plan.Operations {
		if op.Action == schemaforge.IndexDrop && op.Name == "idx_orders_user" {
			foundDrop = true
		}
		// The primary key already indexes id; proposing idx_orders_id
		// would duplicate it.
		if op.Action == schemaforge.IndexCreate && len(op.Index.Columns) > 0 && op.Index.Columns[0] == "id" {
			t.Errorf("Plan proposes indexing the primary key column: %+v", op)
		}
	}
	if !foundDrop {
		t.Error("Expected a drop operation for the redundant prefix index")
	}
}

func TestSQLiteRebuildIndex(t *testing.T) {
	ctx := context.Background()
	engine, cfg := newSQLiteEngine(t)

	result, err := engine.CreateTable(ctx, &schemaforge.TableDefinition{
		Name: "events",
		Columns: []schemaforge.ColumnDefinition{
			{Name: "id", Type: "INTEGER", PrimaryKey: true},
			{Name: "kind", Type: "TEXT"},
		},
	})
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	requireSuccess(t, result)

	idx := &schemaforge.IndexDefinition{
		Name: "idx_events_kind", Table: "events", Columns: []string{"kind"},
	}
	// First rebuild creates from scratch thanks to IF EXISTS on the drop
	results, err := engine.RebuildIndex(ctx, idx, nil)
	if err != nil {
		t.Fatalf("RebuildIndex failed: %v", err)
	}
	requireAllSuccess(t, results)

	// Second rebuild drops and recreates
	results, err = engine.RebuildIndex(ctx, idx, nil)
	if err != nil {
		t.Fatalf("Second RebuildIndex failed: %v", err)
	}
	requireAllSuccess(t, results)

	count := scalarCount(t, ctx, cfg,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_events_kind'")
	if count != 1 {
		t.Errorf("Expected exactly one idx_events_kind, got %d", count)
	}
}
