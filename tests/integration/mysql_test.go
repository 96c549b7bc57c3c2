//go:build integration
// +build integration

package integration

import (
	"context"
	"os"
	"testing"

	"github.com/tordrt/schemaforge"
	"github.com/tordrt/schemaforge/internal/db"
)

func newMySQLEngine(t *testing.T) *schemaforge.Engine {
	t.Helper()

	url := os.Getenv("MYSQL_TEST_URL")
	if url == "" {
		t.Skip("MYSQL_TEST_URL not set")
	}

	engine, err := schemaforge.New(url, nil)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	t.Cleanup(func() { engine.Close(context.Background()) })
	return engine
}

func TestMySQLTableLifecycle(t *testing.T) {
	ctx := context.Background()
	engine := newMySQLEngine(t)

	if _, err := engine.DropTable(ctx, "sf_test_users", true); err != nil {
		t.Fatalf("DropTable failed: %v", err)
	}

	def := &schemaforge.TableDefinition{
		Name: "sf_test_users",
		Columns: []schemaforge.ColumnDefinition{
			{Name: "id", Type: "BIGINT", PrimaryKey: true, AutoIncrement: true},
			{Name: "email", Type: "VARCHAR", Length: 255},
			{Name: "active", Type: "BOOLEAN", Default: schemaforge.Bool(true)},
		},
	}
	result, err := engine.CreateTable(ctx, def)
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	requireSuccess(t, result)
	defer engine.DropTable(ctx, "sf_test_users", true)

	result, err = engine.ModifyColumn(ctx, "sf_test_users",
		&schemaforge.ColumnDefinition{Name: "email", Type: "VARCHAR", Length: 320})
	if err != nil {
		t.Fatalf("ModifyColumn failed: %v", err)
	}
	requireSuccess(t, result)

	result, err = engine.DropColumn(ctx, "sf_test_users", "active")
	if err != nil {
		t.Fatalf("DropColumn failed: %v", err)
	}
	requireSuccess(t, result)
}

func TestMySQLIndexLifecycle(t *testing.T) {
	ctx := context.Background()
	engine := newMySQLEngine(t)

	if _, err := engine.DropTable(ctx, "sf_test_orders", true); err != nil {
		t.Fatalf("DropTable failed: %v", err)
	}

	result, err := engine.CreateTable(ctx, &schemaforge.TableDefinition{
		Name: "sf_test_orders",
		Columns: []schemaforge.ColumnDefinition{
			{Name: "id", Type: "BIGINT", PrimaryKey: true},
			{Name: "user_id", Type: "BIGINT"},
		},
	})
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	requireSuccess(t, result)
	defer engine.DropTable(ctx, "sf_test_orders", true)

	idx := &schemaforge.IndexDefinition{
		Name: "idx_sf_test_orders_user", Table: "sf_test_orders", Columns: []string{"user_id"},
	}
	result, err = engine.CreateIndex(ctx, idx, nil)
	if err != nil {
		t.Fatalf("CreateIndex failed: %v", err)
	}
	requireSuccess(t, result)

	// MySQL DROP INDEX needs the owning table
	result, err = engine.DropIndex(ctx, "idx_sf_test_orders_user", "sf_test_orders", false)
	if err != nil {
		t.Fatalf("DropIndex failed: %v", err)
	}
	requireSuccess(t, result)
}

func TestMySQLTransactionRollback(t *testing.T) {
	ctx := context.Background()
	engine := newMySQLEngine(t)
	cfg, err := db.ParseURL(os.Getenv("MYSQL_TEST_URL"))
	if err != nil {
		t.Fatalf("Failed to parse URL: %v", err)
	}

	if _, err := engine.DropTable(ctx, "sf_test_tx", true); err != nil {
		t.Fatalf("DropTable failed: %v", err)
	}
	result, err := engine.CreateTable(ctx, &schemaforge.TableDefinition{
		Name: "sf_test_tx",
		Columns: []schemaforge.ColumnDefinition{
			{Name: "id", Type: "BIGINT", PrimaryKey: true},
		},
	})
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	requireSuccess(t, result)
	defer engine.DropTable(ctx, "sf_test_tx", true)

	// Row-level statements so the rollback is observable; MySQL DDL
	// commits implicitly. All statements must share one session for
	// the rollback to undo the insert.
	results, err := engine.ExecuteTransaction(ctx, []string{
		"INSERT INTO `sf_test_tx` (`id`) VALUES (1)",
		"INSERT INTO `sf_test_tx` (`id`) VALUES (1)", // duplicate key
	})
	if err != nil {
		t.Fatalf("ExecuteTransaction returned an unexpected error: %v", err)
	}
	if results[0].Success == false || results[1].Success {
		t.Fatalf("Expected first insert to succeed and second to fail: %+v", results)
	}

	count := scalarCount(t, ctx, cfg, "SELECT COUNT(*) FROM sf_test_tx")
	if count != 0 {
		t.Fatalf("Expected rollback to remove the inserted row, found %d", count)
	}
}

func TestMySQLPartialIndexRejected(t *testing.T) {
	ctx := context.Background()
	engine := newMySQLEngine(t)

	idx := &schemaforge.IndexDefinition{
		Name: "idx_partial", Table: "sf_test_orders",
		Columns: []string{"user_id"}, Where: "user_id > 0",
	}
	vctx := &schemaforge.ValidationContext{AvailableColumns: []string{"id", "user_id"}}
	result, err := engine.CreateIndex(ctx, idx, vctx)
	if err != nil {
		t.Fatalf("CreateIndex returned an unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("Expected partial index to be rejected on MySQL")
	}
}
