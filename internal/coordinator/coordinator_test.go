package coordinator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemaforge/internal/db"
	"github.com/tordrt/schemaforge/internal/generate"
	"github.com/tordrt/schemaforge/internal/schema"
	"github.com/tordrt/schemaforge/internal/validate"
)

// scriptedDriver records every executed statement and fails any whose
// text contains a configured substring.
type scriptedDriver struct {
	connected  bool
	connectErr error
	execs      []string
	failOn     map[string]error
	rows       int64
}

func (d *scriptedDriver) Connect(ctx context.Context) error {
	if d.connectErr != nil {
		return d.connectErr
	}
	d.connected = true
	return nil
}

func (d *scriptedDriver) Disconnect(ctx context.Context) error {
	d.connected = false
	return nil
}

func (d *scriptedDriver) IsConnected() bool { return d.connected }

func (d *scriptedDriver) Exec(ctx context.Context, sql string) (int64, error) {
	d.execs = append(d.execs, sql)
	for substr, err := range d.failOn {
		if strings.Contains(sql, substr) {
			return 0, err
		}
	}
	return d.rows, nil
}

func (d *scriptedDriver) Query(ctx context.Context, sql string, args ...any) (*db.Rows, error) {
	return &db.Rows{}, nil
}

func (d *scriptedDriver) Status() db.Status { return db.Status{Connected: d.connected} }

func newTestCoordinator(drv *scriptedDriver) *Coordinator {
	cache := db.NewCache(func(cfg db.Config) (db.Driver, error) {
		return drv, nil
	})
	return New(cache, nil, 0)
}

func testConfig() db.Config {
	return db.Config{Type: schema.Postgres, URL: "postgres://localhost/test"}
}

func TestExecuteDDL(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		drv := &scriptedDriver{rows: 1}
		c := newTestCoordinator(drv)

		result := c.ExecuteDDL(ctx, "CREATE TABLE t (id INT)", testConfig())

		assert.True(t, result.Success)
		assert.Equal(t, "CREATE TABLE t (id INT)", result.SQL)
		assert.Equal(t, int64(1), result.RowsAffected)
		assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", result.OperationID.String())
	})

	t.Run("statement failure becomes failed result", func(t *testing.T) {
		drv := &scriptedDriver{failOn: map[string]error{"CREATE": errors.New("syntax error near TABLE")}}
		c := newTestCoordinator(drv)

		result := c.ExecuteDDL(ctx, "CREATE TABLE t (id INT)", testConfig())

		assert.False(t, result.Success)
		assert.Equal(t, "CREATE TABLE t (id INT)", result.SQL)
		assert.Contains(t, result.Error, "syntax error")
	})

	t.Run("connection failure becomes failed result", func(t *testing.T) {
		drv := &scriptedDriver{connectErr: errors.New("connection refused")}
		c := newTestCoordinator(drv)

		result := c.ExecuteDDL(ctx, "CREATE TABLE t (id INT)", testConfig())

		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "failed to acquire connection")
		assert.Empty(t, drv.execs)
	})
}

func TestCreateTable(t *testing.T) {
	ctx := context.Background()

	t.Run("valid definition executes", func(t *testing.T) {
		drv := &scriptedDriver{}
		c := newTestCoordinator(drv)

		def := &schema.TableDefinition{
			Name: "users",
			Columns: []schema.ColumnDefinition{
				{Name: "id", Type: "INTEGER", PrimaryKey: true},
				{Name: "email", Type: "VARCHAR", Length: 255},
			},
		}
		result, err := c.CreateTable(ctx, def, testConfig())

		require.NoError(t, err)
		assert.True(t, result.Success)
		require.Len(t, drv.execs, 1)
		assert.Contains(t, drv.execs[0], `CREATE TABLE "users"`)
	})

	t.Run("validation failure short-circuits", func(t *testing.T) {
		drv := &scriptedDriver{}
		c := newTestCoordinator(drv)

		def := &schema.TableDefinition{
			Name: "select", // reserved keyword
			Columns: []schema.ColumnDefinition{
				{Name: "id", Type: "INTEGER"},
			},
		}
		result, err := c.CreateTable(ctx, def, testConfig())

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "reserved keyword")
		assert.Empty(t, drv.execs, "nothing should reach the driver")
	})

	t.Run("all validation errors joined", func(t *testing.T) {
		drv := &scriptedDriver{}
		c := newTestCoordinator(drv)

		def := &schema.TableDefinition{
			Name: "users",
			Columns: []schema.ColumnDefinition{
				{Name: "id", Type: "", PrimaryKey: true, Nullable: true},
			},
		}
		result, err := c.CreateTable(ctx, def, testConfig())

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "must have a data type")
		assert.Contains(t, result.Error, "cannot be nullable")
		assert.Contains(t, result.Error, "; ")
	})
}

func TestModifyColumn(t *testing.T) {
	ctx := context.Background()

	t.Run("sqlite surfaces recreation error", func(t *testing.T) {
		drv := &scriptedDriver{}
		c := newTestCoordinator(drv)

		col := &schema.ColumnDefinition{Name: "email", Type: "TEXT"}
		_, err := c.ModifyColumn(ctx, "users", col, db.Config{Type: schema.SQLite, FilePath: "test.db"})

		require.Error(t, err)
		assert.ErrorIs(t, err, generate.ErrTableRecreationRequired)
		assert.Empty(t, drv.execs)
	})

	t.Run("postgres executes", func(t *testing.T) {
		drv := &scriptedDriver{}
		c := newTestCoordinator(drv)

		col := &schema.ColumnDefinition{Name: "email", Type: "TEXT"}
		result, err := c.ModifyColumn(ctx, "users", col, testConfig())

		require.NoError(t, err)
		assert.True(t, result.Success)
		require.Len(t, drv.execs, 1)
		assert.Contains(t, drv.execs[0], "ALTER COLUMN")
	})
}

func TestRenameTableValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("reserved new name rejected", func(t *testing.T) {
		drv := &scriptedDriver{}
		c := newTestCoordinator(drv)

		result, err := c.RenameTable(ctx, "users", "select", testConfig())

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "reserved keyword")
		assert.Empty(t, drv.execs)
	})

	t.Run("valid rename executes", func(t *testing.T) {
		drv := &scriptedDriver{}
		c := newTestCoordinator(drv)

		result, err := c.RenameTable(ctx, "users", "members", testConfig())

		require.NoError(t, err)
		assert.True(t, result.Success)
		require.Len(t, drv.execs, 1)
		assert.Contains(t, drv.execs[0], `RENAME TO "members"`)
	})
}

func TestDropColumnValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("malformed column name rejected", func(t *testing.T) {
		drv := &scriptedDriver{}
		c := newTestCoordinator(drv)

		result, err := c.DropColumn(ctx, "users", "email; --", testConfig())

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "letters, digits, and underscores")
		assert.Empty(t, drv.execs)
	})

	t.Run("valid drop executes", func(t *testing.T) {
		drv := &scriptedDriver{}
		c := newTestCoordinator(drv)

		result, err := c.DropColumn(ctx, "users", "legacy_flag", testConfig())

		require.NoError(t, err)
		assert.True(t, result.Success)
		require.Len(t, drv.execs, 1)
		assert.Contains(t, drv.execs[0], `DROP COLUMN "legacy_flag"`)
	})
}

func TestAddConstraint(t *testing.T) {
	ctx := context.Background()
	vctx := &validate.Context{AvailableColumns: []string{"id", "email", "user_id"}}

	t.Run("valid constraint executes", func(t *testing.T) {
		drv := &scriptedDriver{}
		c := newTestCoordinator(drv)

		def := &schema.ConstraintDefinition{
			Name: "uq_users_email", Type: schema.Unique, Columns: []string{"email"},
		}
		result, err := c.AddConstraint(ctx, "users", def, testConfig(), vctx)

		require.NoError(t, err)
		assert.True(t, result.Success)
		require.Len(t, drv.execs, 1)
		assert.Contains(t, drv.execs[0], "ADD CONSTRAINT")
	})

	t.Run("missing column fails without SQL", func(t *testing.T) {
		drv := &scriptedDriver{}
		c := newTestCoordinator(drv)

		def := &schema.ConstraintDefinition{
			Name: "uq_users_phone", Type: schema.Unique, Columns: []string{"phone"},
		}
		result, err := c.AddConstraint(ctx, "users", def, testConfig(), vctx)

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, `Column "phone" does not exist in the table`)
		assert.Empty(t, result.SQL)
		assert.Empty(t, drv.execs)
	})

	t.Run("deferrable on mysql fails validation", func(t *testing.T) {
		drv := &scriptedDriver{}
		c := newTestCoordinator(drv)

		def := &schema.ConstraintDefinition{
			Name: "fk_orders_user", Type: schema.ForeignKey,
			Columns: []string{"user_id"}, RefTable: "users", RefColumns: []string{"id"},
			Deferrable: true,
		}
		result, err := c.AddConstraint(ctx, "orders", def, db.Config{Type: schema.MySQL, URL: "u@tcp(h)/d"}, vctx)

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "deferrable")
		assert.Empty(t, drv.execs)
	})

	t.Run("not null maps to failed result", func(t *testing.T) {
		drv := &scriptedDriver{}
		c := newTestCoordinator(drv)

		def := &schema.ConstraintDefinition{
			Name: "nn_users_email", Type: schema.NotNull, Columns: []string{"email"},
		}
		result, err := c.AddConstraint(ctx, "users", def, testConfig(), vctx)

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "column modification")
	})
}

func TestCreateIndexValidation(t *testing.T) {
	ctx := context.Background()
	vctx := &validate.Context{AvailableColumns: []string{"id", "user_id", "total"}}

	t.Run("covering index on sqlite fails validation", func(t *testing.T) {
		drv := &scriptedDriver{}
		c := newTestCoordinator(drv)

		def := &schema.IndexDefinition{
			Name: "idx_orders_user", Table: "orders",
			Columns: []string{"user_id"}, Include: []string{"total"},
		}
		result, err := c.CreateIndex(ctx, def, db.Config{Type: schema.SQLite, FilePath: "test.db"}, vctx)

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "covering indexes")
		assert.Empty(t, drv.execs)
	})

	t.Run("valid index executes", func(t *testing.T) {
		drv := &scriptedDriver{}
		c := newTestCoordinator(drv)

		def := &schema.IndexDefinition{
			Name: "idx_orders_user", Table: "orders", Columns: []string{"user_id"},
		}
		result, err := c.CreateIndex(ctx, def, testConfig(), vctx)

		require.NoError(t, err)
		assert.True(t, result.Success)
		require.Len(t, drv.execs, 1)
		assert.Contains(t, drv.execs[0], "CREATE INDEX")
	})
}
