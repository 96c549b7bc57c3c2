// Package coordinator orchestrates the validate -> generate -> execute
// flow for every DDL operation, owning pooled drivers and transaction
// scope. Validation failures and driver faults come back as failed
// DDLResults; only the documented dialect-incompatibility cases and
// malformed operation batches surface as Go errors.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tordrt/schemaforge/internal/db"
	"github.com/tordrt/schemaforge/internal/generate"
	"github.com/tordrt/schemaforge/internal/inspect"
	"github.com/tordrt/schemaforge/internal/logging"
	"github.com/tordrt/schemaforge/internal/schema"
	"github.com/tordrt/schemaforge/internal/validate"
)

// Coordinator executes DDL against cached per-connection drivers
type Coordinator struct {
	cache   *db.Cache
	log     *logging.Logger
	timeout time.Duration
}

// New creates a coordinator. A nil cache gets a fresh one; a nil
// logger discards output. A zero timeout disables the per-statement
// deadline.
func New(cache *db.Cache, log *logging.Logger, timeout time.Duration) *Coordinator {
	if cache == nil {
		cache = db.NewCache(nil)
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Coordinator{cache: cache, log: log, timeout: timeout}
}

// Close disconnects every cached driver
func (c *Coordinator) Close(ctx context.Context) error {
	return c.cache.CloseAll(ctx)
}

func (c *Coordinator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return ctx, func() {}
}

// ExecuteDDL runs one statement against the connection identified by
// cfg, reusing a cached driver when it is still connected. Every fault
// is converted into a failed DDLResult; this boundary never propagates
// a raw error.
func (c *Coordinator) ExecuteDDL(ctx context.Context, sql string, cfg db.Config) schema.DDLResult {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	drv, err := c.cache.Get(ctx, cfg)
	if err != nil {
		c.log.Error("connection failed", map[string]any{"key": cfg.Key(), "error": err.Error()})
		return schema.Failed(fmt.Sprintf("failed to acquire connection: %v", err))
	}

	rows, err := drv.Exec(ctx, sql)
	elapsed := time.Since(start)
	if err != nil {
		c.log.Error("statement failed", map[string]any{"sql": sql, "error": err.Error()})
		result := schema.Failed(err.Error())
		result.SQL = sql
		result.Duration = elapsed
		return result
	}

	c.log.Debug("statement executed", map[string]any{"sql": sql, "duration": elapsed.String()})
	return schema.OK(sql, elapsed, rows)
}

// CreateTable validates and creates a table. Validation failures come
// back as a failed result with all messages joined.
func (c *Coordinator) CreateTable(ctx context.Context, def *schema.TableDefinition, cfg db.Config) (schema.DDLResult, error) {
	if r := validate.Table(def, cfg.Type); !r.Valid {
		return schema.Failed(r.JoinedErrors()), nil
	}
	sql, err := generate.CreateTable(def, cfg.Type)
	if err != nil {
		return schema.DDLResult{}, err
	}
	return c.ExecuteDDL(ctx, sql, cfg), nil
}

// AddColumn validates and adds a column to an existing table
func (c *Coordinator) AddColumn(ctx context.Context, table string, col *schema.ColumnDefinition, cfg db.Config) (schema.DDLResult, error) {
	if r := validate.Column(col, cfg.Type); !r.Valid {
		return schema.Failed(r.JoinedErrors()), nil
	}
	sql, err := generate.AddColumn(table, col, cfg.Type)
	if err != nil {
		return schema.DDLResult{}, err
	}
	return c.ExecuteDDL(ctx, sql, cfg), nil
}

// ModifyColumn changes a column's type, nullability, or default.
// On SQLite this returns an error wrapping
// generate.ErrTableRecreationRequired; no partial success is possible.
func (c *Coordinator) ModifyColumn(ctx context.Context, table string, col *schema.ColumnDefinition, cfg db.Config) (schema.DDLResult, error) {
	if r := validate.Column(col, cfg.Type); !r.Valid {
		return schema.Failed(r.JoinedErrors()), nil
	}
	sql, err := generate.ModifyColumn(table, col, cfg.Type)
	if err != nil {
		return schema.DDLResult{}, err
	}
	return c.ExecuteDDL(ctx, sql, cfg), nil
}

// DropColumn drops a column where the dialect supports it
func (c *Coordinator) DropColumn(ctx context.Context, table, column string, cfg db.Config) (schema.DDLResult, error) {
	if r := validate.ColumnName(column, cfg.Type); !r.Valid {
		return schema.Failed(r.JoinedErrors()), nil
	}
	sql, err := generate.DropColumn(table, column, cfg.Type)
	if err != nil {
		return schema.DDLResult{}, err
	}
	return c.ExecuteDDL(ctx, sql, cfg), nil
}

// RenameTable renames a table after checking the target name
func (c *Coordinator) RenameTable(ctx context.Context, oldName, newName string, cfg db.Config) (schema.DDLResult, error) {
	if r := validate.TableName(newName, cfg.Type); !r.Valid {
		return schema.Failed(r.JoinedErrors()), nil
	}
	sql, err := generate.RenameTable(oldName, newName, cfg.Type)
	if err != nil {
		return schema.DDLResult{}, err
	}
	return c.ExecuteDDL(ctx, sql, cfg), nil
}

// DropTable drops a table, optionally with IF EXISTS
func (c *Coordinator) DropTable(ctx context.Context, name string, ifExists bool, cfg db.Config) (schema.DDLResult, error) {
	sql, err := generate.DropTable(name, ifExists, cfg.Type)
	if err != nil {
		return schema.DDLResult{}, err
	}
	return c.ExecuteDDL(ctx, sql, cfg), nil
}

// DropConstraint drops a named constraint where the dialect supports it
func (c *Coordinator) DropConstraint(ctx context.Context, table, constraint string, cfg db.Config) (schema.DDLResult, error) {
	sql, err := generate.DropConstraint(table, constraint, cfg.Type)
	if err != nil {
		return schema.DDLResult{}, err
	}
	return c.ExecuteDDL(ctx, sql, cfg), nil
}

// validationContext fills in live table state when the caller supplied
// none: current columns for constraint checks, current indexes for
// duplicate detection.
func (c *Coordinator) validationContext(ctx context.Context, table string, cfg db.Config, vctx *validate.Context) (validate.Context, error) {
	if vctx != nil {
		out := *vctx
		out.Dialect = cfg.Type
		return out, nil
	}

	out := validate.Context{Dialect: cfg.Type}
	drv, err := c.cache.Get(ctx, cfg)
	if err != nil {
		return out, fmt.Errorf("failed to acquire connection: %w", err)
	}
	columns, err := inspect.TableColumns(ctx, drv, cfg.Type, "", table)
	if err != nil {
		return out, err
	}
	indexes, err := inspect.TableIndexes(ctx, drv, cfg.Type, "", table)
	if err != nil {
		return out, err
	}
	out.AvailableColumns = columns
	out.ExistingIndexes = indexes
	return out, nil
}

// AddConstraint validates a constraint against the full table context
// before generating anything. On validation failure the result carries
// every error message joined; no SQL is generated or sent.
func (c *Coordinator) AddConstraint(ctx context.Context, table string, def *schema.ConstraintDefinition, cfg db.Config, vctx *validate.Context) (schema.DDLResult, error) {
	full, err := c.validationContext(ctx, table, cfg, vctx)
	if err != nil {
		return schema.Failed(err.Error()), nil
	}
	if r := validate.Constraint(def, full); !r.Valid {
		return schema.Failed(r.JoinedErrors()), nil
	}
	sql, err := generate.AddConstraint(table, def, cfg.Type)
	if err != nil {
		if errors.Is(err, generate.ErrTableRecreationRequired) {
			return schema.DDLResult{}, err
		}
		return schema.Failed(err.Error()), nil
	}
	return c.ExecuteDDL(ctx, sql, cfg), nil
}

// CreateIndex validates an index against the full table context before
// generating anything, mirroring AddConstraint.
func (c *Coordinator) CreateIndex(ctx context.Context, def *schema.IndexDefinition, cfg db.Config, vctx *validate.Context) (schema.DDLResult, error) {
	full, err := c.validationContext(ctx, def.Table, cfg, vctx)
	if err != nil {
		return schema.Failed(err.Error()), nil
	}
	if r := validate.Index(def, full); !r.Valid {
		return schema.Failed(r.JoinedErrors()), nil
	}
	sql, err := generate.CreateIndex(def, cfg.Type)
	if err != nil {
		return schema.DDLResult{}, err
	}
	return c.ExecuteDDL(ctx, sql, cfg), nil
}

// DropIndex drops an index, optionally with IF EXISTS where supported
func (c *Coordinator) DropIndex(ctx context.Context, name, table string, ifExists bool, cfg db.Config) (schema.DDLResult, error) {
	sql, err := generate.DropIndex(name, table, ifExists, cfg.Type)
	if err != nil {
		return schema.DDLResult{}, err
	}
	return c.ExecuteDDL(ctx, sql, cfg), nil
}
