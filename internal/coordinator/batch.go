package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/tordrt/schemaforge/internal/analyze"
	"github.com/tordrt/schemaforge/internal/db"
	"github.com/tordrt/schemaforge/internal/generate"
	"github.com/tordrt/schemaforge/internal/inspect"
	"github.com/tordrt/schemaforge/internal/schema"
	"github.com/tordrt/schemaforge/internal/validate"
)

// uniformFailures fills every result slot with the same failure so the
// output length always equals the input length.
func uniformFailures(n int, msg string) []schema.DDLResult {
	results := make([]schema.DDLResult, n)
	for i := range results {
		results[i] = schema.Failed(msg)
	}
	return results
}

// ExecuteTransaction runs the statements in order inside one
// transaction. The first failure triggers ROLLBACK and pads the
// remaining slots with a uniform failure result; callers can rely on
// positional correspondence between statements and results.
func (c *Coordinator) ExecuteTransaction(ctx context.Context, statements []string, cfg db.Config) ([]schema.DDLResult, error) {
	if len(statements) == 0 {
		return nil, fmt.Errorf("transaction requires at least one statement")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	drv, err := c.cache.Get(ctx, cfg)
	if err != nil {
		return uniformFailures(len(statements), fmt.Sprintf("failed to acquire connection: %v", err)), nil
	}

	if _, err := drv.Exec(ctx, "BEGIN"); err != nil {
		return uniformFailures(len(statements), fmt.Sprintf("failed to begin transaction: %v", err)), nil
	}

	results := make([]schema.DDLResult, 0, len(statements))
	for i, stmt := range statements {
		start := time.Now()
		rows, err := drv.Exec(ctx, stmt)
		if err != nil {
			c.log.Warn("transaction statement failed, rolling back", map[string]any{
				"position": i, "sql": stmt, "error": err.Error(),
			})
			if _, rbErr := drv.Exec(ctx, "ROLLBACK"); rbErr != nil {
				c.log.Error("rollback failed", map[string]any{"error": rbErr.Error()})
			}
			failed := schema.Failed(err.Error())
			failed.SQL = stmt
			failed.Duration = time.Since(start)
			results = append(results, failed)
			pad := fmt.Sprintf("transaction rolled back: statement %d failed: %v", i+1, err)
			results = append(results, uniformFailures(len(statements)-len(results), pad)...)
			return results, nil
		}
		results = append(results, schema.OK(stmt, time.Since(start), rows))
	}

	if _, err := drv.Exec(ctx, "COMMIT"); err != nil {
		if _, rbErr := drv.Exec(ctx, "ROLLBACK"); rbErr != nil {
			c.log.Error("rollback after failed commit failed", map[string]any{"error": rbErr.Error()})
		}
		return uniformFailures(len(statements), fmt.Sprintf("failed to commit transaction: %v", err)), nil
	}
	return results, nil
}

// ConstraintAction selects what a batch entry does
type ConstraintAction string

const (
	ConstraintAdd  ConstraintAction = "add"
	ConstraintDrop ConstraintAction = "drop"
)

// ConstraintOperation is one entry of a constraint batch
type ConstraintOperation struct {
	Action     ConstraintAction
	Table      string
	Constraint *schema.ConstraintDefinition // add only
	Name       string                       // drop only
}

// BatchConstraintOperations validates every operation upfront, then
// executes the whole batch in one transaction. A malformed operation
// (unknown action, missing definition) is a programmer error and
// returns a Go error before anything runs.
func (c *Coordinator) BatchConstraintOperations(ctx context.Context, ops []ConstraintOperation, cfg db.Config, vctx *validate.Context) ([]schema.DDLResult, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("constraint batch requires at least one operation")
	}

	statements := make([]string, 0, len(ops))
	for i, op := range ops {
		switch op.Action {
		case ConstraintAdd:
			if op.Constraint == nil {
				return nil, fmt.Errorf("operation %d: add requires a constraint definition", i+1)
			}
			full, err := c.validationContext(ctx, op.Table, cfg, vctx)
			if err != nil {
				return uniformFailures(len(ops), err.Error()), nil
			}
			if r := validate.Constraint(op.Constraint, full); !r.Valid {
				return uniformFailures(len(ops), fmt.Sprintf("operation %d invalid: %s", i+1, r.JoinedErrors())), nil
			}
			sql, err := generate.AddConstraint(op.Table, op.Constraint, cfg.Type)
			if err != nil {
				return nil, err
			}
			statements = append(statements, sql)
		case ConstraintDrop:
			if op.Name == "" {
				return nil, fmt.Errorf("operation %d: drop requires a constraint name", i+1)
			}
			sql, err := generate.DropConstraint(op.Table, op.Name, cfg.Type)
			if err != nil {
				return nil, err
			}
			statements = append(statements, sql)
		default:
			return nil, fmt.Errorf("operation %d: unknown constraint action %q", i+1, op.Action)
		}
	}

	return c.ExecuteTransaction(ctx, statements, cfg)
}

// IndexAction selects what a batch entry does
type IndexAction string

const (
	IndexCreate IndexAction = "create"
	IndexDrop   IndexAction = "drop"
)

// IndexOperation is one entry of an index batch
type IndexOperation struct {
	Action   IndexAction
	Index    *schema.IndexDefinition // create only
	Name     string                  // drop only
	Table    string                  // drop only (MySQL needs the owning table)
	IfExists bool                    // drop only
}

// BatchIndexOperations validates every operation upfront, then
// executes the whole batch in one transaction.
func (c *Coordinator) BatchIndexOperations(ctx context.Context, ops []IndexOperation, cfg db.Config, vctx *validate.Context) ([]schema.DDLResult, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("index batch requires at least one operation")
	}

	statements := make([]string, 0, len(ops))
	for i, op := range ops {
		switch op.Action {
		case IndexCreate:
			if op.Index == nil {
				return nil, fmt.Errorf("operation %d: create requires an index definition", i+1)
			}
			full, err := c.validationContext(ctx, op.Index.Table, cfg, vctx)
			if err != nil {
				return uniformFailures(len(ops), err.Error()), nil
			}
			if r := validate.Index(op.Index, full); !r.Valid {
				return uniformFailures(len(ops), fmt.Sprintf("operation %d invalid: %s", i+1, r.JoinedErrors())), nil
			}
			sql, err := generate.CreateIndex(op.Index, cfg.Type)
			if err != nil {
				return nil, err
			}
			statements = append(statements, sql)
		case IndexDrop:
			if op.Name == "" {
				return nil, fmt.Errorf("operation %d: drop requires an index name", i+1)
			}
			sql, err := generate.DropIndex(op.Name, op.Table, op.IfExists, cfg.Type)
			if err != nil {
				return nil, err
			}
			statements = append(statements, sql)
		default:
			return nil, fmt.Errorf("operation %d: unknown index action %q", i+1, op.Action)
		}
	}

	return c.ExecuteTransaction(ctx, statements, cfg)
}

// RebuildIndex drops and recreates an index inside one transaction
func (c *Coordinator) RebuildIndex(ctx context.Context, def *schema.IndexDefinition, cfg db.Config, vctx *validate.Context) ([]schema.DDLResult, error) {
	ops := []IndexOperation{
		{Action: IndexDrop, Name: def.Name, Table: def.Table, IfExists: true},
		{Action: IndexCreate, Index: def},
	}
	return c.BatchIndexOperations(ctx, ops, cfg, vctx)
}

// OptimizationPlan pairs the analyzer's report with ready-to-run
// operations built from its structured suggestions.
type OptimizationPlan struct {
	Report     analyze.Report
	Operations []IndexOperation
}

// OptimizeTableIndexes inspects a table's live columns and indexes,
// runs the analyzer, and converts its structured suggestions into
// concrete index operations. The plan is advisory; nothing executes
// here.
func (c *Coordinator) OptimizeTableIndexes(ctx context.Context, table string, cfg db.Config) (*OptimizationPlan, error) {
	drv, err := c.cache.Get(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	columns, err := inspect.TableColumns(ctx, drv, cfg.Type, "", table)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	indexes, err := inspect.TableIndexes(ctx, drv, cfg.Type, "", table)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	// TableIndexes excludes the primary key index, so the analyzer
	// needs the key columns separately or it would suggest indexing
	// the primary key again.
	primaryKey, err := inspect.PrimaryKeyColumns(ctx, drv, cfg.Type, "", table)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}

	report := analyze.AnalyzeIndexSet(table, columns, primaryKey, indexes)

	var ops []IndexOperation
	for _, s := range report.Suggestions {
		switch s.Kind {
		case analyze.SuggestAddIndex:
			ops = append(ops, IndexOperation{
				Action: IndexCreate,
				Index: &schema.IndexDefinition{
					Name:    fmt.Sprintf("idx_%s_%s", table, s.Columns[0]),
					Table:   table,
					Columns: s.Columns,
				},
			})
		case analyze.SuggestDropIndex:
			ops = append(ops, IndexOperation{
				Action:   IndexDrop,
				Name:     s.Index,
				Table:    table,
				IfExists: true,
			})
		}
	}

	return &OptimizationPlan{Report: report, Operations: ops}, nil
}
