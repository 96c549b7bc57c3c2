// Package generate translates schema definitions into engine-specific
// DDL strings. All functions are pure: no I/O, no driver access.
// Engine differences live behind the Policy interface with one
// implementation per dialect, so adding an engine means adding one
// policy and one capability row, not editing every generator.
package generate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tordrt/schemaforge/internal/schema"
)

// ErrTableRecreationRequired marks operations a dialect can only do by
// rebuilding the table (SQLite ALTER limitations).
var ErrTableRecreationRequired = errors.New("table recreation required")

// Policy captures per-dialect DDL syntax decisions
type Policy interface {
	// Quote escapes an identifier in the dialect's quoting style
	Quote(identifier string) string
	// ModifyColumn emits the statement(s) that change a column's
	// type, nullability, or default
	ModifyColumn(table string, col *schema.ColumnDefinition) (string, error)
	// DropColumn emits ALTER TABLE ... DROP COLUMN, or an error if
	// the dialect cannot drop columns in place
	DropColumn(table, column string) (string, error)
	// DropConstraint emits ALTER TABLE ... DROP CONSTRAINT, or an error
	DropConstraint(table, constraint string) (string, error)
	// RenameTable emits the dialect's table rename statement
	RenameTable(oldName, newName string) string
	// TableSuffix returns trailing CREATE TABLE options, if any
	TableSuffix() string
	// IndexExistenceClauses reports whether index DDL carries
	// IF NOT EXISTS / IF EXISTS
	IndexExistenceClauses() bool
	// IndexTypeAfterColumns reports whether USING <type> trails the
	// key list (MySQL index option) instead of following the table name
	IndexTypeAfterColumns() bool
	// Capabilities returns the dialect's capability row
	Capabilities() schema.Capabilities
}

// PolicyFor returns the policy for a dialect
func PolicyFor(d schema.Dialect) (Policy, error) {
	switch d {
	case schema.MySQL:
		return mysqlPolicy{}, nil
	case schema.Postgres:
		return postgresPolicy{}, nil
	case schema.SQLite:
		return sqlitePolicy{}, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %q", d)
	}
}

// quoteBacktick escapes MySQL-style, doubling internal backticks
func quoteBacktick(identifier string) string {
	return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
}

// quoteDouble escapes ANSI-style, doubling internal double quotes
func quoteDouble(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

type mysqlPolicy struct{}

func (mysqlPolicy) Quote(id string) string { return quoteBacktick(id) }

func (p mysqlPolicy) ModifyColumn(table string, col *schema.ColumnDefinition) (string, error) {
	return fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s",
		p.Quote(table), columnClause(col, p)), nil
}

func (p mysqlPolicy) DropColumn(table, column string) (string, error) {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", p.Quote(table), p.Quote(column)), nil
}

func (p mysqlPolicy) DropConstraint(table, constraint string) (string, error) {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", p.Quote(table), p.Quote(constraint)), nil
}

func (p mysqlPolicy) RenameTable(oldName, newName string) string {
	return fmt.Sprintf("RENAME TABLE %s TO %s", p.Quote(oldName), p.Quote(newName))
}

func (mysqlPolicy) TableSuffix() string {
	return " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci"
}

func (mysqlPolicy) IndexExistenceClauses() bool { return false }

func (mysqlPolicy) IndexTypeAfterColumns() bool { return true }

func (mysqlPolicy) Capabilities() schema.Capabilities {
	return schema.CapabilitiesFor(schema.MySQL)
}

type postgresPolicy struct{}

func (postgresPolicy) Quote(id string) string { return quoteDouble(id) }

// ModifyColumn for PostgreSQL emits one ALTER COLUMN per changed
// attribute, joined by statement separators, because PostgreSQL has no
// single-clause column rewrite.
func (p postgresPolicy) ModifyColumn(table string, col *schema.ColumnDefinition) (string, error) {
	qualified := p.Quote(table)
	column := p.Quote(col.Name)

	stmts := []string{
		fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s", qualified, column, typeClause(col)),
	}
	if col.Nullable {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL", qualified, column))
	} else {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", qualified, column))
	}
	if col.Default != nil {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s",
			qualified, column, FormatDefault(col.Default)))
	} else {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", qualified, column))
	}
	return strings.Join(stmts, ";\n"), nil
}

func (p postgresPolicy) DropColumn(table, column string) (string, error) {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", p.Quote(table), p.Quote(column)), nil
}

func (p postgresPolicy) DropConstraint(table, constraint string) (string, error) {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", p.Quote(table), p.Quote(constraint)), nil
}

func (p postgresPolicy) RenameTable(oldName, newName string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", p.Quote(oldName), p.Quote(newName))
}

func (postgresPolicy) TableSuffix() string { return "" }

func (postgresPolicy) IndexExistenceClauses() bool { return true }

func (postgresPolicy) IndexTypeAfterColumns() bool { return false }

func (postgresPolicy) Capabilities() schema.Capabilities {
	return schema.CapabilitiesFor(schema.Postgres)
}

type sqlitePolicy struct{}

func (sqlitePolicy) Quote(id string) string { return quoteDouble(id) }

func (sqlitePolicy) ModifyColumn(table string, col *schema.ColumnDefinition) (string, error) {
	return "", fmt.Errorf("SQLite cannot modify column %q on table %q in place: %w",
		col.Name, table, ErrTableRecreationRequired)
}

func (sqlitePolicy) DropColumn(table, column string) (string, error) {
	return "", fmt.Errorf("SQLite cannot drop column %q on table %q in place: %w",
		column, table, ErrTableRecreationRequired)
}

func (sqlitePolicy) DropConstraint(table, constraint string) (string, error) {
	return "", fmt.Errorf("SQLite cannot drop constraint %q on table %q in place: %w",
		constraint, table, ErrTableRecreationRequired)
}

func (p sqlitePolicy) RenameTable(oldName, newName string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", p.Quote(oldName), p.Quote(newName))
}

func (sqlitePolicy) TableSuffix() string { return "" }

func (sqlitePolicy) IndexExistenceClauses() bool { return true }

func (sqlitePolicy) IndexTypeAfterColumns() bool { return false }

func (sqlitePolicy) Capabilities() schema.Capabilities {
	return schema.CapabilitiesFor(schema.SQLite)
}
