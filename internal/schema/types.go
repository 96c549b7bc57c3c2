package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Dialect identifies a supported database engine
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect converts a database type string into a Dialect
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported database type: %q", s)
	}
}

// TableDefinition describes a table to create or alter
type TableDefinition struct {
	Name        string                 `json:"name"`
	Schema      string                 `json:"schema,omitempty"`
	Comment     string                 `json:"comment,omitempty"`
	Columns     []ColumnDefinition     `json:"columns"`
	Constraints []ConstraintDefinition `json:"constraints,omitempty"`
	Indexes     []IndexDefinition      `json:"indexes,omitempty"`
}

// QualifiedName returns the table name prefixed with its schema namespace, if any
func (t *TableDefinition) QualifiedName() string {
	if t.Schema != "" {
		return t.Schema + "." + t.Name
	}
	return t.Name
}

// ColumnNames returns the names of all columns in definition order
func (t *TableDefinition) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// ColumnDefinition describes a single table column
type ColumnDefinition struct {
	Name          string        `json:"name"`
	Type          string        `json:"type"`
	Nullable      bool          `json:"nullable"`
	Default       *DefaultValue `json:"default,omitempty"`
	Comment       string        `json:"comment,omitempty"`
	PrimaryKey    bool          `json:"primaryKey,omitempty"`
	ForeignKey    bool          `json:"foreignKey,omitempty"`
	AutoIncrement bool          `json:"autoIncrement,omitempty"`
	Length        int           `json:"length,omitempty"`
	Precision     int           `json:"precision,omitempty"`
	Scale         int           `json:"scale,omitempty"`
}

// DefaultKind discriminates the representation of a column default
type DefaultKind int

const (
	DefaultNull DefaultKind = iota
	DefaultBool
	DefaultNumber
	DefaultString
	DefaultExpr // raw SQL expression such as CURRENT_TIMESTAMP
)

// DefaultValue is a tagged column default. Exactly one of the value
// fields is meaningful, selected by Kind.
type DefaultValue struct {
	Kind   DefaultKind `json:"kind"`
	Bool   bool        `json:"bool,omitempty"`
	Number string      `json:"number,omitempty"`
	String string      `json:"string,omitempty"`
	Expr   string      `json:"expr,omitempty"`
}

// Null returns a NULL default
func Null() *DefaultValue { return &DefaultValue{Kind: DefaultNull} }

// Bool returns a boolean default
func Bool(v bool) *DefaultValue { return &DefaultValue{Kind: DefaultBool, Bool: v} }

// Number returns a numeric default from its literal representation
func Number(lit string) *DefaultValue { return &DefaultValue{Kind: DefaultNumber, Number: lit} }

// String returns a string default
func String(v string) *DefaultValue { return &DefaultValue{Kind: DefaultString, String: v} }

// Expr returns a raw SQL expression default, passed through unquoted
func Expr(sql string) *DefaultValue { return &DefaultValue{Kind: DefaultExpr, Expr: sql} }

// ConstraintType enumerates supported constraint kinds
type ConstraintType string

const (
	PrimaryKey ConstraintType = "PRIMARY KEY"
	ForeignKey ConstraintType = "FOREIGN KEY"
	Unique     ConstraintType = "UNIQUE"
	Check      ConstraintType = "CHECK"
	NotNull    ConstraintType = "NOT NULL"
)

// RefAction is a referential action for ON DELETE / ON UPDATE
type RefAction string

const (
	Cascade    RefAction = "CASCADE"
	SetNull    RefAction = "SET NULL"
	Restrict   RefAction = "RESTRICT"
	NoAction   RefAction = "NO ACTION"
	SetDefault RefAction = "SET DEFAULT"
)

// ConstraintDefinition describes a table constraint
type ConstraintDefinition struct {
	Name              string         `json:"name"`
	Type              ConstraintType `json:"type"`
	Columns           []string       `json:"columns,omitempty"`
	RefTable          string         `json:"refTable,omitempty"`
	RefColumns        []string       `json:"refColumns,omitempty"`
	OnDelete          RefAction      `json:"onDelete,omitempty"`
	OnUpdate          RefAction      `json:"onUpdate,omitempty"`
	CheckExpr         string         `json:"checkExpr,omitempty"`
	Deferrable        bool           `json:"deferrable,omitempty"`
	InitiallyDeferred bool           `json:"initiallyDeferred,omitempty"`
}

// IndexType enumerates index access methods
type IndexType string

const (
	BTree  IndexType = "BTREE"
	Hash   IndexType = "HASH"
	GIN    IndexType = "GIN"
	GiST   IndexType = "GIST"
	SPGiST IndexType = "SPGIST"
	BRIN   IndexType = "BRIN"
)

// IndexDefinition describes a secondary index
type IndexDefinition struct {
	Name    string    `json:"name"`
	Table   string    `json:"table"`
	Columns []string  `json:"columns"`
	Unique  bool      `json:"unique,omitempty"`
	Type    IndexType `json:"type,omitempty"`
	Where   string    `json:"where,omitempty"` // partial-index predicate
	Include []string  `json:"include,omitempty"`
}

// IsPartial reports whether the index carries a WHERE predicate
func (i *IndexDefinition) IsPartial() bool { return i.Where != "" }

// DDLResult is the outcome of one executed (or rejected) DDL statement.
// Immutable after creation.
type DDLResult struct {
	OperationID  uuid.UUID     `json:"operationId"`
	Success      bool          `json:"success"`
	SQL          string        `json:"sql,omitempty"`
	Error        string        `json:"error,omitempty"`
	Duration     time.Duration `json:"duration"`
	RowsAffected int64         `json:"rowsAffected"`
}

// OK builds a successful result
func OK(sql string, d time.Duration, rows int64) DDLResult {
	return DDLResult{
		OperationID:  uuid.New(),
		Success:      true,
		SQL:          sql,
		Duration:     d,
		RowsAffected: rows,
	}
}

// Failed builds a failed result carrying an error message
func Failed(msg string) DDLResult {
	return DDLResult{
		OperationID: uuid.New(),
		Success:     false,
		Error:       msg,
	}
}
