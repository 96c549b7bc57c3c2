// Package validate checks schema definitions against naming rules,
// reserved words, engine capabilities, and security heuristics before
// any SQL is generated. All checks are pure functions that return a
// structured Result; malformed input never causes a Go error.
package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/tordrt/schemaforge/internal/schema"
)

// Category classifies an issue by origin
type Category string

const (
	CategoryValidation   Category = "validation"
	CategorySecurity     Category = "security"
	CategoryDatabase     Category = "database"
	CategoryPerformance  Category = "performance"
	CategoryOptimization Category = "optimization"
)

// Severity grades an issue. Only SeverityError blocks execution.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is a single validation finding
type Issue struct {
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
}

// Result is the outcome of validating one definition
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

func (r *Result) add(issue Issue) {
	if issue.Severity == SeverityError {
		r.Errors = append(r.Errors, issue)
		return
	}
	r.Warnings = append(r.Warnings, issue)
}

func (r *Result) finish() Result {
	r.Valid = len(r.Errors) == 0
	return *r
}

// ErrorMessages returns all blocking messages in order
func (r *Result) ErrorMessages() []string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return msgs
}

// JoinedErrors collapses all blocking messages into one string
func (r *Result) JoinedErrors() string {
	return strings.Join(r.ErrorMessages(), "; ")
}

// Context supplies the surrounding table state needed to validate
// constraints and indexes.
type Context struct {
	Dialect             schema.Dialect
	AvailableColumns    []string
	ExistingIndexes     []schema.IndexDefinition
	ExistingConstraints []schema.ConstraintDefinition
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// wideIndexThreshold is the column count beyond which a composite index
// draws a performance warning.
const wideIndexThreshold = 4

func checkIdentifier(field, name, kind string, maxLen int) []Issue {
	var issues []Issue
	if name == "" {
		issues = append(issues, Issue{
			Field:    field,
			Message:  fmt.Sprintf("%s name must not be empty", kind),
			Category: CategoryValidation,
			Severity: SeverityError,
		})
		return issues
	}
	if maxLen > 0 && len(name) > maxLen {
		issues = append(issues, Issue{
			Field:    field,
			Message:  fmt.Sprintf("%s name %q exceeds maximum length of %d characters", kind, name, maxLen),
			Category: CategoryValidation,
			Severity: SeverityError,
		})
	}
	if !identifierPattern.MatchString(name) {
		issues = append(issues, Issue{
			Field:    field,
			Message:  fmt.Sprintf("%s name %q must start with a letter or underscore and contain only letters, digits, and underscores", kind, name),
			Category: CategoryValidation,
			Severity: SeverityError,
		})
	}
	if isReservedWord(name) {
		issues = append(issues, Issue{
			Field:    field,
			Message:  fmt.Sprintf("%s name %q is a reserved keyword", kind, name),
			Category: CategoryValidation,
			Severity: SeverityError,
		})
	}
	return issues
}

// TableName validates a bare table name for operations that carry no
// full definition, such as renames and drops.
func TableName(name string, dialect schema.Dialect) Result {
	var r Result
	caps := schema.CapabilitiesFor(dialect)
	for _, issue := range checkIdentifier("name", name, "Table", caps.MaxTableName) {
		r.add(issue)
	}
	return r.finish()
}

// ColumnName validates a bare column name
func ColumnName(name string, dialect schema.Dialect) Result {
	var r Result
	caps := schema.CapabilitiesFor(dialect)
	for _, issue := range checkIdentifier("name", name, "Column", caps.MaxColumnName) {
		r.add(issue)
	}
	return r.finish()
}

// Table validates a complete table definition including its columns
func Table(def *schema.TableDefinition, dialect schema.Dialect) Result {
	var r Result
	caps := schema.CapabilitiesFor(dialect)

	for _, issue := range checkIdentifier("name", def.Name, "Table", caps.MaxTableName) {
		r.add(issue)
	}

	if len(def.Columns) == 0 {
		r.add(Issue{
			Field:    "columns",
			Message:  "Table must have at least one column",
			Category: CategoryValidation,
			Severity: SeverityError,
		})
	}

	seen := make(map[string]bool)
	for i := range def.Columns {
		col := &def.Columns[i]
		cr := Column(col, dialect)
		r.Errors = append(r.Errors, cr.Errors...)
		r.Warnings = append(r.Warnings, cr.Warnings...)

		lower := strings.ToLower(col.Name)
		if seen[lower] {
			r.add(Issue{
				Field:    "columns",
				Message:  fmt.Sprintf("Duplicate column name %q", col.Name),
				Category: CategoryValidation,
				Severity: SeverityError,
			})
		}
		seen[lower] = true
	}

	pkCount := 0
	for _, c := range def.Constraints {
		if c.Type == schema.PrimaryKey {
			pkCount++
		}
	}
	if pkCount > 1 {
		r.add(Issue{
			Field:    "constraints",
			Message:  fmt.Sprintf("Table has %d PRIMARY KEY constraints; only one is allowed", pkCount),
			Category: CategoryValidation,
			Severity: SeverityWarning,
		})
	}

	return r.finish()
}

// Column validates a single column definition
func Column(def *schema.ColumnDefinition, dialect schema.Dialect) Result {
	var r Result
	caps := schema.CapabilitiesFor(dialect)

	for _, issue := range checkIdentifier("name", def.Name, "Column", caps.MaxColumnName) {
		r.add(issue)
	}

	if def.Type == "" {
		r.add(Issue{
			Field:    "type",
			Message:  fmt.Sprintf("Column %q must have a data type", def.Name),
			Category: CategoryValidation,
			Severity: SeverityError,
		})
	}

	if def.PrimaryKey && def.Nullable {
		r.add(Issue{
			Field:    "nullable",
			Message:  fmt.Sprintf("Primary key column %q cannot be nullable", def.Name),
			Category: CategoryValidation,
			Severity: SeverityError,
		})
	}

	if def.AutoIncrement {
		if !def.PrimaryKey {
			r.add(Issue{
				Field:    "autoIncrement",
				Message:  fmt.Sprintf("Auto-increment column %q must be a primary key", def.Name),
				Category: CategoryValidation,
				Severity: SeverityWarning,
			})
		}
		if !isIntegerType(def.Type) {
			r.add(Issue{
				Field:    "autoIncrement",
				Message:  fmt.Sprintf("Auto-increment column %q must have an integer type, got %q", def.Name, def.Type),
				Category: CategoryValidation,
				Severity: SeverityError,
			})
		}
		if !caps.AutoIncrement && !caps.Sequences {
			r.add(Issue{
				Field:    "autoIncrement",
				Message:  fmt.Sprintf("Dialect %s supports neither auto-increment nor sequences", dialect),
				Category: CategoryDatabase,
				Severity: SeverityError,
			})
		}
	}

	return r.finish()
}

func isIntegerType(t string) bool {
	switch strings.ToUpper(strings.TrimSpace(t)) {
	case "INT", "INTEGER", "SMALLINT", "BIGINT", "TINYINT", "MEDIUMINT", "SERIAL", "BIGSERIAL", "SMALLSERIAL":
		return true
	}
	return false
}

// Constraint validates a constraint definition against its table context
func Constraint(def *schema.ConstraintDefinition, ctx Context) Result {
	var r Result
	caps := schema.CapabilitiesFor(ctx.Dialect)

	for _, issue := range checkIdentifier("name", def.Name, "Constraint", caps.MaxConstraintName) {
		r.add(issue)
	}

	switch def.Type {
	case schema.PrimaryKey, schema.Unique:
		if len(def.Columns) == 0 {
			r.add(Issue{
				Field:    "columns",
				Message:  fmt.Sprintf("%s constraint requires at least one column", def.Type),
				Category: CategoryValidation,
				Severity: SeverityError,
			})
		}
		checkColumnsExist(&r, def.Columns, ctx.AvailableColumns)
	case schema.ForeignKey:
		if len(def.Columns) == 0 {
			r.add(Issue{
				Field:    "columns",
				Message:  "FOREIGN KEY constraint requires at least one column",
				Category: CategoryValidation,
				Severity: SeverityError,
			})
		}
		if def.RefTable == "" {
			r.add(Issue{
				Field:    "refTable",
				Message:  "FOREIGN KEY constraint requires a referenced table",
				Category: CategoryValidation,
				Severity: SeverityError,
			})
		}
		if len(def.Columns) != len(def.RefColumns) {
			r.add(Issue{
				Field:    "columns",
				Message:  fmt.Sprintf("FOREIGN KEY column count (%d) does not match referenced column count (%d)", len(def.Columns), len(def.RefColumns)),
				Category: CategoryValidation,
				Severity: SeverityError,
			})
		}
		checkColumnsExist(&r, def.Columns, ctx.AvailableColumns)
	case schema.Check:
		if strings.TrimSpace(def.CheckExpr) == "" {
			r.add(Issue{
				Field:    "checkExpr",
				Message:  "CHECK constraint requires an expression",
				Category: CategoryValidation,
				Severity: SeverityError,
			})
		} else {
			for _, issue := range screenExpression("checkExpr", def.CheckExpr) {
				r.add(issue)
			}
		}
		if !caps.CheckConstraints {
			r.add(Issue{
				Field:    "type",
				Message:  fmt.Sprintf("Dialect %s does not support CHECK constraints", ctx.Dialect),
				Category: CategoryDatabase,
				Severity: SeverityError,
			})
		}
	case schema.NotNull:
		if len(def.Columns) != 1 {
			r.add(Issue{
				Field:    "columns",
				Message:  "NOT NULL constraint requires exactly one column",
				Category: CategoryValidation,
				Severity: SeverityError,
			})
		}
		checkColumnsExist(&r, def.Columns, ctx.AvailableColumns)
	default:
		r.add(Issue{
			Field:    "type",
			Message:  fmt.Sprintf("Unknown constraint type %q", def.Type),
			Category: CategoryValidation,
			Severity: SeverityError,
		})
	}

	if (def.Deferrable || def.InitiallyDeferred) && !caps.DeferrableConstraints {
		r.add(Issue{
			Field:    "deferrable",
			Message:  fmt.Sprintf("Dialect %s does not support deferrable constraints", ctx.Dialect),
			Category: CategoryDatabase,
			Severity: SeverityError,
		})
	}

	if def.Type == schema.PrimaryKey {
		existing := 0
		for _, c := range ctx.ExistingConstraints {
			if c.Type == schema.PrimaryKey {
				existing++
			}
		}
		if existing > 0 {
			r.add(Issue{
				Field:    "type",
				Message:  "Table already has a PRIMARY KEY constraint",
				Category: CategoryValidation,
				Severity: SeverityWarning,
			})
		}
	}

	return r.finish()
}

// Index validates an index definition against its table context
func Index(def *schema.IndexDefinition, ctx Context) Result {
	var r Result
	caps := schema.CapabilitiesFor(ctx.Dialect)

	for _, issue := range checkIdentifier("name", def.Name, "Index", caps.MaxIndexName) {
		r.add(issue)
	}

	if len(def.Columns) == 0 {
		r.add(Issue{
			Field:    "columns",
			Message:  "Index requires at least one column",
			Category: CategoryValidation,
			Severity: SeverityError,
		})
	}
	checkColumnsExist(&r, def.Columns, ctx.AvailableColumns)
	checkColumnsExist(&r, def.Include, ctx.AvailableColumns)

	keySet := make(map[string]bool, len(def.Columns))
	for _, c := range def.Columns {
		keySet[strings.ToLower(c)] = true
	}
	for _, c := range def.Include {
		if keySet[strings.ToLower(c)] {
			r.add(Issue{
				Field:    "include",
				Message:  fmt.Sprintf("Column %q cannot appear in both the key and included column lists", c),
				Category: CategoryValidation,
				Severity: SeverityError,
			})
		}
	}

	if len(def.Include) > 0 && !caps.CoveringIndexes {
		r.add(Issue{
			Field:    "include",
			Message:  fmt.Sprintf("Dialect %s does not support covering indexes (INCLUDE)", ctx.Dialect),
			Category: CategoryDatabase,
			Severity: SeverityError,
		})
	}
	if def.Where != "" {
		if !caps.PartialIndexes {
			r.add(Issue{
				Field:    "where",
				Message:  fmt.Sprintf("Dialect %s does not support partial indexes (WHERE)", ctx.Dialect),
				Category: CategoryDatabase,
				Severity: SeverityError,
			})
		}
		for _, issue := range screenExpression("where", def.Where) {
			r.add(issue)
		}
	}
	if !caps.SupportsIndexType(def.Type) {
		r.add(Issue{
			Field:    "type",
			Message:  fmt.Sprintf("Dialect %s does not support index type %s", ctx.Dialect, def.Type),
			Category: CategoryDatabase,
			Severity: SeverityError,
		})
	}

	// Advisory checks below never block.
	if len(def.Columns) > wideIndexThreshold {
		r.add(Issue{
			Field:    "columns",
			Message:  fmt.Sprintf("Composite index %q has %d columns; wide indexes are expensive to maintain", def.Name, len(def.Columns)),
			Category: CategoryPerformance,
			Severity: SeverityWarning,
		})
	}
	if len(def.Columns) > 0 && isLowSelectivityName(def.Columns[0]) {
		r.add(Issue{
			Field:    "columns",
			Message:  fmt.Sprintf("Leading column %q looks low-selectivity; consider reordering the index", def.Columns[0]),
			Category: CategoryPerformance,
			Severity: SeverityInfo,
		})
	}
	for _, existing := range ctx.ExistingIndexes {
		if existing.Name != def.Name && sameColumnSet(existing.Columns, def.Columns) {
			r.add(Issue{
				Field:    "columns",
				Message:  fmt.Sprintf("Index %q duplicates the column set of existing index %q", def.Name, existing.Name),
				Category: CategoryOptimization,
				Severity: SeverityWarning,
			})
		}
	}

	return r.finish()
}

func checkColumnsExist(r *Result, columns, available []string) {
	if len(available) == 0 {
		return
	}
	set := make(map[string]bool, len(available))
	for _, c := range available {
		set[strings.ToLower(c)] = true
	}
	for _, c := range columns {
		if !set[strings.ToLower(c)] {
			r.add(Issue{
				Field:    "columns",
				Message:  fmt.Sprintf("Column %q does not exist in the table", c),
				Category: CategoryValidation,
				Severity: SeverityError,
			})
		}
	}
}

var lowSelectivityHints = []string{"status", "type", "flag", "state", "enabled", "deleted"}

func isLowSelectivityName(column string) bool {
	lower := strings.ToLower(column)
	for _, hint := range lowSelectivityHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func sameColumnSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := normalizeSorted(a)
	bs := normalizeSorted(b)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func normalizeSorted(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = strings.ToLower(c)
	}
	sort.Strings(out)
	return out
}
