package generate

import (
	"fmt"
	"strings"

	"github.com/tordrt/schemaforge/internal/analyze"
	"github.com/tordrt/schemaforge/internal/schema"
)

// typeClause renders a column's data type, applying length or
// precision/scale when the type string does not already carry them.
func typeClause(col *schema.ColumnDefinition) string {
	t := strings.TrimSpace(col.Type)
	if strings.Contains(t, "(") {
		return t
	}
	switch {
	case col.Precision > 0 && col.Scale > 0:
		return fmt.Sprintf("%s(%d,%d)", t, col.Precision, col.Scale)
	case col.Precision > 0:
		return fmt.Sprintf("%s(%d)", t, col.Precision)
	case col.Length > 0:
		return fmt.Sprintf("%s(%d)", t, col.Length)
	default:
		return t
	}
}

// columnClause renders one column definition for CREATE TABLE or
// ALTER TABLE ... ADD/MODIFY COLUMN.
func columnClause(col *schema.ColumnDefinition, p Policy) string {
	parts := []string{p.Quote(col.Name), typeClause(col)}

	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if col.Default != nil {
		parts = append(parts, "DEFAULT", FormatDefault(col.Default))
	}
	if col.AutoIncrement && p.Capabilities().AutoIncrement {
		switch p.(type) {
		case mysqlPolicy:
			parts = append(parts, "AUTO_INCREMENT")
		case sqlitePolicy:
			// SQLite auto-increments INTEGER PRIMARY KEY rowid columns implicitly.
		}
	}
	return strings.Join(parts, " ")
}

func quoteList(cols []string, p Policy) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = p.Quote(c)
	}
	return strings.Join(quoted, ", ")
}

// constraintClause renders a table-level constraint body (without the
// leading ALTER TABLE wrapper).
func constraintClause(def *schema.ConstraintDefinition, p Policy) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "CONSTRAINT %s ", p.Quote(def.Name))

	switch def.Type {
	case schema.PrimaryKey:
		fmt.Fprintf(&b, "PRIMARY KEY (%s)", quoteList(def.Columns, p))
	case schema.Unique:
		fmt.Fprintf(&b, "UNIQUE (%s)", quoteList(def.Columns, p))
	case schema.ForeignKey:
		fmt.Fprintf(&b, "FOREIGN KEY (%s) REFERENCES %s (%s)",
			quoteList(def.Columns, p), p.Quote(def.RefTable), quoteList(def.RefColumns, p))
		b.WriteString(renderAction("ON DELETE", def.OnDelete))
		b.WriteString(renderAction("ON UPDATE", def.OnUpdate))
	case schema.Check:
		fmt.Fprintf(&b, "CHECK (%s)", def.CheckExpr)
	default:
		return "", fmt.Errorf("constraint type %q has no table-level clause", def.Type)
	}

	if def.Deferrable && p.Capabilities().DeferrableConstraints {
		b.WriteString(" DEFERRABLE")
		if def.InitiallyDeferred {
			b.WriteString(" INITIALLY DEFERRED")
		}
	}
	return b.String(), nil
}

// CreateTable emits a complete CREATE TABLE statement for the dialect,
// including inline primary key, table-level constraints, and the
// dialect's trailing table options.
func CreateTable(def *schema.TableDefinition, dialect schema.Dialect) (string, error) {
	p, err := PolicyFor(dialect)
	if err != nil {
		return "", err
	}

	var clauses []string
	var pkCols []string
	for i := range def.Columns {
		col := &def.Columns[i]
		clauses = append(clauses, "  "+columnClause(col, p))
		if col.PrimaryKey {
			pkCols = append(pkCols, col.Name)
		}
	}

	hasPKConstraint := false
	for _, c := range def.Constraints {
		if c.Type == schema.PrimaryKey {
			hasPKConstraint = true
		}
	}
	if len(pkCols) > 0 && !hasPKConstraint {
		clauses = append(clauses, fmt.Sprintf("  PRIMARY KEY (%s)", quoteList(pkCols, p)))
	}

	// Foreign keys go last so they never precede the keys they may depend on.
	ordered := analyze.ConstraintOrder(def.Constraints)
	for i := range ordered {
		c := &ordered[i]
		if c.Type == schema.NotNull {
			// NOT NULL is a column attribute, already rendered inline.
			continue
		}
		clause, err := constraintClause(c, p)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, "  "+clause)
	}

	if def.Schema != "" {
		return fmt.Sprintf("CREATE TABLE %s.%s (\n%s\n)%s",
			p.Quote(def.Schema), p.Quote(def.Name), strings.Join(clauses, ",\n"), p.TableSuffix()), nil
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)%s",
		p.Quote(def.Name), strings.Join(clauses, ",\n"), p.TableSuffix()), nil
}

// AddColumn emits ALTER TABLE ... ADD COLUMN
func AddColumn(table string, col *schema.ColumnDefinition, dialect schema.Dialect) (string, error) {
	p, err := PolicyFor(dialect)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", p.Quote(table), columnClause(col, p)), nil
}

// ModifyColumn emits the dialect's column-change statement(s).
// SQLite returns an error wrapping ErrTableRecreationRequired.
func ModifyColumn(table string, col *schema.ColumnDefinition, dialect schema.Dialect) (string, error) {
	p, err := PolicyFor(dialect)
	if err != nil {
		return "", err
	}
	return p.ModifyColumn(table, col)
}

// DropColumn emits ALTER TABLE ... DROP COLUMN where the dialect allows it
func DropColumn(table, column string, dialect schema.Dialect) (string, error) {
	p, err := PolicyFor(dialect)
	if err != nil {
		return "", err
	}
	return p.DropColumn(table, column)
}

// RenameTable emits the dialect's rename statement
func RenameTable(oldName, newName string, dialect schema.Dialect) (string, error) {
	p, err := PolicyFor(dialect)
	if err != nil {
		return "", err
	}
	return p.RenameTable(oldName, newName), nil
}

// AddConstraint emits ALTER TABLE ... ADD CONSTRAINT. A NOT NULL
// constraint has no table-level form and maps to a column modification.
func AddConstraint(table string, def *schema.ConstraintDefinition, dialect schema.Dialect) (string, error) {
	p, err := PolicyFor(dialect)
	if err != nil {
		return "", err
	}
	if def.Type == schema.NotNull {
		if len(def.Columns) != 1 {
			return "", fmt.Errorf("NOT NULL constraint requires exactly one column, got %d", len(def.Columns))
		}
		return "", fmt.Errorf("NOT NULL constraint on %q must be applied as a column modification", def.Columns[0])
	}
	clause, err := constraintClause(def, p)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD %s", p.Quote(table), clause), nil
}

// DropConstraint emits ALTER TABLE ... DROP CONSTRAINT where supported
func DropConstraint(table, constraint string, dialect schema.Dialect) (string, error) {
	p, err := PolicyFor(dialect)
	if err != nil {
		return "", err
	}
	return p.DropConstraint(table, constraint)
}

// CreateIndex emits CREATE [UNIQUE] INDEX with the dialect's existence
// clause, index type, covering columns, and partial predicate, each
// gated by the capability table.
func CreateIndex(def *schema.IndexDefinition, dialect schema.Dialect) (string, error) {
	p, err := PolicyFor(dialect)
	if err != nil {
		return "", err
	}
	caps := p.Capabilities()

	var b strings.Builder
	b.WriteString("CREATE ")
	if def.Unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	if p.IndexExistenceClauses() {
		b.WriteString("IF NOT EXISTS ")
	}
	fmt.Fprintf(&b, "%s ON %s", p.Quote(def.Name), p.Quote(def.Table))

	usingClause := ""
	if def.Type != "" && def.Type != schema.BTree && caps.SupportsIndexType(def.Type) {
		usingClause = fmt.Sprintf(" USING %s", def.Type)
	}
	if usingClause != "" && !p.IndexTypeAfterColumns() {
		b.WriteString(usingClause)
	}

	fmt.Fprintf(&b, " (%s)", quoteList(def.Columns, p))

	if usingClause != "" && p.IndexTypeAfterColumns() {
		b.WriteString(usingClause)
	}

	if len(def.Include) > 0 && caps.CoveringIndexes {
		fmt.Fprintf(&b, " INCLUDE (%s)", quoteList(def.Include, p))
	}
	if def.Where != "" && caps.PartialIndexes {
		fmt.Fprintf(&b, " WHERE %s", def.Where)
	}
	return b.String(), nil
}

// DropIndex emits DROP INDEX. MySQL requires the owning table and has
// no IF EXISTS clause.
func DropIndex(name, table string, ifExists bool, dialect schema.Dialect) (string, error) {
	p, err := PolicyFor(dialect)
	if err != nil {
		return "", err
	}
	if dialect == schema.MySQL {
		return fmt.Sprintf("DROP INDEX %s ON %s", p.Quote(name), p.Quote(table)), nil
	}
	if ifExists && p.IndexExistenceClauses() {
		return fmt.Sprintf("DROP INDEX IF EXISTS %s", p.Quote(name)), nil
	}
	return fmt.Sprintf("DROP INDEX %s", p.Quote(name)), nil
}

// DropTable emits DROP TABLE, optionally with IF EXISTS
func DropTable(name string, ifExists bool, dialect schema.Dialect) (string, error) {
	p, err := PolicyFor(dialect)
	if err != nil {
		return "", err
	}
	if ifExists {
		return fmt.Sprintf("DROP TABLE IF EXISTS %s", p.Quote(name)), nil
	}
	return fmt.Sprintf("DROP TABLE %s", p.Quote(name)), nil
}
