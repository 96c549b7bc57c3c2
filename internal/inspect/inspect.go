// Package inspect reads the slice of live catalog state the execution
// coordinator needs for validation context: a table's current columns
// and its current indexes. It is deliberately minimal; full schema
// introspection is out of scope for this engine.
package inspect

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tordrt/schemaforge/internal/db"
	"github.com/tordrt/schemaforge/internal/schema"
)

// TableColumns returns the names of a table's columns in ordinal order
func TableColumns(ctx context.Context, drv db.Driver, dialect schema.Dialect, schemaName, table string) ([]string, error) {
	switch dialect {
	case schema.Postgres:
		return postgresColumns(ctx, drv, schemaName, table)
	case schema.MySQL:
		return mysqlColumns(ctx, drv, schemaName, table)
	case schema.SQLite:
		return sqliteColumns(ctx, drv, table)
	default:
		return nil, fmt.Errorf("unsupported database type: %q", dialect)
	}
}

// TableIndexes returns a table's secondary indexes (primary key
// indexes excluded) with their column lists and uniqueness.
func TableIndexes(ctx context.Context, drv db.Driver, dialect schema.Dialect, schemaName, table string) ([]schema.IndexDefinition, error) {
	switch dialect {
	case schema.Postgres:
		return postgresIndexes(ctx, drv, schemaName, table)
	case schema.MySQL:
		return mysqlIndexes(ctx, drv, schemaName, table)
	case schema.SQLite:
		return sqliteIndexes(ctx, drv, table)
	default:
		return nil, fmt.Errorf("unsupported database type: %q", dialect)
	}
}

// PrimaryKeyColumns returns the table's primary key columns in key
// order, or nil when the table has no primary key.
func PrimaryKeyColumns(ctx context.Context, drv db.Driver, dialect schema.Dialect, schemaName, table string) ([]string, error) {
	switch dialect {
	case schema.Postgres:
		return postgresPrimaryKey(ctx, drv, schemaName, table)
	case schema.MySQL:
		return mysqlPrimaryKey(ctx, drv, schemaName, table)
	case schema.SQLite:
		return sqlitePrimaryKey(ctx, drv, table)
	default:
		return nil, fmt.Errorf("unsupported database type: %q", dialect)
	}
}

func postgresColumns(ctx context.Context, drv db.Driver, schemaName, table string) ([]string, error) {
	if schemaName == "" {
		schemaName = "public"
	}
	query := `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`
	rows, err := drv.Query(ctx, query, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	return firstColumnStrings(rows), nil
}

func postgresIndexes(ctx context.Context, drv db.Driver, schemaName, table string) ([]schema.IndexDefinition, error) {
	if schemaName == "" {
		schemaName = "public"
	}
	query := `
		SELECT
			i.relname AS index_name,
			ix.indisunique AS is_unique,
			a.attname AS column_name,
			array_position(ix.indkey, a.attnum) AS pos
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE t.relkind = 'r'
			AND n.nspname = $1
			AND t.relname = $2
			AND NOT ix.indisprimary
		ORDER BY i.relname, pos
	`
	rows, err := drv.Query(ctx, query, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read indexes: %w", err)
	}
	return groupIndexRows(rows, table), nil
}

func mysqlColumns(ctx context.Context, drv db.Driver, schemaName, table string) ([]string, error) {
	// An empty schema name means the connection's current database
	query := `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND table_name = ?
		ORDER BY ordinal_position
	`
	rows, err := drv.Query(ctx, query, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	return firstColumnStrings(rows), nil
}

func mysqlIndexes(ctx context.Context, drv db.Driver, schemaName, table string) ([]schema.IndexDefinition, error) {
	query := `
		SELECT index_name, IF(non_unique = 0, 1, 0) AS is_unique, column_name, seq_in_index
		FROM information_schema.statistics
		WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND table_name = ? AND index_name != 'PRIMARY'
		ORDER BY index_name, seq_in_index
	`
	rows, err := drv.Query(ctx, query, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read indexes: %w", err)
	}
	return groupIndexRows(rows, table), nil
}

func postgresPrimaryKey(ctx context.Context, drv db.Driver, schemaName, table string) ([]string, error) {
	if schemaName == "" {
		schemaName = "public"
	}
	query := `
		SELECT a.attname
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE n.nspname = $1 AND t.relname = $2 AND ix.indisprimary
		ORDER BY array_position(ix.indkey, a.attnum)
	`
	rows, err := drv.Query(ctx, query, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read primary key: %w", err)
	}
	return firstColumnStrings(rows), nil
}

func mysqlPrimaryKey(ctx context.Context, drv db.Driver, schemaName, table string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.statistics
		WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND table_name = ? AND index_name = 'PRIMARY'
		ORDER BY seq_in_index
	`
	rows, err := drv.Query(ctx, query, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read primary key: %w", err)
	}
	return firstColumnStrings(rows), nil
}

func sqlitePrimaryKey(ctx context.Context, drv db.Driver, table string) ([]string, error) {
	rows, err := drv.Query(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to read primary key: %w", err)
	}
	// PRAGMA table_info: cid, name, type, notnull, dflt_value, pk
	// (pk is the 1-based position within the key, 0 for non-key columns)
	type keyCol struct {
		pos  int
		name string
	}
	var keyCols []keyCol
	for _, row := range rows.Values {
		if len(row) < 6 {
			continue
		}
		if pos := asInt(row[5]); pos > 0 {
			keyCols = append(keyCols, keyCol{pos: pos, name: asString(row[1])})
		}
	}
	sort.Slice(keyCols, func(i, j int) bool { return keyCols[i].pos < keyCols[j].pos })
	columns := make([]string, 0, len(keyCols))
	for _, kc := range keyCols {
		columns = append(columns, kc.name)
	}
	if len(columns) == 0 {
		return nil, nil
	}
	return columns, nil
}

func sqliteColumns(ctx context.Context, drv db.Driver, table string) ([]string, error) {
	rows, err := drv.Query(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	var columns []string
	for _, row := range rows.Values {
		// PRAGMA table_info: cid, name, type, notnull, dflt_value, pk
		if len(row) > 1 {
			columns = append(columns, asString(row[1]))
		}
	}
	return columns, nil
}

func sqliteIndexes(ctx context.Context, drv db.Driver, table string) ([]schema.IndexDefinition, error) {
	rows, err := drv.Query(ctx, fmt.Sprintf("PRAGMA index_list(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to read index list: %w", err)
	}

	var indexes []schema.IndexDefinition
	for _, row := range rows.Values {
		// PRAGMA index_list: seq, name, unique, origin, partial
		if len(row) < 3 {
			continue
		}
		name := asString(row[1])
		if strings.HasPrefix(name, "sqlite_autoindex") {
			continue
		}

		infoRows, err := drv.Query(ctx, fmt.Sprintf("PRAGMA index_info(%s)", name))
		if err != nil {
			return nil, fmt.Errorf("failed to read index %s: %w", name, err)
		}
		var columns []string
		for _, infoRow := range infoRows.Values {
			// PRAGMA index_info: seqno, cid, name
			if len(infoRow) > 2 && infoRow[2] != nil {
				columns = append(columns, asString(infoRow[2]))
			}
		}
		if len(columns) == 0 {
			continue
		}

		indexes = append(indexes, schema.IndexDefinition{
			Name:    name,
			Table:   table,
			Columns: columns,
			Unique:  asBool(row[2]),
		})
	}
	return indexes, nil
}

// groupIndexRows collapses (index_name, is_unique, column_name, pos)
// rows, already ordered by name and position, into index definitions.
func groupIndexRows(rows *db.Rows, table string) []schema.IndexDefinition {
	var indexes []schema.IndexDefinition
	byName := make(map[string]int)

	for _, row := range rows.Values {
		if len(row) < 3 {
			continue
		}
		name := asString(row[0])
		if i, ok := byName[name]; ok {
			indexes[i].Columns = append(indexes[i].Columns, asString(row[2]))
			continue
		}
		byName[name] = len(indexes)
		indexes = append(indexes, schema.IndexDefinition{
			Name:    name,
			Table:   table,
			Columns: []string{asString(row[2])},
			Unique:  asBool(row[1]),
		})
	}
	return indexes
}

// firstColumnStrings flattens a single-column result set into strings
func firstColumnStrings(rows *db.Rows) []string {
	var values []string
	for _, row := range rows.Values {
		if len(row) > 0 {
			values = append(values, asString(row[0]))
		}
	}
	return values
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

func asInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int64:
		return b != 0
	case int:
		return b != 0
	case string:
		n, err := strconv.Atoi(b)
		return err == nil && n != 0
	default:
		return false
	}
}
