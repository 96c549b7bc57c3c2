package generate

import (
	"strconv"
	"strings"

	"github.com/tordrt/schemaforge/internal/schema"
)

// sqlTimeFunctions pass through default formatting unquoted
var sqlTimeFunctions = map[string]bool{
	"NOW()":              true,
	"CURRENT_TIMESTAMP":  true,
	"CURRENT_DATE":       true,
	"CURRENT_TIME":       true,
	"LOCALTIME":          true,
	"LOCALTIMESTAMP":     true,
	"CURRENT_TIMESTAMP(": true, // precision form, e.g. CURRENT_TIMESTAMP(6)
}

func isTimeFunction(s string) bool {
	upper := strings.ToUpper(strings.TrimSpace(s))
	if sqlTimeFunctions[upper] {
		return true
	}
	return strings.HasPrefix(upper, "CURRENT_TIMESTAMP(")
}

// FormatDefault renders a column default as a SQL literal:
// NULL stays literal, booleans become TRUE/FALSE, numbers pass through,
// known time functions pass through unquoted, and other strings are
// single-quote-escaped.
func FormatDefault(v *schema.DefaultValue) string {
	if v == nil {
		return ""
	}
	switch v.Kind {
	case schema.DefaultNull:
		return "NULL"
	case schema.DefaultBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case schema.DefaultNumber:
		return v.Number
	case schema.DefaultExpr:
		return v.Expr
	case schema.DefaultString:
		if isTimeFunction(v.String) {
			return v.String
		}
		return quoteString(v.String)
	default:
		return ""
	}
}

// ParseDefault reverses FormatDefault for simple literals. Function
// expressions round-trip as raw expressions.
func ParseDefault(literal string) *schema.DefaultValue {
	trimmed := strings.TrimSpace(literal)
	if trimmed == "" {
		return nil
	}
	switch strings.ToUpper(trimmed) {
	case "NULL":
		return schema.Null()
	case "TRUE":
		return schema.Bool(true)
	case "FALSE":
		return schema.Bool(false)
	}
	if isTimeFunction(trimmed) {
		return schema.Expr(trimmed)
	}
	if strings.HasPrefix(trimmed, "'") && strings.HasSuffix(trimmed, "'") && len(trimmed) >= 2 {
		inner := trimmed[1 : len(trimmed)-1]
		return schema.String(strings.ReplaceAll(inner, "''", "'"))
	}
	if _, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return schema.Number(trimmed)
	}
	return schema.Expr(trimmed)
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// renderAction formats a referential action, returning "" for RESTRICT
// since that is the engine default and omitting it keeps DDL short.
func renderAction(clause string, action schema.RefAction) string {
	if action == "" || action == schema.Restrict {
		return ""
	}
	rendered := strings.ReplaceAll(string(action), "_", " ")
	return " " + clause + " " + rendered
}
