package validate

import "strings"

// reservedWords is the shared core of the MySQL, PostgreSQL, and SQLite
// reserved keyword lists. An identifier colliding with any of these is
// rejected regardless of target dialect, since definitions are meant to
// be portable across all three engines.
var reservedWords = map[string]bool{
	"add": true, "all": true, "alter": true, "and": true, "any": true,
	"as": true, "asc": true, "between": true, "by": true, "case": true,
	"cast": true, "check": true, "collate": true, "column": true,
	"constraint": true, "create": true, "cross": true, "current_date": true,
	"current_time": true, "current_timestamp": true, "database": true,
	"default": true, "delete": true, "desc": true, "distinct": true,
	"drop": true, "else": true, "end": true, "escape": true, "except": true,
	"exists": true, "foreign": true, "from": true, "full": true,
	"group": true, "having": true, "in": true, "index": true, "inner": true,
	"insert": true, "intersect": true, "into": true, "is": true,
	"join": true, "key": true, "left": true, "like": true, "limit": true,
	"not": true, "null": true, "on": true, "or": true, "order": true,
	"outer": true, "primary": true, "references": true, "right": true,
	"select": true, "set": true, "table": true, "then": true, "to": true,
	"union": true, "unique": true, "update": true, "using": true,
	"values": true, "when": true, "where": true, "with": true,
}

// isReservedWord reports whether name collides case-insensitively with
// a reserved keyword.
func isReservedWord(name string) bool {
	return reservedWords[strings.ToLower(name)]
}
