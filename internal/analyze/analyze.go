// Package analyze orders dependent schema operations, detects circular
// foreign-key references, and produces heuristic index recommendations.
// Everything here is advisory except ConstraintOrder and DetectCycles,
// which callers use to sequence and vet migration batches.
package analyze

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tordrt/schemaforge/internal/schema"
)

// SuggestionKind identifies the structured action a suggestion proposes
type SuggestionKind string

const (
	SuggestAddIndex   SuggestionKind = "add_index"
	SuggestDropIndex  SuggestionKind = "drop_index"
	SuggestMergeIndex SuggestionKind = "merge_index"
	SuggestReorder    SuggestionKind = "reorder_columns"
)

// Priority grades a suggestion
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Suggestion is a machine-readable recommendation. Consumers act on the
// structured fields; Message is for display only.
type Suggestion struct {
	Kind     SuggestionKind `json:"kind"`
	Table    string         `json:"table"`
	Columns  []string       `json:"columns,omitempty"`
	Index    string         `json:"index,omitempty"`
	Related  string         `json:"related,omitempty"`
	Priority Priority       `json:"priority"`
	Message  string         `json:"message"`
}

// ConstraintOrder returns the constraints in safe creation order:
// non-foreign-key constraints first, foreign keys last, preserving the
// relative input order within each group. Foreign keys go last because
// they may reference objects that earlier statements create.
func ConstraintOrder(constraints []schema.ConstraintDefinition) []schema.ConstraintDefinition {
	ordered := make([]schema.ConstraintDefinition, 0, len(constraints))
	for _, c := range constraints {
		if c.Type != schema.ForeignKey {
			ordered = append(ordered, c)
		}
	}
	for _, c := range constraints {
		if c.Type == schema.ForeignKey {
			ordered = append(ordered, c)
		}
	}
	return ordered
}

// Cycle is one circular foreign-key reference path. The first and last
// table names are equal.
type Cycle []string

func (c Cycle) String() string { return strings.Join(c, " -> ") }

// DetectCycles walks the foreign-key graph of an entire migration batch
// (table name -> its constraints) and returns every distinct cycle.
// Self-references (a table referencing itself) count as cycles of
// length one.
func DetectCycles(tables map[string][]schema.ConstraintDefinition) []Cycle {
	adjacency := make(map[string][]string)
	for table, constraints := range tables {
		for _, c := range constraints {
			if c.Type == schema.ForeignKey && c.RefTable != "" {
				adjacency[table] = append(adjacency[table], c.RefTable)
			}
		}
	}

	names := make([]string, 0, len(adjacency))
	for name := range adjacency {
		names = append(names, name)
	}
	sort.Strings(names)

	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[string]int)
	var stack []string
	var cycles []Cycle
	seen := make(map[string]bool) // dedupe by canonical cycle key

	var visit func(node string)
	visit = func(node string) {
		state[node] = inStack
		stack = append(stack, node)

		targets := append([]string(nil), adjacency[node]...)
		sort.Strings(targets)
		for _, next := range targets {
			switch state[next] {
			case inStack:
				// Found a cycle: slice the stack from the first occurrence of next.
				start := 0
				for i, n := range stack {
					if n == next {
						start = i
						break
					}
				}
				cycle := append(append(Cycle{}, stack[start:]...), next)
				if key := canonicalCycleKey(cycle); !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
			case unvisited:
				visit(next)
			}
		}

		stack = stack[:len(stack)-1]
		state[node] = done
	}

	for _, name := range names {
		if state[name] == unvisited {
			visit(name)
		}
	}
	return cycles
}

// canonicalCycleKey rotates a cycle so its lexicographically smallest
// node comes first, making equivalent cycles compare equal.
func canonicalCycleKey(c Cycle) string {
	nodes := c[:len(c)-1] // drop the repeated closing node
	minIdx := 0
	for i, n := range nodes {
		if n < nodes[minIdx] {
			minIdx = i
		}
	}
	rotated := make([]string, 0, len(nodes))
	rotated = append(rotated, nodes[minIdx:]...)
	rotated = append(rotated, nodes[:minIdx]...)
	return strings.Join(rotated, "|")
}

// FindRedundantIndexes reports index pairs where one key sequence is a
// strict prefix of the other. The shorter index is redundant: the
// longer one can serve its lookups.
func FindRedundantIndexes(indexes []schema.IndexDefinition) []Suggestion {
	var suggestions []Suggestion
	for i := range indexes {
		for j := range indexes {
			if i == j {
				continue
			}
			a, b := &indexes[i], &indexes[j]
			if isStrictPrefix(a.Columns, b.Columns) {
				suggestions = append(suggestions, Suggestion{
					Kind:     SuggestDropIndex,
					Table:    a.Table,
					Index:    a.Name,
					Related:  b.Name,
					Columns:  a.Columns,
					Priority: PriorityMedium,
					Message:  fmt.Sprintf("Index %q is redundant: its columns are a prefix of index %q", a.Name, b.Name),
				})
			}
		}
	}
	return suggestions
}

func isStrictPrefix(short, long []string) bool {
	if len(short) == 0 || len(short) >= len(long) {
		return false
	}
	for i := range short {
		if !strings.EqualFold(short[i], long[i]) {
			return false
		}
	}
	return true
}

// FindCoverageGaps suggests indexes for foreign-key-style columns
// (names ending in "id" or "_id") that no existing index leads with.
// The primary key counts as an index on its leading column, so the PK
// column is never suggested back.
func FindCoverageGaps(table string, columns []string, primaryKey []string, indexes []schema.IndexDefinition) []Suggestion {
	var suggestions []Suggestion
	for _, col := range columns {
		if !looksLikeKeyColumn(col) {
			continue
		}
		if len(primaryKey) > 0 && strings.EqualFold(primaryKey[0], col) {
			continue
		}
		if hasLeadingIndex(col, indexes) {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Kind:     SuggestAddIndex,
			Table:    table,
			Columns:  []string{col},
			Priority: PriorityHigh,
			Message:  fmt.Sprintf("Column %q looks like a foreign key column but no index starts with it", col),
		})
	}
	return suggestions
}

func looksLikeKeyColumn(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, "_id") || strings.HasSuffix(lower, "id")
}

func hasLeadingIndex(column string, indexes []schema.IndexDefinition) bool {
	for _, idx := range indexes {
		if len(idx.Columns) > 0 && strings.EqualFold(idx.Columns[0], column) {
			return true
		}
	}
	return false
}

// MaintenanceCost grades how expensive an index is to keep updated
type MaintenanceCost string

const (
	CostLow    MaintenanceCost = "low"
	CostMedium MaintenanceCost = "medium"
	CostHigh   MaintenanceCost = "high"
)

const megabyte = 1 << 20

// EstimateIndexSize returns a rough storage estimate in bytes:
// one megabyte per indexed column, discounted for unique indexes
// (fewer duplicate entries) and partial indexes (fewer rows).
func EstimateIndexSize(idx *schema.IndexDefinition) int64 {
	size := float64(megabyte * (len(idx.Columns) + len(idx.Include)))
	if idx.Unique {
		size *= 0.8
	}
	if idx.IsPartial() {
		size *= 0.3
	}
	return int64(size)
}

// EstimateMaintenanceCost grades an index by its total column count
func EstimateMaintenanceCost(idx *schema.IndexDefinition) MaintenanceCost {
	n := len(idx.Columns) + len(idx.Include)
	switch {
	case n <= 4:
		return CostLow
	case n <= 8:
		return CostMedium
	default:
		return CostHigh
	}
}

// Summary aggregates whole-table index statistics
type Summary struct {
	Table          string          `json:"table"`
	IndexCount     int             `json:"indexCount"`
	EstimatedBytes int64           `json:"estimatedBytes"`
	Complexity     MaintenanceCost `json:"complexity"`
}

// Report is the analyzer output for one table
type Report struct {
	Suggestions []Suggestion `json:"suggestions"`
	Analysis    Summary      `json:"analysis"`
}

// Thresholds for whole-table complexity grading.
const (
	manyIndexes     = 8
	someIndexes     = 4
	largeIndexBytes = 50 * megabyte
)

// AnalyzeIndexSet runs the full advisory pass over one table's columns
// and indexes: redundancy, coverage gaps, and size/maintenance grading.
// primaryKey may be nil for tables without one.
func AnalyzeIndexSet(table string, columns []string, primaryKey []string, indexes []schema.IndexDefinition) Report {
	var suggestions []Suggestion
	suggestions = append(suggestions, FindRedundantIndexes(indexes)...)
	suggestions = append(suggestions, FindCoverageGaps(table, columns, primaryKey, indexes)...)

	var total int64
	for i := range indexes {
		total += EstimateIndexSize(&indexes[i])
	}

	complexity := CostLow
	switch {
	case len(indexes) > manyIndexes || total > largeIndexBytes:
		complexity = CostHigh
	case len(indexes) > someIndexes:
		complexity = CostMedium
	}

	return Report{
		Suggestions: suggestions,
		Analysis: Summary{
			Table:          table,
			IndexCount:     len(indexes),
			EstimatedBytes: total,
			Complexity:     complexity,
		},
	}
}
