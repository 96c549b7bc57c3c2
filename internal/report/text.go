// Package report renders execution results and analyzer output for
// the CLI, as compact text or markdown.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemaforge/internal/analyze"
	"github.com/tordrt/schemaforge/internal/schema"
)

// TextFormatter renders results as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// FormatResults writes one line per DDL result
func (f *TextFormatter) FormatResults(results []schema.DDLResult) error {
	for i, r := range results {
		status := "OK"
		if !r.Success {
			status = "FAILED"
		}
		_, _ = fmt.Fprintf(f.writer, "[%d] %s (%s)\n", i+1, status, r.Duration)
		if r.SQL != "" {
			_, _ = fmt.Fprintf(f.writer, "    %s\n", indentSQL(r.SQL))
		}
		if r.Error != "" {
			_, _ = fmt.Fprintf(f.writer, "    error: %s\n", r.Error)
		}
	}
	return nil
}

// FormatReport writes the analyzer summary and its suggestions
func (f *TextFormatter) FormatReport(r *analyze.Report) error {
	_, _ = fmt.Fprintf(f.writer, "TABLE %s: %d indexes, ~%s, %s maintenance\n",
		r.Analysis.Table, r.Analysis.IndexCount,
		humanBytes(r.Analysis.EstimatedBytes), r.Analysis.Complexity)

	if len(r.Suggestions) == 0 {
		_, _ = fmt.Fprintln(f.writer, "  no suggestions")
		return nil
	}
	for _, s := range r.Suggestions {
		_, _ = fmt.Fprintf(f.writer, "  [%s] %s\n", s.Priority, s.Message)
	}
	return nil
}

func indentSQL(sql string) string {
	return strings.ReplaceAll(sql, "\n", "\n    ")
}

func humanBytes(n int64) string {
	const mb = 1 << 20
	if n >= mb {
		return fmt.Sprintf("%.1fMB", float64(n)/mb)
	}
	return fmt.Sprintf("%dKB", n>>10)
}
