package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemaforge/internal/analyze"
	"github.com/tordrt/schemaforge/internal/schema"
)

// MarkdownFormatter renders results as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// FormatResults writes the results as a markdown table
func (f *MarkdownFormatter) FormatResults(results []schema.DDLResult) error {
	_, _ = fmt.Fprintln(f.writer, "# Execution Results")
	_, _ = fmt.Fprintln(f.writer)
	_, _ = fmt.Fprintln(f.writer, "| # | Status | Duration | Detail |")
	_, _ = fmt.Fprintln(f.writer, "|---|--------|----------|--------|")

	for i, r := range results {
		status := "ok"
		detail := flattenSQL(r.SQL)
		if !r.Success {
			status = "**failed**"
			detail = r.Error
		}
		_, _ = fmt.Fprintf(f.writer, "| %d | %s | %s | `%s` |\n", i+1, status, r.Duration, detail)
	}
	return nil
}

// FormatReport writes the analyzer report with a suggestion list
func (f *MarkdownFormatter) FormatReport(r *analyze.Report) error {
	_, _ = fmt.Fprintf(f.writer, "# Index Analysis: %s\n\n", r.Analysis.Table)
	_, _ = fmt.Fprintf(f.writer, "- Indexes: %d\n", r.Analysis.IndexCount)
	_, _ = fmt.Fprintf(f.writer, "- Estimated size: %s\n", humanBytes(r.Analysis.EstimatedBytes))
	_, _ = fmt.Fprintf(f.writer, "- Maintenance complexity: %s\n\n", r.Analysis.Complexity)

	if len(r.Suggestions) == 0 {
		_, _ = fmt.Fprintln(f.writer, "No suggestions.")
		return nil
	}

	_, _ = fmt.Fprintln(f.writer, "## Suggestions")
	_, _ = fmt.Fprintln(f.writer)
	for _, s := range r.Suggestions {
		_, _ = fmt.Fprintf(f.writer, "- **%s** (%s): %s\n", s.Kind, s.Priority, s.Message)
	}
	return nil
}

func flattenSQL(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
