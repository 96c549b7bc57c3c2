package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/tordrt/schemaforge/internal/analyze"
	"github.com/tordrt/schemaforge/internal/schema"
)

func sampleResults() []schema.DDLResult {
	ok := schema.OK(`CREATE TABLE "users" (
  "id" INTEGER NOT NULL
)`, 5*time.Millisecond, 0)
	failed := schema.Failed("table users already exists")
	failed.SQL = `CREATE TABLE "users" ("id" INTEGER)`
	return []schema.DDLResult{ok, failed}
}

func sampleReport() *analyze.Report {
	return &analyze.Report{
		Suggestions: []analyze.Suggestion{
			{
				Kind:     analyze.SuggestDropIndex,
				Table:    "orders",
				Index:    "idx_status",
				Priority: analyze.PriorityMedium,
				Message:  `Index "idx_status" is a prefix of "idx_status_user" and can be dropped`,
			},
		},
		Analysis: analyze.Summary{
			Table:          "orders",
			IndexCount:     2,
			EstimatedBytes: 3 << 20,
			Complexity:     analyze.CostLow,
		},
	}
}

func TestTextFormatResults(t *testing.T) {
	var buf bytes.Buffer
	f := NewTextFormatter(&buf)

	if err := f.FormatResults(sampleResults()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "[1] OK (5ms)") {
		t.Errorf("Expected success line: %s", output)
	}
	if !strings.Contains(output, "[2] FAILED") {
		t.Errorf("Expected failure line: %s", output)
	}
	if !strings.Contains(output, "error: table users already exists") {
		t.Errorf("Expected error detail: %s", output)
	}
	// Continuation lines keep their own indent under the 4-space margin
	if !strings.Contains(output, "\n      \"id\" INTEGER NOT NULL") {
		t.Errorf("Expected indented SQL continuation: %s", output)
	}
	if !strings.Contains(output, "\n    CREATE TABLE \"users\" (") {
		t.Errorf("Expected SQL first line at the margin: %s", output)
	}
}

func TestTextFormatReport(t *testing.T) {
	var buf bytes.Buffer
	f := NewTextFormatter(&buf)

	if err := f.FormatReport(sampleReport()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "TABLE orders: 2 indexes, ~3.0MB, low maintenance") {
		t.Errorf("Expected summary line: %s", output)
	}
	if !strings.Contains(output, "[medium]") {
		t.Errorf("Expected priority tag: %s", output)
	}
}

func TestTextFormatReportNoSuggestions(t *testing.T) {
	var buf bytes.Buffer
	f := NewTextFormatter(&buf)

	r := sampleReport()
	r.Suggestions = nil
	if err := f.FormatReport(r); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "no suggestions") {
		t.Errorf("Expected empty-suggestion note: %s", buf.String())
	}
}

func TestMarkdownFormatResults(t *testing.T) {
	var buf bytes.Buffer
	f := NewMarkdownFormatter(&buf)

	if err := f.FormatResults(sampleResults()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "| # | Status | Duration | Detail |") {
		t.Errorf("Expected table header: %s", output)
	}
	if !strings.Contains(output, "| 1 | ok |") {
		t.Errorf("Expected success row: %s", output)
	}
	if !strings.Contains(output, "**failed**") {
		t.Errorf("Expected failure marker: %s", output)
	}
	// SQL must be flattened into one table cell
	if !strings.Contains(output, `CREATE TABLE "users" ( "id" INTEGER NOT NULL )`) {
		t.Errorf("Expected flattened SQL: %s", output)
	}
}

func TestMarkdownFormatReport(t *testing.T) {
	var buf bytes.Buffer
	f := NewMarkdownFormatter(&buf)

	if err := f.FormatReport(sampleReport()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "# Index Analysis: orders") {
		t.Errorf("Expected heading: %s", output)
	}
	if !strings.Contains(output, "- Estimated size: 3.0MB") {
		t.Errorf("Expected size bullet: %s", output)
	}
	if !strings.Contains(output, "**drop_index** (medium)") {
		t.Errorf("Expected suggestion bullet: %s", output)
	}
}

func TestHumanBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512 << 10, "512KB"},
		{1 << 20, "1.0MB"},
		{3 << 20, "3.0MB"},
		{(3 << 20) + (1 << 19), "3.5MB"},
	}
	for _, tt := range tests {
		if got := humanBytes(tt.n); got != tt.want {
			t.Errorf("humanBytes(%d): expected %s, got %s", tt.n, tt.want, got)
		}
	}
}
