package validate

import (
	"fmt"
	"regexp"
	"strings"
)

// statementKeywords match whole words that would turn an expression
// into a statement with side effects.
var statementKeywords = regexp.MustCompile(`(?i)\b(DROP|DELETE|INSERT|UPDATE|CREATE|ALTER|EXEC|EXECUTE)\b`)

// screenExpression applies the security heuristics to a free-text SQL
// fragment (a CHECK expression or an index WHERE predicate). Findings
// are security errors; they block execution.
func screenExpression(field, expr string) []Issue {
	var issues []Issue

	if !balancedParens(expr) {
		issues = append(issues, Issue{
			Field:    field,
			Message:  "Expression has unbalanced parentheses",
			Category: CategorySecurity,
			Severity: SeverityError,
		})
	}

	if m := statementKeywords.FindString(expr); m != "" {
		issues = append(issues, Issue{
			Field:    field,
			Message:  fmt.Sprintf("Expression contains disallowed statement keyword %q", strings.ToUpper(m)),
			Category: CategorySecurity,
			Severity: SeverityError,
		})
	}

	if strings.Contains(expr, "--") || strings.Contains(expr, "/*") {
		issues = append(issues, Issue{
			Field:    field,
			Message:  "Expression contains a SQL comment marker",
			Category: CategorySecurity,
			Severity: SeverityError,
		})
	}

	return issues
}

func balancedParens(expr string) bool {
	depth := 0
	for _, r := range expr {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
