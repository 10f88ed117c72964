package record

import (
	"regexp"
	"strings"
)

// Eq creates a predicate checking equality.
func Eq(column string, value any) string {
	if value == nil {
		return QuoteIdent(column) + " IS NULL"
	}
	return QuoteIdent(column) + "=" + Quote(value)
}

// Neq creates a predicate checking inequality.
func Neq(column string, value any) string {
	if value == nil {
		return QuoteIdent(column) + " IS NOT NULL"
	}
	return QuoteIdent(column) + "!=" + Quote(value)
}

func Gt(column string, value any) string  { return QuoteIdent(column) + ">" + Quote(value) }
func Gte(column string, value any) string { return QuoteIdent(column) + ">=" + Quote(value) }
func Lt(column string, value any) string  { return QuoteIdent(column) + "<" + Quote(value) }
func Lte(column string, value any) string { return QuoteIdent(column) + "<=" + Quote(value) }

// In creates a predicate matching any of values. An empty list matches nothing.
func In(column string, values ...any) string {
	if len(values) == 0 {
		return "0"
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = Quote(v)
	}
	return QuoteIdent(column) + " IN (" + strings.Join(quoted, ",") + ")"
}

var wildcards = regexp.MustCompile(`\*+`)

// Like creates a case-insensitive search over columns, OR-ed together.
// Asterisks in keys are wildcards. Without columns only the quoted pattern is
// returned.
func Like(keys string, columns ...string) string {
	pattern := Quote("%" + strings.ToLower(wildcards.ReplaceAllString(keys, "%")) + "%")
	if len(columns) == 0 {
		return pattern
	}
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = "LOWER(" + QuoteIdent(col) + ") LIKE " + pattern
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}
