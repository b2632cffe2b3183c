package query

import (
	"fmt"
	"regexp"
	"strings"
)

// Matched against the raw statement, not a normalized copy, so an existing
// self-limiting clause is never corrupted by the rewrite.
var (
	limitClauseRe = regexp.MustCompile(`(?i)\bLIMIT\s+\d`)
	fetchClauseRe = regexp.MustCompile(`(?i)\bFETCH\s+(FIRST|NEXT)\b`)
)

// ApplyRowLimit appends a LIMIT clause to a bare SELECT when a maximum result
// row setting is configured. Statements that are not SELECTs, or that already
// carry a LIMIT or ANSI FETCH FIRST/NEXT clause, pass through unchanged.
func ApplyRowLimit(rawQuery string, maxRows int) string {
	if maxRows <= 0 {
		return rawQuery
	}
	trimmed := strings.TrimSpace(rawQuery)
	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		return rawQuery
	}
	if limitClauseRe.MatchString(rawQuery) || fetchClauseRe.MatchString(rawQuery) {
		return rawQuery
	}
	trimmed = strings.TrimRight(trimmed, "; \t\n")
	return fmt.Sprintf("%s LIMIT %d", trimmed, maxRows)
}
