package query

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConnectionNotFound is returned when the referenced connection does not exist.
var ErrConnectionNotFound = errors.New("connection not found")

// ForbiddenError is returned when the security check or risk policy blocks a
// statement. It always carries a human-readable reason naming the rule that fired.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("query blocked: %s", e.Reason)
}

// ApprovalRequiredError is returned when a matched policy demands approval
// before execution. The statement has not been executed.
type ApprovalRequiredError struct {
	Reason string
}

func (e *ApprovalRequiredError) Error() string {
	return fmt.Sprintf("query requires approval: %s", e.Reason)
}

// driverHint maps a driver error substring to an actionable user-facing hint.
// Checks run in order; the first match wins.
type driverHint struct {
	substrings []string
	hint       string
}

var driverHints = []driverHint{
	{[]string{"doesn't exist", "no such table", "relation", "unknown table"}, "the referenced table does not exist in the target database"},
	{[]string{"unknown column", "no such column"}, "the referenced column does not exist"},
	{[]string{"syntax error", "error in your sql syntax"}, "the statement has a syntax error"},
	{[]string{"connection refused", "no such host"}, "the target database is unreachable"},
	{[]string{"timeout", "timed out", "deadline exceeded"}, "the query or connection timed out"},
	{[]string{"access denied", "permission denied"}, "the stored credentials lack permission for this statement"},
}

// TranslateDriverError rewrites a raw driver error into an actionable message
// when a known pattern is recognized; otherwise the original error passes
// through unchanged. The original message is always preserved.
func TranslateDriverError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, h := range driverHints {
		for _, sub := range h.substrings {
			if strings.Contains(msg, sub) {
				return fmt.Errorf("%s: %w", h.hint, err)
			}
		}
	}
	return err
}
