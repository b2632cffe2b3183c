package query

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestTranslateDriverError_KnownPatterns verifies each hint category wraps the
// original error without losing it.
func TestTranslateDriverError_KnownPatterns(t *testing.T) {
	tests := []struct {
		raw  string
		hint string
	}{
		{"Error 1146: Table 'orders.legacy' doesn't exist", "table does not exist"},
		{"Error 1054: Unknown column 'statuss' in 'field list'", "column does not exist"},
		{"You have an error in your SQL syntax", "syntax error"},
		{"dial tcp 10.0.0.5:3306: connection refused", "unreachable"},
		{"context deadline exceeded", "timed out"},
		{"Error 1045: Access denied for user 'svc'@'%'", "lack permission"},
	}
	for _, tt := range tests {
		original := errors.New(tt.raw)
		translated := TranslateDriverError(original)
		if translated == original {
			t.Errorf("Expected %q to be translated", tt.raw)
			continue
		}
		if !strings.Contains(translated.Error(), tt.hint) {
			t.Errorf("Expected hint containing %q, got %q", tt.hint, translated.Error())
		}
		if !errors.Is(translated, original) {
			t.Errorf("Expected translated error to wrap the original for %q", tt.raw)
		}
	}
}

// TestTranslateDriverError_FirstMatchWins verifies order: a message carrying
// both a table hint and a timeout hint resolves to the earlier category.
func TestTranslateDriverError_FirstMatchWins(t *testing.T) {
	err := errors.New("table 'orders.t' doesn't exist (lookup timed out)")
	translated := TranslateDriverError(err)
	if !strings.Contains(translated.Error(), "table does not exist") {
		t.Errorf("Expected table hint to win, got %q", translated.Error())
	}
}

// TestTranslateDriverError_UnknownPassesThrough verifies unrecognized errors
// are returned unchanged.
func TestTranslateDriverError_UnknownPassesThrough(t *testing.T) {
	original := errors.New("some exotic driver failure")
	if got := TranslateDriverError(original); got != original {
		t.Errorf("Expected unrecognized error to pass through, got %v", got)
	}
	if got := TranslateDriverError(nil); got != nil {
		t.Errorf("Expected nil to pass through, got %v", got)
	}
}

// TestForbiddenError_Message verifies the user-facing format carries the reason.
func TestForbiddenError_Message(t *testing.T) {
	err := &ForbiddenError{Reason: "DDL statements are disabled (DROP)"}
	if !strings.Contains(err.Error(), "query blocked") || !strings.Contains(err.Error(), "DROP") {
		t.Errorf("Unexpected message: %q", err.Error())
	}

	var forbidden *ForbiddenError
	wrapped := fmt.Errorf("execute failed: %w", err)
	if !errors.As(wrapped, &forbidden) {
		t.Error("Expected errors.As to recover *ForbiddenError through wrapping")
	}
}
