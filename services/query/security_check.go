package query

import (
	"fmt"
	"regexp"
	"strings"

	"sqlconsoleapi/config"
)

// DDL and DML vocabularies detected by the static toggles.
var (
	ddlStatements = []string{"DROP", "TRUNCATE", "ALTER", "CREATE", "GRANT", "REVOKE"}
	dmlStatements = []string{"INSERT", "UPDATE", "DELETE"}
)

// SQL-injection heuristics. These are string-level checks, not a parser: they
// catch stacked destructive statements, always-true tautologies, and UNION
// probing.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i);\s*(DROP|DELETE|TRUNCATE|UPDATE|INSERT|ALTER)\b`),
	regexp.MustCompile(`(?i)\bOR\s+1\s*=\s*1\b`),
	regexp.MustCompile(`(?i)\bOR\s+'[^']*'\s*=\s*'[^']*'`),
	regexp.MustCompile(`(?i)\bUNION\s+(ALL\s+)?SELECT\b`),
}

// StaticSecurityCheck applies the settings-driven toggles to a statement and
// returns the reason the statement is rejected, or ok=true. It is one of two
// independent vetoes in the gate; the risk policy evaluator is the other.
func StaticSecurityCheck(rawQuery string, settings config.SecuritySettings) (reason string, ok bool) {
	normalized := strings.ToUpper(strings.TrimSpace(rawQuery))

	if settings.EnableDDLBlock {
		for _, kw := range ddlStatements {
			if strings.Contains(normalized, kw) {
				return fmt.Sprintf("DDL statements are disabled (%s)", kw), false
			}
		}
	}

	if settings.EnableDMLBlock {
		for _, kw := range dmlStatements {
			if strings.Contains(normalized, kw) {
				return fmt.Sprintf("DML statements are disabled (%s)", kw), false
			}
		}
	}

	for _, kw := range settings.BlockedKeywords {
		kw = strings.TrimSpace(kw)
		if kw != "" && strings.Contains(normalized, strings.ToUpper(kw)) {
			return fmt.Sprintf("blocked keyword (%s)", kw), false
		}
	}

	if settings.EnableSQLInjectionCheck {
		for _, re := range injectionPatterns {
			if re.MatchString(rawQuery) {
				return "statement matches a SQL injection pattern", false
			}
		}
	}

	return "", true
}
