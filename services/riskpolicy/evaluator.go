package riskpolicy

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"sqlconsoleapi/models"
	"sqlconsoleapi/pkg/logger"
	"sqlconsoleapi/repository"
)

// ddlKeywords is the fixed vocabulary the ddl_block policy type detects.
var ddlKeywords = []string{"DROP", "TRUNCATE", "ALTER", "CREATE", "GRANT", "REVOKE"}

// MatchedPolicy describes a policy that fired for a query.
type MatchedPolicy struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ValidationResult is the outcome of classifying a query against the active
// policy set.
type ValidationResult struct {
	Allowed         bool            `json:"allowed"`
	RiskScore       int             `json:"risk_score"`
	Action          string          `json:"action"`
	MatchedPolicies []MatchedPolicy `json:"matched_policies"`
}

// EvaluatorService classifies SQL statements against configured risk policies.
// Evaluation performs no side effects, so it is safe to call speculatively
// (e.g. from a "test this query" endpoint) without executing anything.
type EvaluatorService interface {
	ValidateQuery(ctx context.Context, query string, organizationID, connectionID *uint) (*ValidationResult, error)
}

type evaluatorService struct {
	policyRepo repository.RiskPolicyRepository
}

// NewEvaluatorService creates a new risk policy evaluator instance.
func NewEvaluatorService() EvaluatorService {
	return &evaluatorService{
		policyRepo: repository.NewRiskPolicyRepository(),
	}
}

// NewEvaluatorServiceWithRepo creates an evaluator with an explicit repository.
// Used for dependency injection in tests.
func NewEvaluatorServiceWithRepo(policyRepo repository.RiskPolicyRepository) EvaluatorService {
	return &evaluatorService{policyRepo: policyRepo}
}

// ValidateQuery loads the active policies for the scope and evaluates the
// query against them. Policy changes take effect on the next call; nothing is
// cached.
func (s *evaluatorService) ValidateQuery(ctx context.Context, query string, organizationID, connectionID *uint) (*ValidationResult, error) {
	policies, err := s.policyRepo.GetActiveForScope(nil, organizationID, connectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load risk policies: %w", err)
	}
	return Evaluate(query, policies), nil
}

// Evaluate classifies a query against an already-loaded policy list. Policies
// must be ordered by descending risk score so ties resolve to the first seen.
// Pure function of its inputs.
func Evaluate(query string, policies []models.QueryRiskPolicy) *ValidationResult {
	normalized := strings.ToUpper(strings.TrimSpace(query))

	result := &ValidationResult{
		Allowed:         true,
		RiskScore:       0,
		Action:          models.PolicyActionWarn,
		MatchedPolicies: []MatchedPolicy{},
	}

	best := -1
	for i := range policies {
		policy := &policies[i]
		reason, matched := matchPolicy(policy, normalized)
		if !matched {
			continue
		}
		result.MatchedPolicies = append(result.MatchedPolicies, MatchedPolicy{
			ID:     policy.ID,
			Name:   policy.Name,
			Reason: reason,
		})
		if policy.RiskScore > best {
			best = policy.RiskScore
			result.RiskScore = policy.RiskScore
			result.Action = policy.Action
		}
	}

	result.Allowed = result.Action != models.PolicyActionBlock
	return result
}

// matchPolicy applies the type-specific detector of a policy to the normalized
// (uppercased, trimmed) query text.
func matchPolicy(policy *models.QueryRiskPolicy, normalized string) (string, bool) {
	switch policy.Type {
	case models.PolicyTypeDDLBlock:
		for _, kw := range ddlKeywords {
			if strings.Contains(normalized, kw) {
				return fmt.Sprintf("DDL statement detected: %s", kw), true
			}
		}
	case models.PolicyTypeWhereRequired:
		if (strings.Contains(normalized, "UPDATE") || strings.Contains(normalized, "DELETE")) &&
			!strings.Contains(normalized, "WHERE") {
			return "UPDATE/DELETE without WHERE clause", true
		}
	case models.PolicyTypeLimitRequired:
		if strings.Contains(normalized, "SELECT") && !strings.Contains(normalized, "LIMIT") {
			return "SELECT without LIMIT clause", true
		}
	case models.PolicyTypeKeywordBlock:
		for _, kw := range policy.BlockedKeywords {
			if kw != "" && strings.Contains(normalized, strings.ToUpper(kw)) {
				return fmt.Sprintf("blocked keyword detected: %s", kw), true
			}
		}
	case models.PolicyTypeTableRestrict:
		for _, table := range policy.RestrictedTables {
			if table != "" && strings.Contains(normalized, strings.ToUpper(table)) {
				return fmt.Sprintf("restricted table referenced: %s", table), true
			}
		}
	case models.PolicyTypeCustom:
		if policy.Pattern == "" {
			return "", false
		}
		re, err := regexp.Compile("(?i)" + policy.Pattern)
		if err != nil {
			// One bad rule must not block unrelated traffic: a malformed
			// pattern is skipped, it never matches and never errors.
			logger.Warnf("Risk policy %d (%s) has malformed pattern %q: %v", policy.ID, policy.Name, policy.Pattern, err)
			return "", false
		}
		if re.MatchString(normalized) {
			return fmt.Sprintf("custom pattern matched: %s", policy.Pattern), true
		}
	}
	return "", false
}
