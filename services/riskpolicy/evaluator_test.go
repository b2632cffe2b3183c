package riskpolicy

import (
	"testing"

	"sqlconsoleapi/models"

	"github.com/stretchr/testify/assert"
)

// TestEvaluate_NoPolicies verifies the defaults when nothing matches.
func TestEvaluate_NoPolicies(t *testing.T) {
	result := Evaluate("SELECT * FROM orders LIMIT 10", nil)

	assert.True(t, result.Allowed)
	assert.Equal(t, 0, result.RiskScore)
	assert.Equal(t, models.PolicyActionWarn, result.Action)
	assert.Empty(t, result.MatchedPolicies)
}

// TestEvaluate_HighestScoreWins verifies the result carries the score and
// action of the highest-scoring matched policy while listing every match.
func TestEvaluate_HighestScoreWins(t *testing.T) {
	// ordered by risk score desc, as the repository returns them
	policies := []models.QueryRiskPolicy{
		{ID: 1, Name: "ddl", Type: models.PolicyTypeDDLBlock, RiskScore: 90, Action: models.PolicyActionBlock},
		{ID: 2, Name: "no-limit", Type: models.PolicyTypeLimitRequired, RiskScore: 20, Action: models.PolicyActionWarn},
	}

	result := Evaluate("DROP TABLE users", policies)

	assert.False(t, result.Allowed)
	assert.Equal(t, 90, result.RiskScore)
	assert.Equal(t, models.PolicyActionBlock, result.Action)
	assert.Len(t, result.MatchedPolicies, 1)
	assert.Contains(t, result.MatchedPolicies[0].Reason, "DROP")
}

// TestEvaluate_MultipleMatches verifies all firing policies are reported even
// when only the top score decides the action.
func TestEvaluate_MultipleMatches(t *testing.T) {
	policies := []models.QueryRiskPolicy{
		{ID: 1, Name: "where-required", Type: models.PolicyTypeWhereRequired, RiskScore: 70, Action: models.PolicyActionBlock},
		{ID: 2, Name: "keyword", Type: models.PolicyTypeKeywordBlock, BlockedKeywords: []string{"legacy_orders"}, RiskScore: 40, Action: models.PolicyActionWarn},
	}

	result := Evaluate("DELETE FROM legacy_orders", policies)

	assert.False(t, result.Allowed)
	assert.Equal(t, 70, result.RiskScore)
	assert.Equal(t, models.PolicyActionBlock, result.Action)
	assert.Len(t, result.MatchedPolicies, 2)
}

// TestEvaluate_WhereRequired covers the detector's positive and negative cases.
func TestEvaluate_WhereRequired(t *testing.T) {
	policies := []models.QueryRiskPolicy{
		{ID: 1, Name: "where-required", Type: models.PolicyTypeWhereRequired, RiskScore: 70, Action: models.PolicyActionBlock},
	}

	blocked := Evaluate("update orders set status = 'done'", policies)
	assert.False(t, blocked.Allowed)

	allowed := Evaluate("UPDATE orders SET status = 'done' WHERE id = 5", policies)
	assert.True(t, allowed.Allowed)
	assert.Equal(t, 0, allowed.RiskScore)

	selects := Evaluate("SELECT * FROM orders", policies)
	assert.True(t, selects.Allowed)
}

// TestEvaluate_TableRestrict verifies restricted table detection is
// case-insensitive.
func TestEvaluate_TableRestrict(t *testing.T) {
	policies := []models.QueryRiskPolicy{
		{ID: 1, Name: "pii", Type: models.PolicyTypeTableRestrict, RestrictedTables: []string{"customer_pii"}, RiskScore: 80, Action: models.PolicyActionRequireApproval},
	}

	result := Evaluate("select * from Customer_PII limit 5", policies)

	assert.True(t, result.Allowed) // require_approval does not set Allowed=false
	assert.Equal(t, models.PolicyActionRequireApproval, result.Action)
	assert.Equal(t, 80, result.RiskScore)
}

// TestEvaluate_CustomPattern verifies custom regex policies match
// case-insensitively against the query text.
func TestEvaluate_CustomPattern(t *testing.T) {
	policies := []models.QueryRiskPolicy{
		{ID: 1, Name: "outfile", Type: models.PolicyTypeCustom, Pattern: `INTO\s+OUTFILE`, RiskScore: 95, Action: models.PolicyActionBlock},
	}

	result := Evaluate("SELECT * FROM orders INTO OUTFILE '/tmp/x'", policies)

	assert.False(t, result.Allowed)
	assert.Equal(t, 95, result.RiskScore)
}

// TestEvaluate_MalformedCustomPattern verifies a broken pattern silently never
// matches instead of failing evaluation for unrelated queries.
func TestEvaluate_MalformedCustomPattern(t *testing.T) {
	policies := []models.QueryRiskPolicy{
		{ID: 1, Name: "broken", Type: models.PolicyTypeCustom, Pattern: "(unterminated", RiskScore: 99, Action: models.PolicyActionBlock},
		{ID: 2, Name: "no-limit", Type: models.PolicyTypeLimitRequired, RiskScore: 20, Action: models.PolicyActionWarn},
	}

	result := Evaluate("SELECT * FROM orders", policies)

	assert.True(t, result.Allowed)
	assert.Equal(t, 20, result.RiskScore)
	assert.Len(t, result.MatchedPolicies, 1)
	assert.Equal(t, "no-limit", result.MatchedPolicies[0].Name)
}

// TestEvaluate_DDLVocabulary walks the full DDL keyword set.
func TestEvaluate_DDLVocabulary(t *testing.T) {
	policies := []models.QueryRiskPolicy{
		{ID: 1, Name: "ddl", Type: models.PolicyTypeDDLBlock, RiskScore: 90, Action: models.PolicyActionBlock},
	}

	queries := []string{
		"DROP TABLE t",
		"truncate table t",
		"ALTER TABLE t ADD COLUMN c INT",
		"CREATE TABLE t (id INT)",
		"GRANT SELECT ON db.* TO 'u'",
		"REVOKE SELECT ON db.* FROM 'u'",
	}
	for _, q := range queries {
		result := Evaluate(q, policies)
		if result.Allowed {
			t.Errorf("Expected %q to be blocked by ddl_block", q)
		}
	}

	safe := Evaluate("INSERT INTO t VALUES (1)", policies)
	assert.True(t, safe.Allowed)
}
