package models

import "time"

// Risk policy types. Each type selects a different detector in the evaluator.
const (
	PolicyTypeDDLBlock      = "ddl_block"
	PolicyTypeWhereRequired = "where_required"
	PolicyTypeLimitRequired = "limit_required"
	PolicyTypeKeywordBlock  = "keyword_block"
	PolicyTypeTableRestrict = "table_restrict"
	PolicyTypeCustom        = "custom"
)

// Enforcement actions a matched policy can demand.
const (
	PolicyActionWarn            = "warn"
	PolicyActionBlock           = "block"
	PolicyActionRequireApproval = "require_approval"
)

// QueryRiskPolicy is a configurable rule used to classify SQL statements.
// OrganizationID/ConnectionID of nil mean the policy is global and applies to
// every scope. Pattern is only consulted for the custom type;
// BlockedKeywords/RestrictedTables only for their respective types.
type QueryRiskPolicy struct {
	ID               uint      `gorm:"primaryKey;column:id" json:"id"`
	Name             string    `gorm:"column:name;size:100;not null" json:"name"`
	Type             string    `gorm:"column:type;size:30;not null" json:"type"`
	Pattern          string    `gorm:"column:pattern;size:500" json:"pattern,omitempty"`
	BlockedKeywords  []string  `gorm:"column:blocked_keywords;serializer:json" json:"blocked_keywords,omitempty"`
	RestrictedTables []string  `gorm:"column:restricted_tables;serializer:json" json:"restricted_tables,omitempty"`
	RiskScore        int       `gorm:"column:risk_score;default:0" json:"risk_score"` // 0-100
	Action           string    `gorm:"column:action;size:20;default:warn" json:"action"`
	IsActive         bool      `gorm:"column:is_active;default:true" json:"is_active"`
	OrganizationID   *uint     `gorm:"column:organization_id;index" json:"organization_id,omitempty"`
	ConnectionID     *uint     `gorm:"column:connection_id;index" json:"connection_id,omitempty"`
	Description      string    `gorm:"column:description;size:255" json:"description,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName specifies the static table name for GORM.
func (QueryRiskPolicy) TableName() string {
	return "query_risk_policies"
}
