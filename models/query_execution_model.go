package models

import "time"

// Query execution outcomes recorded for audit.
const (
	ExecutionStatusSuccess         = "success"
	ExecutionStatusFailed          = "failed"
	ExecutionStatusBlocked         = "blocked"
	ExecutionStatusPendingApproval = "pending_approval"
)

// QueryExecution is the write-once audit record emitted for every query
// execution attempt, including blocked and failed ones. Rows are never updated.
type QueryExecution struct {
	ID             uint      `gorm:"primaryKey;column:id" json:"id"`
	ExecutionID    string    `gorm:"column:execution_id;size:36;uniqueIndex" json:"execution_id"` // uuid
	ConnectionID   uint      `gorm:"column:connection_id;index" json:"connection_id"`
	ConnectionName string    `gorm:"column:connection_name;size:100" json:"connection_name"`
	Query          string    `gorm:"column:query;type:text" json:"query"`
	ExecutedBy     string    `gorm:"column:executed_by;size:100;index" json:"executed_by"`
	Status         string    `gorm:"column:status;size:20;not null" json:"status"`
	RiskScore      int       `gorm:"column:risk_score;default:0" json:"risk_score"`
	BlockedReason  string    `gorm:"column:blocked_reason;size:500" json:"blocked_reason,omitempty"`
	ErrorMessage   string    `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	RowCount       int       `gorm:"column:row_count;default:0" json:"row_count"`
	DurationMs     int64     `gorm:"column:duration_ms;default:0" json:"duration_ms"`
	OrganizationID *uint     `gorm:"column:organization_id;index" json:"organization_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName specifies the static table name for GORM.
func (QueryExecution) TableName() string {
	return "query_executions"
}
