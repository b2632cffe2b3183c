package models

import "time"

// Connection types understood by the connector registry.
const (
	ConnTypeMySQL   = "mysql"
	ConnTypeSandbox = "sandbox" // embedded in-memory engine, used for query testing
)

// Connection statuses.
const (
	ConnStatusEnabled  = "enabled"
	ConnStatusDisabled = "disabled"
)

// Connection represents a managed target database connection.
// Stores credentials and connection details for the servers queries are
// executed against. Password is stored as-is; encryption at rest is handled
// outside this service.
type Connection struct {
	ID             uint      `gorm:"primaryKey;column:id" json:"id"`
	Name           string    `gorm:"column:name;size:100;not null" json:"name"`
	Type           string    `gorm:"column:type;size:20;default:mysql" json:"type"`
	Host           string    `gorm:"column:host;size:255" json:"host"`
	Port           int       `gorm:"column:port;default:3306" json:"port"`
	Username       string    `gorm:"column:username;size:100" json:"username"`
	Password       string    `gorm:"column:password;size:255" json:"-"`
	Database       string    `gorm:"column:database_name;size:100" json:"database"`
	Status         string    `gorm:"column:status;size:20;default:enabled" json:"status"`
	OrganizationID *uint     `gorm:"column:organization_id;index" json:"organization_id,omitempty"`
	Description    string    `gorm:"column:description;size:255" json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the static table name for GORM.
func (Connection) TableName() string {
	return "connections"
}
