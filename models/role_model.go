package models

import "time"

// Role represents an access-control role inside an organization.
// ParentRoleID points at the single parent role; permission statements attached
// anywhere on the parent chain are inherited by principals holding this role.
type Role struct {
	ID             uint      `gorm:"primaryKey;column:id" json:"id"`
	Name           string    `gorm:"column:name;size:100;not null" json:"name"`
	Description    string    `gorm:"column:description;size:255" json:"description,omitempty"`
	ParentRoleID   *uint     `gorm:"column:parent_role_id" json:"parent_role_id,omitempty"` // nil for top-level roles
	Priority       int       `gorm:"column:priority;default:0" json:"priority"`             // listing order only, not precedence
	OrganizationID *uint     `gorm:"column:organization_id;index" json:"organization_id,omitempty"`
	IsSystem       bool      `gorm:"column:is_system;default:false" json:"is_system"` // seeded roles, not deletable
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Permissions []Permission `gorm:"foreignKey:RoleID" json:"permissions,omitempty"`
}

// TableName specifies the static table name for GORM.
func (Role) TableName() string {
	return "roles"
}
