package models

import "time"

// Grant approval states. Only approved grants participate in resolution.
const (
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"
)

// UserRole assigns a role directly to a user.
// Temporary grants carry an expiry; expired grants are ignored by the resolver.
type UserRole struct {
	ID             uint       `gorm:"primaryKey;column:id" json:"id"`
	UserID         uint       `gorm:"column:user_id;not null;index" json:"user_id"`
	RoleID         uint       `gorm:"column:role_id;not null;index" json:"role_id"`
	GrantedBy      string     `gorm:"column:granted_by;size:100" json:"granted_by"`
	IsTemporary    bool       `gorm:"column:is_temporary;default:false" json:"is_temporary"`
	ExpiresAt      *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	ApprovalStatus string     `gorm:"column:approval_status;size:20;default:pending" json:"approval_status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName specifies the static table name for GORM.
func (UserRole) TableName() string {
	return "user_roles"
}

// GroupRole assigns a role to a user group.
type GroupRole struct {
	ID             uint       `gorm:"primaryKey;column:id" json:"id"`
	GroupID        uint       `gorm:"column:group_id;not null;index" json:"group_id"`
	RoleID         uint       `gorm:"column:role_id;not null;index" json:"role_id"`
	GrantedBy      string     `gorm:"column:granted_by;size:100" json:"granted_by"`
	IsTemporary    bool       `gorm:"column:is_temporary;default:false" json:"is_temporary"`
	ExpiresAt      *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	ApprovalStatus string     `gorm:"column:approval_status;size:20;default:pending" json:"approval_status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName specifies the static table name for GORM.
func (GroupRole) TableName() string {
	return "group_roles"
}
