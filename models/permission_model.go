package models

import "time"

// Permission condition types.
const (
	ConditionTypeIP   = "ip"
	ConditionTypeTime = "time"
)

// PermissionCondition restricts when a permission statement matches.
// Type "ip" carries allow/deny IP lists; type "time" carries allowed weekdays
// (0=Sunday..6=Saturday) and an inclusive hour range.
type PermissionCondition struct {
	Type        string   `json:"type"`
	AllowedIPs  []string `json:"allowed_ips,omitempty"`
	DeniedIPs   []string `json:"denied_ips,omitempty"`
	Weekdays    []int    `json:"weekdays,omitempty"`
	HourStart   *int     `json:"hour_start,omitempty"`
	HourEnd     *int     `json:"hour_end,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Permission is a single allow or deny statement attached to a role.
// Resource is an exact string, a prefix ending in '*', or the literal '*'.
// A permission with no conditions always matches once resource+action match.
type Permission struct {
	ID         uint                  `gorm:"primaryKey;column:id" json:"id"`
	RoleID     uint                  `gorm:"column:role_id;not null;index" json:"role_id"`
	Resource   string                `gorm:"column:resource;size:255;not null" json:"resource"`
	Action     string                `gorm:"column:action;size:50;not null" json:"action"`
	IsAllow    bool                  `gorm:"column:is_allow;default:true" json:"is_allow"`
	Conditions []PermissionCondition `gorm:"column:conditions;serializer:json" json:"conditions,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// TableName specifies the static table name for GORM.
func (Permission) TableName() string {
	return "permissions"
}
