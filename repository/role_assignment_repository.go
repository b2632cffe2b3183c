package repository

import (
	"time"

	"sqlconsoleapi/config"
	"sqlconsoleapi/models"

	"gorm.io/gorm"
)

// RoleAssignmentRepository provides data access operations for user and group
// role grants.
type RoleAssignmentRepository interface {
	GetApprovedRoleIDsForUser(tx *gorm.DB, userID uint, now time.Time) ([]uint, error)
	GetApprovedRoleIDsForGroups(tx *gorm.DB, groupIDs []uint, now time.Time) ([]uint, error)
	CreateUserRole(tx *gorm.DB, grant *models.UserRole) error
	CreateGroupRole(tx *gorm.DB, grant *models.GroupRole) error
	GetUserRoleByID(tx *gorm.DB, id uint) (*models.UserRole, error)
	GetGroupRoleByID(tx *gorm.DB, id uint) (*models.GroupRole, error)
	UpdateUserRoleStatus(tx *gorm.DB, id uint, status string) error
	UpdateGroupRoleStatus(tx *gorm.DB, id uint, status string) error
	DeleteUserRole(tx *gorm.DB, id uint) error
	DeleteGroupRole(tx *gorm.DB, id uint) error
	ListPendingUserRoles(tx *gorm.DB) ([]models.UserRole, error)
	ListPendingGroupRoles(tx *gorm.DB) ([]models.GroupRole, error)
}

type roleAssignmentRepository struct {
	db *gorm.DB
}

// NewRoleAssignmentRepository creates a new role assignment repository instance.
func NewRoleAssignmentRepository() RoleAssignmentRepository {
	return &roleAssignmentRepository{
		db: config.DB,
	}
}

// GetApprovedRoleIDsForUser returns role ids from approved, unexpired direct
// grants of the user.
func (r *roleAssignmentRepository) GetApprovedRoleIDsForUser(tx *gorm.DB, userID uint, now time.Time) ([]uint, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var roleIDs []uint
	err := db.Model(models.UserRole{}).
		Where("user_id = ? AND approval_status = ?", userID, models.ApprovalStatusApproved).
		Where("is_temporary = ? OR expires_at IS NULL OR expires_at > ?", false, now).
		Pluck("role_id", &roleIDs).Error
	if err != nil {
		return nil, err
	}
	return roleIDs, nil
}

// GetApprovedRoleIDsForGroups returns role ids from approved, unexpired grants
// of any of the given groups.
func (r *roleAssignmentRepository) GetApprovedRoleIDsForGroups(tx *gorm.DB, groupIDs []uint, now time.Time) ([]uint, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	if len(groupIDs) == 0 {
		return nil, nil
	}
	var roleIDs []uint
	err := db.Model(models.GroupRole{}).
		Where("group_id IN ? AND approval_status = ?", groupIDs, models.ApprovalStatusApproved).
		Where("is_temporary = ? OR expires_at IS NULL OR expires_at > ?", false, now).
		Pluck("role_id", &roleIDs).Error
	if err != nil {
		return nil, err
	}
	return roleIDs, nil
}

func (r *roleAssignmentRepository) CreateUserRole(tx *gorm.DB, grant *models.UserRole) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Create(grant).Error
}

func (r *roleAssignmentRepository) CreateGroupRole(tx *gorm.DB, grant *models.GroupRole) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Create(grant).Error
}

func (r *roleAssignmentRepository) GetUserRoleByID(tx *gorm.DB, id uint) (*models.UserRole, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var grant models.UserRole
	if err := db.Model(models.UserRole{}).Where("id = ?", id).First(&grant).Error; err != nil {
		return nil, err
	}
	return &grant, nil
}

func (r *roleAssignmentRepository) GetGroupRoleByID(tx *gorm.DB, id uint) (*models.GroupRole, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var grant models.GroupRole
	if err := db.Model(models.GroupRole{}).Where("id = ?", id).First(&grant).Error; err != nil {
		return nil, err
	}
	return &grant, nil
}

func (r *roleAssignmentRepository) UpdateUserRoleStatus(tx *gorm.DB, id uint, status string) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Model(models.UserRole{}).Where("id = ?", id).Update("approval_status", status).Error
}

func (r *roleAssignmentRepository) UpdateGroupRoleStatus(tx *gorm.DB, id uint, status string) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Model(models.GroupRole{}).Where("id = ?", id).Update("approval_status", status).Error
}

func (r *roleAssignmentRepository) DeleteUserRole(tx *gorm.DB, id uint) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.UserRole{}, id).Error
}

func (r *roleAssignmentRepository) DeleteGroupRole(tx *gorm.DB, id uint) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.GroupRole{}, id).Error
}

func (r *roleAssignmentRepository) ListPendingUserRoles(tx *gorm.DB) ([]models.UserRole, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var grants []models.UserRole
	if err := db.Model(models.UserRole{}).Where("approval_status = ?", models.ApprovalStatusPending).Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

func (r *roleAssignmentRepository) ListPendingGroupRoles(tx *gorm.DB) ([]models.GroupRole, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var grants []models.GroupRole
	if err := db.Model(models.GroupRole{}).Where("approval_status = ?", models.ApprovalStatusPending).Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}
