package repository

import (
	"sqlconsoleapi/config"
	"sqlconsoleapi/models"

	"gorm.io/gorm"
)

// PermissionRepository provides data access operations for permission statements.
type PermissionRepository interface {
	GetByRoleIDs(tx *gorm.DB, roleIDs []uint) ([]models.Permission, error)
	GetByID(tx *gorm.DB, id uint) (*models.Permission, error)
	Create(tx *gorm.DB, permission *models.Permission) error
	Update(tx *gorm.DB, permission *models.Permission) error
	Delete(tx *gorm.DB, id uint) error
	DeleteByRoleID(tx *gorm.DB, roleID uint) error
}

type permissionRepository struct {
	db *gorm.DB
}

// NewPermissionRepository creates a new permission repository instance.
func NewPermissionRepository() PermissionRepository {
	return &permissionRepository{
		db: config.DB,
	}
}

// GetByRoleIDs gathers every permission statement attached to any of the given
// roles. The resolver calls this with the full effective role set.
func (r *permissionRepository) GetByRoleIDs(tx *gorm.DB, roleIDs []uint) ([]models.Permission, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	if len(roleIDs) == 0 {
		return nil, nil
	}
	var permissions []models.Permission
	if err := db.Model(models.Permission{}).Where("role_id IN ?", roleIDs).Find(&permissions).Error; err != nil {
		return nil, err
	}
	return permissions, nil
}

func (r *permissionRepository) GetByID(tx *gorm.DB, id uint) (*models.Permission, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var permission models.Permission
	if err := db.Model(models.Permission{}).Where("id = ?", id).First(&permission).Error; err != nil {
		return nil, err
	}
	return &permission, nil
}

func (r *permissionRepository) Create(tx *gorm.DB, permission *models.Permission) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Create(permission).Error
}

func (r *permissionRepository) Update(tx *gorm.DB, permission *models.Permission) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Save(permission).Error
}

func (r *permissionRepository) Delete(tx *gorm.DB, id uint) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.Permission{}, id).Error
}

// DeleteByRoleID removes every permission statement attached to a role.
// Called inside the role-deletion transaction.
func (r *permissionRepository) DeleteByRoleID(tx *gorm.DB, roleID uint) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Where("role_id = ?", roleID).Delete(&models.Permission{}).Error
}
