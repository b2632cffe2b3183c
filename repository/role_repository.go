package repository

import (
	"sqlconsoleapi/config"
	"sqlconsoleapi/models"

	"gorm.io/gorm"
)

// RoleRepository provides data access operations for role records.
type RoleRepository interface {
	GetByID(tx *gorm.DB, id uint) (*models.Role, error)
	GetByIDs(tx *gorm.DB, ids []uint) ([]models.Role, error)
	GetAll(tx *gorm.DB, organizationID *uint) ([]models.Role, error)
	Create(tx *gorm.DB, role *models.Role) error
	Update(tx *gorm.DB, role *models.Role) error
	Delete(tx *gorm.DB, id uint) error
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a new role repository instance.
func NewRoleRepository() RoleRepository {
	return &roleRepository{
		db: config.DB,
	}
}

func (r *roleRepository) GetByID(tx *gorm.DB, id uint) (*models.Role, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var role models.Role
	if err := db.Model(models.Role{}).Where("id = ?", id).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) GetByIDs(tx *gorm.DB, ids []uint) ([]models.Role, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	if len(ids) == 0 {
		return nil, nil
	}
	var roles []models.Role
	if err := db.Model(models.Role{}).Where("id IN ?", ids).Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// GetAll returns all roles, optionally filtered by organization, ordered by
// priority for listing.
func (r *roleRepository) GetAll(tx *gorm.DB, organizationID *uint) ([]models.Role, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	query := db.Model(models.Role{})
	if organizationID != nil {
		query = query.Where("organization_id = ? OR organization_id IS NULL", *organizationID)
	}
	var roles []models.Role
	if err := query.Order("priority asc").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) Create(tx *gorm.DB, role *models.Role) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Create(role).Error
}

func (r *roleRepository) Update(tx *gorm.DB, role *models.Role) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Save(role).Error
}

func (r *roleRepository) Delete(tx *gorm.DB, id uint) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.Role{}, id).Error
}
