package repository

import (
	"sqlconsoleapi/config"
	"sqlconsoleapi/models"

	"gorm.io/gorm"
)

// ConnectionRepository provides data access operations for managed database connections.
type ConnectionRepository interface {
	GetWithCredentials(tx *gorm.DB, id uint) (*models.Connection, error)
	GetAll(tx *gorm.DB, organizationID *uint) ([]models.Connection, error)
	Create(tx *gorm.DB, conn *models.Connection) error
	Update(tx *gorm.DB, conn *models.Connection) error
	Delete(tx *gorm.DB, id uint) error
}

type connectionRepository struct {
	db *gorm.DB
}

// NewConnectionRepository creates a new connection repository instance.
func NewConnectionRepository() ConnectionRepository {
	return &connectionRepository{
		db: config.DB,
	}
}

// GetWithCredentials fetches a connection including its stored credentials.
// Callers must not serialize the result back to clients.
func (r *connectionRepository) GetWithCredentials(tx *gorm.DB, id uint) (*models.Connection, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var conn models.Connection
	if err := db.Model(models.Connection{}).Where("id = ?", id).First(&conn).Error; err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *connectionRepository) GetAll(tx *gorm.DB, organizationID *uint) ([]models.Connection, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	query := db.Model(models.Connection{})
	if organizationID != nil {
		query = query.Where("organization_id = ? OR organization_id IS NULL", *organizationID)
	}
	var conns []models.Connection
	if err := query.Order("name asc").Find(&conns).Error; err != nil {
		return nil, err
	}
	return conns, nil
}

func (r *connectionRepository) Create(tx *gorm.DB, conn *models.Connection) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Create(conn).Error
}

func (r *connectionRepository) Update(tx *gorm.DB, conn *models.Connection) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Save(conn).Error
}

func (r *connectionRepository) Delete(tx *gorm.DB, id uint) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.Connection{}, id).Error
}
