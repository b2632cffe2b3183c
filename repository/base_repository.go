package repository

import (
	"sqlconsoleapi/config"

	"gorm.io/gorm"
)

// BaseRepository provides transaction management capabilities for database operations.
type BaseRepository interface {
	Begin() *gorm.DB
}

type baseRepository struct {
	db *gorm.DB
}

// NewBaseRepository creates a new base repository instance with database connection.
func NewBaseRepository() BaseRepository {
	return &baseRepository{
		db: config.DB,
	}
}

func (r *baseRepository) Begin() *gorm.DB {
	return r.db.Begin()
}
