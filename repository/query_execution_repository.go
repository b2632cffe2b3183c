package repository

import (
	"sqlconsoleapi/config"
	"sqlconsoleapi/models"

	"gorm.io/gorm"
)

// QueryExecutionRepository provides data access operations for execution audit records.
// Records are write-once; there is no update operation.
type QueryExecutionRepository interface {
	Create(tx *gorm.DB, record *models.QueryExecution) error
	ListPaginated(tx *gorm.DB, connectionID *uint, executedBy string, page, pageSize int) ([]models.QueryExecution, int64, error)
}

type queryExecutionRepository struct {
	db *gorm.DB
}

// NewQueryExecutionRepository creates a new query execution repository instance.
func NewQueryExecutionRepository() QueryExecutionRepository {
	return &queryExecutionRepository{
		db: config.DB,
	}
}

func (r *queryExecutionRepository) Create(tx *gorm.DB, record *models.QueryExecution) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Create(record).Error
}

// ListPaginated returns execution records newest first, optionally filtered by
// connection and executor.
func (r *queryExecutionRepository) ListPaginated(tx *gorm.DB, connectionID *uint, executedBy string, page, pageSize int) ([]models.QueryExecution, int64, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	query := db.Model(models.QueryExecution{})
	if connectionID != nil {
		query = query.Where("connection_id = ?", *connectionID)
	}
	if executedBy != "" {
		query = query.Where("executed_by = ?", executedBy)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	var records []models.QueryExecution
	err := query.Order("id desc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
