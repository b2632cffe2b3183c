package repository

import (
	"sqlconsoleapi/config"
	"sqlconsoleapi/models"

	"gorm.io/gorm"
)

// RiskPolicyRepository provides data access operations for query risk policies.
type RiskPolicyRepository interface {
	GetActiveForScope(tx *gorm.DB, organizationID, connectionID *uint) ([]models.QueryRiskPolicy, error)
	GetByID(tx *gorm.DB, id uint) (*models.QueryRiskPolicy, error)
	GetAll(tx *gorm.DB) ([]models.QueryRiskPolicy, error)
	Create(tx *gorm.DB, policy *models.QueryRiskPolicy) error
	Update(tx *gorm.DB, policy *models.QueryRiskPolicy) error
	Delete(tx *gorm.DB, id uint) error
	CountByName(tx *gorm.DB, name string) (int64, error)
}

type riskPolicyRepository struct {
	db *gorm.DB
}

// NewRiskPolicyRepository creates a new risk policy repository instance.
func NewRiskPolicyRepository() RiskPolicyRepository {
	return &riskPolicyRepository{
		db: config.DB,
	}
}

// GetActiveForScope loads the active policies applying to the given
// organization/connection. Global policies (null scope columns) always apply.
// Results are ordered by descending risk score so the evaluator can resolve
// ties by first match.
func (r *riskPolicyRepository) GetActiveForScope(tx *gorm.DB, organizationID, connectionID *uint) ([]models.QueryRiskPolicy, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	query := db.Model(models.QueryRiskPolicy{}).Where("is_active = ?", true)
	if organizationID != nil {
		query = query.Where("organization_id IS NULL OR organization_id = ?", *organizationID)
	} else {
		query = query.Where("organization_id IS NULL")
	}
	if connectionID != nil {
		query = query.Where("connection_id IS NULL OR connection_id = ?", *connectionID)
	} else {
		query = query.Where("connection_id IS NULL")
	}
	var policies []models.QueryRiskPolicy
	if err := query.Order("risk_score desc").Find(&policies).Error; err != nil {
		return nil, err
	}
	return policies, nil
}

func (r *riskPolicyRepository) GetByID(tx *gorm.DB, id uint) (*models.QueryRiskPolicy, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var policy models.QueryRiskPolicy
	if err := db.Model(models.QueryRiskPolicy{}).Where("id = ?", id).First(&policy).Error; err != nil {
		return nil, err
	}
	return &policy, nil
}

func (r *riskPolicyRepository) GetAll(tx *gorm.DB) ([]models.QueryRiskPolicy, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var policies []models.QueryRiskPolicy
	if err := db.Model(models.QueryRiskPolicy{}).Order("risk_score desc").Find(&policies).Error; err != nil {
		return nil, err
	}
	return policies, nil
}

func (r *riskPolicyRepository) Create(tx *gorm.DB, policy *models.QueryRiskPolicy) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Create(policy).Error
}

func (r *riskPolicyRepository) Update(tx *gorm.DB, policy *models.QueryRiskPolicy) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Save(policy).Error
}

func (r *riskPolicyRepository) Delete(tx *gorm.DB, id uint) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.QueryRiskPolicy{}, id).Error
}

func (r *riskPolicyRepository) CountByName(tx *gorm.DB, name string) (int64, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var count int64
	if err := db.Model(models.QueryRiskPolicy{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
