package riskpolicy

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"sqlconsoleapi/models"
	"sqlconsoleapi/pkg/logger"
	"sqlconsoleapi/repository"

	"gorm.io/gorm"
)

// ErrPolicyNotFound is returned when a referenced policy does not exist.
var ErrPolicyNotFound = errors.New("risk policy not found")

var validPolicyTypes = map[string]bool{
	models.PolicyTypeDDLBlock:      true,
	models.PolicyTypeWhereRequired: true,
	models.PolicyTypeLimitRequired: true,
	models.PolicyTypeKeywordBlock:  true,
	models.PolicyTypeTableRestrict: true,
	models.PolicyTypeCustom:        true,
}

var validPolicyActions = map[string]bool{
	models.PolicyActionWarn:            true,
	models.PolicyActionBlock:           true,
	models.PolicyActionRequireApproval: true,
}

// AdminService manages the risk policy set.
type AdminService interface {
	ListPolicies(ctx context.Context) ([]models.QueryRiskPolicy, error)
	GetPolicy(ctx context.Context, id uint) (*models.QueryRiskPolicy, error)
	CreatePolicy(ctx context.Context, policy *models.QueryRiskPolicy) error
	UpdatePolicy(ctx context.Context, policy *models.QueryRiskPolicy) error
	DeletePolicy(ctx context.Context, id uint) error
}

type adminService struct {
	policyRepo repository.RiskPolicyRepository
}

// NewAdminService creates a new risk policy administration service instance.
func NewAdminService() AdminService {
	return &adminService{
		policyRepo: repository.NewRiskPolicyRepository(),
	}
}

// NewAdminServiceWithRepo creates an admin service with an explicit repository.
// Used for dependency injection in tests.
func NewAdminServiceWithRepo(policyRepo repository.RiskPolicyRepository) AdminService {
	return &adminService{policyRepo: policyRepo}
}

func (s *adminService) ListPolicies(ctx context.Context) ([]models.QueryRiskPolicy, error) {
	return s.policyRepo.GetAll(nil)
}

func (s *adminService) GetPolicy(ctx context.Context, id uint) (*models.QueryRiskPolicy, error) {
	policy, err := s.policyRepo.GetByID(nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPolicyNotFound
		}
		return nil, err
	}
	return policy, nil
}

func (s *adminService) CreatePolicy(ctx context.Context, policy *models.QueryRiskPolicy) error {
	if err := validatePolicy(policy); err != nil {
		return err
	}
	logger.Infof("Creating risk policy %q (type=%s, score=%d, action=%s)",
		policy.Name, policy.Type, policy.RiskScore, policy.Action)
	return s.policyRepo.Create(nil, policy)
}

func (s *adminService) UpdatePolicy(ctx context.Context, policy *models.QueryRiskPolicy) error {
	if _, err := s.GetPolicy(ctx, policy.ID); err != nil {
		return err
	}
	if err := validatePolicy(policy); err != nil {
		return err
	}
	return s.policyRepo.Update(nil, policy)
}

func (s *adminService) DeletePolicy(ctx context.Context, id uint) error {
	if _, err := s.GetPolicy(ctx, id); err != nil {
		return err
	}
	return s.policyRepo.Delete(nil, id)
}

// validatePolicy checks enum fields and score range. A custom pattern is
// compiled as a warning aid only; a policy saved with a malformed pattern is
// legal but will never match (the evaluator skips it), so the error here is
// surfaced to the administrator at write time instead.
func validatePolicy(policy *models.QueryRiskPolicy) error {
	if !validPolicyTypes[policy.Type] {
		return fmt.Errorf("invalid policy type: %s", policy.Type)
	}
	if policy.Action == "" {
		policy.Action = models.PolicyActionWarn
	}
	if !validPolicyActions[policy.Action] {
		return fmt.Errorf("invalid policy action: %s", policy.Action)
	}
	if policy.RiskScore < 0 || policy.RiskScore > 100 {
		return fmt.Errorf("risk score must be between 0 and 100, got %d", policy.RiskScore)
	}
	if policy.Type == models.PolicyTypeCustom {
		if policy.Pattern == "" {
			return fmt.Errorf("custom policy requires a pattern")
		}
		if _, err := regexp.Compile("(?i)" + policy.Pattern); err != nil {
			return fmt.Errorf("malformed custom pattern: %v", err)
		}
	}
	return nil
}
