package roleadmin

import (
	"context"
	"errors"
	"fmt"

	"sqlconsoleapi/models"
	"sqlconsoleapi/pkg/logger"
	"sqlconsoleapi/repository"

	"gorm.io/gorm"
)

// ErrRoleNotFound is returned when a referenced role does not exist.
var ErrRoleNotFound = errors.New("role not found")

// ErrHierarchyCycle is returned when a role update would make the role its own
// ancestor. The resolver tolerates cycles defensively, but they are rejected
// at write time so malformed hierarchies never enter the store.
var ErrHierarchyCycle = errors.New("role hierarchy cycle detected")

// maxParentChain bounds the validation walk over existing parent links.
const maxParentChain = 64

// RoleService manages roles, their permission statements, and grants.
type RoleService interface {
	ListRoles(ctx context.Context, organizationID *uint) ([]models.Role, error)
	GetRole(ctx context.Context, id uint) (*models.Role, error)
	CreateRole(ctx context.Context, role *models.Role) error
	UpdateRole(ctx context.Context, role *models.Role) error
	DeleteRole(ctx context.Context, id uint) error

	AddPermission(ctx context.Context, permission *models.Permission) error
	UpdatePermission(ctx context.Context, permission *models.Permission) error
	RemovePermission(ctx context.Context, id uint) error

	GrantToUser(ctx context.Context, grant *models.UserRole) error
	GrantToGroup(ctx context.Context, grant *models.GroupRole) error
	SetUserGrantStatus(ctx context.Context, grantID uint, status string) error
	SetGroupGrantStatus(ctx context.Context, grantID uint, status string) error
	RevokeUserGrant(ctx context.Context, grantID uint) error
	RevokeGroupGrant(ctx context.Context, grantID uint) error
	ListPendingGrants(ctx context.Context) ([]models.UserRole, []models.GroupRole, error)
}

type roleService struct {
	baseRepo       repository.BaseRepository
	roleRepo       repository.RoleRepository
	permissionRepo repository.PermissionRepository
	assignmentRepo repository.RoleAssignmentRepository
}

// NewRoleService creates a new role administration service instance.
func NewRoleService() RoleService {
	return &roleService{
		baseRepo:       repository.NewBaseRepository(),
		roleRepo:       repository.NewRoleRepository(),
		permissionRepo: repository.NewPermissionRepository(),
		assignmentRepo: repository.NewRoleAssignmentRepository(),
	}
}

// NewRoleServiceWithRepos creates a role service with explicit repositories.
// Used for dependency injection in tests.
func NewRoleServiceWithRepos(roleRepo repository.RoleRepository, permissionRepo repository.PermissionRepository, assignmentRepo repository.RoleAssignmentRepository) RoleService {
	return &roleService{
		roleRepo:       roleRepo,
		permissionRepo: permissionRepo,
		assignmentRepo: assignmentRepo,
	}
}

func (s *roleService) ListRoles(ctx context.Context, organizationID *uint) ([]models.Role, error) {
	return s.roleRepo.GetAll(nil, organizationID)
}

func (s *roleService) GetRole(ctx context.Context, id uint) (*models.Role, error) {
	role, err := s.roleRepo.GetByID(nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return role, nil
}

func (s *roleService) CreateRole(ctx context.Context, role *models.Role) error {
	if role.ParentRoleID != nil {
		if _, err := s.GetRole(ctx, *role.ParentRoleID); err != nil {
			return fmt.Errorf("invalid parent role %d: %w", *role.ParentRoleID, err)
		}
	}
	return s.roleRepo.Create(nil, role)
}

func (s *roleService) UpdateRole(ctx context.Context, role *models.Role) error {
	if _, err := s.GetRole(ctx, role.ID); err != nil {
		return err
	}
	if err := s.validateNoCycle(role); err != nil {
		return err
	}
	return s.roleRepo.Update(nil, role)
}

// DeleteRole removes a role and its permission statements atomically, so the
// resolver never sees statements pointing at a deleted role.
func (s *roleService) DeleteRole(ctx context.Context, id uint) error {
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return fmt.Errorf("system role %q cannot be deleted", role.Name)
	}
	logger.Infof("Deleting role %d (%s)", role.ID, role.Name)

	if s.baseRepo == nil {
		if err := s.permissionRepo.DeleteByRoleID(nil, id); err != nil {
			return err
		}
		return s.roleRepo.Delete(nil, id)
	}

	tx := s.baseRepo.Begin()
	if err := s.permissionRepo.DeleteByRoleID(tx, id); err != nil {
		tx.Rollback()
		return err
	}
	if err := s.roleRepo.Delete(tx, id); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// validateNoCycle walks the proposed parent chain and rejects the update if it
// leads back to the role being updated.
func (s *roleService) validateNoCycle(role *models.Role) error {
	parent := role.ParentRoleID
	for depth := 0; parent != nil && depth < maxParentChain; depth++ {
		if *parent == role.ID {
			return ErrHierarchyCycle
		}
		ancestor, err := s.roleRepo.GetByID(nil, *parent)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil // dangling parent terminates the chain
			}
			return err
		}
		parent = ancestor.ParentRoleID
	}
	return nil
}

func (s *roleService) AddPermission(ctx context.Context, permission *models.Permission) error {
	if _, err := s.GetRole(ctx, permission.RoleID); err != nil {
		return err
	}
	return s.permissionRepo.Create(nil, permission)
}

func (s *roleService) UpdatePermission(ctx context.Context, permission *models.Permission) error {
	return s.permissionRepo.Update(nil, permission)
}

func (s *roleService) RemovePermission(ctx context.Context, id uint) error {
	return s.permissionRepo.Delete(nil, id)
}

func (s *roleService) GrantToUser(ctx context.Context, grant *models.UserRole) error {
	if _, err := s.GetRole(ctx, grant.RoleID); err != nil {
		return err
	}
	if grant.ApprovalStatus == "" {
		grant.ApprovalStatus = models.ApprovalStatusPending
	}
	if grant.IsTemporary && grant.ExpiresAt == nil {
		return fmt.Errorf("temporary grant requires expires_at")
	}
	return s.assignmentRepo.CreateUserRole(nil, grant)
}

func (s *roleService) GrantToGroup(ctx context.Context, grant *models.GroupRole) error {
	if _, err := s.GetRole(ctx, grant.RoleID); err != nil {
		return err
	}
	if grant.ApprovalStatus == "" {
		grant.ApprovalStatus = models.ApprovalStatusPending
	}
	if grant.IsTemporary && grant.ExpiresAt == nil {
		return fmt.Errorf("temporary grant requires expires_at")
	}
	return s.assignmentRepo.CreateGroupRole(nil, grant)
}

func validApprovalStatus(status string) bool {
	return status == models.ApprovalStatusApproved || status == models.ApprovalStatusRejected
}

func (s *roleService) SetUserGrantStatus(ctx context.Context, grantID uint, status string) error {
	if !validApprovalStatus(status) {
		return fmt.Errorf("invalid approval status: %s", status)
	}
	if _, err := s.assignmentRepo.GetUserRoleByID(nil, grantID); err != nil {
		return err
	}
	return s.assignmentRepo.UpdateUserRoleStatus(nil, grantID, status)
}

func (s *roleService) SetGroupGrantStatus(ctx context.Context, grantID uint, status string) error {
	if !validApprovalStatus(status) {
		return fmt.Errorf("invalid approval status: %s", status)
	}
	if _, err := s.assignmentRepo.GetGroupRoleByID(nil, grantID); err != nil {
		return err
	}
	return s.assignmentRepo.UpdateGroupRoleStatus(nil, grantID, status)
}

func (s *roleService) RevokeUserGrant(ctx context.Context, grantID uint) error {
	return s.assignmentRepo.DeleteUserRole(nil, grantID)
}

func (s *roleService) RevokeGroupGrant(ctx context.Context, grantID uint) error {
	return s.assignmentRepo.DeleteGroupRole(nil, grantID)
}

func (s *roleService) ListPendingGrants(ctx context.Context) ([]models.UserRole, []models.GroupRole, error) {
	userGrants, err := s.assignmentRepo.ListPendingUserRoles(nil)
	if err != nil {
		return nil, nil, err
	}
	groupGrants, err := s.assignmentRepo.ListPendingGroupRoles(nil)
	if err != nil {
		return nil, nil, err
	}
	return userGrants, groupGrants, nil
}
