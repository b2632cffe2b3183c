package access

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"sqlconsoleapi/models"
	"sqlconsoleapi/pkg/logger"
	"sqlconsoleapi/repository"

	"gorm.io/gorm"
)

// maxHierarchyDepth bounds the parent-chain walk. The visited set already
// guards against cycles; the depth cap protects against pathological chains.
const maxHierarchyDepth = 64

// DefaultDenyReason is returned when no permission statement matches at all.
const DefaultDenyReason = "no matching permission found"

// RequestContext carries the contextual attributes a permission condition can
// test. Time of nil means "now".
type RequestContext struct {
	IP   string
	Time *time.Time
}

// CheckResult is the verdict of a permission check.
type CheckResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// SimulatedPermission is one resolved (resource, action) tuple from a what-if
// simulation, with conditions ignored.
type SimulatedPermission struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Allowed  bool   `json:"allowed"`
}

// AccessService resolves allow/deny decisions over the role hierarchy.
type AccessService interface {
	// CheckPermission decides whether the principal (user + groups) may perform
	// action on resource under the given request context. Default-deny: a
	// missing match is a deny, not an error.
	CheckPermission(ctx context.Context, userID uint, groupIDs []uint, resource, action string, reqCtx RequestContext) (*CheckResult, error)
	// SimulatePermissions returns every resolved (resource, action) tuple for
	// the principal without applying contextual conditions.
	SimulatePermissions(ctx context.Context, userID uint, groupIDs []uint) ([]SimulatedPermission, error)
}

type accessService struct {
	roleRepo       repository.RoleRepository
	permissionRepo repository.PermissionRepository
	assignmentRepo repository.RoleAssignmentRepository
}

// NewAccessService creates a new access service instance.
func NewAccessService() AccessService {
	return &accessService{
		roleRepo:       repository.NewRoleRepository(),
		permissionRepo: repository.NewPermissionRepository(),
		assignmentRepo: repository.NewRoleAssignmentRepository(),
	}
}

// NewAccessServiceWithRepos creates an access service with explicit
// repositories. Used for dependency injection in tests.
func NewAccessServiceWithRepos(roleRepo repository.RoleRepository, permissionRepo repository.PermissionRepository, assignmentRepo repository.RoleAssignmentRepository) AccessService {
	return &accessService{
		roleRepo:       roleRepo,
		permissionRepo: permissionRepo,
		assignmentRepo: assignmentRepo,
	}
}

func (s *accessService) CheckPermission(ctx context.Context, userID uint, groupIDs []uint, resource, action string, reqCtx RequestContext) (*CheckResult, error) {
	candidates, err := s.candidatePermissions(userID, groupIDs)
	if err != nil {
		return nil, err
	}

	// Single pass tracking the first fully matching deny and allow statements.
	// An explicit deny always wins over any allow for the same request.
	var deny, allow *models.Permission
	for i := range candidates {
		p := &candidates[i]
		if !matchResource(p.Resource, resource) || p.Action != action {
			continue
		}
		if !conditionsSatisfied(p.Conditions, reqCtx) {
			continue
		}
		if p.IsAllow {
			if allow == nil {
				allow = p
			}
		} else if deny == nil {
			deny = p
		}
	}

	switch {
	case deny != nil:
		logger.Debugf("Permission check denied: user=%d resource=%s action=%s permission=%d", userID, resource, action, deny.ID)
		return &CheckResult{Allowed: false, Reason: fmt.Sprintf("explicitly denied by permission %d on %s", deny.ID, deny.Resource)}, nil
	case allow != nil:
		return &CheckResult{Allowed: true, Reason: fmt.Sprintf("allowed by permission %d on %s", allow.ID, allow.Resource)}, nil
	default:
		return &CheckResult{Allowed: false, Reason: DefaultDenyReason}, nil
	}
}

func (s *accessService) SimulatePermissions(ctx context.Context, userID uint, groupIDs []uint) ([]SimulatedPermission, error) {
	candidates, err := s.candidatePermissions(userID, groupIDs)
	if err != nil {
		return nil, err
	}

	type verdict struct {
		allowed bool
		locked  bool // an explicit deny is final for the tuple
	}
	verdicts := make(map[[2]string]*verdict)
	for _, p := range candidates {
		key := [2]string{p.Resource, p.Action}
		v, ok := verdicts[key]
		if !ok {
			v = &verdict{}
			verdicts[key] = v
		}
		if !p.IsAllow {
			v.allowed = false
			v.locked = true
		} else if !v.locked {
			v.allowed = true
		}
	}

	result := make([]SimulatedPermission, 0, len(verdicts))
	for key, v := range verdicts {
		result = append(result, SimulatedPermission{Resource: key[0], Action: key[1], Allowed: v.allowed})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Resource != result[j].Resource {
			return result[i].Resource < result[j].Resource
		}
		return result[i].Action < result[j].Action
	})
	return result, nil
}

// candidatePermissions gathers every permission statement attached to any role
// in the principal's effective role set (direct grants plus inherited
// ancestors).
func (s *accessService) candidatePermissions(userID uint, groupIDs []uint) ([]models.Permission, error) {
	now := time.Now()

	userRoleIDs, err := s.assignmentRepo.GetApprovedRoleIDsForUser(nil, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load user role grants: %w", err)
	}
	groupRoleIDs, err := s.assignmentRepo.GetApprovedRoleIDsForGroups(nil, groupIDs, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load group role grants: %w", err)
	}

	effective, err := s.effectiveRoleSet(append(userRoleIDs, groupRoleIDs...))
	if err != nil {
		return nil, err
	}
	if len(effective) == 0 {
		return nil, nil
	}
	permissions, err := s.permissionRepo.GetByRoleIDs(nil, effective)
	if err != nil {
		return nil, fmt.Errorf("failed to load permissions: %w", err)
	}
	return permissions, nil
}

// effectiveRoleSet walks the parent chain of every granted role and returns the
// deduplicated set of the roles themselves plus all their ancestors. The walk
// terminates on a missing parent, an already-visited role, or the depth cap, so
// malformed hierarchies (dangling references, accidental cycles) degrade to a
// truncated set instead of an error.
func (s *accessService) effectiveRoleSet(grantedRoleIDs []uint) ([]uint, error) {
	visited := make(map[uint]bool)
	var effective []uint

	for _, id := range grantedRoleIDs {
		current := id
		for depth := 0; depth < maxHierarchyDepth; depth++ {
			if visited[current] {
				break
			}
			role, err := s.roleRepo.GetByID(nil, current)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					break
				}
				return nil, fmt.Errorf("failed to load role %d: %w", current, err)
			}
			visited[current] = true
			effective = append(effective, current)
			if role.ParentRoleID == nil {
				break
			}
			current = *role.ParentRoleID
		}
	}
	return effective, nil
}

// matchResource tests a resource pattern against a concrete resource.
// Patterns are exact strings, a trailing-'*' prefix, or the '*' wildcard.
func matchResource(pattern, resource string) bool {
	if pattern == "*" {
		return true
	}
	if n := len(pattern); n > 0 && pattern[n-1] == '*' {
		prefix := pattern[:n-1]
		return len(resource) >= len(prefix) && resource[:len(prefix)] == prefix
	}
	return pattern == resource
}

// conditionsSatisfied evaluates the conditions of a permission statement
// against the request context. A statement with no conditions always matches.
func conditionsSatisfied(conditions []models.PermissionCondition, reqCtx RequestContext) bool {
	for _, cond := range conditions {
		switch cond.Type {
		case models.ConditionTypeIP:
			if len(cond.AllowedIPs) > 0 && !containsString(cond.AllowedIPs, reqCtx.IP) {
				return false
			}
			if containsString(cond.DeniedIPs, reqCtx.IP) {
				return false
			}
		case models.ConditionTypeTime:
			t := time.Now()
			if reqCtx.Time != nil {
				t = *reqCtx.Time
			}
			if len(cond.Weekdays) > 0 && !containsInt(cond.Weekdays, int(t.Weekday())) {
				return false
			}
			if cond.HourStart != nil && cond.HourEnd != nil {
				hour := t.Hour()
				if hour < *cond.HourStart || hour > *cond.HourEnd {
					return false
				}
			}
		}
	}
	return true
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
