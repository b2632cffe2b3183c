package access

import (
	"context"
	"strings"
	"testing"
	"time"

	"sqlconsoleapi/models"

	"gorm.io/gorm"
)

// fakeRoleRepo serves roles from an in-memory map.
type fakeRoleRepo struct {
	roles map[uint]*models.Role
}

func (f *fakeRoleRepo) GetByID(tx *gorm.DB, id uint) (*models.Role, error) {
	role, ok := f.roles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return role, nil
}

func (f *fakeRoleRepo) GetByIDs(tx *gorm.DB, ids []uint) ([]models.Role, error) {
	var out []models.Role
	for _, id := range ids {
		if role, ok := f.roles[id]; ok {
			out = append(out, *role)
		}
	}
	return out, nil
}

func (f *fakeRoleRepo) GetAll(tx *gorm.DB, organizationID *uint) ([]models.Role, error) {
	return nil, nil
}
func (f *fakeRoleRepo) Create(tx *gorm.DB, role *models.Role) error { return nil }
func (f *fakeRoleRepo) Update(tx *gorm.DB, role *models.Role) error { return nil }
func (f *fakeRoleRepo) Delete(tx *gorm.DB, id uint) error           { return nil }

// fakePermissionRepo serves permissions keyed by role id.
type fakePermissionRepo struct {
	byRole map[uint][]models.Permission
}

func (f *fakePermissionRepo) GetByRoleIDs(tx *gorm.DB, roleIDs []uint) ([]models.Permission, error) {
	var out []models.Permission
	for _, id := range roleIDs {
		out = append(out, f.byRole[id]...)
	}
	return out, nil
}

func (f *fakePermissionRepo) GetByID(tx *gorm.DB, id uint) (*models.Permission, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakePermissionRepo) Create(tx *gorm.DB, p *models.Permission) error { return nil }
func (f *fakePermissionRepo) Update(tx *gorm.DB, p *models.Permission) error { return nil }
func (f *fakePermissionRepo) Delete(tx *gorm.DB, id uint) error              { return nil }
func (f *fakePermissionRepo) DeleteByRoleID(tx *gorm.DB, roleID uint) error  { return nil }

// fakeAssignmentRepo returns fixed role id sets.
type fakeAssignmentRepo struct {
	userRoleIDs  []uint
	groupRoleIDs []uint
}

func (f *fakeAssignmentRepo) GetApprovedRoleIDsForUser(tx *gorm.DB, userID uint, now time.Time) ([]uint, error) {
	return f.userRoleIDs, nil
}

func (f *fakeAssignmentRepo) GetApprovedRoleIDsForGroups(tx *gorm.DB, groupIDs []uint, now time.Time) ([]uint, error) {
	return f.groupRoleIDs, nil
}

func (f *fakeAssignmentRepo) CreateUserRole(tx *gorm.DB, grant *models.UserRole) error   { return nil }
func (f *fakeAssignmentRepo) CreateGroupRole(tx *gorm.DB, grant *models.GroupRole) error { return nil }
func (f *fakeAssignmentRepo) GetUserRoleByID(tx *gorm.DB, id uint) (*models.UserRole, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeAssignmentRepo) GetGroupRoleByID(tx *gorm.DB, id uint) (*models.GroupRole, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeAssignmentRepo) UpdateUserRoleStatus(tx *gorm.DB, id uint, status string) error {
	return nil
}
func (f *fakeAssignmentRepo) UpdateGroupRoleStatus(tx *gorm.DB, id uint, status string) error {
	return nil
}
func (f *fakeAssignmentRepo) DeleteUserRole(tx *gorm.DB, id uint) error  { return nil }
func (f *fakeAssignmentRepo) DeleteGroupRole(tx *gorm.DB, id uint) error { return nil }
func (f *fakeAssignmentRepo) ListPendingUserRoles(tx *gorm.DB) ([]models.UserRole, error) {
	return nil, nil
}
func (f *fakeAssignmentRepo) ListPendingGroupRoles(tx *gorm.DB) ([]models.GroupRole, error) {
	return nil, nil
}

func newTestService(roles map[uint]*models.Role, byRole map[uint][]models.Permission, userRoleIDs, groupRoleIDs []uint) AccessService {
	return NewAccessServiceWithRepos(
		&fakeRoleRepo{roles: roles},
		&fakePermissionRepo{byRole: byRole},
		&fakeAssignmentRepo{userRoleIDs: userRoleIDs, groupRoleIDs: groupRoleIDs},
	)
}

// TestCheckPermission_DenyWinsOverAllow verifies an explicit deny beats an
// allow for the same request, regardless of statement order.
func TestCheckPermission_DenyWinsOverAllow(t *testing.T) {
	roles := map[uint]*models.Role{
		1: {ID: 1, Name: "reader"},
		2: {ID: 2, Name: "restricted"},
	}
	perms := map[uint][]models.Permission{
		1: {{ID: 10, RoleID: 1, Resource: "db:orders", Action: "query:execute", IsAllow: true}},
		2: {{ID: 20, RoleID: 2, Resource: "db:*", Action: "query:execute", IsAllow: false}},
	}
	srv := newTestService(roles, perms, []uint{1, 2}, nil)

	result, err := srv.CheckPermission(context.Background(), 7, nil, "db:orders", "query:execute", RequestContext{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Allowed {
		t.Errorf("Expected deny to win, got allowed with reason %q", result.Reason)
	}
	if !strings.Contains(result.Reason, "explicitly denied") {
		t.Errorf("Expected deny reason, got %q", result.Reason)
	}
}

// TestCheckPermission_DefaultDeny verifies a request with no matching statement
// is denied with the default reason, not treated as an error.
func TestCheckPermission_DefaultDeny(t *testing.T) {
	roles := map[uint]*models.Role{1: {ID: 1, Name: "reader"}}
	perms := map[uint][]models.Permission{
		1: {{ID: 10, RoleID: 1, Resource: "db:orders", Action: "query:execute", IsAllow: true}},
	}
	srv := newTestService(roles, perms, []uint{1}, nil)

	result, err := srv.CheckPermission(context.Background(), 7, nil, "db:orders", "connection:manage", RequestContext{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Allowed {
		t.Error("Expected default deny for unmatched action")
	}
	if result.Reason != DefaultDenyReason {
		t.Errorf("Expected reason %q, got %q", DefaultDenyReason, result.Reason)
	}
}

// TestCheckPermission_WildcardMatching covers the three pattern forms.
func TestCheckPermission_WildcardMatching(t *testing.T) {
	tests := []struct {
		pattern  string
		resource string
		want     bool
	}{
		{"*", "db:anything", true},
		{"db:*", "db:sales", true},
		{"db:*", "dbx:sales", false},
		{"db:orders", "db:orders", true},
		{"db:orders", "db:orders_archive", false},
	}
	for _, tt := range tests {
		if got := matchResource(tt.pattern, tt.resource); got != tt.want {
			t.Errorf("matchResource(%q, %q) = %v, want %v", tt.pattern, tt.resource, got, tt.want)
		}
	}
}

// TestCheckPermission_HierarchyInheritance verifies permissions attached to an
// ancestor role apply to principals holding only the child role.
func TestCheckPermission_HierarchyInheritance(t *testing.T) {
	parentID := uint(1)
	roles := map[uint]*models.Role{
		1: {ID: 1, Name: "base"},
		2: {ID: 2, Name: "child", ParentRoleID: &parentID},
	}
	perms := map[uint][]models.Permission{
		1: {{ID: 10, RoleID: 1, Resource: "logs:*", Action: "log:read", IsAllow: true}},
	}
	srv := newTestService(roles, perms, nil, []uint{2})

	result, err := srv.CheckPermission(context.Background(), 7, []uint{3}, "logs:audit", "log:read", RequestContext{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.Allowed {
		t.Errorf("Expected inherited allow, got deny with reason %q", result.Reason)
	}
}

// TestCheckPermission_SeveredParentChain verifies a grant whose role points at
// a missing parent still contributes its own permissions.
func TestCheckPermission_SeveredParentChain(t *testing.T) {
	missingParent := uint(99)
	roles := map[uint]*models.Role{
		2: {ID: 2, Name: "orphan", ParentRoleID: &missingParent},
	}
	perms := map[uint][]models.Permission{
		2: {{ID: 20, RoleID: 2, Resource: "db:orders", Action: "query:execute", IsAllow: true}},
	}
	srv := newTestService(roles, perms, []uint{2}, nil)

	result, err := srv.CheckPermission(context.Background(), 7, nil, "db:orders", "query:execute", RequestContext{})
	if err != nil {
		t.Fatalf("Expected severed chain to degrade silently, got error: %v", err)
	}
	if !result.Allowed {
		t.Errorf("Expected allow from orphan role, got %q", result.Reason)
	}
}

// TestCheckPermission_HierarchyCycleTerminates verifies a cyclic parent chain
// does not loop and still resolves the attached permissions.
func TestCheckPermission_HierarchyCycleTerminates(t *testing.T) {
	one, two := uint(1), uint(2)
	roles := map[uint]*models.Role{
		1: {ID: 1, Name: "a", ParentRoleID: &two},
		2: {ID: 2, Name: "b", ParentRoleID: &one},
	}
	perms := map[uint][]models.Permission{
		2: {{ID: 20, RoleID: 2, Resource: "db:orders", Action: "query:execute", IsAllow: true}},
	}
	srv := newTestService(roles, perms, []uint{1}, nil)

	result, err := srv.CheckPermission(context.Background(), 7, nil, "db:orders", "query:execute", RequestContext{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.Allowed {
		t.Errorf("Expected allow through cyclic chain, got %q", result.Reason)
	}
}

// TestCheckPermission_IPCondition verifies ip-typed conditions gate the match.
func TestCheckPermission_IPCondition(t *testing.T) {
	roles := map[uint]*models.Role{1: {ID: 1, Name: "office"}}
	perms := map[uint][]models.Permission{
		1: {{
			ID: 10, RoleID: 1, Resource: "db:orders", Action: "query:execute", IsAllow: true,
			Conditions: []models.PermissionCondition{
				{Type: models.ConditionTypeIP, AllowedIPs: []string{"10.0.0.5"}},
			},
		}},
	}
	srv := newTestService(roles, perms, []uint{1}, nil)

	allowed, err := srv.CheckPermission(context.Background(), 7, nil, "db:orders", "query:execute", RequestContext{IP: "10.0.0.5"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !allowed.Allowed {
		t.Errorf("Expected allow from matching IP, got %q", allowed.Reason)
	}

	denied, err := srv.CheckPermission(context.Background(), 7, nil, "db:orders", "query:execute", RequestContext{IP: "192.168.1.1"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if denied.Allowed {
		t.Error("Expected deny for non-allowed IP")
	}
	if denied.Reason != DefaultDenyReason {
		t.Errorf("Expected unmatched condition to fall through to default deny, got %q", denied.Reason)
	}
}

// TestCheckPermission_TimeCondition verifies time-typed conditions against an
// explicit request timestamp.
func TestCheckPermission_TimeCondition(t *testing.T) {
	nine, seventeen := 9, 17
	roles := map[uint]*models.Role{1: {ID: 1, Name: "business-hours"}}
	perms := map[uint][]models.Permission{
		1: {{
			ID: 10, RoleID: 1, Resource: "db:orders", Action: "query:execute", IsAllow: true,
			Conditions: []models.PermissionCondition{
				{Type: models.ConditionTypeTime, HourStart: &nine, HourEnd: &seventeen},
			},
		}},
	}
	srv := newTestService(roles, perms, []uint{1}, nil)

	noon := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	result, err := srv.CheckPermission(context.Background(), 7, nil, "db:orders", "query:execute", RequestContext{Time: &noon})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.Allowed {
		t.Errorf("Expected allow at noon, got %q", result.Reason)
	}

	midnight := time.Date(2025, 6, 2, 0, 30, 0, 0, time.UTC)
	result, err = srv.CheckPermission(context.Background(), 7, nil, "db:orders", "query:execute", RequestContext{Time: &midnight})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Allowed {
		t.Error("Expected deny outside allowed hours")
	}
}

// TestSimulatePermissions_DenyLocksEntry verifies simulation reports a tuple as
// denied once any deny statement exists for it, and output is sorted.
func TestSimulatePermissions_DenyLocksEntry(t *testing.T) {
	roles := map[uint]*models.Role{
		1: {ID: 1, Name: "reader"},
		2: {ID: 2, Name: "restricted"},
	}
	perms := map[uint][]models.Permission{
		1: {
			{ID: 10, RoleID: 1, Resource: "db:orders", Action: "query:execute", IsAllow: true},
			{ID: 11, RoleID: 1, Resource: "db:archive", Action: "query:execute", IsAllow: true},
		},
		2: {{ID: 20, RoleID: 2, Resource: "db:orders", Action: "query:execute", IsAllow: false}},
	}
	srv := newTestService(roles, perms, []uint{1, 2}, nil)

	result, err := srv.SimulatePermissions(context.Background(), 7, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 tuples, got %d", len(result))
	}
	// sorted by resource: db:archive before db:orders
	if result[0].Resource != "db:archive" || !result[0].Allowed {
		t.Errorf("Expected db:archive allowed first, got %+v", result[0])
	}
	if result[1].Resource != "db:orders" || result[1].Allowed {
		t.Errorf("Expected db:orders denied, got %+v", result[1])
	}
}
