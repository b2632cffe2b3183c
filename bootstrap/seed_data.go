package bootstrap

import (
	"fmt"

	"sqlconsoleapi/models"
	"sqlconsoleapi/pkg/logger"
	"sqlconsoleapi/repository"
)

// SeedData inserts the default risk policies and system roles on first start.
// Seeding is idempotent: rows that already exist by name are left untouched,
// so operator edits to the defaults survive restarts.
func SeedData() error {
	logger.Infof("Starting bootstrap data seeding...")

	policyRepo := repository.NewRiskPolicyRepository()
	roleRepo := repository.NewRoleRepository()
	permissionRepo := repository.NewPermissionRepository()

	if err := seedDefaultPolicies(policyRepo); err != nil {
		return err
	}
	if err := seedSystemRoles(roleRepo, permissionRepo); err != nil {
		return err
	}

	logger.Infof("Bootstrap data seeding completed successfully")
	return nil
}

// defaultPolicies are the global baseline rules applied to every connection.
func defaultPolicies() []models.QueryRiskPolicy {
	return []models.QueryRiskPolicy{
		{
			Name:        "default-ddl-block",
			Type:        models.PolicyTypeDDLBlock,
			RiskScore:   90,
			Action:      models.PolicyActionBlock,
			IsActive:    true,
			Description: "Block destructive and schema-changing statements",
		},
		{
			Name:        "default-where-required",
			Type:        models.PolicyTypeWhereRequired,
			RiskScore:   70,
			Action:      models.PolicyActionBlock,
			IsActive:    true,
			Description: "Block UPDATE/DELETE statements without a WHERE clause",
		},
		{
			Name:        "default-limit-required",
			Type:        models.PolicyTypeLimitRequired,
			RiskScore:   20,
			Action:      models.PolicyActionWarn,
			IsActive:    true,
			Description: "Warn on SELECT statements without a LIMIT clause",
		},
	}
}

func seedDefaultPolicies(repo repository.RiskPolicyRepository) error {
	seeded := 0
	for _, policy := range defaultPolicies() {
		count, err := repo.CountByName(nil, policy.Name)
		if err != nil {
			logger.Errorf("Failed to check policy %q: %v", policy.Name, err)
			return fmt.Errorf("failed to check policy %q: %v", policy.Name, err)
		}
		if count > 0 {
			continue
		}
		p := policy
		if err := repo.Create(nil, &p); err != nil {
			logger.Errorf("Failed to seed policy %q: %v", policy.Name, err)
			return fmt.Errorf("failed to seed policy %q: %v", policy.Name, err)
		}
		seeded++
	}
	logger.Infof("Seeded %d default risk policies", seeded)
	return nil
}

// systemRoles are the built-in roles every deployment starts with.
// They are flat; each carries its own statements rather than inheriting.
func systemRoles() []struct {
	role        models.Role
	permissions []models.Permission
} {
	return []struct {
		role        models.Role
		permissions []models.Permission
	}{
		{
			role: models.Role{Name: "admin", Description: "Full access to every resource", Priority: 100, IsSystem: true},
			permissions: []models.Permission{
				{Resource: "*", Action: "query:execute", IsAllow: true},
				{Resource: "*", Action: "connection:manage", IsAllow: true},
				{Resource: "*", Action: "policy:manage", IsAllow: true},
				{Resource: "*", Action: "role:manage", IsAllow: true},
			},
		},
		{
			role: models.Role{Name: "developer", Description: "Query execution on all databases", Priority: 50, IsSystem: true},
			permissions: []models.Permission{
				{Resource: "db:*", Action: "query:execute", IsAllow: true},
			},
		},
		{
			role: models.Role{Name: "viewer", Description: "Read-only access to execution logs", Priority: 10, IsSystem: true},
			permissions: []models.Permission{
				{Resource: "logs:*", Action: "log:read", IsAllow: true},
			},
		},
	}
}

func seedSystemRoles(roleRepo repository.RoleRepository, permissionRepo repository.PermissionRepository) error {
	existing, err := roleRepo.GetAll(nil, nil)
	if err != nil {
		logger.Errorf("Failed to load roles: %v", err)
		return fmt.Errorf("failed to load roles: %v", err)
	}
	existingNames := make(map[string]bool, len(existing))
	for _, role := range existing {
		existingNames[role.Name] = true
	}

	seeded := 0
	for _, entry := range systemRoles() {
		if existingNames[entry.role.Name] {
			continue
		}
		role := entry.role
		if err := roleRepo.Create(nil, &role); err != nil {
			logger.Errorf("Failed to seed role %q: %v", role.Name, err)
			return fmt.Errorf("failed to seed role %q: %v", role.Name, err)
		}
		for _, permission := range entry.permissions {
			p := permission
			p.RoleID = role.ID
			if err := permissionRepo.Create(nil, &p); err != nil {
				logger.Errorf("Failed to seed permission %s/%s for role %q: %v", p.Resource, p.Action, role.Name, err)
				return fmt.Errorf("failed to seed permission for role %q: %v", role.Name, err)
			}
		}
		seeded++
	}
	logger.Infof("Seeded %d system roles", seeded)
	return nil
}
