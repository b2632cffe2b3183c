package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"sqlconsoleapi/models"
	"sqlconsoleapi/services/roleadmin"
	"sqlconsoleapi/utils"

	"github.com/gin-gonic/gin"
)

var roleSrv = roleadmin.NewRoleService()

// SetRoleService initializes the role administration service instance.
// Used for dependency injection in tests to provide mock implementations.
func SetRoleService(srv roleadmin.RoleService) {
	roleSrv = srv
}

// RoleRequest represents the request body for creating or updating a role
type RoleRequest struct {
	Name           string `json:"name" binding:"required" example:"db_reader"`
	Description    string `json:"description,omitempty"`
	ParentRoleID   *uint  `json:"parent_role_id,omitempty"`
	Priority       int    `json:"priority" example:"10"`
	OrganizationID *uint  `json:"organization_id,omitempty"`
}

// PermissionRequest represents a permission statement attached to a role
type PermissionRequest struct {
	RoleID     uint                         `json:"role_id" binding:"required"`
	Resource   string                       `json:"resource" binding:"required" example:"db:orders"`
	Action     string                       `json:"action" binding:"required" example:"query:execute"`
	IsAllow    *bool                        `json:"is_allow,omitempty"`
	Conditions []models.PermissionCondition `json:"conditions,omitempty"`
}

// GrantRequest represents a role grant to a user or group
type GrantRequest struct {
	UserID      uint       `json:"user_id,omitempty"`
	GroupID     uint       `json:"group_id,omitempty"`
	RoleID      uint       `json:"role_id" binding:"required"`
	GrantedBy   string     `json:"granted_by,omitempty"`
	IsTemporary bool       `json:"is_temporary,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// GrantStatusRequest carries an approval decision for a pending grant
type GrantStatusRequest struct {
	Status string `json:"status" binding:"required" example:"approved"`
}

// ListRoles lists roles, optionally filtered by organization
// @Summary List roles
// @Tags Roles
// @Produce json
// @Param organization_id query int false "Filter by organization"
// @Success 200 {array} models.Role "Roles ordered by priority"
// @Router /api/roles [get]
func listRoles(c *gin.Context) {
	var orgID *uint
	if raw := c.Query("organization_id"); raw != "" {
		id, err := utils.ParseUintParam(raw)
		if err != nil {
			utils.ErrorResponse(c, err)
			return
		}
		orgID = &id
	}
	roles, err := roleSrv.ListRoles(c.Request.Context(), orgID)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, roles)
}

// GetRole fetches a role with its permissions
// @Summary Get a role
// @Tags Roles
// @Produce json
// @Param id path int true "Role ID"
// @Success 200 {object} models.Role "Role with permissions"
// @Failure 404 {object} StandardErrorResponse "Role not found"
// @Router /api/roles/{id} [get]
func getRole(c *gin.Context) {
	id, err := utils.ParseUintParam(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	role, err := roleSrv.GetRole(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, roleadmin.ErrRoleNotFound) {
			utils.ErrorResponseWithStatus(c, http.StatusNotFound, err)
			return
		}
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, role)
}

// CreateRole creates a new role
// @Summary Create a role
// @Tags Roles
// @Accept json
// @Produce json
// @Param role body RoleRequest true "Role definition"
// @Success 200 {object} CreatedResponse "Role created"
// @Failure 400 {object} StandardErrorResponse "Invalid role definition"
// @Router /api/roles [post]
func createRole(c *gin.Context) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, fmt.Errorf("invalid request body: %v", err))
		return
	}
	role := &models.Role{
		Name:           req.Name,
		Description:    req.Description,
		ParentRoleID:   req.ParentRoleID,
		Priority:       req.Priority,
		OrganizationID: req.OrganizationID,
	}
	if err := roleSrv.CreateRole(c.Request.Context(), role); err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{
		"message": "role created",
		"id":      role.ID,
	})
}

// UpdateRole updates an existing role
// @Summary Update a role
// @Tags Roles
// @Accept json
// @Produce json
// @Param id path int true "Role ID"
// @Param role body RoleRequest true "Role definition"
// @Success 200 {object} MessageResponse "Role updated"
// @Failure 400 {object} StandardErrorResponse "Invalid role definition or hierarchy cycle"
// @Failure 404 {object} StandardErrorResponse "Role not found"
// @Router /api/roles/{id} [put]
func updateRole(c *gin.Context) {
	id, err := utils.ParseUintParam(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, fmt.Errorf("invalid request body: %v", err))
		return
	}
	role := &models.Role{
		ID:             id,
		Name:           req.Name,
		Description:    req.Description,
		ParentRoleID:   req.ParentRoleID,
		Priority:       req.Priority,
		OrganizationID: req.OrganizationID,
	}
	if err := roleSrv.UpdateRole(c.Request.Context(), role); err != nil {
		if errors.Is(err, roleadmin.ErrRoleNotFound) {
			utils.ErrorResponseWithStatus(c, http.StatusNotFound, err)
			return
		}
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"message": "role updated"})
}

// DeleteRole deletes a role
// @Summary Delete a role
// @Tags Roles
// @Produce json
// @Param id path int true "Role ID"
// @Success 200 {object} MessageResponse "Role deleted"
// @Failure 400 {object} StandardErrorResponse "System role cannot be deleted"
// @Failure 404 {object} StandardErrorResponse "Role not found"
// @Router /api/roles/{id} [delete]
func deleteRole(c *gin.Context) {
	id, err := utils.ParseUintParam(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	if err := roleSrv.DeleteRole(c.Request.Context(), id); err != nil {
		if errors.Is(err, roleadmin.ErrRoleNotFound) {
			utils.ErrorResponseWithStatus(c, http.StatusNotFound, err)
			return
		}
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"message": "role deleted"})
}

// AddPermission attaches a permission statement to a role
// @Summary Add a permission to a role
// @Tags Roles
// @Accept json
// @Produce json
// @Param permission body PermissionRequest true "Permission statement"
// @Success 200 {object} CreatedResponse "Permission created"
// @Failure 400 {object} StandardErrorResponse "Invalid permission"
// @Router /api/permissions [post]
func addPermission(c *gin.Context) {
	var req PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, fmt.Errorf("invalid request body: %v", err))
		return
	}
	isAllow := true
	if req.IsAllow != nil {
		isAllow = *req.IsAllow
	}
	permission := &models.Permission{
		RoleID:     req.RoleID,
		Resource:   req.Resource,
		Action:     req.Action,
		IsAllow:    isAllow,
		Conditions: req.Conditions,
	}
	if err := roleSrv.AddPermission(c.Request.Context(), permission); err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{
		"message": "permission created",
		"id":      permission.ID,
	})
}

// RemovePermission removes a permission statement
// @Summary Remove a permission
// @Tags Roles
// @Produce json
// @Param id path int true "Permission ID"
// @Success 200 {object} MessageResponse "Permission removed"
// @Router /api/permissions/{id} [delete]
func removePermission(c *gin.Context) {
	id, err := utils.ParseUintParam(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	if err := roleSrv.RemovePermission(c.Request.Context(), id); err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"message": "permission removed"})
}

// GrantRoleToUser grants a role to a user, pending approval
// @Summary Grant a role to a user
// @Tags Grants
// @Accept json
// @Produce json
// @Param grant body GrantRequest true "Grant definition"
// @Success 200 {object} CreatedResponse "Grant created in pending state"
// @Failure 400 {object} StandardErrorResponse "Invalid grant"
// @Router /api/grants/users [post]
func grantRoleToUser(c *gin.Context) {
	var req GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, fmt.Errorf("invalid request body: %v", err))
		return
	}
	if req.UserID == 0 {
		utils.ErrorResponse(c, fmt.Errorf("user_id is required"))
		return
	}
	grantedBy := req.GrantedBy
	if grantedBy == "" {
		if p := utils.CurrentPrincipal(c); p != nil {
			grantedBy = p.Username
		}
	}
	grant := &models.UserRole{
		UserID:      req.UserID,
		RoleID:      req.RoleID,
		GrantedBy:   grantedBy,
		IsTemporary: req.IsTemporary,
		ExpiresAt:   req.ExpiresAt,
	}
	if err := roleSrv.GrantToUser(c.Request.Context(), grant); err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{
		"message": "grant created",
		"id":      grant.ID,
	})
}

// GrantRoleToGroup grants a role to a group, pending approval
// @Summary Grant a role to a group
// @Tags Grants
// @Accept json
// @Produce json
// @Param grant body GrantRequest true "Grant definition"
// @Success 200 {object} CreatedResponse "Grant created in pending state"
// @Failure 400 {object} StandardErrorResponse "Invalid grant"
// @Router /api/grants/groups [post]
func grantRoleToGroup(c *gin.Context) {
	var req GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, fmt.Errorf("invalid request body: %v", err))
		return
	}
	if req.GroupID == 0 {
		utils.ErrorResponse(c, fmt.Errorf("group_id is required"))
		return
	}
	grantedBy := req.GrantedBy
	if grantedBy == "" {
		if p := utils.CurrentPrincipal(c); p != nil {
			grantedBy = p.Username
		}
	}
	grant := &models.GroupRole{
		GroupID:     req.GroupID,
		RoleID:      req.RoleID,
		GrantedBy:   grantedBy,
		IsTemporary: req.IsTemporary,
		ExpiresAt:   req.ExpiresAt,
	}
	if err := roleSrv.GrantToGroup(c.Request.Context(), grant); err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{
		"message": "grant created",
		"id":      grant.ID,
	})
}

// SetUserGrantStatus approves or rejects a pending user grant
// @Summary Decide a pending user grant
// @Tags Grants
// @Accept json
// @Produce json
// @Param id path int true "Grant ID"
// @Param decision body GrantStatusRequest true "approved or rejected"
// @Success 200 {object} MessageResponse "Grant updated"
// @Failure 400 {object} StandardErrorResponse "Invalid status"
// @Router /api/grants/users/{id}/status [put]
func setUserGrantStatus(c *gin.Context) {
	id, err := utils.ParseUintParam(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	var req GrantStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, fmt.Errorf("invalid request body: %v", err))
		return
	}
	if err := roleSrv.SetUserGrantStatus(c.Request.Context(), id, req.Status); err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"message": "grant updated"})
}

// SetGroupGrantStatus approves or rejects a pending group grant
// @Summary Decide a pending group grant
// @Tags Grants
// @Accept json
// @Produce json
// @Param id path int true "Grant ID"
// @Param decision body GrantStatusRequest true "approved or rejected"
// @Success 200 {object} MessageResponse "Grant updated"
// @Failure 400 {object} StandardErrorResponse "Invalid status"
// @Router /api/grants/groups/{id}/status [put]
func setGroupGrantStatus(c *gin.Context) {
	id, err := utils.ParseUintParam(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	var req GrantStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, fmt.Errorf("invalid request body: %v", err))
		return
	}
	if err := roleSrv.SetGroupGrantStatus(c.Request.Context(), id, req.Status); err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"message": "grant updated"})
}

// RevokeUserGrant removes a user grant
// @Summary Revoke a user grant
// @Tags Grants
// @Produce json
// @Param id path int true "Grant ID"
// @Success 200 {object} MessageResponse "Grant revoked"
// @Router /api/grants/users/{id} [delete]
func revokeUserGrant(c *gin.Context) {
	id, err := utils.ParseUintParam(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	if err := roleSrv.RevokeUserGrant(c.Request.Context(), id); err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"message": "grant revoked"})
}

// RevokeGroupGrant removes a group grant
// @Summary Revoke a group grant
// @Tags Grants
// @Produce json
// @Param id path int true "Grant ID"
// @Success 200 {object} MessageResponse "Grant revoked"
// @Router /api/grants/groups/{id} [delete]
func revokeGroupGrant(c *gin.Context) {
	id, err := utils.ParseUintParam(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	if err := roleSrv.RevokeGroupGrant(c.Request.Context(), id); err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"message": "grant revoked"})
}

// ListPendingGrants lists all grants awaiting an approval decision
// @Summary List pending grants
// @Tags Grants
// @Produce json
// @Success 200 {object} map[string]interface{} "Pending user and group grants"
// @Router /api/grants/pending [get]
func listPendingGrants(c *gin.Context) {
	userGrants, groupGrants, err := roleSrv.ListPendingGrants(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{
		"user_grants":  userGrants,
		"group_grants": groupGrants,
	})
}

// RegisterRoleRoutes registers HTTP endpoints for role and grant administration.
func RegisterRoleRoutes(rg *gin.RouterGroup) {
	roles := rg.Group("/roles")
	{
		roles.GET("", listRoles)
		roles.GET("/:id", getRole)
		roles.POST("", createRole)
		roles.PUT("/:id", updateRole)
		roles.DELETE("/:id", deleteRole)
	}

	permissions := rg.Group("/permissions")
	{
		permissions.POST("", addPermission)
		permissions.DELETE("/:id", removePermission)
	}

	grants := rg.Group("/grants")
	{
		grants.POST("/users", grantRoleToUser)
		grants.POST("/groups", grantRoleToGroup)
		grants.PUT("/users/:id/status", setUserGrantStatus)
		grants.PUT("/groups/:id/status", setGroupGrantStatus)
		grants.DELETE("/users/:id", revokeUserGrant)
		grants.DELETE("/groups/:id", revokeGroupGrant)
		grants.GET("/pending", listPendingGrants)
	}
}
