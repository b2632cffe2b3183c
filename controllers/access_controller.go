package controllers

import (
	"fmt"
	"net/http"
	"time"

	"sqlconsoleapi/pkg/logger"
	"sqlconsoleapi/services/access"
	"sqlconsoleapi/utils"

	"github.com/gin-gonic/gin"
)

var accessSrv = access.NewAccessService()

// SetAccessService initializes the access service instance.
// Used for dependency injection in tests to provide mock implementations.
func SetAccessService(srv access.AccessService) {
	accessSrv = srv
}

// PermissionCheckRequest represents the request body for a permission check
type PermissionCheckRequest struct {
	UserID   uint   `json:"user_id" binding:"required" example:"42"`
	GroupIDs []uint `json:"group_ids" example:"1,2"`
	Resource string `json:"resource" binding:"required" example:"db:sales"`
	Action   string `json:"action" binding:"required" example:"execute"`
	IP       string `json:"ip,omitempty" example:"10.0.0.5"`
	Time     string `json:"time,omitempty" example:"2024-05-01T14:30:00Z"` // RFC3339, defaults to now
}

// SimulateRequest represents the request body for a permission simulation
type SimulateRequest struct {
	UserID   uint   `json:"user_id" binding:"required" example:"42"`
	GroupIDs []uint `json:"group_ids" example:"1,2"`
}

// CheckPermission evaluates an allow/deny decision for a principal
// @Summary Check a permission
// @Description Resolves whether the user (plus groups) may perform action on resource under the given context
// @Tags Access Control
// @Accept json
// @Produce json
// @Param request body PermissionCheckRequest true "Permission check parameters"
// @Success 200 {object} access.CheckResult "Allow/deny verdict with reason"
// @Failure 400 {object} StandardErrorResponse "Invalid request parameters"
// @Router /api/access/check [post]
func checkPermission(c *gin.Context) {
	var req PermissionCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, fmt.Errorf("invalid request body: %v", err))
		return
	}

	reqCtx := access.RequestContext{IP: req.IP}
	if req.Time != "" {
		t, err := time.Parse(time.RFC3339, req.Time)
		if err != nil {
			utils.ErrorResponse(c, fmt.Errorf("invalid time, expected RFC3339: %v", err))
			return
		}
		reqCtx.Time = &t
	}

	logger.Debugf("Permission check: user=%d groups=%v resource=%s action=%s", req.UserID, req.GroupIDs, req.Resource, req.Action)
	result, err := accessSrv.CheckPermission(c.Request.Context(), req.UserID, req.GroupIDs, req.Resource, req.Action, reqCtx)
	if err != nil {
		logger.Errorf("Permission check failed for user %d: %v", req.UserID, err)
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, result)
}

// SimulatePermissions lists every resolved permission tuple for a principal
// @Summary Simulate resolved permissions
// @Description Returns the full (resource, action, allowed) tuple set for the principal without context filtering
// @Tags Access Control
// @Accept json
// @Produce json
// @Param request body SimulateRequest true "Principal to simulate"
// @Success 200 {array} access.SimulatedPermission "Resolved permission tuples"
// @Failure 400 {object} StandardErrorResponse "Invalid request parameters"
// @Router /api/access/simulate [post]
func simulatePermissions(c *gin.Context) {
	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, fmt.Errorf("invalid request body: %v", err))
		return
	}

	result, err := accessSrv.SimulatePermissions(c.Request.Context(), req.UserID, req.GroupIDs)
	if err != nil {
		logger.Errorf("Permission simulation failed for user %d: %v", req.UserID, err)
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, result)
}

// RegisterAccessRoutes registers HTTP endpoints for access control operations.
func RegisterAccessRoutes(rg *gin.RouterGroup) {
	accessGroup := rg.Group("/access")
	{
		accessGroup.POST("/check", checkPermission)
		accessGroup.POST("/simulate", simulatePermissions)
	}
}
