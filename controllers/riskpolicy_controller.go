package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"sqlconsoleapi/models"
	"sqlconsoleapi/pkg/logger"
	"sqlconsoleapi/services/riskpolicy"
	"sqlconsoleapi/utils"

	"github.com/gin-gonic/gin"
)

var riskPolicySrv = riskpolicy.NewAdminService()

// SetRiskPolicyService initializes the risk policy administration service instance.
// Used for dependency injection in tests to provide mock implementations.
func SetRiskPolicyService(srv riskpolicy.AdminService) {
	riskPolicySrv = srv
}

// RiskPolicyRequest represents the request body for creating or updating a risk policy
type RiskPolicyRequest struct {
	Name             string   `json:"name" binding:"required" example:"block-ddl"`
	Type             string   `json:"type" binding:"required" example:"ddl_block"`
	Pattern          string   `json:"pattern,omitempty" example:"INTO\\s+OUTFILE"`
	BlockedKeywords  []string `json:"blocked_keywords,omitempty"`
	RestrictedTables []string `json:"restricted_tables,omitempty"`
	RiskScore        int      `json:"risk_score" example:"90"`
	Action           string   `json:"action" example:"block"`
	IsActive         *bool    `json:"is_active,omitempty"`
	OrganizationID   *uint    `json:"organization_id,omitempty"`
	ConnectionID     *uint    `json:"connection_id,omitempty"`
	Description      string   `json:"description,omitempty"`
}

func (r *RiskPolicyRequest) toModel() *models.QueryRiskPolicy {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return &models.QueryRiskPolicy{
		Name:             r.Name,
		Type:             r.Type,
		Pattern:          r.Pattern,
		BlockedKeywords:  r.BlockedKeywords,
		RestrictedTables: r.RestrictedTables,
		RiskScore:        r.RiskScore,
		Action:           r.Action,
		IsActive:         active,
		OrganizationID:   r.OrganizationID,
		ConnectionID:     r.ConnectionID,
		Description:      r.Description,
	}
}

// ListRiskPolicies lists all configured risk policies
// @Summary List risk policies
// @Tags Risk Policies
// @Produce json
// @Success 200 {array} models.QueryRiskPolicy "Configured policies ordered by risk score"
// @Failure 400 {object} StandardErrorResponse "Internal error"
// @Router /api/policies [get]
func listRiskPolicies(c *gin.Context) {
	policies, err := riskPolicySrv.ListPolicies(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, policies)
}

// GetRiskPolicy fetches one risk policy
// @Summary Get a risk policy
// @Tags Risk Policies
// @Produce json
// @Param id path int true "Policy ID"
// @Success 200 {object} models.QueryRiskPolicy "Policy"
// @Failure 404 {object} StandardErrorResponse "Policy not found"
// @Router /api/policies/{id} [get]
func getRiskPolicy(c *gin.Context) {
	id, err := utils.ParseUintParam(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	policy, err := riskPolicySrv.GetPolicy(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, riskpolicy.ErrPolicyNotFound) {
			utils.ErrorResponseWithStatus(c, http.StatusNotFound, err)
			return
		}
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, policy)
}

// CreateRiskPolicy creates a new risk policy
// @Summary Create a risk policy
// @Tags Risk Policies
// @Accept json
// @Produce json
// @Param policy body RiskPolicyRequest true "Policy definition"
// @Success 200 {object} CreatedResponse "Policy created"
// @Failure 400 {object} StandardErrorResponse "Invalid policy definition"
// @Router /api/policies [post]
func createRiskPolicy(c *gin.Context) {
	var req RiskPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, fmt.Errorf("invalid request body: %v", err))
		return
	}
	policy := req.toModel()
	if err := riskPolicySrv.CreatePolicy(c.Request.Context(), policy); err != nil {
		logger.Errorf("Failed to create risk policy %q: %v", req.Name, err)
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{
		"message": "policy created",
		"id":      policy.ID,
	})
}

// UpdateRiskPolicy updates an existing risk policy
// @Summary Update a risk policy
// @Tags Risk Policies
// @Accept json
// @Produce json
// @Param id path int true "Policy ID"
// @Param policy body RiskPolicyRequest true "Policy definition"
// @Success 200 {object} MessageResponse "Policy updated"
// @Failure 400 {object} StandardErrorResponse "Invalid policy definition"
// @Failure 404 {object} StandardErrorResponse "Policy not found"
// @Router /api/policies/{id} [put]
func updateRiskPolicy(c *gin.Context) {
	id, err := utils.ParseUintParam(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	var req RiskPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, fmt.Errorf("invalid request body: %v", err))
		return
	}
	policy := req.toModel()
	policy.ID = id
	if err := riskPolicySrv.UpdatePolicy(c.Request.Context(), policy); err != nil {
		if errors.Is(err, riskpolicy.ErrPolicyNotFound) {
			utils.ErrorResponseWithStatus(c, http.StatusNotFound, err)
			return
		}
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"message": "policy updated"})
}

// DeleteRiskPolicy deletes a risk policy
// @Summary Delete a risk policy
// @Tags Risk Policies
// @Produce json
// @Param id path int true "Policy ID"
// @Success 200 {object} MessageResponse "Policy deleted"
// @Failure 404 {object} StandardErrorResponse "Policy not found"
// @Router /api/policies/{id} [delete]
func deleteRiskPolicy(c *gin.Context) {
	id, err := utils.ParseUintParam(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	if err := riskPolicySrv.DeletePolicy(c.Request.Context(), id); err != nil {
		if errors.Is(err, riskpolicy.ErrPolicyNotFound) {
			utils.ErrorResponseWithStatus(c, http.StatusNotFound, err)
			return
		}
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"message": "policy deleted"})
}

// RegisterRiskPolicyRoutes registers HTTP endpoints for risk policy administration.
func RegisterRiskPolicyRoutes(rg *gin.RouterGroup) {
	policies := rg.Group("/policies")
	{
		policies.GET("", listRiskPolicies)
		policies.GET("/:id", getRiskPolicy)
		policies.POST("", createRiskPolicy)
		policies.PUT("/:id", updateRiskPolicy)
		policies.DELETE("/:id", deleteRiskPolicy)
	}
}
