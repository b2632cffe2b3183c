package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"sqlconsoleapi/pkg/logger"
	"sqlconsoleapi/services/query"
	"sqlconsoleapi/services/riskpolicy"
	"sqlconsoleapi/utils"

	"github.com/gin-gonic/gin"
)

var (
	executionSrv = query.NewExecutionService()
	evaluatorSrv = riskpolicy.NewEvaluatorService()
)

// SetExecutionService initializes the query execution service instance.
// Used for dependency injection in tests to provide mock implementations.
func SetExecutionService(srv query.ExecutionService) {
	executionSrv = srv
}

// SetEvaluatorService initializes the risk policy evaluator instance.
func SetEvaluatorService(srv riskpolicy.EvaluatorService) {
	evaluatorSrv = srv
}

// ExecuteQueryRequest represents the request body for executing a query
type ExecuteQueryRequest struct {
	ConnectionID uint   `json:"connection_id" binding:"required" example:"1"`
	Query        string `json:"query" binding:"required" example:"SELECT * FROM orders"`
}

// ValidateQueryRequest represents the request body for a speculative risk evaluation
type ValidateQueryRequest struct {
	Query          string `json:"query" binding:"required" example:"DELETE FROM orders"`
	OrganizationID *uint  `json:"organization_id,omitempty" example:"1"`
	ConnectionID   *uint  `json:"connection_id,omitempty" example:"1"`
}

// ExecuteQuery runs a statement through the execution gate
// @Summary Execute a query
// @Description Runs a statement against a managed connection after the security check and risk policy evaluation
// @Tags Query Execution
// @Accept json
// @Produce json
// @Param request body ExecuteQueryRequest true "Connection and statement"
// @Success 200 {object} query.ExecutionResult "Execution result with rows and timing"
// @Failure 400 {object} StandardErrorResponse "Invalid request or driver error"
// @Failure 403 {object} StandardErrorResponse "Statement blocked by security check or policy"
// @Failure 404 {object} StandardErrorResponse "Connection not found"
// @Router /api/query/execute [post]
func executeQuery(c *gin.Context) {
	var req ExecuteQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, fmt.Errorf("invalid request body: %v", err))
		return
	}

	executedBy := "anonymous"
	if p := utils.CurrentPrincipal(c); p != nil {
		executedBy = p.Username
	}

	logger.Infof("Query execution request: connection=%d user=%s", req.ConnectionID, executedBy)
	result, err := executionSrv.ExecuteQuery(c.Request.Context(), req.ConnectionID, req.Query, executedBy)
	if err != nil {
		var forbidden *query.ForbiddenError
		var approval *query.ApprovalRequiredError
		switch {
		case errors.Is(err, query.ErrConnectionNotFound):
			utils.ErrorResponseWithStatus(c, http.StatusNotFound, err)
		case errors.As(err, &forbidden):
			utils.ErrorResponseWithStatus(c, http.StatusForbidden, err)
		case errors.As(err, &approval):
			utils.ErrorResponseWithStatus(c, http.StatusAccepted, err)
		default:
			utils.ErrorResponse(c, err)
		}
		return
	}

	utils.JSONResponse(c, http.StatusOK, result)
}

// ValidateQuery evaluates a statement against the risk policies without executing it
// @Summary Validate a query
// @Description Classifies a statement against the active risk policies; performs no execution
// @Tags Query Execution
// @Accept json
// @Produce json
// @Param request body ValidateQueryRequest true "Statement and scope"
// @Success 200 {object} riskpolicy.ValidationResult "Risk classification"
// @Failure 400 {object} StandardErrorResponse "Invalid request parameters"
// @Router /api/query/validate [post]
func validateQuery(c *gin.Context) {
	var req ValidateQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, fmt.Errorf("invalid request body: %v", err))
		return
	}

	result, err := evaluatorSrv.ValidateQuery(c.Request.Context(), req.Query, req.OrganizationID, req.ConnectionID)
	if err != nil {
		logger.Errorf("Query validation failed: %v", err)
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, result)
}

// RegisterQueryRoutes registers HTTP endpoints for query execution operations.
func RegisterQueryRoutes(rg *gin.RouterGroup) {
	queryGroup := rg.Group("/query")
	{
		queryGroup.POST("/execute", executeQuery)
		queryGroup.POST("/validate", validateQuery)
	}
}
