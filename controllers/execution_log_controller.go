package controllers

import (
	"net/http"
	"strconv"

	"sqlconsoleapi/services/audit"
	"sqlconsoleapi/utils"

	"github.com/gin-gonic/gin"
)

var executionLogSrv = audit.NewLogService()

// SetExecutionLogService initializes the execution log service instance.
// Used for dependency injection in tests to provide mock implementations.
func SetExecutionLogService(srv audit.LogService) {
	executionLogSrv = srv
}

// ListExecutions lists the query execution audit trail, newest first
// @Summary List query executions
// @Tags Executions
// @Produce json
// @Param connection_id query int false "Filter by connection"
// @Param executed_by query string false "Filter by executing user"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} audit.ExecutionLogPage "Execution records"
// @Failure 400 {object} StandardErrorResponse "Invalid filters"
// @Router /api/executions [get]
func listExecutions(c *gin.Context) {
	var connID *uint
	if raw := c.Query("connection_id"); raw != "" {
		id, err := utils.ParseUintParam(raw)
		if err != nil {
			utils.ErrorResponse(c, err)
			return
		}
		connID = &id
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := executionLogSrv.ListExecutions(c.Request.Context(), connID, c.Query("executed_by"), page, pageSize)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, result)
}

// RegisterExecutionLogRoutes registers HTTP endpoints for the audit trail.
func RegisterExecutionLogRoutes(rg *gin.RouterGroup) {
	rg.GET("/executions", listExecutions)
}
