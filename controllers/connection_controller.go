package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"sqlconsoleapi/models"
	"sqlconsoleapi/services/connmgmt"
	"sqlconsoleapi/utils"

	"github.com/gin-gonic/gin"
)

var connectionSrv = connmgmt.NewConnectionService()

// SetConnectionService initializes the connection management service instance.
// Used for dependency injection in tests to provide mock implementations.
func SetConnectionService(srv connmgmt.ConnectionService) {
	connectionSrv = srv
}

// ConnectionRequest represents the request body for creating or updating a connection
type ConnectionRequest struct {
	Name           string `json:"name" binding:"required" example:"orders-prod"`
	Type           string `json:"type,omitempty" example:"mysql"`
	Host           string `json:"host,omitempty" example:"db.internal"`
	Port           int    `json:"port,omitempty" example:"3306"`
	Username       string `json:"username,omitempty"`
	Password       string `json:"password,omitempty"`
	Database       string `json:"database,omitempty" example:"orders"`
	Status         string `json:"status,omitempty" example:"enabled"`
	OrganizationID *uint  `json:"organization_id,omitempty"`
	Description    string `json:"description,omitempty"`
}

func (r *ConnectionRequest) toModel() (*models.Connection, error) {
	if r.Host != "" && !utils.IsValidDBHost(r.Host) {
		return nil, fmt.Errorf("invalid host: %s", r.Host)
	}
	return &models.Connection{
		Name:           r.Name,
		Type:           r.Type,
		Host:           r.Host,
		Port:           r.Port,
		Username:       r.Username,
		Password:       r.Password,
		Database:       r.Database,
		Status:         r.Status,
		OrganizationID: r.OrganizationID,
		Description:    r.Description,
	}, nil
}

// ListConnections lists configured connections
// @Summary List connections
// @Tags Connections
// @Produce json
// @Param organization_id query int false "Filter by organization"
// @Success 200 {array} models.Connection "Connections without credentials"
// @Router /api/connections [get]
func listConnections(c *gin.Context) {
	var orgID *uint
	if raw := c.Query("organization_id"); raw != "" {
		id, err := utils.ParseUintParam(raw)
		if err != nil {
			utils.ErrorResponse(c, err)
			return
		}
		orgID = &id
	}
	connections, err := connectionSrv.ListConnections(c.Request.Context(), orgID)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, connections)
}

// GetConnection fetches one connection
// @Summary Get a connection
// @Tags Connections
// @Produce json
// @Param id path int true "Connection ID"
// @Success 200 {object} models.Connection "Connection"
// @Failure 404 {object} StandardErrorResponse "Connection not found"
// @Router /api/connections/{id} [get]
func getConnection(c *gin.Context) {
	id, err := utils.ParseUintParam(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	conn, err := connectionSrv.GetConnection(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, connmgmt.ErrConnectionNotFound) {
			utils.ErrorResponseWithStatus(c, http.StatusNotFound, err)
			return
		}
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, conn)
}

// CreateConnection creates a new connection
// @Summary Create a connection
// @Tags Connections
// @Accept json
// @Produce json
// @Param connection body ConnectionRequest true "Connection definition"
// @Success 200 {object} CreatedResponse "Connection created"
// @Failure 400 {object} StandardErrorResponse "Invalid connection definition"
// @Router /api/connections [post]
func createConnection(c *gin.Context) {
	var req ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, fmt.Errorf("invalid request body: %v", err))
		return
	}
	conn, err := req.toModel()
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	if err := connectionSrv.CreateConnection(c.Request.Context(), conn); err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{
		"message": "connection created",
		"id":      conn.ID,
	})
}

// UpdateConnection updates an existing connection
// @Summary Update a connection
// @Tags Connections
// @Accept json
// @Produce json
// @Param id path int true "Connection ID"
// @Param connection body ConnectionRequest true "Connection definition; blank password keeps the stored one"
// @Success 200 {object} MessageResponse "Connection updated"
// @Failure 404 {object} StandardErrorResponse "Connection not found"
// @Router /api/connections/{id} [put]
func updateConnection(c *gin.Context) {
	id, err := utils.ParseUintParam(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	var req ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, fmt.Errorf("invalid request body: %v", err))
		return
	}
	conn, err := req.toModel()
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	conn.ID = id
	if err := connectionSrv.UpdateConnection(c.Request.Context(), conn); err != nil {
		if errors.Is(err, connmgmt.ErrConnectionNotFound) {
			utils.ErrorResponseWithStatus(c, http.StatusNotFound, err)
			return
		}
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"message": "connection updated"})
}

// DeleteConnection deletes a connection
// @Summary Delete a connection
// @Tags Connections
// @Produce json
// @Param id path int true "Connection ID"
// @Success 200 {object} MessageResponse "Connection deleted"
// @Failure 404 {object} StandardErrorResponse "Connection not found"
// @Router /api/connections/{id} [delete]
func deleteConnection(c *gin.Context) {
	id, err := utils.ParseUintParam(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	if err := connectionSrv.DeleteConnection(c.Request.Context(), id); err != nil {
		if errors.Is(err, connmgmt.ErrConnectionNotFound) {
			utils.ErrorResponseWithStatus(c, http.StatusNotFound, err)
			return
		}
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"message": "connection deleted"})
}

// TestConnection verifies the target is reachable with stored credentials
// @Summary Test a connection
// @Tags Connections
// @Produce json
// @Param id path int true "Connection ID"
// @Success 200 {object} MessageResponse "Connection reachable"
// @Failure 400 {object} StandardErrorResponse "Connection test failed"
// @Failure 404 {object} StandardErrorResponse "Connection not found"
// @Router /api/connections/{id}/test [post]
func testConnection(c *gin.Context) {
	id, err := utils.ParseUintParam(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	if err := connectionSrv.TestConnection(c.Request.Context(), id); err != nil {
		if errors.Is(err, connmgmt.ErrConnectionNotFound) {
			utils.ErrorResponseWithStatus(c, http.StatusNotFound, err)
			return
		}
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"message": "connection reachable"})
}

// RegisterConnectionRoutes registers HTTP endpoints for connection management.
func RegisterConnectionRoutes(rg *gin.RouterGroup) {
	connections := rg.Group("/connections")
	{
		connections.GET("", listConnections)
		connections.GET("/:id", getConnection)
		connections.POST("", createConnection)
		connections.PUT("/:id", updateConnection)
		connections.DELETE("/:id", deleteConnection)
		connections.POST("/:id/test", testConnection)
	}
}
