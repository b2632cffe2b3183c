package controllers

// Shared request/response models for Swagger documentation

// StandardErrorResponse represents a standardized error response
type StandardErrorResponse struct {
	Error string `json:"error" example:"invalid request"`
}

// MessageResponse represents a simple confirmation message
type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

// CreatedResponse represents the response for a created entity
type CreatedResponse struct {
	Message string `json:"message" example:"created"`
	ID      uint   `json:"id" example:"123"`
}
