package server

import (
	"errors"
	"net/http"

	"family-meal-planner/internal/apperr"
	"family-meal-planner/internal/llm"

	"github.com/gin-gonic/gin"
)

// errorResponse is the stable failure shape returned to clients: a category
// the UI can branch on, a human message, and a retry hint for AI failures.
type errorResponse struct {
	Category  string `json:"category"`
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

// respondError maps the error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	resp := errorResponse{
		Category: string(apperr.KindOf(err)),
		Error:    apperr.Message(err),
	}

	var status int
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindAIService:
		resp.Retryable = true
		switch {
		case errors.Is(err, llm.ErrTimeout):
			status = http.StatusGatewayTimeout
			resp.Error = "The AI service took too long to respond. Please try again."
		case errors.Is(err, llm.ErrRateLimited):
			status = http.StatusTooManyRequests
			resp.Error = "The AI service is busy right now. Please try again in a moment."
		default:
			status = http.StatusBadGateway
		}
	case apperr.KindDatabase:
		status = http.StatusInternalServerError
		resp.Error = "A storage error occurred"
	default:
		status = http.StatusInternalServerError
		resp.Category = "internal"
		resp.Error = "An unexpected error occurred"
	}

	c.JSON(status, resp)
}
