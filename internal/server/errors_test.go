package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"family-meal-planner/internal/apperr"
	"family-meal-planner/internal/llm"

	"github.com/gin-gonic/gin"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name          string
		err           error
		wantStatus    int
		wantCategory  string
		wantRetryable bool
	}{
		{"Validation", apperr.Validation("bad input"), http.StatusBadRequest, "validation", false},
		{"NotFound", apperr.NotFound("missing"), http.StatusNotFound, "not_found", false},
		{"Forbidden", apperr.Forbidden("nope"), http.StatusForbidden, "forbidden", false},
		{"AITimeout", apperr.AIService(fmt.Errorf("call: %w", llm.ErrTimeout), "dish generation failed"), http.StatusGatewayTimeout, "ai_service", true},
		{"AIRateLimited", apperr.AIService(fmt.Errorf("call: %w", llm.ErrRateLimited), "dish generation failed"), http.StatusTooManyRequests, "ai_service", true},
		{"AIGeneric", apperr.AIService(errors.New("boom"), "dish generation failed"), http.StatusBadGateway, "ai_service", true},
		{"Database", apperr.Database(errors.New("boom"), "query failed"), http.StatusInternalServerError, "database", false},
		{"Uncategorized", errors.New("surprise"), http.StatusInternalServerError, "internal", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)

			respondError(c, tc.err)

			if rec.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, rec.Code)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Category != tc.wantCategory {
				t.Errorf("Expected category %q, got %q", tc.wantCategory, resp.Category)
			}
			if resp.Retryable != tc.wantRetryable {
				t.Errorf("Expected retryable=%v, got %v", tc.wantRetryable, resp.Retryable)
			}
			if resp.Error == "" {
				t.Error("Expected a non-empty error message")
			}
		})
	}
}

func TestDatabaseErrorsAreOpaque(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	respondError(c, apperr.Database(errors.New("SQLITE_CONSTRAINT: users.email"), "failed to insert user"))

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Error != "A storage error occurred" {
		t.Errorf("Expected generic storage message, got %q", resp.Error)
	}
}
