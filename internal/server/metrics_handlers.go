package server

import (
	"net/http"
	"strconv"

	"family-meal-planner/internal/apperr"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleGetUsage(c *gin.Context) {
	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 90 {
			respondError(c, apperr.Validation("days must be between 1 and 90"))
			return
		}
		days = parsed
	}

	usage, err := s.metrics.GetDailyUsage(days)
	if err != nil {
		respondError(c, apperr.Database(err, "failed to load usage"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "usage": usage})
}
