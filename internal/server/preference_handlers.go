package server

import (
	"net/http"

	"family-meal-planner/internal/apperr"
	"family-meal-planner/internal/diner"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type setPreferencesRequest struct {
	MemberIDs []uuid.UUID `json:"member_ids"`
}

func (s *Server) handleGetBulkPreferences(c *gin.Context) {
	userID, _ := currentUserID(c)

	mealType, err := diner.ParseMealType(c.Param("mealType"))
	if err != nil {
		respondError(c, err)
		return
	}

	ids, err := s.diners.GetBulkPreferences(c.Request.Context(), userID, mealType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meal_type": mealType, "member_ids": ids})
}

func (s *Server) handleSetBulkPreferences(c *gin.Context) {
	userID, _ := currentUserID(c)

	mealType, err := diner.ParseMealType(c.Param("mealType"))
	if err != nil {
		respondError(c, err)
		return
	}

	var req setPreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("invalid request: %v", err))
		return
	}

	if err := s.diners.SetBulkPreferences(c.Request.Context(), userID, mealType, req.MemberIDs); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meal_type": mealType, "member_ids": req.MemberIDs})
}

func (s *Server) handleDeleteBulkPreferences(c *gin.Context) {
	userID, _ := currentUserID(c)

	mealType, err := diner.ParseMealType(c.Param("mealType"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := s.diners.DeleteBulkPreferences(c.Request.Context(), userID, mealType); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
