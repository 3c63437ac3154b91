package server

import (
	"net/http"

	"family-meal-planner/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) handleGetMeal(c *gin.Context) {
	userID, _ := currentUserID(c)

	mealID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.Validation("invalid meal id"))
		return
	}

	resolved, err := s.lifecycle.ResolveMeal(c.Request.Context(), userID, mealID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resolved)
}

type updateMealDinersRequest struct {
	MemberIDs []uuid.UUID `json:"member_ids" binding:"required"`
	DishCount int         `json:"dish_count"`
}

func (s *Server) handleUpdateMealDiners(c *gin.Context) {
	userID, _ := currentUserID(c)

	mealID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.Validation("invalid meal id"))
		return
	}

	var req updateMealDinersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("invalid request: %v", err))
		return
	}

	meal, err := s.lifecycle.UpdateMealDiners(c.Request.Context(), userID, mealID, req.MemberIDs, req.DishCount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

type regenerateRequest struct {
	DishCount int `json:"dish_count"`
}

func (s *Server) handleRegenerateMeal(c *gin.Context) {
	userID, _ := currentUserID(c)

	mealID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.Validation("invalid meal id"))
		return
	}

	var req regenerateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperr.Validation("invalid request: %v", err))
			return
		}
	}

	meal, err := s.lifecycle.RegenerateMeal(c.Request.Context(), userID, mealID, req.DishCount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

func (s *Server) handleRevertMealToBulk(c *gin.Context) {
	userID, _ := currentUserID(c)

	mealID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.Validation("invalid meal id"))
		return
	}

	meal, err := s.lifecycle.RevertMealToBulk(c.Request.Context(), userID, mealID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

type importDishRequest struct {
	URL string `json:"url" binding:"required,url"`
}

func (s *Server) handleImportDish(c *gin.Context) {
	userID, _ := currentUserID(c)

	mealID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.Validation("invalid meal id"))
		return
	}

	var req importDishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("invalid request: %v", err))
		return
	}

	meal, err := s.lifecycle.ImportDish(c.Request.Context(), userID, mealID, req.URL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}
