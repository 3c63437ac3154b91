package server

import (
	"net/http"
	"time"

	"family-meal-planner/internal/apperr"
	"family-meal-planner/internal/diner"
	"family-meal-planner/internal/planner"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type createPlanRequest struct {
	StartDate  string      `json:"start_date" binding:"required"`
	EndDate    string      `json:"end_date" binding:"required"`
	MealTypes  []string    `json:"meal_types" binding:"required"`
	DishCount  int         `json:"dish_count"`
	DinerCount int         `json:"diner_count"`
	MemberIDs  []uuid.UUID `json:"member_ids"`
}

func (s *Server) handleCreatePlan(c *gin.Context) {
	userID, _ := currentUserID(c)

	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("invalid request: %v", err))
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		respondError(c, apperr.Validation("start_date must be YYYY-MM-DD"))
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		respondError(c, apperr.Validation("end_date must be YYYY-MM-DD"))
		return
	}

	mealTypes := make([]diner.MealType, 0, len(req.MealTypes))
	for _, raw := range req.MealTypes {
		mt, err := diner.ParseMealType(raw)
		if err != nil {
			respondError(c, err)
			return
		}
		mealTypes = append(mealTypes, mt)
	}

	plan, err := s.lifecycle.CreatePlan(c.Request.Context(), userID, planner.CreatePlanInput{
		StartDate: start,
		EndDate:   end,
		MealTypes: mealTypes,
		DishCount: req.DishCount,
		Diners: planner.DinerSelection{
			Count:     req.DinerCount,
			MemberIDs: req.MemberIDs,
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

func (s *Server) handleListPlans(c *gin.Context) {
	userID, _ := currentUserID(c)

	plans, err := s.lifecycle.ListPlans(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans, "count": len(plans)})
}

func (s *Server) handleGetPlan(c *gin.Context) {
	userID, _ := currentUserID(c)

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.Validation("invalid plan id"))
		return
	}

	plan, err := s.lifecycle.GetPlan(c.Request.Context(), userID, planID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (s *Server) handleDeletePlan(c *gin.Context) {
	userID, _ := currentUserID(c)

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.Validation("invalid plan id"))
		return
	}

	if err := s.lifecycle.DeletePlan(c.Request.Context(), userID, planID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleConfirmPlan(c *gin.Context) {
	userID, _ := currentUserID(c)

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.Validation("invalid plan id"))
		return
	}

	if err := s.lifecycle.ConfirmPlan(c.Request.Context(), userID, planID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": planner.StatusConfirmed})
}

func (s *Server) handleGenerateShoppingList(c *gin.Context) {
	userID, _ := currentUserID(c)

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.Validation("invalid plan id"))
		return
	}

	list, err := s.shopping.Generate(c.Request.Context(), userID, planID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

func (s *Server) handleGetShoppingList(c *gin.Context) {
	userID, _ := currentUserID(c)

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.Validation("invalid plan id"))
		return
	}

	// Ownership check happens through the plan lookup.
	if _, err := s.lifecycle.GetPlan(c.Request.Context(), userID, planID); err != nil {
		respondError(c, err)
		return
	}

	list, err := s.lists.GetByPlanID(c.Request.Context(), planID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
