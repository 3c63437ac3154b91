package server

import (
	"net/http"

	"family-meal-planner/internal/apperr"
	"family-meal-planner/internal/family"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type memberRequest struct {
	Name                string `json:"name" binding:"required"`
	Preferences         string `json:"preferences"`
	DietaryRestrictions string `json:"dietary_restrictions"`
}

func (s *Server) handleCreateMember(c *gin.Context) {
	userID, _ := currentUserID(c)

	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("invalid request: %v", err))
		return
	}

	member := &family.Member{
		UserID:              userID,
		Name:                req.Name,
		Preferences:         req.Preferences,
		DietaryRestrictions: req.DietaryRestrictions,
	}
	if err := s.members.CreateMember(c.Request.Context(), member); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (s *Server) handleListMembers(c *gin.Context) {
	userID, _ := currentUserID(c)

	members, err := s.members.ListMembers(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members, "count": len(members)})
}

func (s *Server) handleGetMember(c *gin.Context) {
	userID, _ := currentUserID(c)

	memberID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.Validation("invalid member id"))
		return
	}

	member, err := s.members.GetMember(c.Request.Context(), userID, memberID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (s *Server) handleUpdateMember(c *gin.Context) {
	userID, _ := currentUserID(c)

	memberID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.Validation("invalid member id"))
		return
	}

	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("invalid request: %v", err))
		return
	}

	member := &family.Member{
		ID:                  memberID,
		UserID:              userID,
		Name:                req.Name,
		Preferences:         req.Preferences,
		DietaryRestrictions: req.DietaryRestrictions,
	}
	if err := s.members.UpdateMember(c.Request.Context(), member); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (s *Server) handleDeleteMember(c *gin.Context) {
	userID, _ := currentUserID(c)

	memberID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.Validation("invalid member id"))
		return
	}

	if err := s.members.DeleteMember(c.Request.Context(), userID, memberID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
