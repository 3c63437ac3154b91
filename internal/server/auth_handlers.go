package server

import (
	"net/http"
	"strings"

	"family-meal-planner/internal/apperr"
	"family-meal-planner/internal/auth"
	"family-meal-planner/internal/family"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8"`
	Name          string `json:"name" binding:"required,max=100"`
	DefaultDiners int    `json:"default_diners"`
	Preferences   string `json:"preferences"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("invalid request: %v", err))
		return
	}
	if len(req.Preferences) > 500 {
		respondError(c, apperr.Validation("preferences must be at most 500 characters"))
		return
	}
	if req.DefaultDiners < 0 || req.DefaultDiners > 20 {
		respondError(c, apperr.Validation("default diners must be between 0 and 20"))
		return
	}
	if req.DefaultDiners == 0 {
		req.DefaultDiners = 2
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	user := &family.User{
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:  hash,
		Name:          req.Name,
		DefaultDiners: req.DefaultDiners,
		Preferences:   req.Preferences,
	}
	if err := s.members.CreateUser(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("invalid request: %v", err))
		return
	}

	user, err := s.members.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

func (s *Server) handleGetMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	user, err := s.members.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
