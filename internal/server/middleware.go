package server

import (
	"net/http"
	"strings"

	"family-meal-planner/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const authUserKey = "auth_user_id"

// RequireAuth validates the bearer token and puts the user id on the context.
func RequireAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format. Use: Bearer <token>"})
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			if err == auth.ErrExpiredToken {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			c.Abort()
			return
		}

		c.Set(authUserKey, claims.UserID)
		c.Next()
	}
}

// currentUserID returns the authenticated user id set by RequireAuth.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(authUserKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
