package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	UserContextKey  = "userID"
	RoleContextKey  = "role"
	EmailContextKey = "email"
	AdminRole       = "admin"
)

// AuthMiddleware trusts the identity headers set by the api-gateway. The
// service is never exposed publicly without it.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		role := c.GetHeader("X-User-Role")
		email := c.GetHeader("X-User-Email")

		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		// Parse once here so controllers never deal with malformed ids.
		parsed, err := uuid.Parse(userID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user ID format"})
			c.Abort()
			return
		}

		c.Set(UserContextKey, parsed)
		c.Set(RoleContextKey, role)
		c.Set(EmailContextKey, email)
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(RoleContextKey)
		if !exists || role != AdminRole {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// Helper functions for controllers

func GetUserID(c *gin.Context) (uuid.UUID, error) {
	if val, ok := c.Get(UserContextKey); ok {
		if id, ok := val.(uuid.UUID); ok {
			return id, nil
		}
	}
	return uuid.Nil, errors.New("user ID not found in context")
}

func GetUserEmail(c *gin.Context) string {
	if val, ok := c.Get(EmailContextKey); ok {
		if email, ok := val.(string); ok {
			return email
		}
	}
	return ""
}
