package middleware

import (
	"net/http"
	"strings"

	"arcana-app/internal/api/auth"
	"arcana-app/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware verifies the bearer token and exposes its claims as
// user_id, email, name, image and role.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			response.Message(c, http.StatusInternalServerError, "JWT secret not configured")
			return
		}
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Message(c, http.StatusUnauthorized, "Authorization header missing")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			response.Message(c, http.StatusUnauthorized, "Bearer token malformed")
			return
		}

		claims, err := auth.ParseToken(strings.TrimSpace(tokenString), secret)
		if err != nil {
			response.Message(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("name", claims.Name)
		c.Set("image", claims.Image)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("role")
		if !exists {
			response.Message(c, http.StatusUnauthorized, "Role not found in token")
			return
		}
		if value != role {
			response.Message(c, http.StatusForbidden, "Access denied")
			return
		}
		c.Next()
	}
}
