package middleware

import (
	"net/http"
	"strings"

	"reel-feed/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware requires a bearer token and exposes its claims as
// "user_id" and "role" on the gin context.
func AuthMiddleware(jwtService *jwt.Service) gin.HandlerFunc {
	return authenticate(jwtService, true)
}

// OptionalAuthMiddleware lets anonymous requests through without claims.
// A token that is present must still be valid.
func OptionalAuthMiddleware(jwtService *jwt.Service) gin.HandlerFunc {
	return authenticate(jwtService, false)
}

func authenticate(jwtService *jwt.Service, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			// Browsers cannot set headers on a WebSocket upgrade.
			if token := c.Query("token"); token != "" {
				authHeader = "Bearer " + token
			}
		}
		if authHeader == "" {
			if !required {
				c.Next()
				return
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}
