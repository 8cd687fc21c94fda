package middleware

import (
	"net/http"
	"strings"

	"poolride/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthRequired validates the bearer token and sets user context
func AuthRequired(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_type", claims.UserType)
		c.Set("user_email", claims.Email)

		c.Next()
	}
}

// AdminRequired ensures the authenticated user is an admin
func AdminRequired() gin.HandlerFunc {
	return requireUserType("admin", "Admin access required")
}

// DriverRequired ensures the authenticated user is a driver
func DriverRequired() gin.HandlerFunc {
	return requireUserType("driver", "Driver access required")
}

// RiderRequired ensures the authenticated user is a rider
func RiderRequired() gin.HandlerFunc {
	return requireUserType("rider", "Rider access required")
}

func requireUserType(userType, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		current, exists := c.Get("user_type")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User type not found"})
			c.Abort()
			return
		}

		currentStr, ok := current.(string)
		if !ok || currentStr != userType {
			c.JSON(http.StatusForbidden, gin.H{"error": message})
			c.Abort()
			return
		}

		c.Next()
	}
}
