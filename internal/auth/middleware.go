package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TenantRequired is a Gin middleware that validates the JWT from
// Authorization: Bearer <token> and stores the tenant scope on the context.
func TenantRequired(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing Authorization header",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid Authorization header format",
			})
			return
		}

		tokenStr := parts[1]

		claims, err := jwtManager.ParseAndValidate(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		// Store tenant scope into Gin context for later handlers.
		c.Set("tenantID", claims.TenantID)
		c.Set("staff", claims.Staff)

		c.Next()
	}
}

// StaffOnly rejects requests whose token lacks the staff claim. Must run
// after TenantRequired.
func StaffOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsStaff(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "staff access required",
			})
			return
		}
		c.Next()
	}
}
