package auth

import "github.com/gin-gonic/gin"

// GetTenantID returns the authenticated tenant's ID or empty string.
func GetTenantID(c *gin.Context) string {
	if v, ok := c.Get("tenantID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// IsStaff reports whether the current token carries the staff claim.
func IsStaff(c *gin.Context) bool {
	if v, ok := c.Get("staff"); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}
