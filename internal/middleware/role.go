package middleware

import (
	"net/http"

	"marketplace/internal/domain"
	"marketplace/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Requires gates a route on the validated session's active role. An empty
// allow-list means any authenticated user. Routes without SessionAuth in
// front of them should simply not use Requires.
func Requires(allowed ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.AbortError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		if len(allowed) == 0 {
			c.Next()
			return
		}

		active := domain.Role(role.(string))
		for _, r := range allowed {
			if active == r {
				c.Next()
				return
			}
		}

		response.AbortError(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
	}
}

// AdminOnly requires the admin role.
func AdminOnly() gin.HandlerFunc {
	return Requires(domain.RoleAdmin)
}

// MerchantOnly requires the merchant role.
func MerchantOnly() gin.HandlerFunc {
	return Requires(domain.RoleMerchant)
}
