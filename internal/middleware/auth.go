package middleware

import (
	"context"
	"net/http"
	"strings"

	"marketplace/internal/domain"
	jwtsvc "marketplace/internal/pkg/jwt"
	"marketplace/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserLoader is the slice of the user repository the session validator
// needs.
type UserLoader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// SessionAuth validates the bearer token in two steps: stateless signature
// and expiry verification, then a stateful re-check that the user still
// exists, is not banned, and still holds the role named in the claims.
// A user demoted or banned after issuance is rejected here even though the
// token's signature stays valid until natural expiry.
func SessionAuth(jwt *jwtsvc.Service, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			response.AbortError(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Missing Authorization header")
			return
		}
		if !strings.HasPrefix(h, "Bearer ") {
			response.AbortError(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Invalid Authorization header")
			return
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		if tokenStr == "" {
			response.AbortError(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Empty token")
			return
		}

		claims, err := jwt.ValidateAccessToken(tokenStr)
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		// Stateful re-check. The same generic message covers a missing
		// user, a ban, and a dropped role.
		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}
		if user.IsBanned || !user.Roles.Has(domain.Role(claims.Role)) {
			response.AbortError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", user.Email)
		c.Set("role", claims.Role)
		c.Set("claims", claims)

		c.Next()
	}
}
