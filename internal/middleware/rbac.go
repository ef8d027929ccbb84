package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/account-api/internal/models"
	appErrors "github.com/noah-isme/account-api/pkg/errors"
	"github.com/noah-isme/account-api/pkg/response"
)

// RequireRoles admits principals holding any of roles. It must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if len(roles) > 0 && !claims.HasRole(roles...) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
