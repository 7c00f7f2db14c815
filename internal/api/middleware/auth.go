// Package middleware provides Gin middleware for authentication, CORS,
// request logging, and rate limiting.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/haneul-labs/complyhub/internal/auth"
	"github.com/haneul-labs/complyhub/internal/models"
)

// PrincipalContextKey is the Gin context key the authenticated identity is
// stored under.
const PrincipalContextKey = "principal"

// Principal is the authenticated identity attached to every request. OrgID
// comes from the token, never from request input, so all downstream queries
// are scoped to the caller's own tenant.
type Principal struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
	Role   models.UserRole
}

// Verifier validates an access token and returns its claims.
type Verifier interface {
	VerifyAccess(token string) (*auth.Claims, error)
}

// RequireUser returns a middleware that rejects requests without a valid
// bearer access token.
func RequireUser(tokens Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := tokens.VerifyAccess(strings.TrimPrefix(header, prefix))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(PrincipalContextKey, Principal{
			UserID: claims.UserID,
			OrgID:  claims.OrgID,
			Role:   claims.Role,
		})
		c.Next()
	}
}

// RequireAdmin returns a middleware that rejects non-admin callers. It must
// run after RequireUser.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok || p.Role != models.UserRoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

// GetPrincipal returns the authenticated identity set by RequireUser.
func GetPrincipal(c *gin.Context) (Principal, bool) {
	v, exists := c.Get(PrincipalContextKey)
	if !exists {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
