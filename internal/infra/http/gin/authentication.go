package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
)

const principalContextKey = "carpool.principal"

// principal is the identity asserted by the API gateway. Authentication
// itself happens upstream; this service trusts the gateway headers.
type principal struct {
	ID    string
	Roles []string
}

func (p principal) HasRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return false
	}
	for _, r := range p.Roles {
		if strings.ToLower(r) == role {
			return true
		}
	}
	return false
}

// IdentityMiddleware reads the user asserted by the gateway from
// X-User-ID and X-User-Roles. Requests without the header pass through
// anonymously; route handlers decide whether identity is required.
type IdentityMiddleware struct {
	Logger *slog.Logger
}

func (m IdentityMiddleware) Handle(c *gin.Context) {
	id := strings.TrimSpace(c.GetHeader("X-User-ID"))
	if id == "" {
		c.Next()
		return
	}
	setPrincipal(c, principal{
		ID:    id,
		Roles: splitRoles(c.GetHeader("X-User-Roles")),
	})
	c.Next()
}

func splitRoles(header string) []string {
	parts := strings.Split(header, ",")
	roles := make([]string, 0, len(parts))
	for _, p := range parts {
		if r := strings.TrimSpace(p); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

func setPrincipal(c *gin.Context, p principal) {
	c.Set(principalContextKey, p)
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

func requireRole(c *gin.Context, role string) (principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return principal{}, false
	}
	if role != "" && !p.HasRole(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		return principal{}, false
	}
	return p, true
}
