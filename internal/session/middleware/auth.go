package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/session/domain"
	"github.com/gin-gonic/gin"
)

const CtxPrincipal = "session_principal"

// Verifier turns a bearer token into a principal.
type Verifier interface {
	Verify(token string) (*domain.Principal, error)
}

// Gate answers access questions about the current request.
type Gate interface {
	IsAuthenticated(c *gin.Context) bool
	CurrentUser(c *gin.Context) *domain.Principal
	HasRole(c *gin.Context, roles ...string) bool
}

// ContextGate reads the principal stored by Authenticate.
type ContextGate struct{}

func (ContextGate) IsAuthenticated(c *gin.Context) bool { return CurrentUser(c) != nil }

func (ContextGate) CurrentUser(c *gin.Context) *domain.Principal { return CurrentUser(c) }

func (ContextGate) HasRole(c *gin.Context, roles ...string) bool {
	return CurrentUser(c).HasRole(roles...)
}

// Authenticate attaches the principal when a valid bearer token is present.
// It never rejects a request; RequireAuth and RequireRole do.
func Authenticate(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			if p, err := v.Verify(token); err == nil {
				c.Set(CtxPrincipal, p)
			} else if errors.Is(err, domain.ErrTokenExpired) {
				c.Header("X-Session-Expired", "true")
			}
		}
		c.Next()
	}
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrUnauthenticated.Error()})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole rejects anonymous requests with 401 and authenticated ones
// holding none of the roles with 403.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := CurrentUser(c)
		if p == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrUnauthenticated.Error()})
			c.Abort()
			return
		}
		if len(roles) > 0 && !p.HasRole(roles...) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":         domain.ErrForbidden.Error(),
				"role":          p.Role,
				"allowed_roles": roles,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) *domain.Principal {
	v, ok := c.Get(CtxPrincipal)
	if !ok {
		return nil
	}
	p, _ := v.(*domain.Principal)
	return p
}

func extractToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
