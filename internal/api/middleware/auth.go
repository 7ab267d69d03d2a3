package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/transparencity/backend/internal/models"
	"github.com/transparencity/backend/internal/services"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey = "userID"
	RoleKey   = "role"
)

// TokenValidator is the part of the auth service the middleware needs.
type TokenValidator interface {
	ValidateToken(token string) (*services.Claims, error)
}

// AuthMiddleware requires a valid bearer token (or auth_token cookie) and stores the
// caller's id and role in the context.
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		claims, err := validator.ValidateToken(token)
		if err != nil {
			GetRequestLogger(c).WithError(err).Debug("rejected token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, string(claims.Role))
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := c.Cookie("auth_token"); err == nil {
		return cookie
	}
	return ""
}

// RequireRole allows the request through only when the authenticated role matches.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(RoleKey) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}

// ActorFrom builds the service-layer actor for the authenticated caller.
func ActorFrom(c *gin.Context) (services.Actor, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return services.Actor{}, false
	}
	id, ok := v.(uint)
	if !ok {
		return services.Actor{}, false
	}
	return services.Actor{UserID: id, Role: models.Role(c.GetString(RoleKey))}, true
}
