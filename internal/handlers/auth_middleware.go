package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/profile-service/internal/models"
	"github.com/SAP-F-2025/profile-service/internal/services"
	"github.com/SAP-F-2025/profile-service/internal/session"
	"github.com/SAP-F-2025/profile-service/internal/utils"
)

const (
	principalContextKey = "principal"
	sessionIDContextKey = "session_id"
)

// SessionAuthMiddleware resolves the caller from the session cookie or a Casdoor bearer token
type SessionAuthMiddleware struct {
	sessions   services.SessionService
	cookieName string
	logger     utils.Logger
}

func NewSessionAuthMiddleware(sessions services.SessionService, cookieName string, logger utils.Logger) *SessionAuthMiddleware {
	return &SessionAuthMiddleware{
		sessions:   sessions,
		cookieName: cookieName,
		logger:     logger,
	}
}

// LoadPrincipal stores the resolved identity in the context. A missing or
// invalid credential is not rejected here; handlers decide what needs a principal.
func (m *SessionAuthMiddleware) LoadPrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if sessionID, err := c.Cookie(m.cookieName); err == nil && sessionID != "" {
			sess, err := m.sessions.Current(ctx, sessionID)
			switch {
			case err == nil:
				identity := sess.Identity
				c.Set(principalContextKey, &identity)
				c.Set(sessionIDContextKey, sess.ID)
				c.Next()
				return
			case !errors.Is(err, services.ErrUnauthorized):
				m.abortInternal(c, err)
				return
			}
		}

		if token := bearerToken(c.GetHeader("Authorization")); token != "" {
			identity, err := m.sessions.Authenticate(ctx, token)
			switch {
			case err == nil:
				c.Set(principalContextKey, identity)
			case !errors.Is(err, services.ErrUnauthorized):
				m.abortInternal(c, err)
				return
			}
		}

		c.Next()
	}
}

// RequireRoleMiddleware checks if user has required role. ADMIN passes every check.
func (m *SessionAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := PrincipalFromContext(c)
		if principal == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error:   ErrCodeUnauthorized,
				Message: "Unauthorized",
			})
			return
		}

		for _, requiredRole := range requiredRoles {
			if principal.Role == requiredRole || principal.Role == models.RoleAdmin {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Error:   ErrCodeForbidden,
			Message: "Insufficient permissions",
		})
	}
}

func (m *SessionAuthMiddleware) abortInternal(c *gin.Context, err error) {
	utils.LoggerFromContext(c, m.logger).Error("Failed to resolve principal", "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error:   ErrCodeInternal,
		Message: "Internal server error",
	})
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// PrincipalFromContext returns the authenticated identity, or nil
func PrincipalFromContext(c *gin.Context) *session.Identity {
	value, exists := c.Get(principalContextKey)
	if !exists {
		return nil
	}
	principal, _ := value.(*session.Identity)
	return principal
}

// SessionIDFromContext returns the cookie session id, empty for bearer callers
func SessionIDFromContext(c *gin.Context) string {
	return c.GetString(sessionIDContextKey)
}
