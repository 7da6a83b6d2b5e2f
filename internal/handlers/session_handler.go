package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/profile-service/internal/config"
	"github.com/SAP-F-2025/profile-service/internal/services"
	"github.com/SAP-F-2025/profile-service/internal/utils"
)

type SessionHandler struct {
	BaseHandler
	service services.SessionService
	cookie  config.SessionConfig
}

func NewSessionHandler(service services.SessionService, cookie config.SessionConfig, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		cookie:      cookie,
	}
}

// SignIn exchanges a Casdoor authorization code for a session cookie
// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.SignInRequest true "Authorization code"
// @Success 201 {object} session.Identity
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 401 {object} ErrorResponse "Code rejected"
// @Failure 503 {object} ErrorResponse "Sign-in not configured"
// @Router /auth/session [post]
func (h *SessionHandler) SignIn(c *gin.Context) {
	var req services.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	sess, err := h.service.SignIn(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.setCookie(c, sess.ID, h.cookie.TTL)
	c.JSON(http.StatusCreated, sess.Identity)
}

// GetSession returns the current identity snapshot
// @Summary Current session
// @Tags auth
// @Produce json
// @Success 200 {object} session.Identity
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /auth/session [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	principal := PrincipalFromContext(c)
	if principal == nil {
		h.handleServiceError(c, services.ErrUnauthorized)
		return
	}

	c.JSON(http.StatusOK, principal)
}

// RefreshSession rebuilds the cached identity from the user record
// @Summary Refresh session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.RefreshSessionRequest false "Fields the client expects to have changed"
// @Success 200 {object} session.Identity
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /auth/session/refresh [post]
func (h *SessionHandler) RefreshSession(c *gin.Context) {
	principal := PrincipalFromContext(c)
	if principal == nil {
		h.handleServiceError(c, services.ErrUnauthorized)
		return
	}

	var req services.RefreshSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.respondBadRequest(c, err)
		return
	}

	sessionID := SessionIDFromContext(c)
	if sessionID == "" {
		// Bearer callers have no stored session; their identity is already read from the store
		c.JSON(http.StatusOK, principal)
		return
	}

	sess, err := h.service.Refresh(c.Request.Context(), sessionID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess.Identity)
}

// SignOut deletes the session and clears the cookie
// @Summary Sign out
// @Tags auth
// @Success 204
// @Router /auth/session [delete]
func (h *SessionHandler) SignOut(c *gin.Context) {
	if err := h.service.SignOut(c.Request.Context(), SessionIDFromContext(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.setCookie(c, "", -time.Second)
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) setCookie(c *gin.Context, value string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}
	c.SetCookie(h.cookie.CookieName, value, maxAge, "/", "", h.cookie.CookieSecure, true)
}
