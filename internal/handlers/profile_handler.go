package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/profile-service/internal/models"
	"github.com/SAP-F-2025/profile-service/internal/services"
	"github.com/SAP-F-2025/profile-service/internal/utils"
)

type ProfileHandler struct {
	BaseHandler
	service services.ProfileService
}

func NewProfileHandler(service services.ProfileService, logger utils.Logger) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetProfile returns the caller's profile
// @Summary Get profile
// @Tags user
// @Produce json
// @Success 200 {object} models.UserProfile
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 404 {object} ErrorResponse "User not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /user/profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.service.GetProfile(c.Request.Context(), PrincipalFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateProfile changes the caller's display name and, optionally, role
// @Summary Update profile
// @Tags user
// @Accept json
// @Produce json
// @Param request body services.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} models.ProfileUpdateResponse
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 404 {object} ErrorResponse "User not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /user/profile [put]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	principal := PrincipalFromContext(c)
	if principal == nil {
		h.handleServiceError(c, services.ErrUnauthorized)
		return
	}

	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	h.LogRequest(c, "Updating profile", "user_id", principal.UserID)

	summary, err := h.service.UpdateProfile(c.Request.Context(), principal, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ProfileUpdateResponse{
		Message: "Profile updated successfully",
		User:    *summary,
	})
}

// UpdateRole changes the caller's role
// @Summary Update role
// @Tags user
// @Accept json
// @Produce json
// @Param request body services.UpdateRoleRequest true "New role"
// @Success 200 {object} models.RoleUpdateResponse
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 404 {object} ErrorResponse "User not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /user/role [put]
func (h *ProfileHandler) UpdateRole(c *gin.Context) {
	principal := PrincipalFromContext(c)
	if principal == nil {
		h.handleServiceError(c, services.ErrUnauthorized)
		return
	}

	var req services.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	h.LogRequest(c, "Updating role", "user_id", principal.UserID, "role", req.Role)

	user, err := h.service.UpdateRole(c.Request.Context(), principal, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.RoleUpdateResponse{
		Message: "Role updated successfully",
		User:    user,
	})
}

// GetRole returns only the caller's role
// @Summary Get role
// @Tags user
// @Produce json
// @Success 200 {object} models.RoleResponse
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 404 {object} ErrorResponse "User not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /user/role [get]
func (h *ProfileHandler) GetRole(c *gin.Context) {
	role, err := h.service.GetRole(c.Request.Context(), PrincipalFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.RoleResponse{Role: role})
}
