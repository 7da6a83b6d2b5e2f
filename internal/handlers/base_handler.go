package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/profile-service/internal/models"
	"github.com/SAP-F-2025/profile-service/internal/services"
	"github.com/SAP-F-2025/profile-service/internal/utils"
)

type ErrorResponse = models.ErrorResponse

// Error codes carried in the "error" field of every failure body
const (
	ErrCodeUnauthorized = "Unauthorized"
	ErrCodeForbidden    = "Forbidden"
	ErrCodeInvalidInput = "InvalidInput"
	ErrCodeNotFound     = "NotFound"
	ErrCodeUnavailable  = "Unavailable"
	ErrCodeInternal     = "InternalError"
)

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	args = append([]any{"method", c.Request.Method, "path", c.Request.URL.Path}, args...)
	utils.LoggerFromContext(c, h.logger).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append([]any{"error", err, "method", c.Request.Method, "path", c.Request.URL.Path}, args...)
	utils.LoggerFromContext(c, h.logger).Error(msg, args...)
}

// respondBadRequest reports a body or query that could not be decoded
func (h *BaseHandler) respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   ErrCodeInvalidInput,
		Message: "Invalid request body",
		Details: err.Error(),
	})
}

// handleServiceError maps service errors to status codes. Unexpected errors are
// logged and never echoed to the client.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var verrs services.ValidationErrors

	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:            ErrCodeInvalidInput,
			Message:          verrs.First(),
			ValidationErrors: toValidationErrorResponses(verrs),
		})
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   ErrCodeInvalidInput,
			Message: "Validation failed",
		})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   ErrCodeUnauthorized,
			Message: "Unauthorized",
		})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   ErrCodeForbidden,
			Message: "Forbidden",
		})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   ErrCodeNotFound,
			Message: "User not found",
		})
	case errors.Is(err, services.ErrSignInUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   ErrCodeUnavailable,
			Message: "Sign-in is not available",
		})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   ErrCodeInternal,
			Message: "Internal server error",
		})
	}
}

func toValidationErrorResponses(verrs services.ValidationErrors) []models.ValidationErrorResponse {
	out := make([]models.ValidationErrorResponse, 0, len(verrs))
	for _, ve := range verrs {
		out = append(out, models.ValidationErrorResponse{
			Field:   ve.Field,
			Message: ve.Message,
			Code:    ve.Rule,
		})
	}
	return out
}
