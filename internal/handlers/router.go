package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/profile-service/internal/config"
	"github.com/SAP-F-2025/profile-service/internal/models"
	"github.com/SAP-F-2025/profile-service/internal/services"
	"github.com/SAP-F-2025/profile-service/internal/utils"
)

type HandlerManager struct {
	serviceManager services.ServiceManager
	profileHandler *ProfileHandler
	sessionHandler *SessionHandler
	userHandler    *UserHandler
	authMiddleware *SessionAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	sessionConfig config.SessionConfig,
) *HandlerManager {
	return &HandlerManager{
		serviceManager: serviceManager,
		profileHandler: NewProfileHandler(serviceManager.Profile(), logger),
		sessionHandler: NewSessionHandler(serviceManager.Session(), sessionConfig, logger),
		userHandler:    NewUserHandler(serviceManager.User(), logger),
		authMiddleware: NewSessionAuthMiddleware(serviceManager.Session(), sessionConfig.CookieName, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.LoadPrincipal())
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/session", hm.sessionHandler.SignIn)
			auth.GET("/session", hm.sessionHandler.GetSession)
			auth.DELETE("/session", hm.sessionHandler.SignOut)
			auth.POST("/session/refresh", hm.sessionHandler.RefreshSession)
		}

		// Profile routes resolve the principal themselves and answer 401 when it is missing
		user := v1.Group("/user")
		{
			user.GET("/profile", hm.profileHandler.GetProfile)
			user.PUT("/profile", hm.profileHandler.UpdateProfile)
			user.GET("/role", hm.profileHandler.GetRole)
			user.PUT("/role", hm.profileHandler.UpdateRole)
		}

		// User directory - Admins only
		users := v1.Group("/users")
		users.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			users.GET("", hm.userHandler.ListUsers)
			users.GET("/export", hm.userHandler.ExportUsers)
		}
	}

	router.GET("/health", hm.health)
}

func (hm *HandlerManager) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := hm.serviceManager.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "profile-service",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "profile-service",
	})
}
