package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/profile-service/internal/config"
	"github.com/SAP-F-2025/profile-service/internal/events"
	"github.com/SAP-F-2025/profile-service/internal/handlers"
	"github.com/SAP-F-2025/profile-service/internal/repositories"
	"github.com/SAP-F-2025/profile-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/profile-service/internal/repositories/memory"
	"github.com/SAP-F-2025/profile-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/profile-service/internal/services"
	"github.com/SAP-F-2025/profile-service/internal/session"
	"github.com/SAP-F-2025/profile-service/internal/utils"
	"github.com/SAP-F-2025/profile-service/internal/validator"
	"github.com/SAP-F-2025/profile-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Redis backs the sessions and the user record cache
	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	sessions := session.NewRedisStore(redisClient, cfg.Session.TTL)

	repo, repoManager, err := initUserStore(cfg, redisClient)
	if err != nil {
		log.Fatalf("Failed to initialize user store: %v", err)
	}

	var identity services.IdentityProvider
	if cfg.Casdoor.Enabled() {
		identity = casdoor.NewIdentityCasdoor(cfg.Casdoor)
	}

	publisher, err := events.NewEventPublisher(cfg.Events, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event publisher: %v", err)
	}

	// Initialize services
	serviceManager := services.NewServiceManager(services.ServiceManagerDeps{
		Repo:           repo,
		RepoManager:    repoManager,
		Sessions:       sessions,
		Identity:       identity,
		EventPublisher: publisher,
		Logger:         slogLogger,
		Validator:      validator.New(),
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger, cfg.CORSAllowedOrigin)
	handlers.NewHandlerManager(serviceManager, logger, cfg.Session).SetupRoutes(router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment, "user_store", cfg.UserStore)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Closes the event publisher and the user store
	if err := serviceManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown services: %v", err)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Failed to close Redis: %v", err)
	}

	logger.Info("Server exited")
}

// initUserStore builds the user record store selected by USER_STORE
func initUserStore(cfg *config.Config, redisClient *redis.Client) (repositories.Repository, repositories.RepositoryManager, error) {
	switch cfg.UserStore {
	case config.StorePostgres:
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			return nil, nil, err
		}

		repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
			DB:          db,
			RedisClient: redisClient,
			AutoMigrate: cfg.DBAutoMigrate,
		})
		if err := repoManager.Initialize(); err != nil {
			return nil, nil, err
		}
		return repoManager.GetRepository(), repoManager, nil

	case config.StoreCasdoor:
		return casdoor.NewRepository(cfg.Casdoor, redisClient), nil, nil

	case config.StoreMemory:
		return memory.NewRepository(), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown user store %q", cfg.UserStore)
	}
}
