package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SAP-F-2025/profile-service/internal/events"
	"github.com/SAP-F-2025/profile-service/internal/repositories"
	"github.com/SAP-F-2025/profile-service/internal/session"
	"github.com/SAP-F-2025/profile-service/internal/validator"
)

// ServiceManagerDeps collects the collaborators the services are built from
type ServiceManagerDeps struct {
	Repo           repositories.Repository
	RepoManager    repositories.RepositoryManager
	Sessions       session.Store
	Identity       IdentityProvider
	EventPublisher events.EventPublisher
	Logger         *slog.Logger
	Validator      *validator.Validator
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps ServiceManagerDeps

	profileService ProfileService
	sessionService SessionService
	userService    UserService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

func NewServiceManager(deps ServiceManagerDeps) ServiceManager {
	return &serviceManager{deps: deps}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	if sm.deps.Repo == nil {
		return fmt.Errorf("repository is required")
	}
	if sm.deps.Sessions == nil {
		return fmt.Errorf("session store is required")
	}
	if sm.deps.EventPublisher == nil {
		return fmt.Errorf("event publisher is required")
	}

	sm.deps.Logger.Info("Initializing service manager")

	sm.profileService = NewProfileService(sm.deps.Repo, sm.deps.EventPublisher, sm.deps.Logger, sm.deps.Validator)
	sm.sessionService = NewSessionService(sm.deps.Repo, sm.deps.Sessions, sm.deps.Identity, sm.deps.Logger, sm.deps.Validator)
	sm.userService = NewUserService(sm.deps.Repo, sm.deps.Logger, sm.deps.Validator)

	if sm.deps.Identity == nil {
		sm.deps.Logger.Warn("No identity provider configured, sign-in is disabled")
	}

	sm.initialized = true
	sm.deps.Logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) Profile() ProfileService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.profileService
}

func (sm *serviceManager) Session() SessionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.sessionService
}

func (sm *serviceManager) User() UserService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.userService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if sm.deps.RepoManager != nil {
		if err := sm.deps.RepoManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("repository health check failed: %w", err)
		}
		return nil
	}

	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.deps.Logger.Info("Shutting down service manager")

	if err := sm.deps.EventPublisher.Close(); err != nil {
		sm.deps.Logger.Error("Failed to close event publisher", "error", err)
	}

	if sm.deps.RepoManager != nil {
		if err := sm.deps.RepoManager.Shutdown(ctx); err != nil {
			sm.deps.Logger.Error("Failed to shutdown repository manager", "error", err)
		}
	} else if err := sm.deps.Repo.Close(); err != nil {
		sm.deps.Logger.Error("Failed to close repository", "error", err)
	}

	sm.shutdown = true
	sm.deps.Logger.Info("Service manager shut down completed")

	return nil
}
