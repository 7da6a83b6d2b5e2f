package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/profile-service/internal/events"
	"github.com/SAP-F-2025/profile-service/internal/models"
	"github.com/SAP-F-2025/profile-service/internal/repositories"
	"github.com/SAP-F-2025/profile-service/internal/session"
	"github.com/SAP-F-2025/profile-service/internal/validator"
)

type profileService struct {
	repo           repositories.Repository
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.Validator
}

func NewProfileService(repo repositories.Repository, eventPublisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) ProfileService {
	return &profileService{
		repo:           repo,
		eventPublisher: eventPublisher,
		logger:         logger,
		validator:      validator,
	}
}

func (s *profileService) GetProfile(ctx context.Context, principal *session.Identity) (*models.UserProfile, error) {
	if principal == nil {
		return nil, ErrUnauthorized
	}

	user, err := s.loadUser(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	profile := user.Profile()
	return &profile, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, principal *session.Identity, req *UpdateProfileRequest) (*models.ProfileSummary, error) {
	if principal == nil {
		return nil, ErrUnauthorized
	}

	if errs := s.validator.Validate(req); errs != nil {
		return nil, NewValidationFailure(errs)
	}

	name := strings.TrimSpace(req.Name)
	update := repositories.UserUpdate{Name: &name}
	if req.Role != nil {
		role, err := models.ParseUserRole(*req.Role)
		if err != nil {
			return nil, NewValidationFailure(ValidationErrors{{Field: "role", Message: "Invalid role value", Value: *req.Role, Rule: "user_role"}})
		}
		update.Role = &role
	}

	s.logger.Info("Updating profile", "user_id", principal.UserID, "role_supplied", req.Role != nil)

	current, err := s.loadUser(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.User().Update(ctx, principal.UserID, update)
	if err != nil {
		return nil, s.storeError(ctx, err, "update profile", principal.UserID)
	}

	s.publishProfileUpdated(ctx, updated)
	if updated.Role != current.Role {
		s.publishRoleChanged(ctx, current.Role, updated, principal.UserID)
	}

	summary := updated.Summary()
	return &summary, nil
}

func (s *profileService) UpdateRole(ctx context.Context, principal *session.Identity, req *UpdateRoleRequest) (*models.User, error) {
	if principal == nil {
		return nil, ErrUnauthorized
	}

	if errs := s.validator.Validate(req); errs != nil {
		return nil, NewValidationFailure(errs)
	}

	role, err := models.ParseUserRole(req.Role)
	if err != nil {
		return nil, NewValidationFailure(ValidationErrors{{Field: "role", Message: "Invalid role value", Value: req.Role, Rule: "user_role"}})
	}

	current, err := s.loadUser(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	// Re-applying the persisted role leaves the record untouched
	if current.Role == role {
		current.PasswordHash = ""
		return current, nil
	}

	s.logger.Info("Updating role", "user_id", principal.UserID, "from", current.Role, "to", role)

	updated, err := s.repo.User().Update(ctx, principal.UserID, repositories.UserUpdate{Role: &role})
	if err != nil {
		return nil, s.storeError(ctx, err, "update role", principal.UserID)
	}

	s.publishRoleChanged(ctx, current.Role, updated, principal.UserID)

	updated.PasswordHash = ""
	return updated, nil
}

func (s *profileService) GetRole(ctx context.Context, principal *session.Identity) (models.UserRole, error) {
	if principal == nil {
		return "", ErrUnauthorized
	}

	user, err := s.loadUser(ctx, principal.UserID)
	if err != nil {
		return "", err
	}

	return user.Role, nil
}

func (s *profileService) loadUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, err, "get user", id)
	}
	return user, nil
}

// storeError maps repository failures; anything unexpected is logged here and wrapped
func (s *profileService) storeError(ctx context.Context, err error, operation, userID string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrUserNotFound
	}

	s.logger.ErrorContext(ctx, "User store failure", "operation", operation, "user_id", userID, "error", err)
	return fmt.Errorf("failed to %s: %w", operation, err)
}

// ===== EVENTS =====

func (s *profileService) publishProfileUpdated(ctx context.Context, user *models.User) {
	err := s.eventPublisher.PublishProfileUpdated(ctx, events.ProfileUpdatedEvent{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to publish profile updated event", "user_id", user.ID, "error", err)
	}
}

func (s *profileService) publishRoleChanged(ctx context.Context, previous models.UserRole, user *models.User, changedBy string) {
	err := s.eventPublisher.PublishRoleChanged(ctx, events.RoleChangedEvent{
		UserID:       user.ID,
		Email:        user.Email,
		PreviousRole: previous,
		NewRole:      user.Role,
		ChangedBy:    changedBy,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to publish role changed event", "user_id", user.ID, "error", err)
	}
}
