package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/profile-service/internal/models"
	"github.com/SAP-F-2025/profile-service/internal/repositories"
	"github.com/SAP-F-2025/profile-service/internal/session"
	"github.com/SAP-F-2025/profile-service/internal/validator"
)

type sessionService struct {
	repo      repositories.Repository
	sessions  session.Store
	provider  IdentityProvider
	logger    *slog.Logger
	validator *validator.Validator
}

// NewSessionService builds the session service. provider may be nil, in which
// case sign-in and bearer authentication are rejected.
func NewSessionService(repo repositories.Repository, sessions session.Store, provider IdentityProvider, logger *slog.Logger, validator *validator.Validator) SessionService {
	return &sessionService{
		repo:      repo,
		sessions:  sessions,
		provider:  provider,
		logger:    logger,
		validator: validator,
	}
}

func (s *sessionService) SignIn(ctx context.Context, req *SignInRequest) (*session.Session, error) {
	if errs := s.validator.Validate(req); errs != nil {
		return nil, NewValidationFailure(errs)
	}
	if s.provider == nil {
		return nil, ErrSignInUnavailable
	}

	external, err := s.provider.ExchangeCode(ctx, req.Code, req.State)
	if err != nil {
		s.logger.WarnContext(ctx, "Authorization code exchange failed", "error", err)
		return nil, ErrUnauthorized
	}

	user, err := s.provisionUser(ctx, external)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Create(ctx, session.IdentityFromUser(user))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create session", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("User signed in", "user_id", user.ID, "session_id", sess.ID)
	return sess, nil
}

func (s *sessionService) Current(ctx context.Context, sessionID string) (*session.Session, error) {
	if sessionID == "" {
		return nil, ErrUnauthorized
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		s.logger.ErrorContext(ctx, "Failed to load session", "error", err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return sess, nil
}

// Refresh rebuilds the session snapshot from the persisted record. Patch values
// only state what the caller expects; the store always wins.
func (s *sessionService) Refresh(ctx context.Context, sessionID string, req *RefreshSessionRequest) (*session.Session, error) {
	sess, err := s.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if req != nil {
		if errs := s.validator.Validate(req); errs != nil {
			return nil, NewValidationFailure(errs)
		}
	}

	user, err := s.repo.User().GetByID(ctx, sess.Identity.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to reload user for session", "user_id", sess.Identity.UserID, "error", err)
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}

	fresh := session.IdentityFromUser(user)
	s.logStalePatch(ctx, fresh, toPatch(req))

	sess.Identity = fresh
	sess.RefreshedAt = time.Now().UTC()
	if err := s.sessions.Save(ctx, sess); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		s.logger.ErrorContext(ctx, "Failed to save session", "session_id", sess.ID, "error", err)
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return sess, nil
}

func (s *sessionService) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Authenticate resolves a Casdoor bearer token to the stored record with the token's email
func (s *sessionService) Authenticate(ctx context.Context, bearerToken string) (*session.Identity, error) {
	if s.provider == nil || bearerToken == "" {
		return nil, ErrUnauthorized
	}

	external, err := s.provider.ParseToken(ctx, bearerToken)
	if err != nil {
		s.logger.DebugContext(ctx, "Bearer token rejected", "error", err)
		return nil, ErrUnauthorized
	}

	user, err := s.provisionUser(ctx, external)
	if err != nil {
		return nil, err
	}

	identity := session.IdentityFromUser(user)
	return &identity, nil
}

// provisionUser finds the record for an external identity, creating it as a
// STUDENT on first sign-in
func (s *sessionService) provisionUser(ctx context.Context, external *models.ExternalIdentity) (*models.User, error) {
	user, err := s.repo.User().GetByEmail(ctx, external.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		s.logger.ErrorContext(ctx, "Failed to look up user", "error", err)
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	user = &models.User{
		ID:    external.Subject,
		Email: external.Email,
		Name:  displayName(external),
		Role:  models.DefaultRole,
	}
	if err := s.repo.User().Create(ctx, user); err != nil {
		// A concurrent first sign-in may have created it already
		if errors.Is(err, repositories.ErrDuplicate) {
			return s.repo.User().GetByEmail(ctx, external.Email)
		}
		s.logger.ErrorContext(ctx, "Failed to provision user", "error", err)
		return nil, fmt.Errorf("failed to provision user: %w", err)
	}

	s.logger.Info("Provisioned user on first sign-in", "user_id", user.ID)
	return user, nil
}

func (s *sessionService) logStalePatch(ctx context.Context, fresh session.Identity, patch session.Patch) {
	if patch.Name != nil && *patch.Name != fresh.Name {
		s.logger.WarnContext(ctx, "Discarding stale session patch field", "field", "name", "user_id", fresh.UserID)
	}
	if patch.Role != nil && *patch.Role != fresh.Role {
		s.logger.WarnContext(ctx, "Discarding stale session patch field", "field", "role", "user_id", fresh.UserID)
	}
}

func toPatch(req *RefreshSessionRequest) session.Patch {
	var patch session.Patch
	if req == nil {
		return patch
	}
	patch.Name = req.Name
	if req.Role != nil {
		if role, err := models.ParseUserRole(*req.Role); err == nil {
			patch.Role = &role
		}
	}
	return patch
}

func displayName(external *models.ExternalIdentity) string {
	if name := strings.TrimSpace(external.Name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(external.Email, "@")
	return local
}
