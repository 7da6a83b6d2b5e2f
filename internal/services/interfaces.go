package services

import (
	"bytes"
	"context"

	"github.com/SAP-F-2025/profile-service/internal/models"
	"github.com/SAP-F-2025/profile-service/internal/session"
	"github.com/SAP-F-2025/profile-service/internal/validator"
)

// ===== REQUEST DTOs =====

type UpdateProfileRequest = validator.ProfileUpdateRequest
type UpdateRoleRequest = validator.RoleUpdateRequest
type RefreshSessionRequest = validator.SessionRefreshRequest
type SignInRequest = validator.SignInRequest
type ListUsersRequest = validator.UserListRequest

// ===== SERVICE INTERFACES =====

// ProfileService applies profile and role changes for the authenticated principal.
// A nil principal always yields ErrUnauthorized before any store access.
type ProfileService interface {
	GetProfile(ctx context.Context, principal *session.Identity) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, principal *session.Identity, req *UpdateProfileRequest) (*models.ProfileSummary, error)
	UpdateRole(ctx context.Context, principal *session.Identity, req *UpdateRoleRequest) (*models.User, error)
	GetRole(ctx context.Context, principal *session.Identity) (models.UserRole, error)
}

// SessionService issues, resolves and refreshes sessions
type SessionService interface {
	SignIn(ctx context.Context, req *SignInRequest) (*session.Session, error)
	Current(ctx context.Context, sessionID string) (*session.Session, error)
	Refresh(ctx context.Context, sessionID string, req *RefreshSessionRequest) (*session.Session, error)
	SignOut(ctx context.Context, sessionID string) error
	Authenticate(ctx context.Context, bearerToken string) (*session.Identity, error)
}

// UserService backs the admin user directory
type UserService interface {
	List(ctx context.Context, principal *session.Identity, req *ListUsersRequest) (*models.UserListResponse, error)
	ExportRoster(ctx context.Context, principal *session.Identity, req *ListUsersRequest) (*bytes.Buffer, error)
}

// IdentityProvider verifies sign-ins against the external identity provider
type IdentityProvider interface {
	ExchangeCode(ctx context.Context, code, state string) (*models.ExternalIdentity, error)
	ParseToken(ctx context.Context, token string) (*models.ExternalIdentity, error)
}

type ServiceManager interface {
	Initialize(ctx context.Context) error
	Profile() ProfileService
	Session() SessionService
	User() UserService
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
