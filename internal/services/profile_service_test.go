package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/profile-service/internal/events"
	"github.com/SAP-F-2025/profile-service/internal/models"
	"github.com/SAP-F-2025/profile-service/internal/session"
)

func TestProfileService_UpdateRole_AcceptsOnlyKnownRoles(t *testing.T) {
	tests := []struct {
		role  string
		valid bool
	}{
		{"ADMIN", true},
		{"TEACHER", true},
		{"STUDENT", true},
		{"SUPERUSER", false},
		{"teacher", false},
		{"", false},
		{" ADMIN", false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			env := newTestEnv(t)
			principal := env.seed(t, &models.User{ID: "u1", Email: "u1@x.io", Name: "Uno", Role: models.RoleStudent})

			user, err := env.profileService().UpdateRole(context.Background(), principal, &UpdateRoleRequest{Role: tt.role})
			if tt.valid {
				require.NoError(t, err)
				assert.Equal(t, models.UserRole(tt.role), user.Role)
				assert.Equal(t, models.UserRole(tt.role), env.stored(t, "u1").Role)
				return
			}

			assert.ErrorIs(t, err, ErrValidationFailed)
			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, models.RoleStudent, env.stored(t, "u1").Role)
			assert.Zero(t, env.users.writes.Load())
		})
	}
}

func TestProfileService_UpdateRole_PromotesStudent(t *testing.T) {
	env := newTestEnv(t)
	principal := env.seed(t, &models.User{ID: "u1", Email: "u1@x.io", Name: "Uno", Role: models.RoleStudent, PasswordHash: "secret"})
	svc := env.profileService()
	ctx := context.Background()

	user, err := svc.UpdateRole(ctx, principal, &UpdateRoleRequest{Role: "TEACHER"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, user.Role)
	assert.Empty(t, user.PasswordHash)

	role, err := svc.GetRole(ctx, principal)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, role)

	published := env.publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventUserRoleChanged, published[0].Type)
	changed := published[0].Data.(events.RoleChangedEvent)
	assert.Equal(t, models.RoleStudent, changed.PreviousRole)
	assert.Equal(t, models.RoleTeacher, changed.NewRole)
}

func TestProfileService_UpdateRole_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	principal := env.seed(t, &models.User{ID: "u1", Email: "u1@x.io", Name: "Uno", Role: models.RoleStudent})
	svc := env.profileService()
	ctx := context.Background()

	_, err := svc.UpdateRole(ctx, principal, &UpdateRoleRequest{Role: "TEACHER"})
	require.NoError(t, err)
	once := *env.stored(t, "u1")

	second, err := svc.UpdateRole(ctx, principal, &UpdateRoleRequest{Role: "TEACHER"})
	require.NoError(t, err)
	twice := *env.stored(t, "u1")

	assert.Equal(t, once, twice)
	assert.Equal(t, models.RoleTeacher, second.Role)
	assert.Len(t, env.publisher.GetPublishedEvents(), 1)
}

func TestProfileService_UpdateRole_MissingRecord(t *testing.T) {
	env := newTestEnv(t)
	principal := &session.Identity{UserID: "ghost", Email: "ghost@x.io", Role: models.RoleStudent}

	_, err := env.profileService().UpdateRole(context.Background(), principal, &UpdateRoleRequest{Role: "ADMIN"})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Zero(t, env.users.writes.Load())
}

func TestProfileService_RequiresPrincipal(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, &models.User{ID: "u1", Email: "u1@x.io", Name: "Uno", Role: models.RoleStudent})
	svc := env.profileService()
	ctx := context.Background()

	_, err := svc.GetRole(ctx, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.GetProfile(ctx, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.UpdateRole(ctx, nil, &UpdateRoleRequest{Role: "ADMIN"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.UpdateProfile(ctx, nil, &UpdateProfileRequest{Name: "X"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	assert.Zero(t, env.users.writes.Load())
	stored := env.stored(t, "u1")
	assert.Equal(t, "Uno", stored.Name)
	assert.Equal(t, models.RoleStudent, stored.Role)
}

func TestProfileService_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	principal := env.seed(t, &models.User{ID: "u1", Email: "u1@x.io", Name: "Uno", Role: models.RoleStudent})
	svc := env.profileService()
	ctx := context.Background()

	summary, err := svc.UpdateProfile(ctx, principal, &UpdateProfileRequest{Name: "  Ada  "})
	require.NoError(t, err)
	assert.Equal(t, models.ProfileSummary{Name: "Ada", Email: "u1@x.io", Role: models.RoleStudent}, *summary)
	assert.Equal(t, "Ada", env.stored(t, "u1").Name)

	published := env.publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventUserProfileUpdated, published[0].Type)
}

func TestProfileService_UpdateProfile_WithRole(t *testing.T) {
	env := newTestEnv(t)
	principal := env.seed(t, &models.User{ID: "u1", Email: "u1@x.io", Name: "Uno", Role: models.RoleStudent})

	summary, err := env.profileService().UpdateProfile(context.Background(), principal, &UpdateProfileRequest{Name: "Uno", Role: strPtr("ADMIN")})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, summary.Role)

	types := []string{}
	for _, e := range env.publisher.GetPublishedEvents() {
		types = append(types, e.Type)
	}
	assert.Equal(t, []string{events.EventUserProfileUpdated, events.EventUserRoleChanged}, types)
}

func TestProfileService_UpdateProfile_RejectsEmptyName(t *testing.T) {
	for _, name := range []string{"", "   "} {
		env := newTestEnv(t)
		principal := env.seed(t, &models.User{ID: "u1", Email: "u1@x.io", Name: "Uno", Role: models.RoleStudent})

		_, err := env.profileService().UpdateProfile(context.Background(), principal, &UpdateProfileRequest{Name: name})
		assert.ErrorIs(t, err, ErrValidationFailed)
		assert.Equal(t, "Uno", env.stored(t, "u1").Name)
		assert.Zero(t, env.users.writes.Load())
	}
}

func TestProfileService_UpdateProfile_InvalidRoleLeavesNameUnchanged(t *testing.T) {
	env := newTestEnv(t)
	principal := env.seed(t, &models.User{ID: "u1", Email: "u1@x.io", Name: "Uno", Role: models.RoleStudent})

	_, err := env.profileService().UpdateProfile(context.Background(), principal, &UpdateProfileRequest{Name: "Dos", Role: strPtr("ROOT")})
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Equal(t, "Uno", env.stored(t, "u1").Name)
}

func TestProfileService_UpdateProfile_EmailIsKeptFromStore(t *testing.T) {
	env := newTestEnv(t)
	principal := env.seed(t, &models.User{ID: "u1", Email: "u1@x.io", Name: "Uno", Role: models.RoleStudent})

	// A principal that claims another email still only touches its own record
	forged := *principal
	forged.Email = "other@x.io"

	summary, err := env.profileService().UpdateProfile(context.Background(), &forged, &UpdateProfileRequest{Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "u1@x.io", summary.Email)
	assert.Equal(t, "u1@x.io", env.stored(t, "u1").Email)
}

func TestProfileService_PublishFailureDoesNotFailWrite(t *testing.T) {
	env := newTestEnv(t)
	principal := env.seed(t, &models.User{ID: "u1", Email: "u1@x.io", Name: "Uno", Role: models.RoleStudent})
	env.publisher.FailWith(errors.New("broker unavailable"))

	user, err := env.profileService().UpdateRole(context.Background(), principal, &UpdateRoleRequest{Role: "ADMIN"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Equal(t, models.RoleAdmin, env.stored(t, "u1").Role)
}

func TestProfileService_StoreFailureIsWrapped(t *testing.T) {
	env := newTestEnv(t)
	svc := NewProfileService(&testRepository{user: failingUserRepository{}}, env.publisher, env.logger, env.validator)
	principal := &session.Identity{UserID: "u1"}

	_, err := svc.GetRole(context.Background(), principal)
	require.Error(t, err)
	assert.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, ErrUserNotFound)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestProfileService_GetProfile(t *testing.T) {
	env := newTestEnv(t)
	principal := env.seed(t, &models.User{ID: "u1", Email: "u1@x.io", Name: "Uno", Role: models.RoleTeacher})

	profile, err := env.profileService().GetProfile(context.Background(), principal)
	require.NoError(t, err)
	assert.Equal(t, models.UserProfile{ID: "u1", Email: "u1@x.io", Name: "Uno", Role: models.RoleTeacher}, *profile)
}
