package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/profile-service/internal/events"
	"github.com/SAP-F-2025/profile-service/internal/models"
	"github.com/SAP-F-2025/profile-service/internal/repositories"
	"github.com/SAP-F-2025/profile-service/internal/repositories/memory"
	"github.com/SAP-F-2025/profile-service/internal/session"
	"github.com/SAP-F-2025/profile-service/internal/validator"
)

var errStoreDown = errors.New("connection refused")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingUserRepository wraps a store and counts writes
type countingUserRepository struct {
	repositories.UserRepository
	writes atomic.Int32
}

func (r *countingUserRepository) Create(ctx context.Context, user *models.User) error {
	r.writes.Add(1)
	return r.UserRepository.Create(ctx, user)
}

func (r *countingUserRepository) Update(ctx context.Context, id string, update repositories.UserUpdate) (*models.User, error) {
	r.writes.Add(1)
	return r.UserRepository.Update(ctx, id, update)
}

// failingUserRepository fails every call with an infrastructure error
type failingUserRepository struct{}

func (failingUserRepository) GetByID(context.Context, string) (*models.User, error) {
	return nil, errStoreDown
}
func (failingUserRepository) GetByEmail(context.Context, string) (*models.User, error) {
	return nil, errStoreDown
}
func (failingUserRepository) Create(context.Context, *models.User) error { return errStoreDown }
func (failingUserRepository) Update(context.Context, string, repositories.UserUpdate) (*models.User, error) {
	return nil, errStoreDown
}
func (failingUserRepository) List(context.Context, repositories.UserFilters) ([]*models.User, int64, error) {
	return nil, 0, errStoreDown
}

type testRepository struct {
	user repositories.UserRepository
}

func (r *testRepository) User() repositories.UserRepository { return r.user }
func (r *testRepository) Ping(context.Context) error         { return nil }
func (r *testRepository) Close() error                       { return nil }

type fakeIdentityProvider struct {
	identities map[string]*models.ExternalIdentity
}

func (p *fakeIdentityProvider) ExchangeCode(_ context.Context, code, _ string) (*models.ExternalIdentity, error) {
	if identity, ok := p.identities[code]; ok {
		return identity, nil
	}
	return nil, errors.New("invalid_grant")
}

func (p *fakeIdentityProvider) ParseToken(_ context.Context, token string) (*models.ExternalIdentity, error) {
	if identity, ok := p.identities[token]; ok {
		return identity, nil
	}
	return nil, errors.New("signature mismatch")
}

type testEnv struct {
	users     *countingUserRepository
	repo      repositories.Repository
	sessions  *session.RedisStore
	publisher *events.MockEventPublisher
	validator *validator.Validator
	logger    *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := testLogger()
	users := &countingUserRepository{UserRepository: memory.NewUserRepository()}

	return &testEnv{
		users:     users,
		repo:      &testRepository{user: users},
		sessions:  session.NewRedisStore(client, time.Hour),
		publisher: events.NewMockEventPublisher(logger),
		validator: validator.New(),
		logger:    logger,
	}
}

func (e *testEnv) seed(t *testing.T, user *models.User) *session.Identity {
	t.Helper()
	require.NoError(t, e.users.UserRepository.Create(context.Background(), user))
	identity := session.IdentityFromUser(user)
	return &identity
}

func (e *testEnv) identityOf(user *models.User) *session.Identity {
	identity := session.IdentityFromUser(user)
	return &identity
}

func (e *testEnv) profileService() ProfileService {
	return NewProfileService(e.repo, e.publisher, e.logger, e.validator)
}

func (e *testEnv) stored(t *testing.T, id string) *models.User {
	t.Helper()
	user, err := e.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return user
}

func strPtr(s string) *string { return &s }
