package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/profile-service/internal/cache"
	"github.com/SAP-F-2025/profile-service/internal/models"
)

var ErrNotFound = errors.New("session not found")

// Identity is the authenticated principal plus its cached user snapshot.
// It is the capability handed to every profile operation.
type Identity struct {
	UserID string          `json:"id"`
	Email  string          `json:"email"`
	Name   string          `json:"name"`
	Role   models.UserRole `json:"role"`
}

// IdentityFromUser builds the session snapshot of a persisted record
func IdentityFromUser(user *models.User) Identity {
	return Identity{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	}
}

// Patch lists the snapshot fields a client asks to refresh
type Patch struct {
	Name *string
	Role *models.UserRole
}

type Session struct {
	ID          string    `json:"id"`
	Identity    Identity  `json:"identity"`
	CreatedAt   time.Time `json:"created_at"`
	RefreshedAt time.Time `json:"refreshed_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type Store interface {
	Create(ctx context.Context, identity Identity) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps sessions as JSON documents under the session: prefix.
// Reads slide the expiry forward.
type RedisStore struct {
	cache *cache.CacheHelper
	ttl   time.Duration
	now   func() time.Time
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = cache.SessionCacheConfig.TTL
	}
	return &RedisStore{
		cache: cache.NewCacheHelper(client, cache.SessionCacheConfig.Prefix),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *RedisStore) Create(ctx context.Context, identity Identity) (*Session, error) {
	now := s.now().UTC()
	sess := &Session{
		ID:          uuid.NewString(),
		Identity:    identity,
		CreatedAt:   now,
		RefreshedAt: now,
		ExpiresAt:   now.Add(s.ttl),
	}

	if err := s.cache.Set(ctx, sess.ID, sess, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	var sess Session
	if err := s.cache.Get(ctx, id, &sess); err != nil {
		if errors.Is(err, cache.ErrCacheNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	sess.ExpiresAt = s.now().UTC().Add(s.ttl)
	if err := s.cache.Expire(ctx, id, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to extend session: %w", err)
	}

	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return ErrNotFound
	}

	exists, err := s.cache.Exists(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if !exists {
		return ErrNotFound
	}

	sess.RefreshedAt = s.now().UTC()
	sess.ExpiresAt = sess.RefreshedAt.Add(s.ttl)
	if err := s.cache.Set(ctx, sess.ID, sess, s.ttl); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
