package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestManager(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheManager(client), mr
}

func TestCacheHelper_SetGetDelete(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, cm.User.Set(ctx, UserIDKey("u1"), cachedUser{ID: "u1", Name: "Ann"}, time.Minute))
	assert.True(t, mr.Exists("user:id:u1"))

	var got cachedUser
	require.NoError(t, cm.User.Get(ctx, UserIDKey("u1"), &got))
	assert.Equal(t, "Ann", got.Name)

	require.NoError(t, cm.User.Delete(ctx, UserIDKey("u1")))
	err := cm.User.Get(ctx, UserIDKey("u1"), &got)
	assert.True(t, errors.Is(err, ErrCacheNotFound))
}

func TestCacheHelper_TTL(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, cm.Session.Set(ctx, "abc", cachedUser{ID: "u1"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	var got cachedUser
	assert.ErrorIs(t, cm.Session.Get(ctx, "abc", &got), ErrCacheNotFound)
}

func TestCacheHelper_NilClientDegrades(t *testing.T) {
	helper := NewCacheHelper(nil, "user:")
	ctx := context.Background()

	assert.NoError(t, helper.Set(ctx, "k", "v", time.Minute))
	assert.NoError(t, helper.Delete(ctx, "k"))

	var got string
	assert.ErrorIs(t, helper.Get(ctx, "k", &got), ErrCacheNotAvailable)
	assert.False(t, helper.Available())
}

func TestInvalidateUserCache(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, cm.User.Set(ctx, UserIDKey("u1"), cachedUser{ID: "u1"}, time.Minute))
	require.NoError(t, cm.User.Set(ctx, UserEmailKey("a@example.com"), cachedUser{ID: "u1"}, time.Minute))
	require.NoError(t, cm.User.Set(ctx, UserIDKey("u2"), cachedUser{ID: "u2"}, time.Minute))

	InvalidateUserCache(ctx, cm, "u1", "a@example.com")

	assert.False(t, mr.Exists("user:id:u1"))
	assert.False(t, mr.Exists("user:email:a@example.com"))
	assert.True(t, mr.Exists("user:id:u2"))
}

func TestUserEmailKey_IgnoresCase(t *testing.T) {
	assert.Equal(t, "email:ada@x.io", UserEmailKey("Ada@X.io"))
	assert.Equal(t, UserEmailKey("ada@x.io"), UserEmailKey(" ADA@x.io "))
}

func TestInvalidateUserCache_AnyEmailCasing(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, cm.User.Set(ctx, UserEmailKey("Ada@X.io"), cachedUser{ID: "u1"}, time.Minute))

	InvalidateUserCache(ctx, cm, "u1", "ada@x.io")

	assert.False(t, mr.Exists("user:email:ada@x.io"))
	assert.Empty(t, mr.Keys())
}

func TestCacheOrExecute(t *testing.T) {
	cm, _ := newTestManager(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return cachedUser{ID: "u1", Name: "Ann"}, nil
	}

	var first, second cachedUser
	require.NoError(t, cm.User.CacheOrExecute(ctx, "id:u1", &first, time.Minute, fetch))
	require.NoError(t, cm.User.CacheOrExecute(ctx, "id:u1", &second, time.Minute, fetch))

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}
