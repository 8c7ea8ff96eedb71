package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisstore "github.com/confide-dev/confide/cache/redis"
	"github.com/confide-dev/confide/domain"
)

func setupStore(t *testing.T) (*redisstore.SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisstore.NewSessionStore(client, "confide"), mr
}

func TestSessionStore_StoreGetDelete(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	session := &domain.Session{
		Token:     "tok-1",
		UserID:    "user-1",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, store.Store(ctx, session))

	got, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)

	require.NoError(t, store.Delete(ctx, "tok-1"))
	_, err = store.Get(ctx, "tok-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionStore_TTLExpiry(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	session := &domain.Session{
		Token:     "tok-ttl",
		UserID:    "user-1",
		ExpiresAt: time.Now().UTC().Add(time.Minute),
	}
	require.NoError(t, store.Store(ctx, session))

	// miniredis expires keys on FastForward rather than wall-clock time.
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "tok-ttl")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionStore_UnknownToken(t *testing.T) {
	store, _ := setupStore(t)

	_, err := store.Get(context.Background(), "never-issued")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
