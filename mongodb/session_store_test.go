package mongodb_test

import (
	"context"
	"testing"
	"time"

	"github.com/confide-dev/confide/domain"
	"github.com/confide-dev/confide/mongodb"
	"github.com/confide-dev/confide/mongodb/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSessionStore(t *testing.T) (*mongodb.SessionStore, context.Context) {
	t.Helper()
	db, cleanup := testutil.SetupTestMongoDB(t, "confide_sessions_test")
	t.Cleanup(cleanup)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	store, err := mongodb.NewSessionStore(ctx, db)
	require.NoError(t, err)
	return store, ctx
}

func TestSessionStore_StoreGetDelete(t *testing.T) {
	store, ctx := setupSessionStore(t)

	session := &domain.Session{
		Token:     "opaque-token-1",
		UserID:    "user-1",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, store.Store(ctx, session))

	got, err := store.Get(ctx, "opaque-token-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)

	require.NoError(t, store.Delete(ctx, "opaque-token-1"))

	_, err = store.Get(ctx, "opaque-token-1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "destroyed token must resolve to anonymous")

	// Deleting again is a no-op, not an error.
	assert.NoError(t, store.Delete(ctx, "opaque-token-1"))
}

func TestSessionStore_ExpiredSessionIsNotFound(t *testing.T) {
	store, ctx := setupSessionStore(t)

	session := &domain.Session{
		Token:     "stale-token",
		UserID:    "user-1",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	require.NoError(t, store.Store(ctx, session))

	// The TTL monitor may not have reaped it yet; Get must still refuse it.
	_, err := store.Get(ctx, "stale-token")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
