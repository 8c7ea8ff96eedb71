package cache

import (
	"context"
	"time"

	"github.com/confide-dev/confide/domain"
	"github.com/jellydator/ttlcache/v3"
)

// MemorySessionStore implements domain.SessionStore using ttlcache. Sessions
// do not survive a process restart; it serves tests and single-node dev
// setups where that is acceptable.
type MemorySessionStore struct {
	cache *ttlcache.Cache[string, *domain.Session]
}

// NewMemorySessionStore creates an in-memory session store with automatic
// expiry cleanup.
func NewMemorySessionStore() *MemorySessionStore {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, *domain.Session](),
	)
	go cache.Start()

	return &MemorySessionStore{cache: cache}
}

// Store implements domain.SessionStore.
func (s *MemorySessionStore) Store(_ context.Context, session *domain.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	s.cache.Set(session.Token, session, time.Until(session.ExpiresAt))
	return nil
}

// Get implements domain.SessionStore.
func (s *MemorySessionStore) Get(_ context.Context, token string) (*domain.Session, error) {
	item := s.cache.Get(token)
	if item == nil {
		return nil, domain.ErrNotFound
	}
	session := item.Value()
	if session.Expired(time.Now().UTC()) {
		s.cache.Delete(token)
		return nil, domain.ErrNotFound
	}
	return session, nil
}

// Delete implements domain.SessionStore.
func (s *MemorySessionStore) Delete(_ context.Context, token string) error {
	s.cache.Delete(token)
	return nil
}

// Close stops the cleanup goroutine.
func (s *MemorySessionStore) Close() error {
	s.cache.Stop()
	return nil
}

// Ensure interface compliance
var _ domain.SessionStore = (*MemorySessionStore)(nil)
