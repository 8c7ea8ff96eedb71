package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/confide-dev/confide/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore implements domain.SessionStore using Redis. Sessions are
// stored as JSON under a prefixed key with a native Redis TTL, so expired
// sessions vanish without a reaper.
type SessionStore struct {
	client *redis.Client
	prefix string
}

// NewSessionStore creates a new [SessionStore] instance.
func NewSessionStore(client *redis.Client, prefix string) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: prefix,
	}
}

func (s *SessionStore) redisKey(token string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, token)
}

// Store persists the session with a TTL matching its expiry.
func (s *SessionStore) Store(ctx context.Context, session *domain.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, s.redisKey(session.Token), payload, ttl).Err(); err != nil {
		return fmt.Errorf("%w: store session: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Get returns the session for the token, or domain.ErrNotFound.
func (s *SessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	payload, err := s.client.Get(ctx, s.redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get session: %v", domain.ErrStoreUnavailable, err)
	}

	var session domain.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if session.Expired(time.Now().UTC()) {
		return nil, domain.ErrNotFound
	}
	return &session, nil
}

// Delete removes the session key.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.redisKey(token)).Err(); err != nil {
		return fmt.Errorf("%w: delete session: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Ensure interface compliance
var _ domain.SessionStore = (*SessionStore)(nil)
