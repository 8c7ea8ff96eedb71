package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/confide-dev/confide/domain"
)

// SessionConfig is passed explicitly into NewSessionService; session
// parameters are never process-wide globals.
type SessionConfig struct {
	// TTL is how long an established session stays valid.
	TTL time.Duration
}

// DefaultSessionTTL applies when SessionConfig.TTL is zero.
const DefaultSessionTTL = 72 * time.Hour

// SessionService issues opaque tokens after successful authentication, maps
// them back to a user on each request, and destroys them on logout. The
// client only ever holds the token; the store holds the authoritative
// mapping, so a server-side destroy invalidates the client immediately.
type SessionService struct {
	store domain.SessionStore
	ttl   time.Duration
}

// NewSessionService creates a SessionService on the given store.
func NewSessionService(store domain.SessionStore, cfg SessionConfig) *SessionService {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{store: store, ttl: ttl}
}

// Establish creates a session for the user and returns it. The token is 32
// bytes from crypto/rand, base64url encoded.
func (s *SessionService) Establish(ctx context.Context, userID string) (*domain.Session, error) {
	token, err := newSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generating session token: %w", err)
	}

	now := time.Now().UTC()
	session := &domain.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Store(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Resolve maps a token back to a user ID. Unknown, expired and destroyed
// tokens all return domain.ErrNotFound, which callers treat as anonymous.
func (s *SessionService) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.ErrNotFound
	}
	session, err := s.store.Get(ctx, token)
	if err != nil {
		return "", err
	}
	return session.UserID, nil
}

// Destroy removes the session. Destroying an unknown token succeeds.
func (s *SessionService) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.Delete(ctx, token); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

func newSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
