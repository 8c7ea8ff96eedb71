package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/confide-dev/confide/domain"
	"github.com/rs/zerolog/log"
)

// dummyPasswordHash is a bcrypt hash of an unguessable value. Login runs a
// verification against it when the username is unknown so that the known and
// unknown branches take comparable time.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AuthService implements local credential authentication: account creation
// with a salted one-way hash, and login with uniform failure semantics.
type AuthService struct {
	users    domain.UserRepository
	hasher   PasswordHasher
	sessions *SessionService
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, hasher PasswordHasher, sessions *SessionService) *AuthService {
	return &AuthService{users: users, hasher: hasher, sessions: sessions}
}

// Register creates an account and establishes a session for it. A taken
// username fails with domain.ErrDuplicateUsername and leaves the existing
// record untouched (the unique index rejects the insert).
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.Session, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: passwordHash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID).Msg("Registered new user")
	return s.sessions.Establish(ctx, user.ID)
}

// Login validates the username/password pair and establishes a session.
// Unknown username and wrong password both fail with
// domain.ErrInvalidCredentials so the response cannot be used to enumerate
// accounts.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Burn a comparison so this branch costs the same as a mismatch.
			_ = s.hasher.Verify(dummyPasswordHash, password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHash == "" {
		// Federated-only account; it has no password to check.
		_ = s.hasher.Verify(dummyPasswordHash, password)
		return nil, domain.ErrInvalidCredentials
	}
	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.sessions.Establish(ctx, user.ID)
}
