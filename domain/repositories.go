package domain

import "context"

// UserRepository persists User records. All operations are durable reads or
// writes against the backing store; there is no caching layer in front of it.
type UserRepository interface {
	// CreateUser inserts a new user. It returns ErrDuplicateUsername when the
	// username is already taken.
	CreateUser(ctx context.Context, user *User) error

	// GetUserByID returns the user with the given ID, or ErrNotFound.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// GetUserByUsername returns the user with the given username, or
	// ErrNotFound.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// FindOrCreateByGoogleID returns the user linked to the given Google
	// subject identifier, creating the record if it does not exist. The
	// operation is atomic: concurrent calls with the same identifier resolve
	// to exactly one record.
	FindOrCreateByGoogleID(ctx context.Context, googleID string) (*User, error)

	// SetSecret overwrites the user's secret. A user holds at most one
	// secret; each submission replaces the previous one.
	SetSecret(ctx context.Context, userID, secret string) error

	// ListUsersWithSecrets returns every user whose secret is set.
	ListUsersWithSecrets(ctx context.Context) ([]*User, error)
}

// SessionStore holds the server-side session mapping. Implementations exist
// for MongoDB, Redis and in-process memory.
type SessionStore interface {
	// Store persists a new session under its token.
	Store(ctx context.Context, session *Session) error

	// Get returns the session for the given token, or ErrNotFound when the
	// token is unknown or the session has expired.
	Get(ctx context.Context, token string) (*Session, error)

	// Delete removes the session. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}
