package domain

import "time"

// Session maps an opaque client-held token to an authenticated user. The
// backing store holds the authoritative mapping, so deleting the record
// invalidates the client immediately regardless of what the client retains.
type Session struct {
	Token     string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
