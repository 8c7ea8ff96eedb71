package domain

import "time"

// User represents an account in the system. It is the only entity: a user
// carries local credentials, a linked Google identity, or both, plus at most
// one free-text secret.
type User struct {
	ID           string    `bson:"_id,omitempty"`
	Username     string    `bson:"username,omitempty"`
	PasswordHash string    `bson:"password_hash,omitempty"`
	GoogleID     string    `bson:"google_id,omitempty"`
	Secret       string    `bson:"secret,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// HasLocalCredentials reports whether the account can log in with a password.
func (u *User) HasLocalCredentials() bool {
	return u.Username != "" && u.PasswordHash != ""
}

// HasSecret reports whether the user has submitted a secret.
func (u *User) HasSecret() bool {
	return u.Secret != ""
}
