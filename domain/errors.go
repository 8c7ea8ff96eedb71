package domain

import "errors"

var (
	// ErrNotFound is returned by lookups that match no record.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateUsername is returned when a registration collides with an
	// existing username.
	ErrDuplicateUsername = errors.New("username already taken")

	// ErrInvalidCredentials is returned for both an unknown username and a
	// wrong password, so a caller cannot enumerate accounts by error kind.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrProvider is returned when the external identity provider exchange
	// fails for any reason.
	ErrProvider = errors.New("identity provider error")

	// ErrStoreUnavailable is returned when the backing store cannot be
	// reached or the operation fails for a non-domain reason.
	ErrStoreUnavailable = errors.New("store unavailable")
)
