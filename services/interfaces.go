package services

// PasswordHasher hashes and verifies passwords. The concrete bcrypt
// implementation lives in internal/auth.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) error
}
