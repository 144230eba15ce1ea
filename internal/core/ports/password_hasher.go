package ports

// PasswordHasher performs one-way credential hashing and verification.
// The raw password never leaves this boundary.
type PasswordHasher interface {
	Hash(raw string) (string, error)
	Compare(hash, raw string) bool
}
