// Package credentials implements the salted, iterated key derivation
// used to store and verify account passwords. Functions here are pure;
// callers own persistence of the salt and digest.
package credentials

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

// SaltLength is the number of random bytes in a new salt.
const SaltLength = 64

// DefaultIterations is the PBKDF2 iteration count used when a Store is
// built without an explicit value.
const DefaultIterations = 10000

// Store derives and verifies password digests with a fixed iteration
// count.
type Store struct {
	iterations int
}

// New returns a Store. A non-positive iteration count falls back to
// DefaultIterations.
func New(iterations int) *Store {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Store{iterations: iterations}
}

// NewSalt returns a fresh random salt, base64 encoded for storage.
func (s *Store) NewSalt() (string, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}

// Hash derives a hex digest from a raw password and a base64 salt.
// Same inputs always yield the same digest.
func (s *Store) Hash(password, salt string) (string, error) {
	rawSalt, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return "", err
	}

	digest := pbkdf2.Key([]byte(password), rawSalt, s.iterations, sha256.Size, sha256.New)
	return hex.EncodeToString(digest), nil
}

// Verify reports whether the raw password matches the stored digest.
// It fails closed: an empty stored hash or salt never verifies, so an
// OAuth-only account cannot log in with a password.
func (s *Store) Verify(hash, salt, password string) bool {
	if hash == "" || salt == "" {
		return false
	}

	derived, err := s.Hash(password, salt)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(derived), []byte(hash)) == 1
}
