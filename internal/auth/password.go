// Package auth provides the identity plumbing for the quote feed:
// bcrypt password hashing, signed session cookies, the middleware that
// resolves a request to its current user, and an optional GitHub OAuth
// provider.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor. Cost 12 takes roughly 250ms on
// current server hardware — slow enough to make offline cracking
// expensive, fast enough for a login form.
const defaultCost = 12

// PasswordService hashes and verifies password credentials. The hash is
// computed exactly once, at registration; login only ever compares.
//
// The cost lives in a struct field so tests can inject the bcrypt
// minimum (4) and skip the quarter-second per hash.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a caller-chosen
// (usually minimal) cost. Not for production use.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash computes the salted bcrypt hash for a plaintext password. The
// returned string embeds the salt and cost — store it as-is.
//
// bcrypt silently truncates inputs beyond 72 bytes; we reject them
// instead so two long passwords sharing a prefix can't verify as equal.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks a plaintext password against a stored hash. Returns nil
// on match. The comparison is constant-time inside bcrypt.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
