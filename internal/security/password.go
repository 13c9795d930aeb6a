package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt silently ignores everything past 72 bytes, so longer inputs
// are rejected outright. Request validation caps at 72 characters,
// which multibyte input can exceed in bytes.
const maxPasswordBytes = 72

var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// HashPassword hashes a plain text password with bcrypt (salted,
// cost-bounded).
func HashPassword(plain string) (string, error) {
	if len(plain) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password.
// A malformed stored hash is indistinguishable from a mismatch.
func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
