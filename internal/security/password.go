package security

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrMismatch = errors.New("password does not match")

// MaxPasswordBytes is the most bcrypt will hash; longer input is rejected.
const MaxPasswordBytes = 72

// Hash password hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a stored hash with a plaintext password.
// Rows imported from the old portal hold base64 of the password instead of a
// bcrypt hash; those still verify, and NeedsRehash reports them.
func CheckPassword(hash, plain string) error {
	if isBcrypt(hash) {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(plain))

	if subtle.ConstantTimeCompare([]byte(hash), []byte(encoded)) != 1 {
		return ErrMismatch
	}

	return nil
}

func NeedsRehash(hash string) bool {
	return !isBcrypt(hash)
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}
