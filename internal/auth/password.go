package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password with bcrypt at the default cost.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks candidate against stored. Stored credentials are
// normally bcrypt hashes, but pre-migration rows still hold plaintext; those
// compare byte for byte and report needsRehash so the caller can upgrade the
// row on a successful login.
func VerifyPassword(stored, candidate string) (ok bool, needsRehash bool) {
	if stored == "" {
		return false, false
	}
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil, false
	}
	if stored == candidate {
		return true, true
	}
	return false, false
}
