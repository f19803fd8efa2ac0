package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyPassword_BcryptHash(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)

	ok, needsRehash := VerifyPassword(hash, "secret123")
	assert.True(t, ok)
	assert.False(t, needsRehash)

	ok, _ = VerifyPassword(hash, "wrong")
	assert.False(t, ok)
}

func TestVerifyPassword_LegacyPlaintext(t *testing.T) {
	ok, needsRehash := VerifyPassword("secret123", "secret123")
	assert.True(t, ok)
	assert.True(t, needsRehash, "plaintext match must request an upgrade")

	ok, needsRehash = VerifyPassword("secret123", "wrong")
	assert.False(t, ok)
	assert.False(t, needsRehash)
}

func TestVerifyPassword_EmptyStored(t *testing.T) {
	ok, needsRehash := VerifyPassword("", "anything")
	assert.False(t, ok)
	assert.False(t, needsRehash)
}
