package auth

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immersive-lab/lab-api/internal/config"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestTokenService(expiry time.Duration) *TokenService {
	return NewTokenService(config.JWTConfig{
		Secret: "0123456789abcdef0123456789abcdef",
		Expiry: expiry,
	}, testLogger())
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc := newTestTokenService(time.Hour)

	token, err := svc.Issue("hong", "10.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.True(t, svc.Validate(token))

	subject, err := svc.Subject(token)
	require.NoError(t, err)
	assert.Equal(t, "hong", subject)
}

func TestTokenService_ExpiredToken(t *testing.T) {
	svc := newTestTokenService(-time.Minute)

	token, err := svc.Issue("hong", "10.0.0.1")
	require.NoError(t, err)

	assert.False(t, svc.Validate(token))
	assert.False(t, svc.ValidateWithIP(token, "10.0.0.1"))
}

func TestTokenService_WrongSecret(t *testing.T) {
	svc := newTestTokenService(time.Hour)
	other := NewTokenService(config.JWTConfig{
		Secret: "another-secret-another-secret-32b",
		Expiry: time.Hour,
	}, testLogger())

	token, err := svc.Issue("hong", "")
	require.NoError(t, err)

	assert.False(t, other.Validate(token))

	_, err = other.Subject(token)
	assert.Error(t, err)
}

func TestTokenService_IPBinding(t *testing.T) {
	svc := newTestTokenService(time.Hour)

	bound, err := svc.Issue("hong", "10.0.0.1")
	require.NoError(t, err)

	assert.True(t, svc.ValidateWithIP(bound, "10.0.0.1"))
	assert.False(t, svc.ValidateWithIP(bound, "10.0.0.2"))
}

func TestTokenService_UnboundTokenPassesAnyIP(t *testing.T) {
	svc := newTestTokenService(time.Hour)

	unbound, err := svc.Issue("hong", "")
	require.NoError(t, err)

	assert.True(t, svc.ValidateWithIP(unbound, "10.0.0.1"))
	assert.True(t, svc.ValidateWithIP(unbound, "192.168.0.7"))
}

func TestTokenService_SubjectForIP(t *testing.T) {
	svc := newTestTokenService(time.Hour)

	bound, err := svc.Issue("hong", "10.0.0.1")
	require.NoError(t, err)

	sub, ok := svc.SubjectForIP(bound, "10.0.0.1")
	assert.True(t, ok)
	assert.Equal(t, "hong", sub)

	sub, ok = svc.SubjectForIP(bound, "10.0.0.2")
	assert.False(t, ok)
	assert.Empty(t, sub)

	unbound, err := svc.Issue("hong", "")
	require.NoError(t, err)
	sub, ok = svc.SubjectForIP(unbound, "192.168.0.7")
	assert.True(t, ok)
	assert.Equal(t, "hong", sub)

	_, ok = svc.SubjectForIP("garbage", "10.0.0.1")
	assert.False(t, ok)

	expired := newTestTokenService(-time.Minute)
	stale, err := expired.Issue("hong", "10.0.0.1")
	require.NoError(t, err)
	_, ok = expired.SubjectForIP(stale, "10.0.0.1")
	assert.False(t, ok)
}

func TestTokenService_GarbageToken(t *testing.T) {
	svc := newTestTokenService(time.Hour)

	assert.False(t, svc.Validate("not-a-token"))
	assert.False(t, svc.ValidateWithIP("", "10.0.0.1"))
}
