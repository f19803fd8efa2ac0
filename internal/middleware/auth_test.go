package middleware

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immersive-lab/lab-api/internal/auth"
	"github.com/immersive-lab/lab-api/internal/config"
	"github.com/immersive-lab/lab-api/internal/models"
)

type singleMemberFinder struct {
	member *models.Member
}

func (f singleMemberFinder) FindByLoginID(_ context.Context, id string) (*models.Member, error) {
	if f.member != nil && f.member.LoginID == id {
		return f.member, nil
	}
	return nil, nil
}

func (f singleMemberFinder) FindByStudentID(context.Context, string) (*models.Member, error) {
	return nil, nil
}

func (f singleMemberFinder) FindByEmail(context.Context, string) (*models.Member, error) {
	return nil, nil
}

func (f singleMemberFinder) FindByName(context.Context, string) (*models.Member, error) {
	return nil, nil
}

func newAuthTestApp(t *testing.T, member *models.Member) (*fiber.App, *auth.TokenService) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	tokens := auth.NewTokenService(config.JWTConfig{
		Secret: "0123456789abcdef0123456789abcdef",
		Expiry: time.Hour,
	}, logger)
	resolver := auth.NewResolver(singleMemberFinder{member: member})

	app := fiber.New()
	app.Use(NewAuthMiddleware(tokens, resolver, logger).Handle())
	app.Get("/whoami", func(c *fiber.Ctx) error {
		p := PrincipalFrom(c)
		body := fiber.Map{"method": string(p.Method)}
		if p.Authenticated() {
			body["loginId"] = p.Member.LoginID
		}
		return c.JSON(body)
	})
	return app, tokens
}

func whoami(t *testing.T, app *fiber.App, headers map[string]string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", "/whoami", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	hong := &models.Member{ID: 1, LoginID: "hong"}
	app, tokens := newAuthTestApp(t, hong)

	token, err := tokens.Issue("hong", "")
	require.NoError(t, err)

	status, body := whoami(t, app, map[string]string{
		"Authorization": "Bearer " + token,
	})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"method":"token"`)
	assert.Contains(t, body, `"loginId":"hong"`)
}

func TestAuthMiddleware_TokenBoundToOtherIPIsIgnored(t *testing.T) {
	hong := &models.Member{ID: 1, LoginID: "hong"}
	app, tokens := newAuthTestApp(t, hong)

	token, err := tokens.Issue("hong", "10.9.9.9")
	require.NoError(t, err)

	// Wrong address: the request continues, just unauthenticated.
	status, body := whoami(t, app, map[string]string{
		"Authorization":   "Bearer " + token,
		"X-Forwarded-For": "203.0.113.5",
	})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"method":"unauthenticated"`)
}

func TestAuthMiddleware_InvalidTokenDoesNotAbort(t *testing.T) {
	app, _ := newAuthTestApp(t, nil)

	status, body := whoami(t, app, map[string]string{
		"Authorization": "Bearer garbage",
	})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"method":"unauthenticated"`)
}

func TestAuthMiddleware_LegacyHeaderFallback(t *testing.T) {
	hong := &models.Member{ID: 1, LoginID: "hong"}
	app, _ := newAuthTestApp(t, hong)

	status, body := whoami(t, app, map[string]string{
		LegacyUserHeader: "hong",
	})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"method":"legacy-header"`)
}

func TestAuthMiddleware_NoCredentials(t *testing.T) {
	app, _ := newAuthTestApp(t, nil)

	status, body := whoami(t, app, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"method":"unauthenticated"`)
}
