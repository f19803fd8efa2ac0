package middleware

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immersive-lab/lab-api/internal/config"
	apperrors "github.com/immersive-lab/lab-api/pkg/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path    string
		cat     Category
		limited bool
	}{
		{"/api/auth/login", CategoryLogin, true},
		{"/api/upload", CategoryUpload, true},
		{"/api/upload/photo", CategoryUpload, true},
		{"/api/members", CategoryGeneral, true},
		{"/api/auth/me", CategoryGeneral, true},
		{"/healthz", "", false},
		{"/metrics", "", false},
		{"/uploads/photo.png", "", false},
	}
	for _, tt := range tests {
		cat, limited := Classify(tt.path)
		assert.Equal(t, tt.limited, limited, tt.path)
		assert.Equal(t, tt.cat, cat, tt.path)
	}
}

func newRateLimitTestApp(t *testing.T, cfg *config.RateLimitConfig) (*fiber.App, *RateLimitMiddleware) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	rl := NewRateLimitMiddleware(cfg, logger)
	t.Cleanup(rl.Close)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				return c.Status(appErr.HTTPStatus()).JSON(fiber.Map{"message": appErr.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "error"})
		},
	})
	app.Use(rl.Handle())
	app.All("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app, rl
}

func limitedConfig() *config.RateLimitConfig {
	return &config.RateLimitConfig{
		Enabled: true,
		Login:   config.RateBucket{Requests: 3, Window: time.Hour},
		Upload:  config.RateBucket{Requests: 2, Window: time.Hour},
		General: config.RateBucket{Requests: 5, Window: time.Hour},
		IdleTTL: 30 * time.Minute,
	}
}

func doRequest(t *testing.T, app *fiber.App, path, ip string) int {
	t.Helper()
	req := httptest.NewRequest("POST", path, nil)
	req.Header.Set("X-Forwarded-For", ip)
	resp, err := app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestRateLimit_BudgetThenReject(t *testing.T) {
	app, _ := newRateLimitTestApp(t, limitedConfig())

	for i := 0; i < 3; i++ {
		assert.Equal(t, fiber.StatusOK, doRequest(t, app, "/api/auth/login", "203.0.113.5"))
	}
	assert.Equal(t, fiber.StatusTooManyRequests, doRequest(t, app, "/api/auth/login", "203.0.113.5"))
}

func TestRateLimit_RefillAfterWindow(t *testing.T) {
	cfg := limitedConfig()
	cfg.Login = config.RateBucket{Requests: 2, Window: 200 * time.Millisecond}
	app, _ := newRateLimitTestApp(t, cfg)

	assert.Equal(t, fiber.StatusOK, doRequest(t, app, "/api/auth/login", "203.0.113.5"))
	assert.Equal(t, fiber.StatusOK, doRequest(t, app, "/api/auth/login", "203.0.113.5"))
	assert.Equal(t, fiber.StatusTooManyRequests, doRequest(t, app, "/api/auth/login", "203.0.113.5"))

	// Once the window has elapsed the budget is back.
	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, fiber.StatusOK, doRequest(t, app, "/api/auth/login", "203.0.113.5"))
}

func TestRateLimit_BucketsAreIsolatedPerIP(t *testing.T) {
	app, _ := newRateLimitTestApp(t, limitedConfig())

	for i := 0; i < 3; i++ {
		doRequest(t, app, "/api/auth/login", "203.0.113.5")
	}
	assert.Equal(t, fiber.StatusTooManyRequests, doRequest(t, app, "/api/auth/login", "203.0.113.5"))

	// A different client still has its full budget.
	assert.Equal(t, fiber.StatusOK, doRequest(t, app, "/api/auth/login", "203.0.113.6"))
}

func TestRateLimit_BucketsAreIsolatedPerCategory(t *testing.T) {
	app, _ := newRateLimitTestApp(t, limitedConfig())

	for i := 0; i < 3; i++ {
		doRequest(t, app, "/api/auth/login", "203.0.113.5")
	}
	assert.Equal(t, fiber.StatusTooManyRequests, doRequest(t, app, "/api/auth/login", "203.0.113.5"))

	// The same client's upload and general budgets are untouched.
	assert.Equal(t, fiber.StatusOK, doRequest(t, app, "/api/upload", "203.0.113.5"))
	assert.Equal(t, fiber.StatusOK, doRequest(t, app, "/api/members", "203.0.113.5"))
}

func TestRateLimit_UnclassifiedPathsAreNotLimited(t *testing.T) {
	app, _ := newRateLimitTestApp(t, limitedConfig())

	for i := 0; i < 50; i++ {
		assert.Equal(t, fiber.StatusOK, doRequest(t, app, "/healthz", "203.0.113.5"))
	}
}

func TestRateLimit_DisabledPassesEverything(t *testing.T) {
	cfg := limitedConfig()
	cfg.Enabled = false
	app, _ := newRateLimitTestApp(t, cfg)

	for i := 0; i < 20; i++ {
		assert.Equal(t, fiber.StatusOK, doRequest(t, app, "/api/auth/login", "203.0.113.5"))
	}
}

func TestRateLimit_RejectionHeaders(t *testing.T) {
	app, _ := newRateLimitTestApp(t, limitedConfig())

	for i := 0; i < 3; i++ {
		doRequest(t, app, "/api/auth/login", "203.0.113.5")
	}

	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "3", resp.Header.Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Retry-After"))
}

func TestRateLimit_SweeperEvictsIdleBuckets(t *testing.T) {
	cfg := limitedConfig()
	cfg.IdleTTL = time.Millisecond
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	rl := NewRateLimitMiddleware(cfg, logger)
	defer rl.Close()

	rl.bucketFor(CategoryLogin, "203.0.113.5")
	rl.mu.Lock()
	assert.Len(t, rl.buckets, 1)
	// Backdate the bucket so the next sweep removes it.
	rl.buckets["login:203.0.113.5"].lastSeen = time.Now().Add(-time.Minute)
	rl.mu.Unlock()

	require.Eventually(t, func() bool {
		rl.mu.Lock()
		defer rl.mu.Unlock()
		return len(rl.buckets) == 0
	}, 90*time.Second, 500*time.Millisecond)
}
