package middleware

import (
	"github.com/sirupsen/logrus"

	"github.com/immersive-lab/lab-api/internal/auth"
	"github.com/immersive-lab/lab-api/internal/config"
)

// Manager holds all middleware instances
type Manager struct {
	Auth        *AuthMiddleware
	RateLimit   *RateLimitMiddleware
	ErrorLogger *ErrorLoggerMiddleware
	Config      *config.Config
	Logger      *logrus.Logger
}

// NewManager creates a new middleware manager with all middleware initialized.
// Ordering matters to callers: RateLimit must be registered before Auth so
// floods are dropped before any principal resolution happens.
func NewManager(cfg *config.Config, logger *logrus.Logger, tokens *auth.TokenService, resolver *auth.Resolver) *Manager {
	return &Manager{
		Auth:        NewAuthMiddleware(tokens, resolver, logger),
		RateLimit:   NewRateLimitMiddleware(&cfg.RateLimit, logger),
		ErrorLogger: NewErrorLoggerMiddleware(logger),
		Config:      cfg,
		Logger:      logger,
	}
}

// Close releases middleware resources
func (m *Manager) Close() error {
	if m.RateLimit != nil {
		m.RateLimit.Close()
	}
	return nil
}
