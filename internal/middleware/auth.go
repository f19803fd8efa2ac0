package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/immersive-lab/lab-api/internal/auth"
)

const (
	// LegacyUserHeader is the pre-JWT plain identifier header, kept for
	// backward compatibility with old clients.
	LegacyUserHeader = "X-USER"

	principalLocalKey = "principal"
)

// AuthMiddleware resolves the acting principal once per request and stores it
// in the request locals. Invalid or missing credentials do not abort the
// request here; handlers that need an identity reject later through
// Principal.Require. This keeps public endpoints working without a token.
type AuthMiddleware struct {
	tokens   *auth.TokenService
	resolver *auth.Resolver
	logger   *logrus.Logger
}

func NewAuthMiddleware(tokens *auth.TokenService, resolver *auth.Resolver, logger *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, resolver: resolver, logger: logger}
}

// Handle validates a bearer token (including its IP binding) and resolves the
// principal, falling back to the legacy identifier header.
func (a *AuthMiddleware) Handle() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var subject string

		if token := bearerToken(c.Get(fiber.HeaderAuthorization)); token != "" {
			sub, ok := a.tokens.SubjectForIP(token, ClientIP(c))
			if ok {
				subject = sub
			} else {
				a.logger.WithField("path", c.Path()).Warn("Bearer token rejected")
			}
		}

		principal, err := a.resolver.Resolve(c.Context(), subject, c.Get(LegacyUserHeader))
		if err != nil {
			return err
		}

		c.Locals(principalLocalKey, principal)
		return c.Next()
	}
}

// PrincipalFrom returns the resolution outcome stored by Handle. Requests
// that bypassed the middleware read as unauthenticated.
func PrincipalFrom(c *fiber.Ctx) auth.Principal {
	if p, ok := c.Locals(principalLocalKey).(auth.Principal); ok {
		return p
	}
	return auth.Principal{Method: auth.MethodNone}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
