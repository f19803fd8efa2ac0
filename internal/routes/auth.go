package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/immersive-lab/lab-api/internal/auth"
	"github.com/immersive-lab/lab-api/internal/metrics"
	"github.com/immersive-lab/lab-api/internal/middleware"
	"github.com/immersive-lab/lab-api/internal/models"
	"github.com/immersive-lab/lab-api/internal/store"
	apperrors "github.com/immersive-lab/lab-api/pkg/errors"
)

// AuthHandler handles login and the current-user endpoint.
type AuthHandler struct {
	members *store.MemberStore
	tokens  TokenIssuer
	logger  *logrus.Logger
}

func NewAuthHandler(members *store.MemberStore, tokens TokenIssuer, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{members: members, tokens: tokens, logger: logger}
}

// Login authenticates a member and returns a bearer token bound to the
// caller's IP. Unknown IDs and wrong passwords get the same response so the
// endpoint does not leak which login IDs exist.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.BadRequest("Invalid request body.")
	}
	if req.LoginID == "" || req.Password == "" {
		return apperrors.BadRequest("Login ID and password are required.")
	}

	member, err := h.members.FindByLoginID(c.Context(), req.LoginID)
	if err != nil {
		return apperrors.Internal("failed to load member", err)
	}
	if member == nil || member.Password == "" {
		metrics.LoginAttempt(false)
		return apperrors.Unauthenticated("Invalid ID or password.")
	}

	ok, needsRehash := auth.VerifyPassword(member.Password, req.Password)
	if !ok {
		h.logger.WithField("login_id", req.LoginID).Warn("Login failed")
		metrics.LoginAttempt(false)
		return apperrors.Unauthenticated("Invalid ID or password.")
	}

	// Plaintext passwords left over from the legacy system are upgraded to
	// bcrypt on the first successful login. A failure here must not block the
	// login itself.
	if needsRehash {
		if hashed, err := auth.HashPassword(req.Password); err == nil {
			member.Password = hashed
			if err := h.members.Update(c.Context(), member); err != nil {
				h.logger.WithError(err).WithField("login_id", req.LoginID).Error("Failed to upgrade password hash")
			} else {
				h.logger.WithField("login_id", req.LoginID).Info("Upgraded legacy plaintext password to bcrypt")
			}
		}
	}

	clientIP := middleware.ClientIP(c)
	token, err := h.tokens.Issue(member.LoginID, clientIP)
	if err != nil {
		return apperrors.Internal("failed to issue token", err)
	}

	h.logger.WithFields(logrus.Fields{
		"member_id": member.ID,
		"login_id":  member.LoginID,
		"ip":        clientIP,
	}).Info("Member logged in")
	metrics.LoginAttempt(true)

	return c.JSON(models.LoginResponse{
		Token:   token,
		LoginID: member.LoginID,
		Name:    member.Name,
		Role:    member.Role,
	})
}

// Me returns the member resolved for this request.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	member, err := middleware.PrincipalFrom(c).Require()
	if err != nil {
		return err
	}
	return c.JSON(member)
}
