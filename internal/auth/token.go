package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/immersive-lab/lab-api/internal/config"
)

// Claims is the JWT payload. ClientIP is the network address the token was
// issued to; tokens minted before IP binding existed carry an empty value.
type Claims struct {
	ClientIP string `json:"ip"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 bearer tokens. It holds no state
// beyond the configured secret and expiry, so it is safe for concurrent use.
type TokenService struct {
	secret []byte
	expiry time.Duration
	logger *logrus.Logger
}

// NewTokenService builds the service and warns (without failing) when the
// secret is the shipped placeholder or too short for HMAC-SHA256.
func NewTokenService(cfg config.JWTConfig, logger *logrus.Logger) *TokenService {
	if cfg.Secret == config.DefaultJWTSecret || len(cfg.Secret) < config.MinSecretLength {
		logger.Warn("JWT secret is the default placeholder or shorter than 32 bytes; set JWT_SECRET before deploying")
	}
	return &TokenService{
		secret: []byte(cfg.Secret),
		expiry: cfg.Expiry,
		logger: logger,
	}
}

// Issue signs a token for loginID bound to clientIP. An empty clientIP
// produces an unbound token that passes ValidateWithIP from any address.
func (s *TokenService) Issue(loginID, clientIP string) (string, error) {
	now := time.Now()
	claims := Claims{
		ClientIP: clientIP,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   loginID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *TokenService) parse(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Validate reports whether the token is well formed, signed with our secret
// and unexpired. It fails closed on every parse error.
func (s *TokenService) Validate(tokenStr string) bool {
	if _, err := s.parse(tokenStr); err != nil {
		s.logger.WithError(err).Warn("JWT validation failed")
		return false
	}
	return true
}

// ValidateWithIP is Validate plus the address-binding check: a token carrying
// a bound IP must be presented from exactly that address. Unbound tokens pass
// regardless, keeping pre-binding tokens usable.
func (s *TokenService) ValidateWithIP(tokenStr, requestIP string) bool {
	claims, err := s.parse(tokenStr)
	if err != nil {
		s.logger.WithError(err).Warn("JWT validation failed")
		return false
	}
	if claims.ClientIP == "" {
		return true
	}
	return claims.ClientIP == requestIP
}

// SubjectForIP validates the token (signature, expiry, IP binding) and
// returns its subject, all from a single parse. This is the per-request hot
// path; ValidateWithIP plus Subject would verify the HMAC twice.
func (s *TokenService) SubjectForIP(tokenStr, requestIP string) (string, bool) {
	claims, err := s.parse(tokenStr)
	if err != nil {
		s.logger.WithError(err).Warn("JWT validation failed")
		return "", false
	}
	if claims.ClientIP != "" && claims.ClientIP != requestIP {
		return "", false
	}
	return claims.Subject, true
}

// Subject returns the login identifier the token was issued for. Callers must
// validate first; Subject surfaces parse failures as errors rather than
// guessing.
func (s *TokenService) Subject(tokenStr string) (string, error) {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
