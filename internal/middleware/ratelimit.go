package middleware

import (
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/immersive-lab/lab-api/internal/config"
	"github.com/immersive-lab/lab-api/internal/metrics"
	apperrors "github.com/immersive-lab/lab-api/pkg/errors"
)

// Category classifies a request path for rate limiting purposes. Every path
// falls into at most one category; uncategorized paths are not limited.
type Category string

const (
	CategoryLogin   Category = "login"
	CategoryUpload  Category = "upload"
	CategoryGeneral Category = "general"
)

// Classify maps a request path onto its rate limit category. Login and upload
// get their own stricter buckets; everything else under /api/ shares the
// general budget.
func Classify(path string) (Category, bool) {
	switch {
	case hasPrefix(path, "/api/auth/login"):
		return CategoryLogin, true
	case hasPrefix(path, "/api/upload"):
		return CategoryUpload, true
	case hasPrefix(path, "/api/"):
		return CategoryGeneral, true
	}
	return "", false
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware keeps one token bucket per (category, client IP) pair.
// Buckets are created lazily and swept after IdleTTL of inactivity so the map
// does not grow without bound over long uptimes.
type RateLimitMiddleware struct {
	config *config.RateLimitConfig
	logger *logrus.Logger

	mu      sync.Mutex
	buckets map[string]*bucket

	stop chan struct{}
	once sync.Once
}

func NewRateLimitMiddleware(cfg *config.RateLimitConfig, logger *logrus.Logger) *RateLimitMiddleware {
	rl := &RateLimitMiddleware{
		config:  cfg,
		logger:  logger,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Close stops the idle-bucket sweeper.
func (rl *RateLimitMiddleware) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimitMiddleware) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for key, b := range rl.buckets {
				if now.Sub(b.lastSeen) > rl.config.IdleTTL {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimitMiddleware) bucketFor(cat Category, ip string) (*bucket, config.RateBucket) {
	limits := rl.limitsFor(cat)
	key := string(cat) + ":" + ip

	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[key]
	if !ok {
		// Refill spreads the full budget evenly over the window; burst
		// equals the budget so an idle client can spend it at once.
		refill := rate.Every(limits.Window / time.Duration(limits.Requests))
		b = &bucket{lim: rate.NewLimiter(refill, limits.Requests)}
		rl.buckets[key] = b
	}
	b.lastSeen = time.Now()
	return b, limits
}

func (rl *RateLimitMiddleware) limitsFor(cat Category) config.RateBucket {
	switch cat {
	case CategoryLogin:
		return rl.config.Login
	case CategoryUpload:
		return rl.config.Upload
	default:
		return rl.config.General
	}
}

// Handle gates requests before authentication and business logic run. It
// consumes one token per request; the check-and-decrement is atomic inside
// rate.Limiter, so concurrent requests cannot over-admit.
func (rl *RateLimitMiddleware) Handle() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rl.config.Enabled {
			return c.Next()
		}

		cat, limited := Classify(c.Path())
		if !limited {
			return c.Next()
		}

		ip := ClientIP(c)
		b, limits := rl.bucketFor(cat, ip)

		res := b.lim.Reserve()
		if !res.OK() {
			return apperrors.New(apperrors.CodeRateLimited, "Too many requests. Please try again later.")
		}
		if delay := res.Delay(); delay > 0 {
			res.Cancel()
			retryAfter := int64(math.Ceil(delay.Seconds()))

			rl.logger.WithFields(logrus.Fields{
				"ip":          ip,
				"path":        c.Path(),
				"category":    string(cat),
				"retry_after": retryAfter,
			}).Warn("Rate limit exceeded")
			metrics.RateLimitDropped(string(cat))

			c.Set("X-RateLimit-Limit", strconv.Itoa(limits.Requests))
			c.Set("X-RateLimit-Retry-After", fmt.Sprintf("%d", retryAfter))
			return apperrors.New(apperrors.CodeRateLimited, "Too many requests. Please try again later.")
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(limits.Requests))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(int(b.lim.Tokens())))
		return c.Next()
	}
}
