package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ipHeaders is the proxy header priority chain. A value of "unknown" (any
// case) counts as absent and resolution continues down the list.
var ipHeaders = []string{
	"X-Forwarded-For",
	"X-Real-IP",
	"Proxy-Client-IP",
	"WL-Proxy-Client-IP",
}

// ClientIP resolves the requesting client's address from forwarding headers,
// falling back to the socket address. X-Forwarded-For may carry a comma
// separated chain; the first entry is the original client.
func ClientIP(c *fiber.Ctx) string {
	for _, header := range ipHeaders {
		v := strings.TrimSpace(c.Get(header))
		if v == "" || strings.EqualFold(v, "unknown") {
			continue
		}
		if i := strings.IndexByte(v, ','); i >= 0 {
			v = strings.TrimSpace(v[:i])
		}
		if v != "" {
			return v
		}
	}
	if ip := c.IP(); ip != "" {
		return ip
	}
	return "unknown"
}
