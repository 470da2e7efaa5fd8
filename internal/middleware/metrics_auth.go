package middleware

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// MetricsAuthMiddleware guards the scrape endpoint with a shared token sent as
// a Bearer token or as the Basic auth password. An empty token leaves it open.
func MetricsAuthMiddleware(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return c.Next()
		}

		parts := strings.SplitN(c.Get("Authorization"), " ", 2)
		if len(parts) != 2 {
			return fiber.NewError(fiber.StatusUnauthorized, "missing scrape credentials")
		}

		var presented string
		switch strings.ToLower(parts[0]) {
		case "bearer":
			presented = parts[1]
		case "basic":
			decoded, err := base64.StdEncoding.DecodeString(parts[1])
			if err != nil {
				return fiber.NewError(fiber.StatusUnauthorized, "invalid scrape credentials")
			}
			if _, password, ok := strings.Cut(string(decoded), ":"); ok {
				presented = password
			}
		}

		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid scrape credentials")
		}
		return c.Next()
	}
}
