package middleware

import (
	"time"

	"tunilearn/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func ipLimiter(max int, window time.Duration, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.Error(c, fiber.StatusTooManyRequests, fiber.NewError(fiber.StatusTooManyRequests, message))
		},
	})
}

// LoginRateLimiter limits login attempts per IP.
func LoginRateLimiter() fiber.Handler {
	return ipLimiter(10, time.Minute, "Too many login attempts. Please try again later.")
}

// RegisterRateLimiter limits sign-ups per IP.
func RegisterRateLimiter() fiber.Handler {
	return ipLimiter(5, 5*time.Minute, "Too many registration attempts. Please wait a few minutes.")
}
