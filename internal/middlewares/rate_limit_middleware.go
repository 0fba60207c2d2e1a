package middlewares

import (
	"strconv"

	"github.com/publora/publora/internal/domain"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// RateLimitMiddleware caps request volume per caller identity using the
// configured fixed-window counter. Keyed by source address.
func RateLimitMiddleware(counter domain.RateCounter) fiber.Handler {
	return func(c fiber.Ctx) error {
		allowed, retryAfter, err := counter.Allow(c.RequestCtx(), c.IP())
		if err != nil {
			// A broken counter backend must not take the vault down
			// with it.
			log.Error().Err(err).Msg("Rate counter failed, allowing request")
			return c.Next()
		}

		if !allowed {
			log.Warn().
				Str("ip", c.IP()).
				Str("path", c.Path()).
				Msg("Rate limit exceeded")

			rejection := &domain.RateLimitError{RetryAfterSeconds: retryAfter}

			c.Set("Retry-After", strconv.Itoa(retryAfter))
			return c.Status(domain.HTTPStatus(rejection)).JSON(fiber.Map{
				"success": false,
				"data":    nil,
				"error":   rejection.Error(),
			})
		}

		return c.Next()
	}
}
