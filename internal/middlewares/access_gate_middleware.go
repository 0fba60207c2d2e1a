package middlewares

import (
	"strings"

	"github.com/publora/publora/internal/auth"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

const principalLocalKey = "publora_principal"

// AccessGateMiddleware authenticates every request through one of the two
// exclusive modes: the x-api-key automation secret or an identity bearer
// token. A request carrying neither is rejected before any other processing.
func AccessGateMiddleware(gate *auth.Gate) fiber.Handler {
	return func(c fiber.Ctx) error {
		if apiKey := c.Get("x-api-key"); apiKey != "" {
			principal, err := gate.VerifySharedSecret(apiKey)
			if err != nil {
				log.Warn().
					Str("path", c.Path()).
					Msg("Rejected request with invalid api key")
				return unauthorized(c)
			}

			c.Locals(principalLocalKey, principal)
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			principal, err := gate.VerifyIdentityToken(token)
			if err != nil {
				log.Warn().
					Str("path", c.Path()).
					Msg("Rejected request with invalid identity token")
				return unauthorized(c)
			}

			c.Locals(principalLocalKey, principal)
			return c.Next()
		}

		return unauthorized(c)
	}
}

// PrincipalFromContext returns the authenticated caller set by the access
// gate.
func PrincipalFromContext(c fiber.Ctx) (auth.Principal, bool) {
	principal, ok := c.Locals(principalLocalKey).(auth.Principal)
	return principal, ok
}

func unauthorized(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"data":    nil,
		"error":   "missing or invalid authentication",
	})
}
