package server

import (
	"time"

	"github.com/publora/publora/internal/auth"
	"github.com/publora/publora/internal/controllers"
	"github.com/publora/publora/internal/domain"
	"github.com/publora/publora/internal/middlewares"
	"github.com/publora/publora/internal/version"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type HTTPServerDependencies struct {
	Gate            *auth.Gate
	RateCounter     domain.RateCounter
	VaultController *controllers.VaultController
}

// NewHTTPServer wires the vault's HTTP surface. CORS answers preflight
// requests permissively; everything under /api/v1 passes the rate limiter
// and the access gate before reaching a handler.
func NewHTTPServer(deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName: "publora-vault",
	})

	router.Use(cors.New())
	router.Use(logger.New())

	// Health check endpoint (no authentication required)
	router.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"service":   "publora-vault",
			"version":   version.GetVersion(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := router.Group("/api/v1")
	api.Use(middlewares.RateLimitMiddleware(deps.RateCounter))
	api.Use(middlewares.AccessGateMiddleware(deps.Gate))

	integrations := api.Group("/integrations/:platform")
	integrations.Post("/", deps.VaultController.CreateIntegration)
	integrations.Post("/refresh", deps.VaultController.RefreshToken)
	integrations.Post("/status", deps.VaultController.IntegrationStatus)
	integrations.Post("/disconnect", deps.VaultController.DisconnectIntegration)

	api.Post("/activity", deps.VaultController.Activity)
	api.Post("/admin/migrate-credentials", deps.VaultController.MigrateCredentials)

	return router
}
