package controllers

import (
	"github.com/publora/publora/internal/auth"
	"github.com/publora/publora/internal/domain"
	"github.com/publora/publora/internal/managers"
	"github.com/publora/publora/internal/middlewares"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// VaultController exposes the credential vault over HTTP. Every response
// uses the shared envelope; no handler ever returns a raw token, secret, or
// full credential object.
type VaultController struct {
	repository     domain.IntegrationRepository
	store          *managers.CredentialStore
	refreshManager *managers.TokenRefreshManager
	aggregator     *managers.ActivityAggregator
	sweep          *managers.MigrationSweep
}

type VaultControllerDependencies struct {
	Repository     domain.IntegrationRepository
	Store          *managers.CredentialStore
	RefreshManager *managers.TokenRefreshManager
	Aggregator     *managers.ActivityAggregator
	Sweep          *managers.MigrationSweep
}

func NewVaultController(deps VaultControllerDependencies) *VaultController {
	return &VaultController{
		repository:     deps.Repository,
		store:          deps.Store,
		refreshManager: deps.RefreshManager,
		aggregator:     deps.Aggregator,
		sweep:          deps.Sweep,
	}
}

type userScopedRequest struct {
	UserID string `json:"user_id"`
}

// CreateIntegration records a completed platform connection flow. The
// plaintext credentials from the flow are encrypted before they ever reach
// the database; creating a pair that already has an active integration
// supersedes the old one.
func (ctrl *VaultController) CreateIntegration(c fiber.Ctx) error {
	var req struct {
		UserID      string         `json:"user_id"`
		Credentials map[string]any `json:"credentials"`
		Metadata    map[string]any `json:"metadata"`
	}
	if err := c.Bind().Body(&req); err != nil {
		return fail(c, domain.NewValidationError("invalid request body"))
	}

	platform, userID, err := ctrl.scope(c, c.Params("platform"), req.UserID)
	if err != nil {
		return fail(c, err)
	}

	if len(req.Credentials) == 0 {
		return fail(c, domain.NewValidationError("credentials are required"))
	}

	integration := &domain.PlatformIntegration{
		UserID:   userID,
		Platform: platform,
		Metadata: req.Metadata,
	}

	if err := ctrl.repository.Create(c.RequestCtx(), integration); err != nil {
		return fail(c, err)
	}

	if err := ctrl.store.WriteCredentials(c.RequestCtx(), integration.Handle(), domain.CredentialPayload(req.Credentials)); err != nil {
		return fail(c, err)
	}

	return respond(c, fiber.Map{
		"id":       integration.ID,
		"platform": platform,
	})
}

// RefreshToken exchanges the stored refresh credential for a new access
// token. The response carries only the new expiry.
func (ctrl *VaultController) RefreshToken(c fiber.Ctx) error {
	var req userScopedRequest
	if err := c.Bind().Body(&req); err != nil {
		return fail(c, domain.NewValidationError("invalid request body"))
	}

	platform, userID, err := ctrl.scope(c, c.Params("platform"), req.UserID)
	if err != nil {
		return fail(c, err)
	}

	confirmation, err := ctrl.refreshManager.Refresh(c.RequestCtx(), userID, platform)
	if err != nil {
		return fail(c, err)
	}

	return respond(c, confirmation)
}

// IntegrationStatus reports whether the pair is connected plus the mirrored
// expiry from metadata. It never touches the credential blob.
func (ctrl *VaultController) IntegrationStatus(c fiber.Ctx) error {
	var req userScopedRequest
	if err := c.Bind().Body(&req); err != nil {
		return fail(c, domain.NewValidationError("invalid request body"))
	}

	platform, userID, err := ctrl.scope(c, c.Params("platform"), req.UserID)
	if err != nil {
		return fail(c, err)
	}

	integration, err := ctrl.repository.GetActive(c.RequestCtx(), userID, platform)
	if err != nil {
		return fail(c, err)
	}

	return respond(c, fiber.Map{
		"platform":                platform,
		"connected":               true,
		"account_name":            integration.Metadata[domain.MetadataKeyAccountName],
		"access_token_expires_at": integration.Metadata[domain.MetadataKeyAccessTokenExpiresAt],
	})
}

// DisconnectIntegration revokes the pair's active integration; with
// "hard": true the row is removed entirely.
func (ctrl *VaultController) DisconnectIntegration(c fiber.Ctx) error {
	var req struct {
		UserID string `json:"user_id"`
		Hard   bool   `json:"hard"`
	}
	if err := c.Bind().Body(&req); err != nil {
		return fail(c, domain.NewValidationError("invalid request body"))
	}

	platform, userID, err := ctrl.scope(c, c.Params("platform"), req.UserID)
	if err != nil {
		return fail(c, err)
	}

	integration, err := ctrl.repository.GetActive(c.RequestCtx(), userID, platform)
	if err != nil {
		return fail(c, err)
	}

	if req.Hard {
		err = ctrl.repository.Delete(c.RequestCtx(), integration.ID)
	} else {
		err = ctrl.repository.Revoke(c.RequestCtx(), integration.ID)
	}
	if err != nil {
		return fail(c, err)
	}

	return respond(c, fiber.Map{
		"platform":     platform,
		"disconnected": true,
	})
}

// Activity returns the user's merged recent activity across all connected
// platforms.
func (ctrl *VaultController) Activity(c fiber.Ctx) error {
	var req userScopedRequest
	if err := c.Bind().Body(&req); err != nil {
		return fail(c, domain.NewValidationError("invalid request body"))
	}

	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		return fail(c, domain.ErrUnauthenticated)
	}

	userID, err := principal.ResolveUserID(req.UserID)
	if err != nil {
		return fail(c, err)
	}

	items, err := ctrl.aggregator.Fetch(c.RequestCtx(), userID)
	if err != nil {
		return fail(c, err)
	}

	return respond(c, items)
}

// MigrateCredentials runs the credential migration sweep. Automation
// callers only.
func (ctrl *VaultController) MigrateCredentials(c fiber.Ctx) error {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok || principal.Mode != auth.ModeSharedSecret {
		return fail(c, domain.ErrUnauthenticated)
	}

	report, err := ctrl.sweep.Run(c.RequestCtx())
	if err != nil {
		return fail(c, err)
	}

	return respond(c, report)
}

// scope parses the platform parameter and resolves the target user from the
// authenticated principal and the optional explicit user_id.
func (ctrl *VaultController) scope(c fiber.Ctx, platformParam, requestedUserID string) (domain.PlatformType, string, error) {
	platform, err := domain.ParsePlatform(platformParam)
	if err != nil {
		return "", "", err
	}

	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		return "", "", domain.ErrUnauthenticated
	}

	userID, err := principal.ResolveUserID(requestedUserID)
	if err != nil {
		return "", "", err
	}

	return platform, userID, nil
}

func respond(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    data,
		"error":   nil,
	})
}

func fail(c fiber.Ctx, err error) error {
	status := domain.HTTPStatus(err)

	message := err.Error()
	if status == fiber.StatusInternalServerError {
		// Internal detail stays in the server log, the caller gets the
		// generic envelope.
		log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
		message = "internal error"
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"data":    nil,
		"error":   message,
	})
}
