package managers

import (
	"context"
	"fmt"
	"time"

	"github.com/publora/publora/internal/domain"

	"github.com/rs/zerolog/log"
)

// TokenRefreshManager dispatches refreshes to per-platform strategies and
// owns the merge of the outcome back into the stored credential payload.
type TokenRefreshManager struct {
	store      *CredentialStore
	refreshers map[domain.PlatformType]domain.TokenRefresher
	clients    map[domain.PlatformType]domain.OAuthClientConfig
	now        func() time.Time
}

type TokenRefreshManagerDependencies struct {
	Store      *CredentialStore
	Refreshers map[domain.PlatformType]domain.TokenRefresher
	Clients    map[domain.PlatformType]domain.OAuthClientConfig
	Now        func() time.Time
}

func NewTokenRefreshManager(deps TokenRefreshManagerDependencies) *TokenRefreshManager {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &TokenRefreshManager{
		store:      deps.Store,
		refreshers: deps.Refreshers,
		clients:    deps.Clients,
		now:        now,
	}
}

// Refresh exchanges the stored refresh token (or app secret) for a new
// access token, persists the merged payload, and mirrors the new expiry into
// metadata. The confirmation carries only the expiry, never the token.
func (m *TokenRefreshManager) Refresh(ctx context.Context, userID string, platform domain.PlatformType) (domain.RefreshConfirmation, error) {
	refresher, ok := m.refreshers[platform]
	if !ok {
		return domain.RefreshConfirmation{}, domain.NewValidationError(fmt.Sprintf("token refresh is not supported for %s", platform))
	}

	payload, handle, err := m.store.FetchDecrypted(ctx, userID, platform)
	if err != nil {
		return domain.RefreshConfirmation{}, err
	}

	if payload.IsEmpty() {
		return domain.RefreshConfirmation{}, domain.ErrNoCredentials
	}

	outcome, err := refresher.Refresh(ctx, domain.RefreshRequest{
		UserID:      userID,
		Credentials: payload,
		Metadata:    handle.Metadata,
		Client:      m.clientConfig(platform, handle.Metadata),
	})
	if err != nil {
		return domain.RefreshConfirmation{}, err
	}

	merged := payload.Normalized()

	// Validation-only strategies (the openai key check) issue no token; a
	// zero expiry in the confirmation means nothing new was minted.
	var expiresAt time.Time
	if outcome.AccessToken != "" {
		expiresAt = m.now().UTC().Add(outcome.AccessTokenLifetime)
		merged[domain.CredentialKeyAccessToken] = outcome.AccessToken
		merged[domain.CredentialKeyAccessTokenExpiresAt] = expiresAt.Format(time.RFC3339)
	}

	// The refresh-token lifetime is independent of the access-token
	// lifetime: its anchor moves only when the platform rotated the token.
	if outcome.RotatedRefreshToken != "" {
		merged[domain.CredentialKeyRefreshToken] = outcome.RotatedRefreshToken
		if outcome.RefreshTokenLifetime > 0 {
			merged[domain.CredentialKeyRefreshTokenExpiresAt] = m.now().UTC().Add(outcome.RefreshTokenLifetime).Format(time.RFC3339)
		}
	}

	if err := m.store.WriteCredentials(ctx, handle, merged); err != nil {
		return domain.RefreshConfirmation{}, err
	}

	metadata := handle.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	if outcome.AccessToken != "" {
		metadata[domain.MetadataKeyAccessTokenExpiresAt] = expiresAt.Format(time.RFC3339)
	}
	if refreshExpiry, ok := merged[domain.CredentialKeyRefreshTokenExpiresAt]; ok {
		metadata[domain.MetadataKeyRefreshTokenExpiresAt] = refreshExpiry
	}
	for key, value := range outcome.MetadataUpdates {
		metadata[key] = value
	}

	if err := m.store.WriteMetadata(ctx, handle, metadata); err != nil {
		return domain.RefreshConfirmation{}, err
	}

	event := log.Info().
		Str("integration_id", handle.ID).
		Str("platform", string(platform))
	if !expiresAt.IsZero() {
		event = event.Time("expires_at", expiresAt)
	}
	event.Msg("Credentials refreshed")

	return domain.RefreshConfirmation{
		Platform:  platform,
		ExpiresAt: expiresAt,
	}, nil
}

func (m *TokenRefreshManager) clientConfig(platform domain.PlatformType, metadata map[string]any) domain.OAuthClientConfig {
	client := m.clients[platform]

	if id, ok := metadata[domain.MetadataKeyClientID].(string); ok && id != "" {
		client.ClientID = id
	}
	if secret, ok := metadata[domain.MetadataKeyClientSecret].(string); ok && secret != "" {
		client.ClientSecret = secret
	}

	return client
}
