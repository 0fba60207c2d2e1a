package domain

import (
	"context"
	"time"
)

// RefreshRequest is what a platform strategy needs to exchange a stored
// credential for a fresh access token.
type RefreshRequest struct {
	UserID      string
	Credentials CredentialPayload
	Metadata    map[string]any
	Client      OAuthClientConfig
}

// TokenRefresher is the per-platform refresh protocol. Implementations talk
// to the platform's token endpoint and report the outcome; merging the
// outcome into the stored payload is the manager's job.
type TokenRefresher interface {
	Refresh(ctx context.Context, req RefreshRequest) (RefreshOutcome, error)
}

// RefreshConfirmation is the only thing a caller ever sees after a refresh:
// never the token itself.
type RefreshConfirmation struct {
	Platform  PlatformType `json:"platform"`
	ExpiresAt time.Time    `json:"expires_at"`
}
