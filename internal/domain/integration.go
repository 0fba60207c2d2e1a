package domain

import (
	"context"
	"time"
)

type IntegrationStatus string

const (
	IntegrationStatusActive  IntegrationStatus = "active"
	IntegrationStatusRevoked IntegrationStatus = "revoked"
)

// Metadata keys the vault itself maintains. Metadata is explicitly
// non-secret: account names, avatars, expiry mirrors for cheap UI display.
const (
	MetadataKeyAccessTokenExpiresAt  = "access_token_expires_at"
	MetadataKeyRefreshTokenExpiresAt = "refresh_token_expires_at"
	MetadataKeyKeyCheckedAt          = "key_checked_at"
	MetadataKeyAccountName           = "account_name"
	MetadataKeyClientID              = "client_id"
	MetadataKeyClientSecret          = "client_secret"
)

// PlatformIntegration is the persisted unit the vault manages: one user's
// connection to one platform. Credentials is either an embedded document
// (structured plaintext) or a string (cipher text); the classifier derives
// the truth from the value's shape, the encrypted flag is only a hint.
type PlatformIntegration struct {
	ID                   string            `json:"id" bson:"id"`
	UserID               string            `json:"user_id" bson:"user_id"`
	Platform             PlatformType      `json:"platform" bson:"platform"`
	Credentials          any               `json:"-" bson:"credentials"`
	CredentialsEncrypted bool              `json:"-" bson:"credentials_encrypted"`
	Metadata             map[string]any    `json:"metadata" bson:"metadata"`
	Status               IntegrationStatus `json:"status" bson:"status"`
	CreatedAt            time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at" bson:"updated_at"`
}

// IntegrationHandle is what read paths hand to later writes: the record id
// plus its current metadata, never the credential blob.
type IntegrationHandle struct {
	ID       string
	UserID   string
	Platform PlatformType
	Metadata map[string]any
}

func (i *PlatformIntegration) Handle() IntegrationHandle {
	metadata := make(map[string]any, len(i.Metadata))
	for key, value := range i.Metadata {
		metadata[key] = value
	}

	return IntegrationHandle{
		ID:       i.ID,
		UserID:   i.UserID,
		Platform: i.Platform,
		Metadata: metadata,
	}
}

// IntegrationRepository is the persistence boundary of the vault.
type IntegrationRepository interface {
	// Create inserts a new integration and revokes any previous active
	// row for the same (user, platform) pair.
	Create(ctx context.Context, integration *PlatformIntegration) error

	// GetActive returns the single active integration for the pair, or
	// ErrIntegrationNotFound.
	GetActive(ctx context.Context, userID string, platform PlatformType) (*PlatformIntegration, error)

	// ListActive returns all active integrations owned by the user.
	ListActive(ctx context.Context, userID string) ([]*PlatformIntegration, error)

	// ForEach streams every integration regardless of status. Used by the
	// migration sweep. The walk stops on the first callback error.
	ForEach(ctx context.Context, fn func(*PlatformIntegration) error) error

	// UpdateCredentials replaces the credential blob and encrypted flag,
	// stamping updated_at.
	UpdateCredentials(ctx context.Context, id string, credentials any, encrypted bool) error

	// UpdateMetadata replaces the metadata document, stamping updated_at.
	UpdateMetadata(ctx context.Context, id string, metadata map[string]any) error

	// Revoke marks the integration revoked.
	Revoke(ctx context.Context, id string) error

	// Delete removes the row entirely.
	Delete(ctx context.Context, id string) error
}
