package managers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/publora/publora/internal/domain"

	"github.com/rs/zerolog/log"
)

// CredentialStore reads and writes the persisted integration credentials.
// Reads resolve whatever format is stored; writes always produce new-cipher
// text, so any explicit write migrates the record.
type CredentialStore struct {
	repository domain.IntegrationRepository
	resolver   domain.CredentialResolver
	codec      domain.CredentialCipher
}

type CredentialStoreDependencies struct {
	Repository domain.IntegrationRepository
	Resolver   domain.CredentialResolver
	Codec      domain.CredentialCipher
}

func NewCredentialStore(deps CredentialStoreDependencies) *CredentialStore {
	return &CredentialStore{
		repository: deps.Repository,
		resolver:   deps.Resolver,
		codec:      deps.Codec,
	}
}

// FetchDecrypted loads the active integration for the pair and resolves its
// credentials to plaintext. The decode path is logged for observability;
// values never are. Reads do not write anything back.
func (s *CredentialStore) FetchDecrypted(ctx context.Context, userID string, platform domain.PlatformType) (domain.CredentialPayload, domain.IntegrationHandle, error) {
	integration, err := s.repository.GetActive(ctx, userID, platform)
	if err != nil {
		return nil, domain.IntegrationHandle{}, err
	}

	payload, format, err := s.resolver.Resolve(ctx, integration.Credentials, integration.CredentialsEncrypted)
	if err != nil {
		log.Error().
			Err(err).
			Str("integration_id", integration.ID).
			Str("platform", string(platform)).
			Str("format", string(format)).
			Msg("Failed to resolve stored credentials")
		return payload, integration.Handle(), err
	}

	log.Debug().
		Str("integration_id", integration.ID).
		Str("platform", string(platform)).
		Str("format", string(format)).
		Msg("Resolved stored credentials")

	return payload, integration.Handle(), nil
}

// WriteCredentials normalizes the payload keys, serializes, encrypts with
// the current cipher, and persists. The encrypted flag is always set true.
func (s *CredentialStore) WriteCredentials(ctx context.Context, handle domain.IntegrationHandle, payload domain.CredentialPayload) error {
	serialized, err := json.Marshal(payload.Normalized())
	if err != nil {
		return fmt.Errorf("failed to serialize credentials: %w", err)
	}

	cipherText, err := s.codec.Encrypt(serialized)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	if err := s.repository.UpdateCredentials(ctx, handle.ID, cipherText, true); err != nil {
		return fmt.Errorf("failed to persist credentials: %w", err)
	}

	log.Info().
		Str("integration_id", handle.ID).
		Str("platform", string(handle.Platform)).
		Msg("Credentials written")

	return nil
}

// WriteMetadata persists only the non-secret metadata document, independent
// of credential writes.
func (s *CredentialStore) WriteMetadata(ctx context.Context, handle domain.IntegrationHandle, metadata map[string]any) error {
	if err := s.repository.UpdateMetadata(ctx, handle.ID, metadata); err != nil {
		return fmt.Errorf("failed to persist metadata: %w", err)
	}

	return nil
}
