package managers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/publora/publora/internal/domain"
	"github.com/publora/publora/internal/vault"

	"github.com/rs/zerolog/log"
)

// MigrationReport summarizes one sweep run.
type MigrationReport struct {
	AlreadyNewCipher   int                `json:"already_new_cipher"`
	MigratedFromPlain  int                `json:"migrated_from_plain"`
	MigratedFromLegacy int                `json:"migrated_from_legacy"`
	Failures           []MigrationFailure `json:"failures"`
}

type MigrationFailure struct {
	IntegrationID string `json:"integration_id"`
	Reason        string `json:"reason"`
}

// MigrationSweep rewrites every plaintext or legacy-cipher record into the
// current cipher format. Idempotent: records already in the new format are
// counted and skipped, and one bad record never aborts the batch.
type MigrationSweep struct {
	repository domain.IntegrationRepository
	resolver   domain.CredentialResolver
	codec      domain.CredentialCipher
}

type MigrationSweepDependencies struct {
	Repository domain.IntegrationRepository
	Resolver   domain.CredentialResolver
	Codec      domain.CredentialCipher
}

func NewMigrationSweep(deps MigrationSweepDependencies) *MigrationSweep {
	return &MigrationSweep{
		repository: deps.Repository,
		resolver:   deps.Resolver,
		codec:      deps.Codec,
	}
}

func (m *MigrationSweep) Run(ctx context.Context) (MigrationReport, error) {
	var report MigrationReport

	err := m.repository.ForEach(ctx, func(integration *domain.PlatformIntegration) error {
		format := vault.Classify(integration.Credentials, integration.CredentialsEncrypted)
		if format == domain.FormatNewCipher {
			report.AlreadyNewCipher++
			return nil
		}

		if err := m.migrateRecord(ctx, integration); err != nil {
			log.Warn().
				Err(err).
				Str("integration_id", integration.ID).
				Str("platform", string(integration.Platform)).
				Msg("Skipping integration that failed to migrate")
			report.Failures = append(report.Failures, MigrationFailure{
				IntegrationID: integration.ID,
				Reason:        err.Error(),
			})
			return nil
		}

		switch format {
		case domain.FormatLegacyCipher:
			report.MigratedFromLegacy++
		default:
			report.MigratedFromPlain++
		}

		return nil
	})
	if err != nil {
		return report, fmt.Errorf("migration sweep aborted: %w", err)
	}

	log.Info().
		Int("already_new_cipher", report.AlreadyNewCipher).
		Int("migrated_from_plain", report.MigratedFromPlain).
		Int("migrated_from_legacy", report.MigratedFromLegacy).
		Int("failures", len(report.Failures)).
		Msg("Credential migration sweep finished")

	return report, nil
}

func (m *MigrationSweep) migrateRecord(ctx context.Context, integration *domain.PlatformIntegration) error {
	payload, _, err := m.resolver.Resolve(ctx, integration.Credentials, integration.CredentialsEncrypted)
	if err != nil {
		return err
	}

	serialized, err := json.Marshal(payload.Normalized())
	if err != nil {
		return fmt.Errorf("failed to serialize credentials: %w", err)
	}

	cipherText, err := m.codec.Encrypt(serialized)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	return m.repository.UpdateCredentials(ctx, integration.ID, cipherText, true)
}
