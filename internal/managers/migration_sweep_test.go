package managers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/publora/publora/internal/domain"
	"github.com/publora/publora/internal/vault"

	"github.com/stretchr/testify/require"
)

type mapLegacyDecrypter struct {
	blobs map[string]string
}

func (d *mapLegacyDecrypter) Decrypt(ctx context.Context, value string) ([]byte, error) {
	plaintext, ok := d.blobs[value]
	if !ok {
		return nil, &domain.DecryptionError{Reason: "unknown legacy blob"}
	}
	return []byte(plaintext), nil
}

func testSweep(t *testing.T, repo *fakeRepository, legacy domain.LegacyDecrypter) *MigrationSweep {
	t.Helper()

	codec := testCodec(t)

	return NewMigrationSweep(MigrationSweepDependencies{
		Repository: repo,
		Resolver:   vault.NewResolver(codec, legacy),
		Codec:      codec,
	})
}

func TestMigrationSweep_MigratesEveryFormat(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()

	legacy := &mapLegacyDecrypter{blobs: map[string]string{
		"legacy-blob": `{"access_token":"from-legacy"}`,
	}}
	sweep := testSweep(t, repo, legacy)

	require.NoError(t, repo.Create(ctx, &domain.PlatformIntegration{
		UserID:      "user-1",
		Platform:    domain.PlatformLinkedIn,
		Credentials: map[string]any{"access_token": "plain-object"},
	}))
	require.NoError(t, repo.Create(ctx, &domain.PlatformIntegration{
		UserID:      "user-1",
		Platform:    domain.PlatformTwitter,
		Credentials: `{"access_token":"plain-string"}`,
	}))
	require.NoError(t, repo.Create(ctx, &domain.PlatformIntegration{
		UserID:               "user-2",
		Platform:             domain.PlatformFacebook,
		Credentials:          "legacy-blob",
		CredentialsEncrypted: true,
	}))

	report, err := sweep.Run(ctx)
	require.NoError(t, err)

	require.Equal(t, 0, report.AlreadyNewCipher)
	require.Equal(t, 2, report.MigratedFromPlain)
	require.Equal(t, 1, report.MigratedFromLegacy)
	require.Empty(t, report.Failures)

	for _, integration := range repo.integrations {
		storedText, ok := integration.Credentials.(string)
		require.True(t, ok)
		require.True(t, vault.LooksLikeNewCipher(storedText))
		require.True(t, integration.CredentialsEncrypted)
	}
}

func TestMigrationSweep_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	sweep := testSweep(t, repo, nil)

	require.NoError(t, repo.Create(ctx, &domain.PlatformIntegration{
		UserID:      "user-1",
		Platform:    domain.PlatformLinkedIn,
		Credentials: map[string]any{"access_token": "abc"},
	}))

	first, err := sweep.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, first.MigratedFromPlain)

	var storedAfterFirst string
	for _, integration := range repo.integrations {
		storedAfterFirst = integration.Credentials.(string)
	}

	second, err := sweep.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, second.AlreadyNewCipher)
	require.Equal(t, 0, second.MigratedFromPlain)
	require.Equal(t, 0, second.MigratedFromLegacy)

	// The stored value is untouched by the second run.
	for _, integration := range repo.integrations {
		require.Equal(t, storedAfterFirst, integration.Credentials.(string))
	}
}

func TestMigrationSweep_IsolatesBadRecords(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	sweep := testSweep(t, repo, &mapLegacyDecrypter{blobs: map[string]string{}})

	require.NoError(t, repo.Create(ctx, &domain.PlatformIntegration{
		UserID:               "user-1",
		Platform:             domain.PlatformFacebook,
		Credentials:          "unknown-legacy-blob",
		CredentialsEncrypted: true,
	}))
	require.NoError(t, repo.Create(ctx, &domain.PlatformIntegration{
		UserID:      "user-2",
		Platform:    domain.PlatformLinkedIn,
		Credentials: map[string]any{"access_token": "abc"},
	}))

	report, err := sweep.Run(ctx)
	require.NoError(t, err)

	require.Equal(t, 1, report.MigratedFromPlain)
	require.Len(t, report.Failures, 1)
	require.NotEmpty(t, report.Failures[0].IntegrationID)
	require.NotEmpty(t, report.Failures[0].Reason)
}

func TestMigrationSweep_ReportSerializes(t *testing.T) {
	report := MigrationReport{
		AlreadyNewCipher:  3,
		MigratedFromPlain: 1,
		Failures:          []MigrationFailure{{IntegrationID: "x", Reason: "boom"}},
	}

	encoded, err := json.Marshal(report)
	require.NoError(t, err)
	require.Contains(t, string(encoded), `"already_new_cipher":3`)
}
