package cli

import (
	"context"
	"time"

	"github.com/publora/publora/internal/initialization"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewMigrateCredentialsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-credentials",
		Short: "Rewrite plaintext and legacy-cipher credentials into the current format",
		Long: `Walks every stored integration once and re-encrypts any record that is
still plaintext or in the legacy cipher format. Safe to re-run: records
already in the current format are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrateCredentials()
		},
	}
}

func runMigrateCredentials() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	config, err := initialization.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	container, err := initialization.NewContainer(ctx, config)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer container.Shutdown(ctx)

	report, err := container.Sweep.Run(ctx)
	if err != nil {
		return err
	}

	for _, failure := range report.Failures {
		log.Warn().
			Str("integration_id", failure.IntegrationID).
			Str("reason", failure.Reason).
			Msg("Integration was not migrated")
	}

	log.Info().
		Int("already_current", report.AlreadyNewCipher).
		Int("from_plain", report.MigratedFromPlain).
		Int("from_legacy", report.MigratedFromLegacy).
		Int("failed", len(report.Failures)).
		Msg("Migration complete")

	return nil
}
