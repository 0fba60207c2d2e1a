package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/publora/publora/internal/initialization"
	"github.com/publora/publora/internal/server"
	"github.com/publora/publora/internal/version"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the vault HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	config, err := initialization.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	container, err := initialization.NewContainer(ctx, config)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}

	app := server.NewHTTPServer(server.HTTPServerDependencies{
		Gate:            container.Gate,
		RateCounter:     container.RateCounter,
		VaultController: container.VaultController,
	})

	go func() {
		log.Info().
			Str("address", config.HTTPAddress).
			Str("version", version.GetShortVersion()).
			Msg("Starting vault HTTP server")
		if err := app.Listen(config.HTTPAddress); err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info().Msg("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server shutdown was not clean")
	}

	return container.Shutdown(shutdownCtx)
}
