package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "publora",
		Short: "Publora credential vault",
		Long: `Publora's platform credential vault: stores, encrypts, migrates, and
refreshes third-party OAuth credentials and serves the authenticated proxy
surface the dashboard and automation callers use.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewMigrateCredentialsCommand())
	rootCmd.AddCommand(NewGenerateKeyCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
