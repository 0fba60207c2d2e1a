package cli

import (
	"fmt"

	"github.com/publora/publora/internal/vault"

	"github.com/spf13/cobra"
)

func NewGenerateKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate-key",
		Short: "Generate a new base64-encoded vault key",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := vault.GenerateKey()
			if err != nil {
				return err
			}

			fmt.Printf("VAULT_KEY=%s\n", key)
			return nil
		},
	}
}
