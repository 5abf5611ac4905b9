package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "walletmigrate",
	Short: "One-shot legacy wallet migration tool",
	Long: `walletmigrate moves custodial wallet key material from the legacy store
into the new one, re-encrypting every wallet under the standardized
PBKDF2 + AES-256-GCM scheme and emitting an idempotent SQL artifact.

The master secret is read from MIGRATION_MASTER_KEY and is validated
against live production data before any row is touched.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}
