package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia/walletmigrate/config"
	"github.com/custodia/walletmigrate/migrate"
	"github.com/custodia/walletmigrate/storage/remote"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the master secret without migrating anything",
	Long: `Runs only the validation gate: the cipher self-test followed by a live
decrypt of one production wallet. Useful as a pre-flight check before a
real run. Reads nothing from the legacy store and writes nothing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		enclave, err := config.LoadMasterSecret()
		if err != nil {
			return err
		}

		validator := migrate.NewValidator(remote.NewClient(cfg.DestQueryURL, cfg.DestAPIToken), logger)

		master, err := enclave.Open()
		if err != nil {
			return fmt.Errorf("opening master secret enclave: %w", err)
		}
		defer master.Destroy()

		if err := validator.SelfTest(master.Bytes()); err != nil {
			return err
		}
		if err := validator.LiveValidate(cmd.Context(), master.Bytes()); err != nil {
			logger.Error("do not proceed: key does not match production", "error", err)
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Validation passed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
