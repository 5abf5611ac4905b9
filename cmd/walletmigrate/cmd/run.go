package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia/walletmigrate/config"
	"github.com/custodia/walletmigrate/journal"
	"github.com/custodia/walletmigrate/migrate"
	"github.com/custodia/walletmigrate/storage/postgres"
	"github.com/custodia/walletmigrate/storage/remote"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate the migration artifact",
	Long: `Validates the master secret (self-test, then a live decrypt against one
production wallet), reads every unencrypted wallet from the legacy store,
re-encrypts each one and writes the guarded-insert artifact.

The artifact is safe to apply more than once; apply it with the
destination store's batch tool, verify, then delete it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		enclave, err := config.LoadMasterSecret()
		if err != nil {
			return err
		}

		source, err := postgres.NewSourceFromDSN(ctx, cfg.LegacyDatabaseURL)
		if err != nil {
			return err
		}
		defer source.Close()

		dest := remote.NewClient(cfg.DestQueryURL, cfg.DestAPIToken)

		var opts []migrate.RunnerOption
		if cfg.JournalPath != "" {
			j, err := journal.Open(cfg.JournalPath)
			if err != nil {
				return err
			}
			defer j.Close()
			opts = append(opts, migrate.WithJournal(j))
		}

		runner := migrate.NewRunner(source, dest, cfg.OutputPath, logger, opts...)

		master, err := enclave.Open()
		if err != nil {
			return fmt.Errorf("opening master secret enclave: %w", err)
		}
		defer master.Destroy()

		res, err := runner.Run(ctx, master.Bytes())
		if err != nil {
			logger.Error("migration aborted, no artifact written", "error", err)
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(),
			"Migrated %d wallet(s), skipped %d, %d anomal(ies).\nArtifact: %s\nApply it with the destination batch tool, then delete it.\n",
			res.Migrated, res.Skipped, res.Anomalies, res.OutputPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
