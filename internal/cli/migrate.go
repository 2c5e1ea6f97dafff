package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/reading-list/internal/repository"
)

func newMigrateCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(*envFile)
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}
			defer db.Close()
			log.WithField("driver", cfg.DB.Driver).Info("schema applied")
			return nil
		},
	}
}

func newPurgeCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "purge-revoked",
		Short: "Delete blacklist rows whose token has expired",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := bootstrap(*envFile)
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := repository.NewRevokedRepo(db).PurgeExpired(cmd.Context(), time.Now())
			if err != nil {
				return fmt.Errorf("purge: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired blacklist rows\n", n)
			return nil
		},
	}
}
