// Package cli wires the readinglist commands: the HTTP server and the
// operator tasks that share its configuration.
package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iliyamo/reading-list/internal/config"
	"github.com/iliyamo/reading-list/internal/database"
	"github.com/iliyamo/reading-list/internal/logging"
)

// NewRootCommand builds the command tree. Without a subcommand it serves.
func NewRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "readinglist",
		Short:         "Reading list API with JWT device sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	serve := newServeCommand(&envFile)
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(
		serve,
		newMigrateCommand(&envFile),
		newPurgeCommand(&envFile),
		newUserCommand(&envFile),
		newConsumeCommand(&envFile),
	)
	return root
}

// bootstrap loads the dotenv file, the configuration and the logger. A
// missing dotenv file is only a warning.
func bootstrap(envFile string) (config.Config, *logrus.Logger, error) {
	envErr := godotenv.Load(envFile)
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("config: %w", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		log.WithField("file", envFile).Warn("dotenv file not loaded; using process environment")
	}
	return cfg, log, nil
}

// openDB opens the configured database, applying the schema when migrate is
// set.
func openDB(ctx context.Context, cfg config.Config, migrate bool) (*sql.DB, error) {
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if migrate {
		if err := database.Migrate(ctx, db, cfg.DB.Driver); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}
