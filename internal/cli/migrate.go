package cli

import (
	"context"

	"untrivially-api/internal/config"
	"untrivially-api/internal/infra/postgres"
	"untrivially-api/internal/logging"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// NewMigrateCmd applies or rolls back database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var rollback bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath, rollback)
		},
	}
	cmd.Flags().BoolVar(&rollback, "rollback", false, "revert the last applied migration group")
	return cmd
}

func runMigrations(ctx context.Context, configPath string, rollback bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return errors.New("postgres url not configured")
	}
	logger, err := logging.New(cfg)
	if err != nil {
		return err
	}

	db := postgres.OpenBun(cfg.Postgres.URL)
	defer db.Close()

	if rollback {
		group, err := postgres.Rollback(ctx, db)
		if err != nil {
			return err
		}
		if group.IsZero() {
			logger.Info("nothing to roll back")
			return nil
		}
		logger.Info("migrations rolled back", "group", group.String())
		return nil
	}

	group, err := postgres.Migrate(ctx, db)
	if err != nil {
		return err
	}
	if group.IsZero() {
		logger.Info("database is up to date")
		return nil
	}
	logger.Info("migrations applied", "group", group.String())
	return nil
}
