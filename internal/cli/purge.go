package cli

import (
	"context"

	"untrivially-api/internal/app"
	"untrivially-api/internal/config"
	"untrivially-api/internal/infra/postgres"
	"untrivially-api/internal/logging"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// NewPurgeSessionsCmd deletes refresh tokens older than auth.refresh_ttl.
func NewPurgeSessionsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "purge-sessions",
		Short: "Delete refresh tokens older than the configured refresh TTL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurgeSessions(cmd.Context(), *configPath)
		},
	}
}

func runPurgeSessions(ctx context.Context, configPath string) error {
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

	pool, err := postgres.OpenPool(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	ttl := config.TTLDuration(cfg.Auth.RefreshTTL, defaultRefreshTTL)
	if ttl <= 0 {
		logger.Info("refresh ttl disabled, nothing to purge")
		return nil
	}
	sessions := app.NewSessionService(postgres.NewSessionRepository(pool), nil, ttl, logger)
	n, err := sessions.PurgeStale(ctx)
	if err != nil {
		return err
	}
	logger.Info("stale sessions purged", "count", n, "ttl", ttl.String())
	return nil
}
