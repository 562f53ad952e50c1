package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"untrivially-api/internal/app"
	"untrivially-api/internal/config"
	"untrivially-api/internal/infra/auth"
	"untrivially-api/internal/infra/google"
	"untrivially-api/internal/infra/memory"
	"untrivially-api/internal/infra/postgres"
	redisinfra "untrivially-api/internal/infra/redis"
	"untrivially-api/internal/logging"
	transport "untrivially-api/internal/transport/http"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const (
	defaultPort       = "8080"
	defaultCacheTTL   = 10 * time.Minute
	defaultRefreshTTL = 720 * time.Hour
	shutdownTimeout   = 5 * time.Second
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// stores are the persistence adapters chosen from configuration.
type stores struct {
	quizzes  app.QuizRepository
	cache    app.QuizCache
	users    app.UserRepository
	sessions app.SessionRepository
	states   app.StateStore
	closers  []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := logging.New(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.AccessTTL, auth.DefaultAccessTTL))
	if err != nil {
		return err
	}
	provider := google.NewProvider(google.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
		Timeout:      config.TTLDuration(cfg.Google.Timeout, 0),
	}, logger)

	refreshTTL := config.TTLDuration(cfg.Auth.RefreshTTL, defaultRefreshTTL)
	sessions := app.NewSessionService(st.sessions, tokens, refreshTTL, logger)
	router := transport.NewRouter(transport.Deps{
		Quizzes:       app.NewQuizService(st.quizzes, st.cache, logger),
		Auth:          app.NewAuthService(st.users, sessions, provider, st.states, logger),
		Sessions:      sessions,
		Tokens:        tokens,
		Logger:        logger,
		SecureCookies: cfg.IsProduction(),
		RefreshTTL:    refreshTTL,
	})

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = defaultPort
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting untrivially api", "port", finalPort, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		logger.Info("shutting down server...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server...")
	case err, ok := <-serveErr:
		if ok {
			return errors.Wrap(err, "listen")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStores uses postgres when a database url is configured and falls back to the
// in-process stores otherwise. Redis, when configured, backs the quiz cache and the
// OAuth state store.
func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (*stores, error) {
	st := &stores{}
	var loader memory.QuizLoader

	if cfg.Postgres.URL != "" {
		db := postgres.OpenBun(cfg.Postgres.URL)
		st.closers = append(st.closers, func() { _ = db.Close() })
		group, err := postgres.Migrate(ctx, db)
		if err != nil {
			st.close()
			return nil, err
		}
		if !group.IsZero() {
			logger.Info("migrations applied", "group", group.String())
		}

		pool, err := postgres.OpenPool(ctx, cfg.Postgres.URL)
		if err != nil {
			st.close()
			return nil, err
		}
		st.closers = append(st.closers, pool.Close)

		quizzes := postgres.NewQuizRepository(db)
		st.quizzes, loader = quizzes, quizzes
		st.users = postgres.NewUserRepository(db)
		st.sessions = postgres.NewSessionRepository(pool)
	} else {
		if cfg.IsProduction() {
			logger.Warn("no database configured, data will not survive a restart")
		}
		quizzes := memory.NewQuizRepository()
		users := memory.NewUserRepository()
		st.quizzes, loader = quizzes, quizzes
		st.users = users
		st.sessions = memory.NewSessionRepository(users)
	}

	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, defaultCacheTTL)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		st.closers = append(st.closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			st.close()
			return nil, errors.Wrap(err, "ping redis")
		}
		st.cache = redisinfra.NewQuizCache(client, loader, cacheTTL, logger)
		st.states = redisinfra.NewStateStore(client)
	} else {
		st.cache = memory.NewQuizCache(loader, cacheTTL)
		st.states = memory.NewStateStore()
	}
	return st, nil
}
