package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/auth"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/cache"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/config"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/handlers"
	natshandler "github.com/telhawk-systems/telhawk-watch/alerting/internal/nats"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/repository"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/server"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/service"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/storage"
	"github.com/telhawk-systems/telhawk-watch/common/audit"
	"github.com/telhawk-systems/telhawk-watch/common/logging"
	"github.com/telhawk-systems/telhawk-watch/common/messaging"
	natsclient "github.com/telhawk-systems/telhawk-watch/common/messaging/nats"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the watch summary API",
		Long: `Runs database migrations, connects to OpenSearch, PostgreSQL, Redis and NATS,
and serves the summary API until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, logger)
		},
	}
}

// loadConfig reads --config and installs the configured logger as default.
func loadConfig(cmd *cobra.Command) (*config.Config, *logging.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format).
		With(logging.Service("alerting"))
	logging.SetDefault(logger)
	return cfg, logger, nil
}

func runServe(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	dsn := cfg.Database.Postgres.DSN()

	logger.Info("Running database migrations")
	version, err := repository.Migrate(dsn)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("Database migrations completed", "version", version)

	repo, err := repository.NewPostgresRepository(ctx, dsn, cfg.Database.Timeouts)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer repo.Close()

	store, err := storage.NewOpenSearchStore(cfg.Storage, cfg.Database.Timeouts, logger.Logger)
	if err != nil {
		return err
	}

	opts := []service.Option{service.WithLogger(logger)}
	var allowListCache *cache.ActionNamesCache
	if cfg.Redis.Enabled {
		allowListCache, err = cache.Connect(ctx, cfg.Redis.URL, cfg.Redis.TTL)
		if err != nil {
			logger.Warn("Redis unavailable, serving without allow-list cache", logging.Error(err))
		} else {
			defer allowListCache.Close()
			opts = append(opts, service.WithCache(allowListCache))
		}
	}

	svc := service.NewSummaryService(store, repo, opts...)

	h := handlers.NewHandler(svc, logger, cfg.Server.MaxPageSize)
	if cfg.Export.SigningKey != "" {
		h.SignExports(audit.NewSigner(cfg.Export.SigningKey))
	}
	h.AddHealthCheck("postgres", repo.Ping)
	h.AddHealthCheck("opensearch", store.Ping)
	if allowListCache != nil {
		h.AddHealthCheck("redis", allowListCache.Ping)
	}

	if cfg.NATS.Enabled {
		natsCfg := natsclient.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		client, err := natsclient.NewClient(natsCfg, logger.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer func() {
			if err := client.Drain(); err != nil {
				logger.Warn("Failed to drain NATS connection", logging.Error(err))
			}
		}()

		natsHandler := natshandler.NewHandler(client, svc, logger)
		if allowListCache != nil {
			natsHandler.InvalidateOnSeed(allowListCache)
		}
		if err := natsHandler.Start(ctx); err != nil {
			return err
		}
		defer natsHandler.Stop()

		h.AddHealthCheck("nats", func(ctx context.Context) error {
			if status := messaging.CheckClientHealth(ctx, client); status.Error != "" {
				return fmt.Errorf("%s", status.Error)
			}
			return nil
		})
	}

	var verifier *auth.Verifier
	if cfg.Auth.Enabled {
		verifier = auth.NewVerifier(cfg.Auth.JWTSecret)
	}

	router := server.NewRouter(h, server.Options{
		Logger:      logger,
		CORSOrigins: cfg.Server.CORSOrigins,
		Verifier:    verifier,
		Timeout:     cfg.Server.WriteTimeout,
	})
	if err := server.New(cfg.Server, router, logger).Run(ctx, cfg.Server.WriteTimeout); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
