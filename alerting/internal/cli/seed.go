package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/cache"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/repository"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/seeder"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/storage"
	"github.com/telhawk-systems/telhawk-watch/common/logging"
	"github.com/telhawk-systems/telhawk-watch/common/messaging"
	natsclient "github.com/telhawk-systems/telhawk-watch/common/messaging/nats"
)

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate synthetic watch status data",
		Long: `Writes generated watch status documents to OpenSearch and the matching
watch definitions to PostgreSQL. Some watches keep actions their definition
no longer lists, so the summary trims them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			tenant, _ := cmd.Flags().GetString("tenant")
			if err := storage.ValidateTenant(tenant); err != nil {
				return err
			}
			count, _ := cmd.Flags().GetInt("count")
			batch, _ := cmd.Flags().GetInt("batch-size")
			seed, _ := cmd.Flags().GetInt64("seed")
			skipDefs, _ := cmd.Flags().GetBool("skip-definitions")
			prune, _ := cmd.Flags().GetBool("prune")

			ctx := cmd.Context()
			store, err := storage.NewOpenSearchStore(cfg.Storage, cfg.Database.Timeouts, logger.Logger)
			if err != nil {
				return err
			}

			var defs seeder.DefinitionWriter
			if !skipDefs {
				dsn := cfg.Database.Postgres.DSN()
				if _, err := repository.Migrate(dsn); err != nil {
					return fmt.Errorf("failed to run migrations: %w", err)
				}
				repo, err := repository.NewPostgresRepository(ctx, dsn, cfg.Database.Timeouts)
				if err != nil {
					return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
				}
				defer repo.Close()
				defs = repo
			}

			var pub messaging.Publisher
			if cfg.NATS.Enabled {
				natsCfg := natsclient.DefaultConfig()
				natsCfg.URL = cfg.NATS.URL
				client, err := natsclient.NewClient(natsCfg, logger.Logger)
				if err != nil {
					logger.Warn("NATS unavailable, seeding without notification", logging.Error(err))
				} else {
					defer client.Close()
					pub = client
				}
			}

			res, err := seeder.NewRunner(store, defs, pub, logger).Run(ctx, seeder.Config{
				Tenant:    tenant,
				Count:     count,
				BatchSize: batch,
				Seed:      seed,
				Prune:     prune,
			})
			if err != nil {
				return err
			}

			// A running server drops the cache on the seed notification.
			if cfg.Redis.Enabled && defs != nil && pub == nil {
				if c, err := cache.Connect(ctx, cfg.Redis.URL, cfg.Redis.TTL); err == nil {
					if err := c.Invalidate(ctx, tenant); err != nil {
						logger.Warn("Failed to invalidate allow-list cache", logging.Error(err))
					}
					_ = c.Close()
				}
			}

			format, _ := cmd.Flags().GetString("output")
			switch format {
			case "json":
				return writeJSON(cmd.OutOrStdout(), res)
			case "yaml":
				return writeYAML(cmd.OutOrStdout(), res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), okColor.Sprintf("Seeded %d watches and %d definitions for %s (%d pruned)",
				res.Watches, res.Definitions, res.Tenant, res.Pruned))
			return nil
		},
	}

	cmd.Flags().String("tenant", "demo", "tenant to seed")
	cmd.Flags().Int("count", 200, "number of watches")
	cmd.Flags().Int("batch-size", 500, "documents per bulk request")
	cmd.Flags().Int64("seed", 0, "random seed (0 = random)")
	cmd.Flags().Bool("skip-definitions", false, "only write status documents")
	cmd.Flags().Bool("prune", false, "delete definitions of the tenant not written by this run")
	return cmd
}
