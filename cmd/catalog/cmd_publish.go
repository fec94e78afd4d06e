package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alem-hub/lesson-catalog/config"
	"github.com/alem-hub/lesson-catalog/internal/application/command"
	"github.com/alem-hub/lesson-catalog/internal/domain/lesson"
	"github.com/alem-hub/lesson-catalog/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/lesson-catalog/internal/infrastructure/persistence/redis"
	"github.com/alem-hub/lesson-catalog/pkg/logger"
	"github.com/alem-hub/lesson-catalog/pkg/retry"
)

var (
	publishForce     bool
	publishNoMigrate bool
)

// migrateCmd applies the PostgreSQL schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations (requires DATABASE_URL)",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

// publishCmd writes the catalog to every configured sink
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish the catalog to PostgreSQL and/or Redis",
	Long: `Publishes the built-in catalog to every configured sink in parallel.

A sink that already holds the current catalog version is skipped unless
--force is given. PostgreSQL migrations run first unless --no-migrate.`,
	Args: cobra.NoArgs,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().BoolVar(&publishForce, "force", false, "Republish even if a sink is up to date")
	publishCmd.Flags().BoolVar(&publishNoMigrate, "no-migrate", false, "Skip database migrations")
}

// ══════════════════════════════════════════════════════════════════════════════
// BACKENDS
// ══════════════════════════════════════════════════════════════════════════════

// backends holds the optional stores the catalog is published to.
type backends struct {
	db    *postgres.Connection
	cache *redis.Cache
	sinks []lesson.Sink
}

// openBackends connects to every configured store, retrying transient
// failures while the stores start up.
func openBackends(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backends, error) {
	b := &backends{}
	startup := retry.StartupRetrier()

	if cfg.Database.Enabled() {
		log.Info("connecting to database...")
		err := startup.Do(ctx, func(ctx context.Context) error {
			conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL, postgres.PoolOptions{
				MaxConns:        cfg.Database.MaxConns,
				MinConns:        cfg.Database.MinConns,
				MaxConnLifetime: cfg.Database.ConnMaxLifetime,
				MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
			})
			if err != nil {
				log.Warn("database not reachable yet", logger.Err(err))
				return err
			}
			b.db = conn
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		b.sinks = append(b.sinks, postgres.NewLessonRepository(b.db))
		log.Info("database connection established")
	}

	if cfg.Redis.Enabled() {
		log.Info("connecting to Redis...")
		redisCfg := redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   3,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}
		err := startup.Do(ctx, func(ctx context.Context) error {
			cache, err := redis.NewCache(ctx, redisCfg)
			if err != nil {
				log.Warn("redis not reachable yet", logger.Err(err))
				return err
			}
			b.cache = cache
			return nil
		})
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		b.sinks = append(b.sinks, redis.NewManifestCache(b.cache, cfg.Redis.KeyPrefix, cfg.Redis.SnapshotTTL))
		log.Info("Redis connection established", logger.String("addr", redisCfg.Addr()))
	}

	return b, nil
}

// migrate applies pending migrations when a database is configured.
func (b *backends) migrate(ctx context.Context, log *logger.Logger) error {
	if b.db == nil {
		return nil
	}
	applied, err := postgres.NewMigrator(b.db).Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date", logger.Int("applied", applied))
	return nil
}

// Close releases all connections.
func (b *backends) Close() {
	if b.cache != nil {
		_ = b.cache.Close()
	}
	if b.db != nil {
		b.db.Close()
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

func runMigrate(cmd *cobra.Command, args []string) error {
	if !cfg.Database.Enabled() {
		return errors.New("DATABASE_URL is not set")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	b, err := openBackends(ctx, &config.Config{Database: cfg.Database}, log)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.migrate(ctx, log); err != nil {
		return err
	}

	status, err := postgres.NewMigrator(b.db).Status(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, m := range status {
		state := "pending"
		if m.IsApplied {
			state = "applied " + m.AppliedAt.UTC().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(out, "%03d  %-24s %s\n", m.Version, m.Name, state)
	}
	return nil
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	if len(b.sinks) == 0 {
		return errors.New("no sinks configured: set DATABASE_URL and/or REDIS_URL")
	}

	if !publishNoMigrate {
		if err := b.migrate(ctx, log); err != nil {
			return err
		}
	}

	h := command.NewPublishCatalogHandler(catalogSource(), b.sinks, log, command.PublishCatalogHandlerConfig{})
	res, err := h.Handle(ctx, command.PublishCatalogCommand{Force: publishForce})
	if res != nil {
		printPublishResult(cmd, res)
	}
	return err
}

func printPublishResult(cmd *cobra.Command, res *command.PublishCatalogResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "catalog %s (%d lessons)\n", res.Version[:12], res.Count)
	for _, s := range res.Sinks {
		line := fmt.Sprintf("  %-10s %-9s %s", s.Sink, s.Status, s.Duration.Round(time.Millisecond))
		if s.Error != "" {
			line += "  " + s.Error
		}
		fmt.Fprintln(out, line)
	}
}
