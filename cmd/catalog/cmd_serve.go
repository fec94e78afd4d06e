package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alem-hub/lesson-catalog/internal/application/command"
	"github.com/alem-hub/lesson-catalog/internal/domain/lesson"
	"github.com/alem-hub/lesson-catalog/internal/infrastructure/persistence/redis"
	"github.com/alem-hub/lesson-catalog/internal/infrastructure/scheduler"
	"github.com/alem-hub/lesson-catalog/internal/infrastructure/scheduler/jobs"
	httpapi "github.com/alem-hub/lesson-catalog/internal/interface/http"
	"github.com/alem-hub/lesson-catalog/internal/interface/http/handlers"
	"github.com/alem-hub/lesson-catalog/pkg/logger"
)

var (
	publishOnStart    bool
	republishInterval time.Duration
)

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the lesson catalog HTTP API",
	Long: `Serves the catalog over HTTP:

  GET  /health
  GET  /api/v1/lessons?offset=&limit=
  GET  /api/v1/lessons/count
  GET  /api/v1/lessons/{file}
  POST /api/v1/admin/publish?force=   (only when HTTP_ADMIN_KEY_HASH is set)

With --republish-every (or APP_REPUBLISH_INTERVAL) the catalog is
republished in the background to sinks that lost the current version.

Stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&publishOnStart, "publish", false, "Publish the catalog to configured sinks on startup")
	serveCmd.Flags().DurationVar(&republishInterval, "republish-every", 0, "Republish interval (overrides APP_REPUBLISH_INTERVAL, 0 = use config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─────────────────────────────────────────────────────────────────────────
	// 1. CATALOG
	// ─────────────────────────────────────────────────────────────────────────
	manifest := catalogSource()
	log.Info("starting lesson catalog",
		logger.String("version", cfg.App.Version),
		logger.LessonCount(manifest.Count()),
		logger.Version(manifest.Fingerprint()),
	)
	if cfg.App.ValidateOnStart {
		logValidation(log, manifest.Validate())
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. BACKENDS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.migrate(ctx, log); err != nil {
		return err
	}

	checker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	checker.AddCheck("catalog", handlers.NewCatalogCheck(manifest))
	if b.db != nil {
		checker.AddCheck("postgres", handlers.NewPingCheck(b.db))
	}
	if b.cache != nil {
		checker.AddCheck("redis", handlers.NewPingCheck(b.cache))
	}

	var publisher *command.PublishCatalogHandler
	if len(b.sinks) > 0 {
		publisher = command.NewPublishCatalogHandler(manifest, b.sinks, log, command.PublishCatalogHandlerConfig{})
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	srvCfg := httpapi.DefaultConfig()
	srvCfg.Host = cfg.HTTP.Host
	srvCfg.Port = cfg.HTTP.Port
	srvCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	srvCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	srvCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	srvCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	srvCfg.AdminKeyHash = cfg.HTTP.AdminKeyHash
	srvCfg.CacheMaxAge = cfg.HTTP.CacheMaxAge

	server := httpapi.NewServer(srvCfg, httpapi.Dependencies{
		Manifest:       manifest,
		PublishHandler: publisher,
		HealthChecker:  checker,
		Logger:         log,
	})
	if srvCfg.AdminKeyHash != "" && publisher == nil {
		log.Warn("admin key configured but no sinks; admin routes disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	sched, err := newScheduler(publisher, log)
	if err != nil {
		return err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. RUN
	// ─────────────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.Start)

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if publishOnStart && publisher != nil {
		g.Go(func() error {
			if _, err := publisher.Handle(gctx, command.PublishCatalogCommand{}); err != nil {
				log.Error("startup publish failed", logger.Err(err))
			}
			return nil
		})
	}

	if sched != nil {
		g.Go(func() error {
			if err := sched.Start(gctx); err != nil {
				return err
			}
			<-gctx.Done()
			return sched.Stop()
		})
	}

	if b.cache != nil {
		keys := redis.KeysFor(cfg.Redis.KeyPrefix)
		g.Go(func() error {
			watchPublishEvents(gctx, b.cache, keys.Events, manifest.Fingerprint(), log)
			return nil
		})
	}

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutdown completed successfully")
	return nil
}

// newScheduler returns a scheduler with the republish job, or nil when there
// is nothing to publish to or republishing is disabled.
func newScheduler(publisher *command.PublishCatalogHandler, log *logger.Logger) (*scheduler.Scheduler, error) {
	interval := cfg.App.RepublishInterval
	if republishInterval > 0 {
		interval = republishInterval
	}
	if interval <= 0 {
		return nil, nil
	}
	if publisher == nil {
		log.Warn("republish interval set but no sinks configured; republishing disabled")
		return nil, nil
	}

	every, err := scheduler.NewIntervalSchedule(interval)
	if err != nil {
		return nil, err
	}
	sched := scheduler.New(scheduler.Config{Logger: log})
	job := jobs.NewRepublishCatalogJob(publisher, log, jobs.RepublishCatalogConfig{})
	if err := sched.Register(job, every); err != nil {
		return nil, err
	}
	return sched, nil
}

// logValidation reports numeral inconsistencies without failing startup.
func logValidation(log *logger.Logger, report lesson.ValidationReport) {
	if report.OK() {
		log.Debug("catalog validation passed", logger.Int("checked", report.Checked))
		return
	}
	for _, issue := range report.Issues {
		log.Warn("catalog issue",
			logger.String("kind", string(issue.Kind)),
			logger.LessonFile(issue.File),
			logger.Int("position", issue.Position),
			logger.String("detail", issue.Message),
		)
	}
}

// watchPublishEvents logs publish notifications from other instances until
// ctx is done. A version that differs from ours means this process serves a
// stale catalog.
func watchPublishEvents(ctx context.Context, cache *redis.Cache, channel, version string, log *logger.Logger) {
	sub := cache.Subscribe(ctx, channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev redis.PublishedEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn("malformed publish event", logger.Err(err))
				continue
			}
			if ev.Version != version {
				log.Warn("catalog published by another instance differs from the served one",
					logger.Version(ev.Version),
					logger.String("served_version", version),
					logger.LessonCount(ev.Count),
				)
				continue
			}
			log.Debug("catalog publish observed", logger.Version(ev.Version))
		}
	}
}
