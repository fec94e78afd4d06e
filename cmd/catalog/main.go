// Package main - точка входа CLI каталога уроков.
//
// Команды:
//   - list, get, count, validate, export: чтение встроенного каталога
//   - migrate, publish: выгрузка каталога в PostgreSQL и Redis
//   - serve: HTTP API каталога
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/alem-hub/lesson-catalog/config"
	"github.com/alem-hub/lesson-catalog/internal/domain/lesson"
	"github.com/alem-hub/lesson-catalog/pkg/logger"
)

var (
	// Global flags
	logLevel string
	timeout  time.Duration

	// Set up by PersistentPreRunE
	cfg *config.Config
	log *logger.Logger

	// catalogSource lets tests swap the catalog.
	catalogSource = lesson.Catalog
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Lesson catalog of the AI agents course",
	Long: `catalog serves the ordered list of course lessons.

It prints and validates the built-in catalog, publishes it to PostgreSQL
and Redis, and runs the read-only HTTP API.

Configuration comes from the environment (DATABASE_URL, REDIS_URL,
HTTP_PORT, LOG_LEVEL, ...).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Observability.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		// Logs go to stderr so list/export output stays machine-readable.
		log = logger.New(logger.Options{
			Output:    cmd.ErrOrStderr(),
			Level:     logger.ParseLevel(level),
			Format:    cfg.Observability.LogFormat,
			AddCaller: cfg.App.Debug,
		}).With(logger.String("app", cfg.App.Name), logger.String("env", string(cfg.App.Environment)))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Timeout for database and cache operations")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// commandContext returns the command context bounded by --timeout.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
