// Package jobs contains the scheduled jobs of the lesson catalog.
package jobs

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/alem-hub/lesson-catalog/internal/application/command"
	"github.com/alem-hub/lesson-catalog/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPUBLISH CATALOG JOB
// ══════════════════════════════════════════════════════════════════════════════

// CatalogPublisher publishes the catalog to its sinks.
type CatalogPublisher interface {
	Handle(ctx context.Context, cmd command.PublishCatalogCommand) (*command.PublishCatalogResult, error)
}

// RepublishCatalogJob periodically publishes the catalog so that sinks which
// lost it (an expired Redis snapshot, a truncated table) are restored.
// Sinks that still hold the current version are skipped unless Force is set.
type RepublishCatalogJob struct {
	publisher CatalogPublisher
	force     bool
	logger    *logger.Logger

	lastResult atomic.Pointer[command.PublishCatalogResult]
}

// RepublishCatalogConfig contains configuration for the job.
type RepublishCatalogConfig struct {
	// Force rewrites every sink on each run.
	Force bool
}

// NewRepublishCatalogJob creates a new republish job.
func NewRepublishCatalogJob(publisher CatalogPublisher, log *logger.Logger, config RepublishCatalogConfig) *RepublishCatalogJob {
	if log == nil {
		log = logger.Nop()
	}
	return &RepublishCatalogJob{
		publisher: publisher,
		force:     config.Force,
		logger:    log.With(logger.Component("republish_catalog")),
	}
}

// Name implements scheduler.Job.
func (j *RepublishCatalogJob) Name() string {
	return "republish_catalog"
}

// Description implements scheduler.Job.
func (j *RepublishCatalogJob) Description() string {
	return "Publishes the lesson catalog to sinks that are missing the current version"
}

// Run implements scheduler.Job.
func (j *RepublishCatalogJob) Run(ctx context.Context) error {
	res, err := j.publisher.Handle(ctx, command.PublishCatalogCommand{
		Force:         j.force,
		CorrelationID: uuid.NewString(),
	})
	if res == nil {
		return err
	}
	j.lastResult.Store(res)

	var published, skipped int
	for _, s := range res.Sinks {
		switch s.Status {
		case command.SinkPublished:
			published++
		case command.SinkSkipped:
			skipped++
		}
	}
	j.logger.Debug("republish finished",
		logger.Version(res.Version),
		logger.Int("published", published),
		logger.Int("skipped", skipped),
		logger.Int("failed", len(res.Failed())),
	)

	return err
}

// LastResult returns the result of the most recent run, or nil.
func (j *RepublishCatalogJob) LastResult() *command.PublishCatalogResult {
	return j.lastResult.Load()
}
