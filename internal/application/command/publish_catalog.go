// Package command contains write operations (CQRS - Commands).
// Commands push the lesson catalog out to external stores; the catalog
// itself is never modified.
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alem-hub/lesson-catalog/internal/domain/lesson"
	"github.com/alem-hub/lesson-catalog/internal/domain/shared"
	"github.com/alem-hub/lesson-catalog/pkg/logger"
	"github.com/alem-hub/lesson-catalog/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// PUBLISH CATALOG COMMAND
// Writes the current catalog snapshot to every configured sink in parallel.
// ══════════════════════════════════════════════════════════════════════════════

// PublishCatalogCommand contains the options for one publish run.
type PublishCatalogCommand struct {
	// Force republishes even when a sink already holds the current version.
	Force bool

	// CorrelationID for tracing across services.
	CorrelationID string
}

// SinkStatus is the outcome of publishing to one sink.
type SinkStatus string

const (
	SinkPublished SinkStatus = "published"
	SinkSkipped   SinkStatus = "skipped"
	SinkFailed    SinkStatus = "failed"
)

// SinkOutcome describes what happened to a single sink.
type SinkOutcome struct {
	Sink     string        `json:"sink"`
	Status   SinkStatus    `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// PublishCatalogResult contains the result of a publish run.
type PublishCatalogResult struct {
	Version     string        `json:"version"`
	Count       int           `json:"count"`
	PublishedAt time.Time     `json:"published_at"`
	Sinks       []SinkOutcome `json:"sinks"`
}

// Failed returns the outcomes that failed.
func (r PublishCatalogResult) Failed() []SinkOutcome {
	var failed []SinkOutcome
	for _, s := range r.Sinks {
		if s.Status == SinkFailed {
			failed = append(failed, s)
		}
	}
	return failed
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// PublishCatalogHandler handles PublishCatalogCommand.
type PublishCatalogHandler struct {
	manifest *lesson.Manifest
	sinks    []lesson.Sink
	retrier  *retry.Retrier
	log      *logger.Logger
	now      func() time.Time
	timeout  time.Duration
}

// PublishCatalogHandlerConfig contains configuration for the handler.
type PublishCatalogHandlerConfig struct {
	// SinkTimeout bounds a single sink write including retries.
	SinkTimeout time.Duration

	// Retrier overrides the default sink retry policy.
	Retrier *retry.Retrier

	// Now overrides the clock (tests).
	Now func() time.Time
}

// NewPublishCatalogHandler creates a new handler. Nil sinks are ignored so
// callers can pass optional stores directly.
func NewPublishCatalogHandler(
	manifest *lesson.Manifest,
	sinks []lesson.Sink,
	log *logger.Logger,
	cfg PublishCatalogHandlerConfig,
) *PublishCatalogHandler {
	active := make([]lesson.Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			active = append(active, s)
		}
	}

	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = 30 * time.Second
	}
	if cfg.Retrier == nil {
		cfg.Retrier = retry.SinkRetrier(shared.IsRetryable)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}

	return &PublishCatalogHandler{
		manifest: manifest,
		sinks:    active,
		retrier:  cfg.Retrier,
		log:      log.With(logger.Component("publish_catalog")),
		now:      cfg.Now,
		timeout:  cfg.SinkTimeout,
	}
}

// Sinks returns the names of the configured sinks.
func (h *PublishCatalogHandler) Sinks() []string {
	names := make([]string, len(h.sinks))
	for i, s := range h.sinks {
		names[i] = s.Name()
	}
	return names
}

// Handle publishes the catalog. Every sink is attempted even if another one
// fails; the returned error joins all sink failures.
func (h *PublishCatalogHandler) Handle(ctx context.Context, cmd PublishCatalogCommand) (*PublishCatalogResult, error) {
	snapshot := h.manifest.Snapshot(h.now())
	log := h.log.With(logger.Version(snapshot.Version), logger.String("correlation_id", cmd.CorrelationID))

	result := &PublishCatalogResult{
		Version:     snapshot.Version,
		Count:       len(snapshot.Records),
		PublishedAt: snapshot.PublishedAt,
		Sinks:       make([]SinkOutcome, len(h.sinks)),
	}
	errs := make([]error, len(h.sinks))

	var g errgroup.Group
	for i, sink := range h.sinks {
		g.Go(func() error {
			outcome, err := h.publishOne(ctx, sink, snapshot, cmd.Force)
			result.Sinks[i] = outcome
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range result.Sinks {
		fields := []logger.Field{logger.Sink(o.Sink), logger.String("status", string(o.Status)), logger.Latency(o.Duration)}
		if o.Status == SinkFailed {
			log.Error("catalog publish failed", append(fields, logger.String("error", o.Error))...)
		} else {
			log.Info("catalog publish finished", fields...)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return result, fmt.Errorf("publish catalog: %w", err)
	}
	return result, nil
}

func (h *PublishCatalogHandler) publishOne(ctx context.Context, sink lesson.Sink, snapshot lesson.Snapshot, force bool) (SinkOutcome, error) {
	start := time.Now()
	outcome := SinkOutcome{Sink: sink.Name()}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if reader, ok := sink.(lesson.VersionReader); ok && !force {
		current, err := reader.CurrentVersion(ctx)
		if err == nil && current == snapshot.Version {
			outcome.Status = SinkSkipped
			outcome.Duration = time.Since(start)
			return outcome, nil
		}
		if err != nil {
			h.log.Warn("could not read published version, publishing anyway",
				logger.Sink(sink.Name()), logger.Err(err))
		}
	}

	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		return sink.Replace(ctx, snapshot)
	})
	outcome.Duration = time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = shared.WrapError("catalog", "Publish", shared.ErrTimeout, "sink "+sink.Name()+" timed out", err)
		}
		outcome.Status = SinkFailed
		outcome.Error = err.Error()
		return outcome, fmt.Errorf("%s: %w", sink.Name(), err)
	}

	outcome.Status = SinkPublished
	return outcome, nil
}
