package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/ports"
)

// Scheduler wires the cron driver with the pipeline, curating each configured kind in turn.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	kinds    []domain.Kind
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, kinds []domain.Kind, log *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, kinds: kinds, logger: log}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.RunAll(ctx, trigger)
	}

	return s.driver.Start(ctx, job)
}

// RunAll curates every configured kind; one failing kind does not stop the others.
func (s *Scheduler) RunAll(ctx context.Context, trigger time.Time) {
	for _, kind := range s.kinds {
		if ctx.Err() != nil {
			return
		}
		summary, err := s.pipeline.Run(ctx, RunRequest{Kind: kind})
		switch {
		case errors.Is(err, domain.ErrRunInProgress):
			s.log(slog.LevelInfo, "scheduled run skipped, lease held", "kind", kind)
		case err != nil:
			s.log(slog.LevelError, "scheduled run failed", "kind", kind, "error", err)
		default:
			s.log(slog.LevelInfo, "scheduled run done", "kind", kind, "trigger", trigger,
				"added", summary.Added, "updated", summary.Updated, "errors", len(summary.Errors))
		}
	}
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

func (s *Scheduler) log(level slog.Level, msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Log(context.Background(), level, msg, args...)
	}
}
