package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/amishk599/atsprobe/internal/model"
)

// Batcher syncs a list of company domains.
type Batcher interface {
	SyncBatch(ctx context.Context, domains []string) model.BatchReport
}

// Pruner deletes closed postings older than a cutoff.
type Pruner interface {
	PruneClosed(ctx context.Context, olderThan time.Duration) (int, error)
}

// Options configures a Scheduler. Pruner and Notifier are optional.
type Options struct {
	Spec       string // standard five-field cron spec or a descriptor like "@every 1h"
	Domains    func() ([]string, error)
	Batcher    Batcher
	Notifier   model.Notifier
	Pruner     Pruner
	PruneAfter time.Duration
	Logger     *slog.Logger
}

// Scheduler runs a sync cycle over the configured domains on a cron schedule.
type Scheduler struct {
	opts   Options
	logger *slog.Logger
}

// NewScheduler creates a scheduler. The cron spec is validated by Run.
func NewScheduler(opts Options) *Scheduler {
	return &Scheduler{opts: opts, logger: opts.Logger}
}

// Run starts the cron loop. It runs one immediate cycle, then one per
// schedule tick; a tick that arrives while a cycle is still running is
// skipped. It returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	cl := cronLogger{s.logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(s.opts.Spec, func() { s.RunCycle(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", s.opts.Spec, err)
	}

	s.logger.Info("starting scheduler", "schedule", s.opts.Spec)

	// Run one immediate cycle.
	s.RunCycle(ctx)

	c.Start()
	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	return nil
}

// RunCycle syncs every domain, reports the batch, and prunes old closed postings.
func (s *Scheduler) RunCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	domains, err := s.opts.Domains()
	if err != nil {
		s.logger.Error("loading domains failed", "error", err)
		return
	}

	start := time.Now()
	report := s.opts.Batcher.SyncBatch(ctx, domains)
	s.logger.Info("cycle complete",
		"domains", len(domains),
		"processed", report.Processed,
		"errors", report.Errors,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if s.opts.Notifier != nil {
		if err := s.opts.Notifier.Notify(ctx, report); err != nil {
			s.logger.Error("notify failed", "error", err)
		}
	}

	if s.opts.Pruner != nil && s.opts.PruneAfter > 0 {
		n, err := s.opts.Pruner.PruneClosed(ctx, s.opts.PruneAfter)
		if err != nil {
			s.logger.Error("prune failed", "error", err)
		} else if n > 0 {
			s.logger.Info("pruned closed postings", "count", n, "older_than", s.opts.PruneAfter)
		}
	}
}

// cronLogger routes cron's own messages through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
