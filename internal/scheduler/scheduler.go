// Package scheduler runs backfill periodically for the configured field groups.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/couchcryptid/fishing-log-enrichment/internal/domain"
	"github.com/couchcryptid/fishing-log-enrichment/internal/enrich"
)

// Runner executes one backfill run.
type Runner interface {
	Backfill(ctx context.Context, c domain.BackfillCriteria) (enrich.BackfillResult, error)
}

// Scheduler periodically backfills records missing environmental fields.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	groups    []domain.FieldGroup
	interval  time.Duration
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Scheduler. Groups are backfilled in order on each tick.
func New(runner Runner, groups []domain.FieldGroup, interval time.Duration, logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    runner,
		groups:    groups,
		interval:  interval,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start schedules the job, runs it once immediately and returns. Runs never
// overlap; a tick that arrives while a run is in progress is dropped.
func (s *Scheduler) Start() error {
	if s.interval <= 0 || len(s.groups) == 0 {
		s.logger.Info("backfill scheduler disabled", "interval", s.interval, "groups", len(s.groups))
		return nil
	}

	s.scheduler.SingletonModeAll()
	if _, err := s.scheduler.Every(s.interval).Do(s.runAll); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("backfill scheduler started", "interval", s.interval, "groups", s.groups)
	return nil
}

// Stop cancels an in-flight run and stops future ones.
func (s *Scheduler) Stop() {
	s.cancel()
	s.scheduler.Stop()
}

func (s *Scheduler) runAll() {
	for _, g := range s.groups {
		if s.ctx.Err() != nil {
			return
		}
		res, err := s.runner.Backfill(s.ctx, domain.BackfillCriteria{Group: g})
		if err != nil {
			s.logger.Error("scheduled backfill failed", "group", g, "error", err)
			continue
		}
		s.logger.Debug("scheduled backfill finished", "group", g, "updated", res.Updated, "scanned", res.Scanned)
	}
}
