// Package jobs runs periodic background work.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/baharkarakas/point-ledger/internal/services"
)

// Sweeper is satisfied by *services.Reconciler.
type Sweeper interface {
	Sweep(ctx context.Context) (services.SweepResult, error)
}

type Scheduler struct {
	cron *cron.Cron
	rec  Sweeper
	log  *slog.Logger
}

func NewScheduler(rec Sweeper, log *slog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		rec:  rec,
		log:  log,
	}
}

// Start registers the reconciliation sweep on schedule (cron syntax or "@every 5m")
// and starts the scheduler. An empty schedule disables the job.
func (s *Scheduler) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		s.log.Info("reconciliation schedule disabled")
		return nil
	}
	_, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.rec.Sweep(ctx); err != nil {
			s.log.Error("reconciliation sweep", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	s.log.Info("scheduler started", "schedule", schedule)
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
