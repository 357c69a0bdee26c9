// Package maintenance runs the periodic housekeeping of a long-running
// server: pruning expired sessions and old audit events.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs named jobs on cron schedules. A job still running when its
// next tick arrives is skipped rather than started twice.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger,
	}
}

// Add registers fn under spec, a standard five-field cron expression or a
// descriptor such as "@hourly". An empty spec disables the job.
func (s *Scheduler) Add(name, spec string, fn func() error) error {
	if spec == "" {
		s.logger.Info("maintenance job disabled", "job", name)
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() { s.run(name, fn) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", spec, name, err)
	}
	s.logger.Info("scheduled maintenance job", "job", name, "schedule", spec)
	return nil
}

func (s *Scheduler) run(name string, fn func() error) {
	start := time.Now()
	if err := fn(); err != nil {
		s.logger.Error("maintenance job failed", "job", name, "error", err)
		return
	}
	s.logger.Debug("maintenance job done", "job", name, "duration", time.Since(start))
}

// Len is the number of scheduled jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
