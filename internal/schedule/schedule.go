// Package schedule re-runs exports on a fixed interval.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps a gocron scheduler running one periodic task.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// New creates a stopped scheduler.
func New(logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, logger: logger}, nil
}

// Every registers task to run every interval. A run that is still going when
// the next one is due makes that tick skip. With immediate set the first run
// starts as soon as the scheduler does.
func (s *Scheduler) Every(interval time.Duration, name string, immediate bool, task func()) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("schedule interval must be positive, got %s", interval)
	}
	opts := []gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if immediate {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	job, err := s.scheduler.NewJob(gocron.DurationJob(interval), gocron.NewTask(task), opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create periodic job: %w", err)
	}
	s.logger.Info("Scheduled periodic job", "name", name, "interval", interval.String())
	return job.ID().String(), nil
}

// Run starts the scheduler and blocks until ctx is cancelled, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Starting scheduler")
	s.scheduler.Start()
	<-ctx.Done()
	s.logger.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}
