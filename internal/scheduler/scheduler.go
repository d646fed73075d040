package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Job is one collection cycle.
type Job func(ctx context.Context)

var errInvalidInterval = errors.New("scheduler interval must be positive")

// Scheduler periodically runs a collection job, one cycle at a time.
type Scheduler struct {
	scheduler *gocron.Scheduler
	job       Job
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler. Each run gets a context bounded by timeout
// (no bound if timeout <= 0).
func New(interval, timeout time.Duration, job Job) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		job:       job,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start schedules the periodic job, runs it immediately and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return errInvalidInterval
	}

	_, err := s.scheduler.Every(s.interval).Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	zap.L().Debug("scheduler: running weather collection job")

	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.job(ctx)
	zap.L().Debug("scheduler: completed weather collection job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
