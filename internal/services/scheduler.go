package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"env-monitor/pkg/logging"
)

// JobTimeout bounds a single scheduled run
const JobTimeout = 30 * time.Second

// Scheduler runs background maintenance jobs such as the sensor refresh
// and the methane dataset reload.
type Scheduler struct {
	scheduler *gocron.Scheduler
	logger    *logging.StructuredLogger
	jobs      int
}

// NewScheduler creates an empty scheduler
func NewScheduler(logger *logging.StructuredLogger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		logger:    logger,
	}
}

// Every registers job to run every interval, starting immediately once the
// scheduler starts. A non-positive interval leaves the job disabled.
func (s *Scheduler) Every(name string, interval time.Duration, job func(context.Context) error) error {
	if interval <= 0 {
		s.logger.Info(context.Background(), "[SCHEDULER_DISABLED] Job disabled", logging.Fields{
			"job": name,
		})
		return nil
	}

	_, err := s.scheduler.Every(interval).Do(s.run, name, job)
	if err != nil {
		return err
	}
	s.jobs++

	s.logger.Info(context.Background(), "[SCHEDULER_JOB] Job scheduled", logging.Fields{
		"job":      name,
		"interval": interval.String(),
	})
	return nil
}

// Start runs the registered jobs in the background
func (s *Scheduler) Start() {
	if s.jobs == 0 {
		return
	}
	s.scheduler.StartAsync()
	s.logger.Info(context.Background(), "[SCHEDULER_START] Scheduler started", logging.Fields{
		"jobs": s.jobs,
	})
}

func (s *Scheduler) run(name string, job func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), JobTimeout)
	defer cancel()

	if err := job(ctx); err != nil {
		s.logger.Error(ctx, "[SCHEDULER_ERROR] Scheduled job failed", logging.Fields{
			"job": name,
		}, err)
	}
}

// Stop stops the scheduler and cancels future runs
func (s *Scheduler) Stop() {
	if s.jobs > 0 {
		s.scheduler.Stop()
	}
}
