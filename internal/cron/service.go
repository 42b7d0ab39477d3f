package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/fabguard/storefront-backend/pkg/logger"
	"github.com/fabguard/storefront-backend/pkg/metrics"
)

const (
	defaultInterval   = time.Hour
	defaultJobTimeout = 10 * time.Minute
)

// ServiceParams configure the maintenance worker.
type ServiceParams struct {
	Logger     *logger.Logger
	Registry   *Registry
	Lock       Lock
	Metrics    *metrics.CronJobMetrics
	Interval   time.Duration
	JobTimeout time.Duration
}

// Service runs the registered maintenance jobs once per interval on whichever
// instance wins the lock.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    *metrics.CronJobMetrics
	interval   time.Duration
	jobTimeout time.Duration
}

// holderReporter is implemented by locks that can name their current owner.
type holderReporter interface {
	HeldBy(ctx context.Context) (string, error)
}

// cycleReport summarizes one maintenance cycle.
type cycleReport struct {
	Skipped bool
	Ran     int
	Failed  []string
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	jobTimeout := params.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = defaultJobTimeout
	}
	return &Service{
		logg:       params.Logger,
		registry:   registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   interval,
		jobTimeout: jobTimeout,
	}, nil
}

// Run blocks until ctx is canceled. The first cycle starts immediately.
func (s *Service) Run(ctx context.Context) error {
	s.tick(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "maintenance worker stopping")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Service) tick(ctx context.Context) {
	report, err := s.runCycle(ctx)
	if err != nil {
		s.logg.Error(ctx, "maintenance.cycle_failed", err)
		return
	}
	if report.Skipped {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"event":  "maintenance.cycle",
		"ran":    report.Ran,
		"failed": report.Failed,
	})
	if len(report.Failed) > 0 {
		s.logg.Warn(ctx, "maintenance cycle finished with failures")
		return
	}
	s.logg.Info(ctx, "maintenance cycle finished")
}

// runCycle runs every job under the lock. A job failure is recorded in the
// report and never stops the jobs after it.
func (s *Service) runCycle(ctx context.Context) (cycleReport, error) {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return cycleReport{}, fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logSkip(ctx)
		return cycleReport{Skipped: true}, nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "maintenance.lock_release_failed", relErr)
		}
	}()

	s.logg.Info(s.logg.WithField(ctx, "jobs", s.registry.Names()), "maintenance cycle starting")
	var report cycleReport
	for _, job := range s.registry.Jobs() {
		report.Ran++
		if err := s.runJob(ctx, job); err != nil {
			report.Failed = append(report.Failed, job.Name())
		}
	}
	return report, nil
}

func (s *Service) logSkip(ctx context.Context) {
	if reporter, ok := s.lock.(holderReporter); ok {
		if holder, err := reporter.HeldBy(ctx); err == nil && holder != "" {
			ctx = s.logg.WithField(ctx, "held_by", holder)
		}
	}
	s.logg.Info(ctx, "maintenance lock held elsewhere; skipping cycle")
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	name := job.Name()
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": name, "event": "maintenance.job"})
	runCtx, cancel := context.WithTimeout(jobCtx, s.jobTimeout)
	defer cancel()

	start := time.Now()
	err := job.Run(runCtx)
	duration := time.Since(start)

	s.metrics.ObserveDuration(name, duration)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.metrics.IncFailure(name)
		s.logg.Error(jobCtx, "job failed", err)
		return err
	}
	s.metrics.IncSuccess(name)
	s.logg.Info(jobCtx, "job completed")
	return nil
}
