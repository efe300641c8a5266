package app

import (
	"context"
	"time"

	"odyssey-quiz-service/internal/logger"
)

// Scheduler drives the background maintenance on a single goroutine: a
// startup check shortly after boot, then a daily run at the configured hour.
// Jobs never overlap each other but do run alongside request handling.
type Scheduler struct {
	lifecycle    *Lifecycle
	sweeper      *Sweeper
	dailyHour    int
	startupDelay time.Duration
	log          *logger.Logger
	clock        func() time.Time
}

func NewScheduler(lifecycle *Lifecycle, sweeper *Sweeper, dailyHour int, startupDelay time.Duration, log *logger.Logger) *Scheduler {
	return &Scheduler{
		lifecycle:    lifecycle,
		sweeper:      sweeper,
		dailyHour:    dailyHour,
		startupDelay: startupDelay,
		log:          log.With("service", "scheduler"),
		clock:        time.Now,
	}
}

// Run blocks until ctx is canceled. Call it on its own goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	if s.startupDelay > 0 {
		select {
		case <-time.After(s.startupDelay):
		case <-ctx.Done():
			return
		}
	}
	s.runStartup(ctx)

	for {
		wait := s.untilNextRun()
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
			s.runDaily(ctx)
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// runStartup re-checks today's quiz: creates it when missing and retries
// generation when the existing one is fallback content.
func (s *Scheduler) runStartup(ctx context.Context) {
	s.log.Info("running startup quiz check")
	if err := s.lifecycle.HealDegraded(ctx); err != nil {
		s.log.Error("startup quiz check failed", "error", err.Error())
	}
}

func (s *Scheduler) runDaily(ctx context.Context) {
	s.log.Info("running daily quiz maintenance")

	if _, err := s.sweeper.Sweep(ctx); err != nil {
		s.log.Error("retention sweep failed", "error", err.Error())
	}
	if err := s.lifecycle.EnsureToday(ctx, true); err != nil {
		s.log.Error("daily quiz generation failed", "error", err.Error())
	}

	s.log.Info("daily quiz maintenance completed")
}

func (s *Scheduler) untilNextRun() time.Duration {
	now := s.clock()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.dailyHour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
