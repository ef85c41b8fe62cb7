// Package scheduler runs jobs at the occurrences of an RFC 5545 recurrence rule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"
)

// Job is one unit of scheduled work
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Scheduler fires its jobs, in order, at every occurrence of the rule
type Scheduler struct {
	rule   *rrule.RRule
	jobs   []Job
	logger *zap.Logger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// New parses schedule (e.g. "FREQ=MINUTELY;INTERVAL=15") and returns a scheduler.
// Without a DTSTART the rule is anchored at the current time.
func New(schedule string, logger *zap.Logger, jobs ...Job) (*Scheduler, error) {
	rule, err := rrule.StrToRRule(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	return &Scheduler{
		rule:   rule,
		jobs:   jobs,
		logger: logger,
		now:    time.Now,
		after:  time.After,
	}, nil
}

// Next returns the first occurrence strictly after t, or the zero time when the rule is exhausted
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.rule.After(t, false)
}

// Run blocks until ctx is cancelled or the rule has no further occurrences
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		now := s.now()
		next := s.Next(now)
		if next.IsZero() {
			s.logger.Info("Schedule has no further occurrences, stopping")
			return nil
		}

		s.logger.Debug("Next scheduled run", zap.Time("at", next))

		select {
		case <-ctx.Done():
			return nil
		case <-s.after(next.Sub(now)):
		}

		s.RunOnce(ctx)
	}
}

// RunOnce runs every job once. A failing job is logged and does not stop the rest.
func (s *Scheduler) RunOnce(ctx context.Context) {
	for _, job := range s.jobs {
		started := s.now()
		if err := job.Run(ctx); err != nil {
			s.logger.Error("Scheduled job failed",
				zap.String("job", job.Name),
				zap.Error(err))
			continue
		}
		s.logger.Debug("Scheduled job finished",
			zap.String("job", job.Name),
			zap.Duration("duration", s.now().Sub(started)))
	}
}
