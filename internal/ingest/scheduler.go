package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is one refresh pass: fetch-or-reuse, render, present.
type Job func(ctx context.Context) error

// Scheduler runs a Job on a cron schedule. Passes never overlap: a tick that
// fires while the previous pass is still running is skipped.
type Scheduler struct {
	spec    string
	job     Job
	loc     *time.Location
	timeout time.Duration
	log     logrus.FieldLogger

	mu sync.Mutex
}

func NewScheduler(spec string, loc *time.Location, job Job, log logrus.FieldLogger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		spec:    spec,
		job:     job,
		loc:     loc,
		timeout: 5 * time.Minute,
		log:     log,
	}
}

// ParseSchedule validates a five-field cron expression.
func ParseSchedule(spec string) (cron.Schedule, error) {
	s, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return s, nil
}

// Run executes the job once immediately, then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := ParseSchedule(s.spec); err != nil {
		return err
	}

	c := cron.New(cron.WithLocation(s.loc))
	if _, err := c.AddFunc(s.spec, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule job: %w", err)
	}

	s.runOnce(ctx)
	c.Start()
	s.log.WithField("schedule", s.spec).Info("scheduler: started")

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	s.log.Info("scheduler: shutting down")
	return nil
}

func (s *Scheduler) runOnce(parent context.Context) bool {
	if !s.mu.TryLock() {
		s.log.Warn("scheduler: previous pass still running, skipping tick")
		return false
	}
	defer s.mu.Unlock()

	if parent.Err() != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.log.WithError(err).Error("scheduler: pass failed")
		return true
	}
	s.log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("scheduler: pass complete")
	return true
}
