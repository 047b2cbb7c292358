package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// TickFunc is invoked on every scheduled fire.
type TickFunc func(ctx context.Context, fired time.Time) error

// Options tune scheduler behaviour.
type Options struct {
	// Spec is a standard five-field cron expression or a descriptor such as "@every 15m".
	Spec       string
	Location   *time.Location
	RunOnStart bool
}

// Scheduler drives cron-scheduled runs. A tick is skipped while the
// previous one is still running.
type Scheduler struct {
	opts     Options
	schedule cron.Schedule
	logger   zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) (*Scheduler, error) {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	schedule, err := cron.ParseStandard(opts.Spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", opts.Spec, err)
	}
	return &Scheduler{
		opts:     opts,
		schedule: schedule,
		logger:   logger.With().Str("component", "scheduler").Logger(),
	}, nil
}

// Next reports the first fire time after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.opts.Location))
}

// Run blocks, invoking tick on schedule until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	run := func() {
		fired := time.Now().In(s.opts.Location)
		s.logger.Info().Time("fired", fired).Msg("executing scheduled tick")
		if err := tick(ctx, fired); err != nil {
			s.logger.Error().Err(err).Time("fired", fired).Msg("tick execution failed")
		}
	}

	c := cron.New(
		cron.WithLocation(s.opts.Location),
		cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	c.Schedule(s.schedule, cron.FuncJob(run))

	if s.opts.RunOnStart {
		run()
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	c.Start()
	s.logger.Info().
		Str("schedule", s.opts.Spec).
		Time("next", s.Next(time.Now())).
		Msg("scheduler started")

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	s.logger.Info().Msg("scheduler stopped")
	return ctx.Err()
}
