package app

import (
	"context"
	"errors"
	"time"

	"stockmon/internal/scheduler"
)

// Watch runs check on the configured cron schedule until interrupted.
func (a *App) Watch(ctx context.Context) error {
	ctx, cancel := signalContext(ctx)
	defer cancel()

	clock, err := a.newClock()
	if err != nil {
		return err
	}

	sched, err := scheduler.New(scheduler.Options{
		Spec:       a.Config.Scheduler.Cron,
		Location:   clock.Location(),
		RunOnStart: a.Config.Scheduler.RunOnStart,
	}, a.Logger)
	if err != nil {
		return err
	}

	svc, err := a.newService(false)
	if err != nil {
		return err
	}

	a.Logger.Info().Msg("starting watch loop")
	err = sched.Run(ctx, func(ctx context.Context, _ time.Time) error {
		report, err := svc.RunOnce(ctx)
		a.Logger.Info().Str("outcome", string(report.Outcome)).Msg("scheduled check finished")
		return err
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	a.Logger.Info().Msg("watch loop stopped")
	return nil
}
