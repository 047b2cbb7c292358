package app

import (
	"context"
	"errors"
	"time"

	"stockmon/internal/httpapi"
)

// Serve runs the evaluation API until interrupted.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signalContext(ctx)
	defer cancel()

	clock, err := a.newClock()
	if err != nil {
		return err
	}
	if a.Config.Server.APIKey == "" {
		a.Logger.Warn().Msg("server.api_key not configured; /check-alerts will answer 500")
	}

	srv := httpapi.New(httpapi.Config{
		Addr:         a.Config.Server.Addr,
		APIKey:       a.Config.Server.APIKey,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}, a.newChecker(clock), a.Logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return <-errCh
}
