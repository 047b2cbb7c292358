package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockmon/internal/dedup"
	"stockmon/internal/domain"
	"stockmon/internal/service"
)

// NotifyTest pushes a synthetic alert through the configured channels. The
// persisted notification state is neither read nor written.
func (a *App) NotifyTest(ctx context.Context, opts NotifyTestOptions) error {
	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("no notification channel enabled")
	}

	alertType := domain.AlertType(strings.ToLower(opts.Type))
	if alertType != domain.AlertBuy && alertType != domain.AlertSell {
		return fmt.Errorf("alert type must be buy or sell, got %q", opts.Type)
	}
	if opts.Price <= 0 {
		opts.Price = 100
	}

	alert := domain.Alert{
		Ticker:    strings.ToUpper(opts.Ticker),
		Type:      alertType,
		Threshold: opts.Price,
		Reached:   opts.Price,
		Current:   opts.Price,
	}

	svc := service.New(&staticEvaluator{alert: alert, now: a.now}, nil, &scratchStore{}, notifier, service.Options{
		Tickers:   domain.Request{alert.Ticker: {}},
		Recipient: a.Config.Email.Recipient,
		Now:       a.now,
	}, a.Logger)

	report, err := svc.RunOnce(ctx)
	if err != nil {
		return err
	}
	for _, d := range report.Decisions {
		if d.Err != nil {
			return fmt.Errorf("deliver %s: %w", d.Key, d.Err)
		}
		fmt.Fprintf(a.Out, "sent %q\n", d.Message.Subject)
	}
	return nil
}

type staticEvaluator struct {
	alert domain.Alert
	now   func() time.Time
}

func (s *staticEvaluator) Check(context.Context, domain.Request) (domain.CheckResult, error) {
	return domain.CheckResult{
		Alerts:     []domain.Alert{s.alert},
		Errors:     []domain.TickerError{},
		MarketOpen: true,
		CheckedAt:  s.now().UTC(),
	}, nil
}

// scratchStore keeps state in memory for the lifetime of one synthetic run.
type scratchStore struct {
	state dedup.State
}

func (s *scratchStore) Load() dedup.State { return s.state.Clone() }

func (s *scratchStore) Save(state dedup.State) error {
	s.state = state
	return nil
}

var (
	_ service.Evaluator  = (*staticEvaluator)(nil)
	_ service.StateStore = (*scratchStore)(nil)
)
