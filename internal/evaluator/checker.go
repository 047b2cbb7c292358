package evaluator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"stockmon/internal/domain"
	"stockmon/internal/fetcher"
)

// MarketClock gates evaluation on trading hours.
type MarketClock interface {
	IsOpen(now time.Time) bool
}

// CheckerOptions tune the evaluation pass.
type CheckerOptions struct {
	Concurrency int
	Now         func() time.Time
}

// Checker evaluates a request against freshly fetched price windows.
type Checker struct {
	fetcher     fetcher.WindowFetcher
	clock       MarketClock
	concurrency int
	now         func() time.Time
	logger      zerolog.Logger
}

// NewChecker wires a fetcher and market clock into a Checker.
func NewChecker(f fetcher.WindowFetcher, clock MarketClock, opts CheckerOptions, logger zerolog.Logger) *Checker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 5
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Checker{
		fetcher:     f,
		clock:       clock,
		concurrency: opts.Concurrency,
		now:         opts.Now,
		logger:      logger.With().Str("component", "evaluator").Logger(),
	}
}

// Check validates req, gates on the market clock, fetches every ticker and
// classifies the results. Only validation failures are returned as errors;
// per-ticker failures land in CheckResult.Errors.
func (c *Checker) Check(ctx context.Context, req domain.Request) (domain.CheckResult, error) {
	if err := Validate(req); err != nil {
		return domain.CheckResult{}, err
	}

	checkedAt := c.now().UTC()
	if !c.clock.IsOpen(checkedAt) {
		c.logger.Info().Time("checked_at", checkedAt).Msg("market closed; skipping fetch")
		return domain.ClosedResult(checkedAt), nil
	}

	outcomes := c.fetchAll(ctx, req)
	if err := ctx.Err(); err != nil {
		return domain.CheckResult{}, fmt.Errorf("%w: evaluation aborted: %v", domain.ErrTransient, err)
	}
	alerts, errs := Evaluate(req, outcomes)

	result := domain.CheckResult{
		Alerts:          alerts,
		Errors:          errs,
		MarketOpen:      true,
		ServiceDegraded: IsDegraded(len(errs), len(req)),
		CheckedAt:       checkedAt,
	}

	c.logger.Info().
		Int("tickers", len(req)).
		Int("alerts", len(result.Alerts)).
		Int("errors", len(result.Errors)).
		Bool("service_degraded", result.ServiceDegraded).
		Msg("evaluation complete")
	return result, nil
}

func (c *Checker) fetchAll(ctx context.Context, req domain.Request) map[string]Outcome {
	tickers := SortedTickers(req)
	slots := make([]Outcome, len(tickers))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, ticker := range tickers {
		g.Go(func() error {
			window, err := c.fetcher.FetchWindow(ctx, ticker)
			if err != nil {
				c.logger.Warn().Err(err).Str("ticker", ticker).Msg("ticker fetch failed")
			}
			slots[i] = Outcome{Window: window, Err: err}
			// never fail the group: one ticker must not cancel the others
			return nil
		})
	}
	_ = g.Wait()

	outcomes := make(map[string]Outcome, len(tickers))
	for i, ticker := range tickers {
		outcomes[ticker] = slots[i]
	}
	return outcomes
}
