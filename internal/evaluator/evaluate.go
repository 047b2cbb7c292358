package evaluator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"stockmon/internal/domain"
	"stockmon/internal/fetcher"
)

// Outcome is the resolved fetch of one ticker: a window or a failure.
type Outcome struct {
	Window domain.PriceWindow
	Err    error
}

// Validate rejects oversized or malformed requests before any fetch.
func Validate(req domain.Request) error {
	if len(req) > domain.MaxTickersPerRequest {
		return fmt.Errorf("%w: maximum %d tickers allowed per request, received %d",
			domain.ErrValidation, domain.MaxTickersPerRequest, len(req))
	}
	for ticker, spec := range req {
		if strings.TrimSpace(ticker) == "" {
			return fmt.Errorf("%w: empty ticker symbol", domain.ErrValidation)
		}
		if err := validThreshold(spec.Buy); err != nil {
			return fmt.Errorf("%w: %s buy %v", domain.ErrValidation, ticker, err)
		}
		if err := validThreshold(spec.Sell); err != nil {
			return fmt.Errorf("%w: %s sell %v", domain.ErrValidation, ticker, err)
		}
	}
	return nil
}

func validThreshold(v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
		return errors.New("threshold must be a finite number greater than 0")
	}
	return nil
}

// Classify turns one ticker's thresholds and window into zero, one or two alerts.
// Bounds are inclusive and compared without tolerance.
func Classify(ticker string, spec domain.ThresholdSpec, window domain.PriceWindow) []domain.Alert {
	alerts := make([]domain.Alert, 0, 2)
	if spec.Buy != nil && window.Min <= *spec.Buy {
		alerts = append(alerts, domain.Alert{
			Ticker:    ticker,
			Type:      domain.AlertBuy,
			Threshold: *spec.Buy,
			Reached:   window.Min,
			Current:   window.Current,
		})
	}
	if spec.Sell != nil && window.Max >= *spec.Sell {
		alerts = append(alerts, domain.Alert{
			Ticker:    ticker,
			Type:      domain.AlertSell,
			Threshold: *spec.Sell,
			Reached:   window.Max,
			Current:   window.Current,
		})
	}
	return alerts
}

// Evaluate joins per-ticker outcomes with the request by ticker identity.
// A ticker without an outcome is reported as an error, never dropped.
func Evaluate(req domain.Request, outcomes map[string]Outcome) ([]domain.Alert, []domain.TickerError) {
	alerts := make([]domain.Alert, 0)
	errs := make([]domain.TickerError, 0)

	for _, ticker := range SortedTickers(req) {
		outcome, ok := outcomes[ticker]
		if !ok {
			errs = append(errs, domain.TickerError{Ticker: ticker, Reason: "Unexpected error: no data resolved"})
			continue
		}
		if outcome.Err != nil {
			errs = append(errs, domain.TickerError{Ticker: ticker, Reason: Reason(outcome.Err)})
			continue
		}
		alerts = append(alerts, Classify(ticker, req[ticker], outcome.Window)...)
	}
	return alerts, errs
}

// Reason renders a fetch failure the way the evaluation API reports it.
func Reason(err error) string {
	switch {
	case errors.Is(err, fetcher.ErrInvalidTicker):
		return "Invalid ticker: " + err.Error()
	case errors.Is(err, fetcher.ErrNoPriceData):
		return "Market closed: " + err.Error()
	case errors.Is(err, fetcher.ErrFetchTimeout), errors.Is(err, context.DeadlineExceeded):
		return "Timeout: " + err.Error()
	default:
		return "Unexpected error: " + err.Error()
	}
}

// SortedTickers returns the request's symbols in ascending order.
func SortedTickers(req domain.Request) []string {
	tickers := make([]string, 0, len(req))
	for ticker := range req {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	return tickers
}
