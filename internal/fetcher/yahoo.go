package fetcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"stockmon/internal/domain"
)

// YahooOptions parameterise the Yahoo Finance fetcher.
type YahooOptions struct {
	Period   string
	Interval string
	Timeout  time.Duration
}

type historyFunc func(symbol string, params models.HistoryParams) ([]models.Bar, error)

// Yahoo fetches hourly bars from Yahoo Finance and reduces them to a PriceWindow.
type Yahoo struct {
	opts    YahooOptions
	logger  zerolog.Logger
	history historyFunc
}

// NewYahoo constructs a Yahoo Finance fetcher.
func NewYahoo(opts YahooOptions, logger zerolog.Logger) *Yahoo {
	if opts.Period == "" {
		opts.Period = "1d"
	}
	if opts.Interval == "" {
		opts.Interval = "1h"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	return &Yahoo{
		opts:    opts,
		logger:  logger.With().Str("component", "yahoo_fetcher").Logger(),
		history: yahooHistory,
	}
}

// FetchWindow retrieves the configured lookback for ticker.
func (y *Yahoo) FetchWindow(ctx context.Context, symbol string) (domain.PriceWindow, error) {
	ctx, cancel := context.WithTimeout(ctx, y.opts.Timeout)
	defer cancel()

	params := models.HistoryParams{
		Period:     y.opts.Period,
		Interval:   y.opts.Interval,
		AutoAdjust: true,
	}

	type outcome struct {
		bars []models.Bar
		err  error
	}
	// go-yfinance has no context support; the buffered channel lets the
	// worker finish and exit after we stop waiting.
	done := make(chan outcome, 1)
	go func() {
		bars, err := y.history(symbol, params)
		done <- outcome{bars: bars, err: err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.PriceWindow{}, fmt.Errorf("%w: %s exceeded %s", ErrFetchTimeout, symbol, y.opts.Timeout)
		}
		return domain.PriceWindow{}, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return domain.PriceWindow{}, fmt.Errorf("history %s: %w", symbol, res.err)
		}
		window, err := WindowFromBars(symbol, res.bars)
		if err != nil {
			return domain.PriceWindow{}, err
		}
		y.logger.Debug().Str("ticker", symbol).
			Int("bars", len(res.bars)).
			Float64("min", window.Min).
			Float64("max", window.Max).
			Float64("current", window.Current).
			Msg("price window fetched")
		return window, nil
	}
}

// WindowFromBars reduces bars to min(Low), max(High) and the last Close,
// skipping bars that carry NaN or non-positive prices.
func WindowFromBars(symbol string, bars []models.Bar) (domain.PriceWindow, error) {
	if len(bars) == 0 {
		return domain.PriceWindow{}, fmt.Errorf("%w: no data available for %q", ErrInvalidTicker, symbol)
	}

	window := domain.PriceWindow{
		Ticker: symbol,
		Min:    math.Inf(1),
		Max:    math.Inf(-1),
	}
	valid := 0
	for _, bar := range bars {
		if !usable(bar.Low) || !usable(bar.High) || !usable(bar.Close) {
			continue
		}
		valid++
		window.Min = math.Min(window.Min, bar.Low)
		window.Max = math.Max(window.Max, bar.High)
		window.Current = bar.Close
	}

	if valid == 0 {
		return domain.PriceWindow{}, fmt.Errorf("%w for %q; the market may be closed", ErrNoPriceData, symbol)
	}
	return window, nil
}

func usable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

func yahooHistory(symbol string, params models.HistoryParams) ([]models.Bar, error) {
	t, err := ticker.New(strings.ToUpper(strings.TrimSpace(symbol)))
	if err != nil {
		return nil, fmt.Errorf("create ticker: %w", err)
	}
	defer t.Close()

	return t.History(params)
}

var _ WindowFetcher = (*Yahoo)(nil)
