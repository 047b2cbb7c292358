package fetcher

import (
	"context"
	"errors"

	"stockmon/internal/domain"
)

var (
	// ErrInvalidTicker means the provider returned no history for the symbol.
	ErrInvalidTicker = errors.New("invalid ticker")
	// ErrNoPriceData means history exists but carries no usable bars.
	ErrNoPriceData = errors.New("no valid price data")
	// ErrFetchTimeout means the provider did not answer within the fetch timeout.
	ErrFetchTimeout = errors.New("fetch timeout")
)

// WindowFetcher resolves the lookback price window of a single ticker.
type WindowFetcher interface {
	FetchWindow(ctx context.Context, ticker string) (domain.PriceWindow, error)
}
