package fetcher

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wnjoon/go-yfinance/pkg/models"
)

func TestWindowFromBars(t *testing.T) {
	bars := []models.Bar{
		{Low: 170.1, High: 171.0, Close: 170.5},
		{Low: 168.5, High: 174.2, Close: 173.0},
		{Low: math.NaN(), High: math.NaN(), Close: math.NaN()},
		{Low: 171.9, High: 185.0, Close: 172.3},
	}

	window, err := WindowFromBars("AAPL", bars)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", window.Ticker)
	assert.Equal(t, 168.5, window.Min)
	assert.Equal(t, 185.0, window.Max)
	assert.Equal(t, 172.3, window.Current)
}

func TestWindowFromBarsEmpty(t *testing.T) {
	_, err := WindowFromBars("NOPE", nil)
	assert.ErrorIs(t, err, ErrInvalidTicker)
}

func TestWindowFromBarsAllInvalid(t *testing.T) {
	bars := []models.Bar{
		{Low: math.NaN(), High: 10, Close: 10},
		{Low: 0, High: 0, Close: 0},
	}
	_, err := WindowFromBars("AAPL", bars)
	assert.ErrorIs(t, err, ErrNoPriceData)
}

func TestYahooFetchWindowUsesHistory(t *testing.T) {
	y := NewYahoo(YahooOptions{}, zerolog.Nop())

	var gotParams models.HistoryParams
	y.history = func(symbol string, params models.HistoryParams) ([]models.Bar, error) {
		gotParams = params
		return []models.Bar{{Low: 1, High: 3, Close: 2}}, nil
	}

	window, err := y.FetchWindow(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, 1.0, window.Min)
	assert.Equal(t, "1d", gotParams.Period)
	assert.Equal(t, "1h", gotParams.Interval)
}

func TestYahooFetchWindowProviderError(t *testing.T) {
	y := NewYahoo(YahooOptions{}, zerolog.Nop())
	boom := errors.New("upstream 500")
	y.history = func(string, models.HistoryParams) ([]models.Bar, error) {
		return nil, boom
	}

	_, err := y.FetchWindow(context.Background(), "MSFT")
	assert.ErrorIs(t, err, boom)
}

func TestYahooFetchWindowTimeout(t *testing.T) {
	y := NewYahoo(YahooOptions{Timeout: 20 * time.Millisecond}, zerolog.Nop())
	release := make(chan struct{})
	defer close(release)
	y.history = func(string, models.HistoryParams) ([]models.Bar, error) {
		<-release
		return nil, nil
	}

	_, err := y.FetchWindow(context.Background(), "SLOW")
	assert.ErrorIs(t, err, ErrFetchTimeout)
}
