package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockmon/internal/domain"
	"stockmon/internal/evaluator"
)

type stubFetcher map[string]domain.PriceWindow

func (s stubFetcher) FetchWindow(_ context.Context, ticker string) (domain.PriceWindow, error) {
	w, ok := s[ticker]
	if !ok {
		return domain.PriceWindow{}, assert.AnError
	}
	return w, nil
}

type openClock struct{}

func (openClock) IsOpen(time.Time) bool { return true }

func newTestServer(apiKey string) *Server {
	checker := evaluator.NewChecker(stubFetcher{
		"AAPL": {Ticker: "AAPL", Min: 168.5, Max: 185, Current: 172.3},
	}, openClock{}, evaluator.CheckerOptions{}, zerolog.Nop())
	return New(Config{APIKey: apiKey}, checker, zerolog.Nop())
}

func do(t *testing.T, srv *Server, method, path, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthAndInfo(t *testing.T) {
	srv := newTestServer("secret")

	rec := do(t, srv, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var info map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "StockMon API", info["name"])
	assert.NotEmpty(t, info["version"])
}

func TestCheckAlertsAuth(t *testing.T) {
	srv := newTestServer("secret")
	body := `{"AAPL":{"buy":170}}`

	rec := do(t, srv, http.MethodPost, "/check-alerts", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"Missing API key"}`, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/check-alerts", "wrong", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"Invalid API key"}`, rec.Body.String())

	rec = do(t, newTestServer(""), http.MethodPost, "/check-alerts", "anything", body)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCheckAlertsSuccess(t *testing.T) {
	srv := newTestServer("secret")

	rec := do(t, srv, http.MethodPost, "/check-alerts", "secret", `{"AAPL":{"buy":170,"sell":190},"NOPE":{"buy":1}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result domain.CheckResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.MarketOpen)
	assert.False(t, result.ServiceDegraded)
	require.Len(t, result.Alerts, 1)
	assert.Equal(t, domain.Alert{Ticker: "AAPL", Type: domain.AlertBuy, Threshold: 170, Reached: 168.5, Current: 172.3}, result.Alerts[0])
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "NOPE", result.Errors[0].Ticker)
}

func TestCheckAlertsValidation(t *testing.T) {
	srv := newTestServer("secret")

	tickers := make(map[string]map[string]float64, 21)
	for i := 0; i < 21; i++ {
		tickers[string(rune('A'+i))+"X"] = map[string]float64{"buy": 1}
	}
	body, err := json.Marshal(tickers)
	require.NoError(t, err)

	rec := do(t, srv, http.MethodPost, "/check-alerts", "secret", string(body))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, srv, http.MethodPost, "/check-alerts", "secret", `{"AAPL":{"buy":-5}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, srv, http.MethodPost, "/check-alerts", "secret", `not json`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
