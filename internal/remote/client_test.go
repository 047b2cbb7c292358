package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockmon/internal/domain"
)

func TestCheckSuccess(t *testing.T) {
	var gotKey string
	var gotBody domain.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/check-alerts" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		gotKey = r.Header.Get("X-API-Key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"alerts":[{"ticker":"AAPL","type":"buy","threshold":170,"reached":168.5,"current":172.3}],
			"errors":[],
			"market_open":true,
			"service_degraded":false,
			"checked_at":"2024-02-06T14:30:00Z"
		}`))
	}))
	defer srv.Close()

	client := New(Options{Endpoint: srv.URL + "/", APIKey: "secret", Timeout: time.Second}, zerolog.Nop())
	result, err := client.Check(context.Background(), domain.Request{
		"AAPL": {Buy: domain.Float(170)},
	})

	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey)
	require.Contains(t, gotBody, "AAPL")
	assert.Equal(t, 170.0, *gotBody["AAPL"].Buy)
	assert.Nil(t, gotBody["AAPL"].Sell)

	require.Len(t, result.Alerts, 1)
	assert.Equal(t, domain.AlertBuy, result.Alerts[0].Type)
	assert.True(t, result.MarketOpen)
	assert.Equal(t, time.Date(2024, 2, 6, 14, 30, 0, 0, time.UTC), result.CheckedAt.UTC())
}

func TestCheckStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   error
	}{
		{http.StatusUnauthorized, `{"detail":"Invalid API key"}`, domain.ErrAuth},
		{http.StatusForbidden, ``, domain.ErrAuth},
		{http.StatusUnprocessableEntity, `{"detail":[{"msg":"too many tickers"}]}`, domain.ErrValidation},
		{http.StatusBadRequest, `bad`, domain.ErrValidation},
		{http.StatusRequestTimeout, ``, domain.ErrTransient},
		{http.StatusTooManyRequests, ``, domain.ErrTransient},
		{http.StatusBadGateway, `upstream`, domain.ErrTransient},
		{http.StatusInternalServerError, `{"detail":"API key not configured"}`, domain.ErrTransient},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))

		client := New(Options{Endpoint: srv.URL, APIKey: "k"}, zerolog.Nop())
		_, err := client.Check(context.Background(), domain.Request{"AAPL": {Buy: domain.Float(1)}})
		srv.Close()

		require.Error(t, err, "status %d", tc.status)
		assert.ErrorIs(t, err, tc.want, "status %d", tc.status)
	}
}

func TestCheckDetailMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid API key"}`))
	}))
	defer srv.Close()

	client := New(Options{Endpoint: srv.URL}, zerolog.Nop())
	_, err := client.Check(context.Background(), domain.Request{})
	assert.ErrorContains(t, err, "evaluation api error (401): Invalid API key")
}

func TestCheckUndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway</html>`))
	}))
	defer srv.Close()

	client := New(Options{Endpoint: srv.URL}, zerolog.Nop())
	_, err := client.Check(context.Background(), domain.Request{})
	assert.ErrorIs(t, err, domain.ErrTransient)
}

func TestCheckTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	client := New(Options{Endpoint: srv.URL, Timeout: 50 * time.Millisecond}, zerolog.Nop())
	_, err := client.Check(context.Background(), domain.Request{})
	assert.ErrorIs(t, err, domain.ErrTransient)
}

func TestCheckConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := New(Options{Endpoint: url, Timeout: time.Second}, zerolog.Nop())
	_, err := client.Check(context.Background(), domain.Request{})
	assert.ErrorIs(t, err, domain.ErrTransient)
}

func TestEndpointResolution(t *testing.T) {
	assert.Equal(t, "https://api.example.com/check-alerts", New(Options{Endpoint: "https://api.example.com"}, zerolog.Nop()).Endpoint())
	assert.Equal(t, "https://api.example.com/check-alerts", New(Options{Endpoint: "https://api.example.com/check-alerts/"}, zerolog.Nop()).Endpoint())
}
