package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stockmon/internal/domain"
)

const checkAlertsPath = "/check-alerts"

// Options parameterise the evaluation API client.
type Options struct {
	Endpoint  string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
}

// Client calls a remote evaluation API.
type Client struct {
	opts     Options
	logger   zerolog.Logger
	client   *http.Client
	endpoint string
}

// New constructs a remote evaluation client. The endpoint may be the API base
// URL or the full check-alerts URL.
func New(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	endpoint := strings.TrimRight(opts.Endpoint, "/")
	if !strings.HasSuffix(endpoint, checkAlertsPath) {
		endpoint += checkAlertsPath
	}

	return &Client{
		opts:     opts,
		logger:   logger.With().Str("component", "remote_evaluator").Logger(),
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
	}
}

// Endpoint returns the resolved check-alerts URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Check submits req and decodes the evaluation result. Failures are wrapped in
// domain.ErrAuth, domain.ErrValidation or domain.ErrTransient.
func (c *Client) Check(ctx context.Context, req domain.Request) (domain.CheckResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.CheckResult{}, fmt.Errorf("%w: encode request: %v", domain.ErrValidation, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.CheckResult{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-API-Key", c.opts.APIKey)
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		httpReq.Header.Set("User-Agent", ua)
	} else {
		httpReq.Header.Set("User-Agent", "stockmon/1.0")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return domain.CheckResult{}, fmt.Errorf("%w: %v", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.CheckResult{}, fmt.Errorf("%w: read response: %v", domain.ErrTransient, err)
	}

	if resp.StatusCode != http.StatusOK {
		return domain.CheckResult{}, parseHTTPError(resp.StatusCode, payload)
	}

	var result domain.CheckResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return domain.CheckResult{}, fmt.Errorf("%w: decode response: %v", domain.ErrTransient, err)
	}
	if result.Alerts == nil {
		result.Alerts = []domain.Alert{}
	}
	if result.Errors == nil {
		result.Errors = []domain.TickerError{}
	}

	c.logger.Debug().
		Int("alerts", len(result.Alerts)).
		Int("errors", len(result.Errors)).
		Bool("market_open", result.MarketOpen).
		Msg("evaluation received")

	return result, nil
}

type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

func parseHTTPError(status int, payload []byte) error {
	kind := classifyStatus(status)

	detail := strings.TrimSpace(string(payload))
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil && len(apiErr.Detail) > 0 {
		var msg string
		if err := json.Unmarshal(apiErr.Detail, &msg); err == nil {
			detail = msg
		} else {
			detail = string(apiErr.Detail)
		}
	}

	if detail != "" {
		return fmt.Errorf("%w: evaluation api error (%d): %s", kind, status, detail)
	}
	return fmt.Errorf("%w: evaluation api error (%d)", kind, status)
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return domain.ErrAuth
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return domain.ErrValidation
	default:
		return domain.ErrTransient
	}
}
