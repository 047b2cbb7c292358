package domain

import (
	"strings"
	"time"
)

// MaxTickersPerRequest bounds a single evaluation request.
const MaxTickersPerRequest = 20

// AlertType distinguishes buy from sell signals.
type AlertType string

const (
	AlertBuy  AlertType = "buy"
	AlertSell AlertType = "sell"
)

// Label renders the type for humans (BUY / SELL).
func (t AlertType) Label() string {
	return strings.ToUpper(string(t))
}

// ThresholdSpec holds the optional, independent price bounds of one ticker.
type ThresholdSpec struct {
	Buy  *float64 `json:"buy,omitempty" mapstructure:"buy"`
	Sell *float64 `json:"sell,omitempty" mapstructure:"sell"`
}

// Request maps ticker symbols to their thresholds.
type Request map[string]ThresholdSpec

// PriceWindow summarises the lookback window of one ticker.
type PriceWindow struct {
	Ticker  string
	Min     float64
	Max     float64
	Current float64
}

// Alert is a threshold crossing detected within a price window.
type Alert struct {
	Ticker    string    `json:"ticker"`
	Type      AlertType `json:"type"`
	Threshold float64   `json:"threshold"`
	Reached   float64   `json:"reached"`
	Current   float64   `json:"current"`
}

// TickerError isolates the failure of a single ticker.
type TickerError struct {
	Ticker string `json:"ticker"`
	Reason string `json:"error"`
}

// CheckResult is the complete output of one evaluation pass.
type CheckResult struct {
	Alerts          []Alert       `json:"alerts"`
	Errors          []TickerError `json:"errors"`
	MarketOpen      bool          `json:"market_open"`
	ServiceDegraded bool          `json:"service_degraded"`
	CheckedAt       time.Time     `json:"checked_at"`
}

// ClosedResult is the short-circuit result produced outside trading hours.
func ClosedResult(checkedAt time.Time) CheckResult {
	return CheckResult{
		Alerts:    []Alert{},
		Errors:    []TickerError{},
		CheckedAt: checkedAt,
	}
}

// Float returns a pointer to v, handy for building ThresholdSpec literals.
func Float(v float64) *float64 {
	return &v
}
