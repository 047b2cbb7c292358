// Package dedup decides whether an alert may be notified again, given the
// time it was last delivered and a silence window.
package dedup

import (
	"time"

	"stockmon/internal/domain"
)

// DegradedKey is the reserved state key for the service-degraded warning.
const DegradedKey = "_service_degraded"

// State maps notification keys to the time they were last delivered.
type State map[string]time.Time

// Clone returns an independent copy of s.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Key builds the state key of a ticker alert, e.g. "AAPL:buy".
func Key(ticker string, t domain.AlertType) string {
	return ticker + ":" + string(t)
}

// AlertKey is Key applied to an alert.
func AlertKey(a domain.Alert) string {
	return Key(a.Ticker, a.Type)
}

// Deduplicator applies a fixed silence window.
type Deduplicator struct {
	window time.Duration
}

// New builds a Deduplicator for the given silence window.
func New(window time.Duration) *Deduplicator {
	return &Deduplicator{window: window}
}

// SilenceHours converts a fractional hour count into a window.
func SilenceHours(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}

// Window returns the silence window.
func (d *Deduplicator) Window() time.Duration {
	return d.window
}

// ShouldNotify is true when key has no record or its record is at least one
// window old. An expired record and a missing record are equivalent.
func (d *Deduplicator) ShouldNotify(state State, key string, now time.Time) bool {
	last, ok := state[key]
	if !ok {
		return true
	}
	return now.Sub(last) >= d.window
}

// Prune returns a copy of state without records older than the window.
func (d *Deduplicator) Prune(state State, now time.Time) State {
	out := make(State, len(state))
	for key, last := range state {
		if now.Sub(last) > d.window {
			continue
		}
		out[key] = last
	}
	return out
}

// Record returns a copy of state with key stamped at now. Call it only after
// the notifier confirmed delivery.
func Record(state State, key string, now time.Time) State {
	out := state.Clone()
	out[key] = now
	return out
}
