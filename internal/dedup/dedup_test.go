package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stockmon/internal/domain"
)

var t0 = time.Date(2024, 2, 6, 15, 0, 0, 0, time.UTC)

func TestKey(t *testing.T) {
	assert.Equal(t, "AAPL:buy", Key("AAPL", domain.AlertBuy))
	assert.Equal(t, "MSFT:sell", AlertKey(domain.Alert{Ticker: "MSFT", Type: domain.AlertSell}))
}

func TestShouldNotifyWithoutRecord(t *testing.T) {
	d := New(48 * time.Hour)
	assert.True(t, d.ShouldNotify(State{}, "AAPL:buy", t0))
}

func TestSilenceWindowBoundaries(t *testing.T) {
	d := New(SilenceHours(48))
	state := State{"AAPL:buy": t0}

	assert.False(t, d.ShouldNotify(state, "AAPL:buy", t0))
	assert.False(t, d.ShouldNotify(state, "AAPL:buy", t0.Add(10*time.Hour)))
	assert.False(t, d.ShouldNotify(state, "AAPL:buy", t0.Add(48*time.Hour-time.Nanosecond)))
	assert.True(t, d.ShouldNotify(state, "AAPL:buy", t0.Add(48*time.Hour)))
	assert.True(t, d.ShouldNotify(state, "AAPL:buy", t0.Add(49*time.Hour)))

	// other keys are independent
	assert.True(t, d.ShouldNotify(state, "AAPL:sell", t0))
	assert.True(t, d.ShouldNotify(state, DegradedKey, t0))
}

func TestSuppressedThenEligibleAfterWindow(t *testing.T) {
	d := New(SilenceHours(48))
	state := State{"AAPL:buy": t0}

	at10h := t0.Add(10 * time.Hour)
	assert.False(t, d.ShouldNotify(state, "AAPL:buy", at10h))
	assert.Equal(t, State{"AAPL:buy": t0}, state)

	at49h := t0.Add(49 * time.Hour)
	assert.True(t, d.ShouldNotify(state, "AAPL:buy", at49h))
	state = Record(state, "AAPL:buy", at49h)
	assert.Equal(t, at49h, state["AAPL:buy"])
}

func TestPrune(t *testing.T) {
	d := New(48 * time.Hour)
	state := State{
		"OLD:buy":    t0.Add(-50 * time.Hour),
		"EDGE:buy":   t0.Add(-48 * time.Hour),
		"RECENT:buy": t0.Add(-24 * time.Hour),
	}

	pruned := d.Prune(state, t0)

	assert.Equal(t, State{
		"EDGE:buy":   t0.Add(-48 * time.Hour),
		"RECENT:buy": t0.Add(-24 * time.Hour),
	}, pruned)
	assert.Len(t, state, 3, "input must not be mutated")
}

func TestPruneDoesNotChangeDecisions(t *testing.T) {
	d := New(48 * time.Hour)
	state := State{
		"A:buy": t0.Add(-72 * time.Hour),
		"B:buy": t0.Add(-48 * time.Hour),
		"C:buy": t0.Add(-1 * time.Hour),
	}
	pruned := d.Prune(state, t0)

	for _, key := range []string{"A:buy", "B:buy", "C:buy", "D:buy"} {
		assert.Equal(t, d.ShouldNotify(state, key, t0), d.ShouldNotify(pruned, key, t0), key)
	}
}

func TestRecordDoesNotMutateInput(t *testing.T) {
	state := State{}
	next := Record(state, DegradedKey, t0)

	assert.Empty(t, state)
	assert.Equal(t, t0, next[DegradedKey])
}
