package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockmon/internal/dedup"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "notified.json"), zerolog.Nop())
}

func TestLoadMissingFile(t *testing.T) {
	store := newTestStore(t)
	assert.Empty(t, store.Load())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ts := time.Date(2024, 2, 6, 14, 30, 0, 123000000, time.UTC)
	state := dedup.State{
		"AAPL:buy":        ts,
		dedup.DegradedKey: ts.Add(time.Hour),
	}

	require.NoError(t, store.Save(state))
	loaded := store.Load()

	require.Len(t, loaded, 2)
	assert.True(t, ts.Equal(loaded["AAPL:buy"]))
	assert.True(t, ts.Add(time.Hour).Equal(loaded[dedup.DegradedKey]))
}

func TestSaveWritesISOTimestamps(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(dedup.State{"AAPL:buy": time.Date(2024, 2, 6, 14, 30, 0, 0, time.UTC)}))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{"AAPL:buy":"2024-02-06T14:30:00Z"}`, string(raw))
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(dedup.State{"A:buy": time.Now()}))
	require.NoError(t, store.Save(dedup.State{"B:sell": time.Now()}))

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "notified.json", entries[0].Name())
}

func TestLoadCorruptedFileIsEmpty(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"AAPL:buy": "2024-02`), 0o644))

	assert.Empty(t, store.Load())
}

func TestLoadEmptyFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("  \n"), 0o644))

	assert.Empty(t, store.Load())
}

func TestLoadLegacyEpochAndBadEntries(t *testing.T) {
	store := newTestStore(t)
	content := `{"AAPL:buy": 1707229800.5, "MSFT:sell": "not-a-date", "GOOG:buy": "2024-02-06T14:30:00Z", "X:buy": true}`
	require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0o644))

	state := store.Load()

	require.Len(t, state, 2)
	assert.Equal(t, time.Unix(1707229800, 500000000).UTC(), state["AAPL:buy"])
	assert.Equal(t, time.Date(2024, 2, 6, 14, 30, 0, 0, time.UTC), state["GOOG:buy"])
}

func TestEntriesSorted(t *testing.T) {
	now := time.Now()
	entries := Entries(dedup.State{"b": now, "a": now, "c": now})

	require.Len(t, entries, 3)
	assert.Equal(t, "a", entries[0].Key)
	assert.Equal(t, "c", entries[2].Key)
}
