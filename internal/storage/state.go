package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"stockmon/internal/dedup"
)

// FileStore persists the notification state as a flat JSON object of
// key -> ISO-8601 timestamp.
type FileStore struct {
	path   string
	logger zerolog.Logger
}

// NewFileStore builds a store for the state file at path.
func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger.With().Str("component", "state_store").Str("path", path).Logger(),
	}
}

// Path returns the state file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the state file. A missing, unreadable or malformed file yields
// an empty state and a warning; it never fails the run.
func (s *FileStore) Load() dedup.State {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug().Msg("state file absent; starting with empty notification history")
		} else {
			s.logger.Warn().Err(err).Msg("cannot read state file; starting with empty notification history")
		}
		return dedup.State{}
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return dedup.State{}
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.logger.Warn().Err(err).Msg("state file is corrupted; starting with empty notification history")
		return dedup.State{}
	}

	state := make(dedup.State, len(entries))
	for key, value := range entries {
		ts, err := decodeTimestamp(value)
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("dropping unreadable state entry")
			continue
		}
		state[key] = ts
	}
	return state
}

// Save writes state to a temporary file beside the target and renames it
// into place, so a crash never leaves a truncated state file behind.
func (s *FileStore) Save(state dedup.State) error {
	payload, err := encodeState(state)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("commit state file: %w", err)
	}
	committed = true

	s.logger.Debug().Int("entries", len(state)).Msg("state committed")
	return nil
}

// Entry is one persisted record, used for display.
type Entry struct {
	Key          string
	LastNotified time.Time
}

// Entries returns the state's records sorted by key.
func Entries(state dedup.State) []Entry {
	entries := make([]Entry, 0, len(state))
	for key, ts := range state {
		entries = append(entries, Entry{Key: key, LastNotified: ts})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

func encodeState(state dedup.State) ([]byte, error) {
	out := make(map[string]string, len(state))
	for key, ts := range state {
		out[key] = ts.UTC().Format(time.RFC3339Nano)
	}
	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return append(payload, '\n'), nil
}

// decodeTimestamp accepts RFC 3339 strings and, for files written by the
// legacy client, Unix epoch seconds.
func decodeTimestamp(raw json.RawMessage) (time.Time, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		ts, err := time.Parse(time.RFC3339Nano, text)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: %w", text, err)
		}
		return ts.UTC(), nil
	}

	var epoch float64
	if err := json.Unmarshal(raw, &epoch); err != nil {
		return time.Time{}, fmt.Errorf("unsupported timestamp value %s", string(raw))
	}
	if math.IsNaN(epoch) || math.IsInf(epoch, 0) {
		return time.Time{}, fmt.Errorf("unsupported timestamp value %s", string(raw))
	}
	sec, frac := math.Modf(epoch)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
}
