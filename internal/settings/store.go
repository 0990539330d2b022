// Package settings is the key/value persistence used by the timer, the decks
// and the alarm. Values are JSON; every failure degrades to the caller's
// default and is never surfaced.
package settings

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"pomodisc/backend/internal/model"
)

const (
	KeyWorkMinutes       = "pomodisc:workMinutes"
	KeyShortBreakMinutes = "pomodisc:shortBreakMinutes"
	KeyLongBreakMinutes  = "pomodisc:longBreakMinutes"
	KeyTotalCycles       = "pomodisc:totalCycles"
	KeyLongBreakInterval = "pomodisc:longBreakInterval"
	KeyAlarmEnabled      = "pomodisc:alarmEnabled"

	legacyBreakURLKey = "pomodisc:breakUrl"
)

func DeckURLKey(t model.SessionType) string {
	return "pomodisc:" + string(t) + "Url"
}

func DeckSourceKey(t model.SessionType) string {
	return "pomodisc:" + string(t) + "AudioSource"
}

func DeckTrackKey(t model.SessionType) string {
	return "pomodisc:" + string(t) + "LibraryTrackId"
}

// Backend is the durable side of the store.
type Backend interface {
	All(ctx context.Context) (map[string]string, error)
	Put(ctx context.Context, key, value string) error
	Rename(ctx context.Context, from, to string) (bool, error)
}

// Store keeps every value in memory and writes through to the backend. It is
// confined to the event loop, like its callers.
type Store struct {
	backend Backend
	logger  *slog.Logger
	values  map[string]string
	timeout time.Duration
}

// Open loads every stored value. A backend that cannot be read leaves the
// store empty, so every Get falls back to its default.
func Open(ctx context.Context, backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		backend: backend,
		logger:  logger,
		values:  make(map[string]string),
		timeout: 2 * time.Second,
	}

	values, err := backend.All(ctx)
	if err != nil {
		logger.Warn("settings unavailable, using defaults", "error", err)
		return s
	}
	s.values = values
	return s
}

// Get decodes the value stored under key into dst. It reports false, leaving
// dst untouched, when the key is absent or the stored value does not decode.
func (s *Store) Get(key string, dst any) bool {
	raw, ok := s.values[key]
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.logger.Debug("ignoring corrupt setting", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Store) Set(key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("setting not serialisable", "key", key, "error", err)
		return
	}
	s.values[key] = string(raw)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.backend.Put(ctx, key, string(raw)); err != nil {
		s.logger.Warn("setting not persisted", "key", key, "error", err)
	}
}

// Int returns the integer stored under key, or def.
func (s *Store) Int(key string, def int) int {
	var f float64
	if !s.Get(key, &f) {
		return def
	}
	return int(f)
}

func (s *Store) String(key string, def string) string {
	v := def
	if !s.Get(key, &v) {
		return def
	}
	return v
}

func (s *Store) Bool(key string, def bool) bool {
	v := def
	if !s.Get(key, &v) {
		return def
	}
	return v
}

// MigrateLegacy moves the single-break URL of older configurations onto the
// short-break deck. The legacy key is removed either way.
func MigrateLegacy(ctx context.Context, backend Backend) (bool, error) {
	return backend.Rename(ctx, legacyBreakURLKey, DeckURLKey(model.SessionShortBreak))
}
