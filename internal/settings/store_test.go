package settings

import (
	"context"
	"errors"
	"testing"

	"pomodisc/backend/internal/model"
)

type brokenBackend struct{}

func (brokenBackend) All(ctx context.Context) (map[string]string, error) {
	return nil, errors.New("disk on fire")
}
func (brokenBackend) Put(ctx context.Context, key, value string) error { return errors.New("nope") }
func (brokenBackend) Rename(ctx context.Context, from, to string) (bool, error) {
	return false, errors.New("nope")
}

func TestStoreFallsBackOnCorruptValues(t *testing.T) {
	mem := NewMemory(map[string]string{
		KeyWorkMinutes:  "{not json",
		KeyTotalCycles:  `"six"`,
		KeyAlarmEnabled: "false",
	})
	s := Open(context.Background(), mem, nil)

	if got := s.Int(KeyWorkMinutes, 25); got != 25 {
		t.Errorf("corrupt value should fall back: got %d", got)
	}
	if got := s.Int(KeyTotalCycles, 4); got != 4 {
		t.Errorf("wrong type should fall back: got %d", got)
	}
	if got := s.Bool(KeyAlarmEnabled, true); got {
		t.Errorf("stored false should win over default")
	}
	if got := s.String(DeckURLKey(model.SessionWork), "dflt"); got != "dflt" {
		t.Errorf("missing key should use default, got %q", got)
	}
}

func TestStoreSetWritesThrough(t *testing.T) {
	mem := NewMemory(nil)
	s := Open(context.Background(), mem, nil)

	s.Set(KeyWorkMinutes, 50)
	s.Set(DeckURLKey(model.SessionLongBreak), "https://youtu.be/dQw4w9WgXcQ")

	if raw, _ := mem.Value(KeyWorkMinutes); raw != "50" {
		t.Errorf("backend value = %q, want 50", raw)
	}
	if raw, _ := mem.Value("pomodisc:longBreakUrl"); raw != `"https://youtu.be/dQw4w9WgXcQ"` {
		t.Errorf("backend url = %q", raw)
	}
	if got := s.Int(KeyWorkMinutes, 0); got != 50 {
		t.Errorf("cached value = %d, want 50", got)
	}
}

func TestStoreSurvivesBrokenBackend(t *testing.T) {
	s := Open(context.Background(), brokenBackend{}, nil)
	s.Set(KeyWorkMinutes, 40)

	if got := s.Int(KeyWorkMinutes, 25); got != 40 {
		t.Errorf("in-memory value should survive a failed write, got %d", got)
	}
}

func TestMigrateLegacy(t *testing.T) {
	mem := NewMemory(map[string]string{"pomodisc:breakUrl": `"dQw4w9WgXcQ"`})

	copied, err := MigrateLegacy(context.Background(), mem)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !copied {
		t.Fatal("expected legacy url to be copied")
	}
	if raw, ok := mem.Value("pomodisc:shortBreakUrl"); !ok || raw != `"dQw4w9WgXcQ"` {
		t.Fatalf("short break url = %q", raw)
	}
	if _, ok := mem.Value("pomodisc:breakUrl"); ok {
		t.Fatal("legacy key should be deleted")
	}

	copied, err = MigrateLegacy(context.Background(), mem)
	if err != nil || copied {
		t.Fatalf("second run should be a no-op, got copied=%v err=%v", copied, err)
	}
}

func TestDeckKeys(t *testing.T) {
	if got := DeckSourceKey(model.SessionShortBreak); got != "pomodisc:shortBreakAudioSource" {
		t.Errorf("source key = %s", got)
	}
	if got := DeckTrackKey(model.SessionWork); got != "pomodisc:workLibraryTrackId" {
		t.Errorf("track key = %s", got)
	}
}
