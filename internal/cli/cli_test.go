package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"pomodisc/backend/internal/model"
)

// fakeDaemon records what the CLI sent and answers with canned payloads.
type fakeDaemon struct {
	srv *httptest.Server

	mu   sync.Mutex
	seen request
}

type request struct {
	path string
	auth string
	body map[string]any
}

func (d *fakeDaemon) last() request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen
}

func sampleView() StateView {
	urlError := "Not a valid YouTube URL"
	return StateView{
		State: model.TimerState{
			SessionType:       model.SessionWork,
			Status:            model.StatusRunning,
			RemainingSeconds:  1453,
			CurrentCycle:      2,
			TotalCycles:       4,
			LongBreakInterval: 4,
			WorkMinutes:       25,
			ShortBreakMinutes: 5,
			LongBreakMinutes:  15,
			ThreePhase:        true,
		},
		Decks: []model.DeckView{
			{SessionType: model.SessionWork, SourceKind: model.SourceYouTube, URL: "https://youtu.be/dQw4w9WgXcQ", Created: true, Active: true},
			{SessionType: model.SessionShortBreak, SourceKind: model.SourceLibrary, LibraryTrackID: "rain", Created: true},
			{SessionType: model.SessionLongBreak, SourceKind: model.SourceYouTube, URL: "nope", URLError: &urlError},
		},
		AlarmEnabled: true,
	}
}

func newFakeDaemon(t *testing.T) *fakeDaemon {
	t.Helper()
	d := &fakeDaemon{}

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		req := request{path: r.Method + " " + r.URL.RequestURI(), auth: r.Header.Get("Authorization")}
		_ = json.NewDecoder(r.Body).Decode(&req.body)
		d.mu.Lock()
		d.seen = req
		d.mu.Unlock()

		view := sampleView()
		switch {
		case r.URL.Path == "/api/timer/state", r.URL.Path == "/api/timer/settings", r.URL.Path == "/api/player/error":
			writeJSON(w, http.StatusOK, view)
		case r.URL.Path == "/api/timer/start":
			writeJSON(w, http.StatusOK, view)
		case r.URL.Path == "/api/timer/resume":
			writeJSON(w, http.StatusOK, view)
		case r.URL.Path == "/api/timer/pause":
			view.State.Status = model.StatusPaused
			writeJSON(w, http.StatusOK, view)
		case r.URL.Path == "/api/alarm":
			view.AlarmEnabled = req.body["enabled"] == true
			writeJSON(w, http.StatusOK, view)
		case r.URL.Path == "/api/decks/coffee":
			writeJSON(w, http.StatusNotFound, map[string]any{
				"error": map[string]any{"code": "unknown_deck", "message": "unknown deck"},
			})
		case strings.HasPrefix(r.URL.Path, "/api/decks/"):
			writeJSON(w, http.StatusOK, map[string]any{"deck": model.DeckView{
				SessionType:    model.SessionLongBreak,
				SourceKind:     model.SourceLibrary,
				LibraryTrackID: "jazz",
			}})
		case r.URL.Path == "/api/library/tracks":
			writeJSON(w, http.StatusOK, map[string]any{"tracks": []Track{
				{ID: "rain", Label: "Rain", Src: "/audio/rain.mp3"},
				{ID: "jazz", Label: "Jazz", Src: "/audio/jazz.mp3"},
			}})
		case r.URL.Path == "/api/history":
			writeJSON(w, http.StatusOK, map[string]any{"phases": []model.PhaseRecord{
				{ID: "a", SessionType: model.SessionWork, Cycle: 1, PlannedSeconds: 1500, ActualSeconds: 610, Status: model.PhaseCancelled},
			}})
		case r.URL.Path == "/api/auth/login":
			if req.body["password"] != "hunter22" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{
					"error": map[string]any{"code": "unauthorized", "message": "invalid password"},
				})
				return
			}
			writeJSON(w, http.StatusOK, LoginResult{Token: "tok-123"})
		case r.URL.Path == "/api/timer/events":
			w.Header().Set("Content-Type", "text/event-stream")
			for _, status := range []model.TimerStatus{model.StatusRunning, model.StatusPaused} {
				v := sampleView()
				v.State.Status = status
				payload, _ := json.Marshal(v)
				fmt.Fprintf(w, "event:ping\ndata:{}\n\nevent:state\ndata:%s\n\n", payload)
			}
		default:
			http.NotFound(w, r)
		}
	})

	d.srv = httptest.NewServer(mux)
	t.Cleanup(d.srv.Close)
	return d
}

// run executes pomoctl against the fake daemon with an empty home directory.
func (d *fakeDaemon) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("POMOCTL_SERVER", "")
	t.Setenv("POMOCTL_TOKEN", "")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--server", d.srv.URL}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestStatusPrintsTimerAndDecks(t *testing.T) {
	d := newFakeDaemon(t)

	out, err := d.run(t, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{
		"work running 24:13  cycle 2/4",
		"long break 15m every 4",
		"* work",
		"rain",
		"! Not a valid YouTube URL",
		"alarm: on",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestActionCommands(t *testing.T) {
	d := newFakeDaemon(t)

	tests := []struct {
		action string
		want   string
	}{
		{"start", "work running"},
		{"pause", "work paused"},
		{"resume", "work running"},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			out, err := d.run(t, tt.action)
			if err != nil {
				t.Fatalf("%s: %v", tt.action, err)
			}
			if d.last().path != "POST /api/timer/"+tt.action {
				t.Errorf("request = %q", d.last().path)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestSettingsSendsOnlyChangedFlags(t *testing.T) {
	d := newFakeDaemon(t)

	if _, err := d.run(t, "settings", "--work", "50", "--cycles", "6"); err != nil {
		t.Fatalf("settings: %v", err)
	}
	if d.last().path != "PUT /api/timer/settings" {
		t.Fatalf("request = %q", d.last().path)
	}
	if len(d.last().body) != 2 || d.last().body["workMinutes"] != 50.0 || d.last().body["totalCycles"] != 6.0 {
		t.Fatalf("body = %v", d.last().body)
	}

	if _, err := d.run(t, "settings"); err == nil {
		t.Fatal("expected an error without flags")
	}
}

func TestDeckSet(t *testing.T) {
	d := newFakeDaemon(t)

	out, err := d.run(t, "deck", "set", "longBreak", "--source", "library", "--track", "jazz")
	if err != nil {
		t.Fatalf("deck set: %v", err)
	}
	if d.last().path != "PUT /api/decks/longBreak" {
		t.Fatalf("request = %q", d.last().path)
	}
	if d.last().body["source"] != "library" || d.last().body["libraryTrackId"] != "jazz" {
		t.Fatalf("body = %v", d.last().body)
	}
	if _, sent := d.last().body["url"]; sent {
		t.Fatal("url must not be sent when not given")
	}
	if !strings.Contains(out, "longBreak: library jazz") {
		t.Fatalf("output = %q", out)
	}

	// An explicit empty URL clears the deck.
	if _, err := d.run(t, "deck", "set", "work", "--url", ""); err != nil {
		t.Fatalf("clear url: %v", err)
	}
	if v, sent := d.last().body["url"]; !sent || v != "" {
		t.Fatalf("body = %v", d.last().body)
	}
}

func TestDeckSetSurfacesAPIError(t *testing.T) {
	d := newFakeDaemon(t)

	_, err := d.run(t, "deck", "set", "coffee", "--url", "x")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "unknown_deck") || !strings.Contains(err.Error(), "404") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeckListAndTracks(t *testing.T) {
	d := newFakeDaemon(t)

	out, err := d.run(t, "deck", "list")
	if err != nil {
		t.Fatalf("deck list: %v", err)
	}
	if !strings.Contains(out, "DECK") || !strings.Contains(out, "active") {
		t.Fatalf("output = %q", out)
	}

	out, err = d.run(t, "tracks")
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}
	if !strings.Contains(out, "rain") || !strings.Contains(out, "Jazz") {
		t.Fatalf("output = %q", out)
	}
}

func TestAlarm(t *testing.T) {
	d := newFakeDaemon(t)

	out, err := d.run(t, "alarm", "off")
	if err != nil {
		t.Fatalf("alarm off: %v", err)
	}
	if d.last().body["enabled"] != false || !strings.Contains(out, "alarm: off") {
		t.Fatalf("body = %v, output = %q", d.last().body, out)
	}

	if _, err := d.run(t, "alarm", "maybe"); err == nil {
		t.Fatal("expected an error for an invalid argument")
	}
}

func TestHistory(t *testing.T) {
	d := newFakeDaemon(t)

	out, err := d.run(t, "history", "-n", "5")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if d.last().path != "GET /api/history?limit=5" {
		t.Fatalf("request = %q", d.last().path)
	}
	if !strings.Contains(out, "10:10/25:00") || !strings.Contains(out, "cancelled") {
		t.Fatalf("output = %q", out)
	}
}

func TestJSONOutput(t *testing.T) {
	d := newFakeDaemon(t)

	out, err := d.run(t, "--json", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var view StateView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if view.State.RemainingSeconds != 1453 || len(view.Decks) != 3 {
		t.Fatalf("view = %+v", view)
	}
}

func TestWatchPrintsStateEvents(t *testing.T) {
	d := newFakeDaemon(t)

	out, err := d.run(t, "watch")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two state lines, got %q", out)
	}
	if !strings.Contains(lines[0], "running") || !strings.Contains(lines[1], "paused") {
		t.Fatalf("lines = %q", lines)
	}
}

func TestLoginSavesToken(t *testing.T) {
	d := newFakeDaemon(t)
	cfg := filepath.Join(t.TempDir(), "pomoctl.yaml")

	if _, err := d.run(t, "--config", cfg, "login", "wrong"); err == nil || !strings.Contains(err.Error(), "unauthorized") {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	out, err := d.run(t, "--config", cfg, "login", "--save", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Token saved to "+cfg) {
		t.Fatalf("output = %q", out)
	}
	raw, err := os.ReadFile(cfg)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(raw), "tok-123") {
		t.Fatalf("config = %s", raw)
	}

	// The saved token is sent on later calls.
	if _, err := d.run(t, "--config", cfg, "status"); err != nil {
		t.Fatalf("status: %v", err)
	}
	if d.last().auth != "Bearer tok-123" {
		t.Fatalf("authorization = %q", d.last().auth)
	}
}

func TestTokenFlagOverridesConfig(t *testing.T) {
	d := newFakeDaemon(t)

	if _, err := d.run(t, "--token", "flag-token", "status"); err != nil {
		t.Fatalf("status: %v", err)
	}
	if d.last().auth != "Bearer flag-token" {
		t.Fatalf("authorization = %q", d.last().auth)
	}
}

func TestVersionCommand(t *testing.T) {
	origVersion, origCommit, origDate := appVersion, appCommit, appDate
	defer func() { appVersion, appCommit, appDate = origVersion, origCommit, origDate }()
	SetVersionInfo("1.2.3", "abc1234", "2026-10-01")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out.String(), "pomoctl 1.2.3") || !strings.Contains(out.String(), "abc1234") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestUnknownCommand(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"nonexistent-command"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "00:00"},
		{59, "00:59"},
		{1500, "25:00"},
		{-3, "00:00"},
	}
	for _, tt := range tests {
		if got := formatClock(tt.in); got != tt.want {
			t.Errorf("formatClock(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
