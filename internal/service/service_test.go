package service

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"pomodisc/backend/internal/clock"
	"pomodisc/backend/internal/db"
	"pomodisc/backend/internal/media"
	"pomodisc/backend/internal/model"
	"pomodisc/backend/internal/repository"
	"pomodisc/backend/internal/settings"
)

type recordingPlayer struct {
	playing bool
	onError func(int)
}

func (p *recordingPlayer) Create(media.Reference) {}
func (p *recordingPlayer) Load(media.Reference)   {}
func (p *recordingPlayer) Play()                  { p.playing = true }
func (p *recordingPlayer) Pause()                 { p.playing = false }
func (p *recordingPlayer) Stop()                  { p.playing = false }
func (p *recordingPlayer) SetVolume(int)          {}
func (p *recordingPlayer) SeekToStart()           {}
func (p *recordingPlayer) Destroy()               { p.playing = false }

type recordingFactory struct {
	players map[model.SessionType]*recordingPlayer
}

func (f *recordingFactory) Kind() model.SourceKind { return model.SourceYouTube }
func (f *recordingFactory) Ready() bool            { return true }
func (f *recordingFactory) NewPlayer(deck model.SessionType, onError func(int)) media.Player {
	p := &recordingPlayer{onError: onError}
	f.players[deck] = p
	return p
}

// Report mimics the remote factory: the error reaches the deck's callback.
func (f *recordingFactory) Report(deck model.SessionType, code int) bool {
	p, ok := f.players[deck]
	if !ok {
		return false
	}
	p.onError(code)
	return true
}

type fixture struct {
	svc     *PomodoroService
	clock   *clock.Fake
	mem     *settings.Memory
	factory *recordingFactory
}

func newFixture(t *testing.T, seed map[string]string) *fixture {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})
	if err := db.RunMigrations(database, db.MigrationSource("")); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	if seed == nil {
		seed = map[string]string{
			settings.KeyWorkMinutes:                      "1",
			settings.KeyShortBreakMinutes:                "1",
			settings.KeyTotalCycles:                      "1",
			settings.DeckURLKey(model.SessionWork):       `"dQw4w9WgXcQ"`,
			settings.DeckURLKey(model.SessionShortBreak): `"aaaaaaaaaaa"`,
		}
	}
	mem := settings.NewMemory(seed)
	fake := clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	factory := &recordingFactory{players: make(map[model.SessionType]*recordingPlayer)}

	svc := NewPomodoroService(Deps{
		Loop:       fake,
		Store:      settings.Open(context.Background(), mem, nil),
		Phases:     repository.NewPhaseRepository(database),
		Catalog:    media.DefaultCatalog(t.TempDir()),
		Factories:  []media.Factory{factory},
		Remote:     factory,
		ThreePhase: true,
	})
	t.Cleanup(svc.Close)
	return &fixture{svc: svc, clock: fake, mem: mem, factory: factory}
}

func TestStartPlaysWorkDeck(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	view := f.svc.Start(ctx)
	if view.State.Status != model.StatusRunning {
		t.Fatalf("status = %s, want running", view.State.Status)
	}
	if !f.factory.players[model.SessionWork].playing {
		t.Fatal("work deck should play once the run starts")
	}
	if f.factory.players[model.SessionShortBreak].playing {
		t.Fatal("break deck must stay silent")
	}
	if !view.Decks[0].Active || view.Decks[1].Active {
		t.Fatalf("unexpected active decks %+v", view.Decks)
	}

	again := f.svc.Start(ctx)
	if again.State.RemainingSeconds != view.State.RemainingSeconds {
		t.Fatal("Start while running must not restart the phase")
	}
}

func TestPauseResumeReset(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.svc.Start(ctx)
	f.clock.Advance(10 * time.Second)

	paused := f.svc.Pause(ctx)
	if paused.State.Status != model.StatusPaused || paused.State.RemainingSeconds != 50 {
		t.Fatalf("paused state %+v", paused.State)
	}
	if f.factory.players[model.SessionWork].playing {
		t.Fatal("pause should pause the deck")
	}

	resumed := f.svc.Resume(ctx)
	if resumed.State.Status != model.StatusRunning || !f.factory.players[model.SessionWork].playing {
		t.Fatal("resume should restart the active deck")
	}

	reset := f.svc.Reset(ctx)
	if reset.State.Status != model.StatusIdle || reset.State.RemainingSeconds != 60 {
		t.Fatalf("reset state %+v", reset.State)
	}

	records, apiErr := f.svc.GetHistory(ctx, 10)
	if apiErr != nil {
		t.Fatalf("history: %v", apiErr)
	}
	if len(records) != 1 || records[0].Status != model.PhaseCancelled || records[0].ActualSeconds != 10 {
		t.Fatalf("unexpected history %+v", records)
	}
}

func TestCompletedRunIsRecorded(t *testing.T) {
	f := newFixture(t, map[string]string{
		settings.KeyWorkMinutes:       "1",
		settings.KeyShortBreakMinutes: "1",
		settings.KeyTotalCycles:       "2",
	})
	ctx := context.Background()

	f.svc.Start(ctx)
	f.clock.Advance(3*time.Minute + time.Second)

	state := f.svc.GetState(ctx).State
	if !state.IsComplete || state.Status != model.StatusIdle {
		t.Fatalf("run should be complete, got %+v", state)
	}

	records, apiErr := f.svc.GetHistory(ctx, 10)
	if apiErr != nil {
		t.Fatalf("history: %v", apiErr)
	}
	if len(records) != 3 {
		t.Fatalf("expected work, break, work; got %d records", len(records))
	}
	for _, r := range records {
		if r.Status != model.PhaseCompleted || r.ActualSeconds != r.PlannedSeconds {
			t.Fatalf("unexpected record %+v", r)
		}
	}
	if records[0].SessionType != model.SessionWork || records[0].Cycle != 2 {
		t.Fatalf("newest record should be the last work phase, got %+v", records[0])
	}
}

func TestUpdateSettingsClamps(t *testing.T) {
	f := newFixture(t, nil)
	work, cycles := 500.0, 0.0

	view := f.svc.UpdateSettings(context.Background(), UpdateSettingsInput{
		WorkMinutes: &work,
		TotalCycles: &cycles,
	})
	if view.State.WorkMinutes != 90 || view.State.RemainingSeconds != 90*60 {
		t.Fatalf("work not clamped: %+v", view.State)
	}
	if view.State.TotalCycles != 1 {
		t.Fatalf("cycles not clamped: %d", view.State.TotalCycles)
	}
	if raw, _ := f.mem.Value(settings.KeyWorkMinutes); raw != "90" {
		t.Fatalf("stored %q", raw)
	}
}

func TestUpdateDeckErrors(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	bad := "vinyl"
	track := "nope"

	tests := []struct {
		name   string
		deck   string
		input  UpdateDeckInput
		status int
		code   string
	}{
		{"unknown deck", "coffee", UpdateDeckInput{}, http.StatusNotFound, "unknown_deck"},
		{"unknown source", "work", UpdateDeckInput{Source: &bad}, http.StatusBadRequest, "unknown_source"},
		{"unknown track", "work", UpdateDeckInput{LibraryTrackID: &track}, http.StatusBadRequest, "unknown_track"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, apiErr := f.svc.UpdateDeck(ctx, tt.deck, tt.input)
			if apiErr == nil {
				t.Fatal("expected an error")
			}
			if apiErr.Status != tt.status || apiErr.Code != tt.code {
				t.Fatalf("got %d %s, want %d %s", apiErr.Status, apiErr.Code, tt.status, tt.code)
			}
		})
	}
}

func TestUpdateDeckSwitchAndPick(t *testing.T) {
	f := newFixture(t, nil)
	source, track := "library", "jazz"

	view, apiErr := f.svc.UpdateDeck(context.Background(), "longBreak", UpdateDeckInput{
		Source:         &source,
		LibraryTrackID: &track,
	})
	if apiErr != nil {
		t.Fatalf("update deck: %v", apiErr)
	}
	if view.SourceKind != model.SourceLibrary || view.LibraryTrackID != "jazz" {
		t.Fatalf("unexpected view %+v", view)
	}
	if raw, _ := f.mem.Value(settings.DeckTrackKey(model.SessionLongBreak)); raw != `"jazz"` {
		t.Fatalf("track not persisted: %s", raw)
	}
}

func TestPlayerEvents(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if apiErr := f.svc.PlayerEvent(ctx, "work", "error", 150); apiErr != nil {
		t.Fatalf("error event: %v", apiErr)
	}
	view := f.svc.GetState(ctx)
	if view.PlayerError == nil || *view.PlayerError != media.ErrorMessage(model.SourceYouTube, 150) {
		t.Fatalf("player error not latched: %+v", view.PlayerError)
	}

	cleared := f.svc.ClearPlayerError(ctx)
	if cleared.PlayerError != nil {
		t.Fatal("player error not cleared")
	}

	if apiErr := f.svc.PlayerEvent(ctx, "longBreak", "error", 5); apiErr == nil || apiErr.Code != "no_player" {
		t.Fatalf("expected no_player, got %v", apiErr)
	}
	if apiErr := f.svc.PlayerEvent(ctx, "work", "exploded", 0); apiErr == nil || apiErr.Code != "invalid_event" {
		t.Fatalf("expected invalid_event, got %v", apiErr)
	}
	if apiErr := f.svc.PlayerEvent(ctx, "work", "ready", 0); apiErr != nil {
		t.Fatalf("ready event: %v", apiErr)
	}
}

func TestAlarmToggle(t *testing.T) {
	f := newFixture(t, nil)
	view := f.svc.SetAlarm(context.Background(), false)
	if view.AlarmEnabled {
		t.Fatal("alarm still enabled")
	}
	if raw, _ := f.mem.Value(settings.KeyAlarmEnabled); raw != "false" {
		t.Fatalf("stored %q", raw)
	}
}

func TestSubscribeStreamsChanges(t *testing.T) {
	f := newFixture(t, nil)
	l := f.svc.Subscribe()
	defer f.svc.Unsubscribe(l)

	first := <-l.C
	if first.State.Status != model.StatusIdle {
		t.Fatalf("first view = %+v", first.State)
	}

	f.svc.Start(context.Background())
	var got []StateView
	for len(l.C) > 0 {
		got = append(got, <-l.C)
	}
	if len(got) == 0 || got[len(got)-1].State.Status != model.StatusRunning {
		t.Fatalf("start not streamed: %+v", got)
	}

	// Ticks within the same second publish nothing.
	f.clock.Advance(250 * time.Millisecond)
	if len(l.C) != 0 {
		t.Fatalf("unchanged tick streamed %d views", len(l.C))
	}
	f.clock.Advance(time.Second)
	if len(l.C) == 0 {
		t.Fatal("changed remaining time not streamed")
	}
}
