package remote

import (
	"testing"

	"pomodisc/backend/internal/media"
	"pomodisc/backend/internal/model"
	"pomodisc/backend/internal/stream"
)

func drain(l *stream.Listener[Command]) []Command {
	var out []Command
	for {
		select {
		case cmd := <-l.C:
			out = append(out, cmd)
		default:
			return out
		}
	}
}

func actions(cmds []Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = string(c.Deck) + ":" + c.Action
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func inline(fn func()) { fn() }

func TestFactoryReadyTracksShells(t *testing.T) {
	hub := NewHub(nil)
	f := NewFactory(hub, inline)
	if f.Ready() {
		t.Fatal("factory must not be ready without a shell")
	}

	connects := 0
	hub.OnConnect(func() { connects++ })

	l1 := hub.Subscribe()
	l2 := hub.Subscribe()
	if !f.Ready() {
		t.Fatal("factory should be ready with a shell")
	}
	if connects != 1 {
		t.Fatalf("OnConnect fired %d times, want 1", connects)
	}

	hub.Unsubscribe(l1)
	hub.Unsubscribe(l2)
	if f.Ready() {
		t.Fatal("factory must not be ready after the last shell left")
	}
}

func TestPlayerCommands(t *testing.T) {
	hub := NewHub(nil)
	shell := hub.Subscribe()
	f := NewFactory(hub, inline)
	p := f.NewPlayer(model.SessionWork, func(int) {})

	p.Play()
	if got := drain(shell); len(got) != 0 {
		t.Fatalf("commands before Create must be dropped, got %v", actions(got))
	}

	p.Create(media.Reference{Kind: model.SourceYouTube, ID: "dQw4w9WgXcQ"})
	p.SetVolume(140)
	p.Play()
	p.Load(media.Reference{Kind: model.SourceYouTube, ID: "aaaaaaaaaaa"})
	p.SeekToStart()
	p.Pause()
	p.Stop()
	p.Destroy()
	p.Play()

	got := drain(shell)
	want := []string{
		"work:create", "work:volume", "work:play", "work:cue",
		"work:seek", "work:pause", "work:stop", "work:destroy",
	}
	if !equal(actions(got), want) {
		t.Fatalf("commands = %v, want %v", actions(got), want)
	}
	if got[0].VideoID != "dQw4w9WgXcQ" || got[3].VideoID != "aaaaaaaaaaa" {
		t.Fatalf("video ids not carried: %+v", got)
	}
	if got[1].Volume == nil || *got[1].Volume != 100 {
		t.Fatalf("volume must be clamped to 100, got %+v", got[1].Volume)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Seq <= got[i-1].Seq {
			t.Fatalf("sequence not increasing at %d", i)
		}
	}
}

func TestLateShellReceivesReplay(t *testing.T) {
	hub := NewHub(nil)
	f := NewFactory(hub, inline)
	work := f.NewPlayer(model.SessionWork, func(int) {})
	brk := f.NewPlayer(model.SessionShortBreak, func(int) {})
	gone := f.NewPlayer(model.SessionLongBreak, func(int) {})

	work.Create(media.Reference{ID: "dQw4w9WgXcQ"})
	brk.Create(media.Reference{ID: "bbbbbbbbbbb"})
	gone.Create(media.Reference{ID: "ccccccccccc"})
	work.SetVolume(40)
	work.Play()
	brk.Load(media.Reference{ID: "ddddddddddd"})
	gone.Destroy()

	shell := hub.Subscribe()
	got := drain(shell)
	want := []string{"work:create", "shortBreak:create", "work:volume", "work:play"}
	if !equal(actions(got), want) {
		t.Fatalf("replay = %v, want %v", actions(got), want)
	}
	if got[1].VideoID != "ddddddddddd" {
		t.Fatalf("replay should carry the cued video, got %s", got[1].VideoID)
	}
}

func TestReportRoutesErrors(t *testing.T) {
	hub := NewHub(nil)
	f := NewFactory(hub, inline)

	var codes []int
	p := f.NewPlayer(model.SessionShortBreak, func(code int) { codes = append(codes, code) })

	if f.Report(model.SessionWork, 5) {
		t.Fatal("report for a deck without player should fail")
	}

	f.Report(model.SessionShortBreak, 150)
	if len(codes) != 0 {
		t.Fatal("errors before Create must be ignored")
	}

	p.Create(media.Reference{ID: "dQw4w9WgXcQ"})
	if !f.Report(model.SessionShortBreak, 150) {
		t.Fatal("report should be accepted")
	}
	if len(codes) != 1 || codes[0] != 150 {
		t.Fatalf("codes = %v, want [150]", codes)
	}

	p.Destroy()
	f.Report(model.SessionShortBreak, 2)
	if len(codes) != 1 {
		t.Fatalf("errors after Destroy must be ignored, got %v", codes)
	}
}
