package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"pomodisc/backend/internal/alarm"
	"pomodisc/backend/internal/clock"
	"pomodisc/backend/internal/deck"
	apperrors "pomodisc/backend/internal/errors"
	"pomodisc/backend/internal/media"
	"pomodisc/backend/internal/model"
	"pomodisc/backend/internal/repository"
	"pomodisc/backend/internal/settings"
	"pomodisc/backend/internal/stream"
	"pomodisc/backend/internal/timer"
)

// PlayerReporter routes an error code a shell observed to the deck's player.
type PlayerReporter interface {
	Report(deck model.SessionType, code int) bool
}

// Deps is everything the service wires together.
type Deps struct {
	Loop         clock.Scheduler
	Store        *settings.Store
	Phases       *repository.PhaseRepository
	Catalog      *media.Catalog
	Factories    []media.Factory
	Remote       PlayerReporter
	AlarmCue     media.Player
	AlarmRef     media.Reference
	ThreePhase   bool
	TickInterval time.Duration
	Logger       *slog.Logger
}

// PomodoroService is the action surface of the daemon. Every method hops onto
// the event loop, so handlers may call it from any goroutine.
type PomodoroService struct {
	loop    clock.Scheduler
	engine  *timer.Engine
	decks   *deck.Controller
	alarm   *alarm.Alarm
	history *HistoryRecorder
	catalog *media.Catalog
	remote  PlayerReporter
	logger  *slog.Logger

	views     *stream.Broadcaster[StateView]
	published model.TimerState
}

type StateView struct {
	State        model.TimerState `json:"state"`
	Decks        []model.DeckView `json:"decks"`
	PlayerError  *string          `json:"playerError"`
	AlarmEnabled bool             `json:"alarmEnabled"`
	ServerTime   time.Time        `json:"serverTime"`
}

// UpdateSettingsInput carries the fields to change; nil fields are kept.
type UpdateSettingsInput struct {
	WorkMinutes       *float64
	ShortBreakMinutes *float64
	LongBreakMinutes  *float64
	TotalCycles       *float64
	LongBreakInterval *float64
}

type UpdateDeckInput struct {
	URL            *string
	Source         *string
	LibraryTrackID *string
}

// NewPomodoroService builds the engine, the deck controller, the alarm and
// the history recorder on the loop and subscribes them to the engine in that
// order. The loop must already be running.
func NewPomodoroService(d Deps) *PomodoroService {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	s := &PomodoroService{
		loop:    d.Loop,
		catalog: d.Catalog,
		remote:  d.Remote,
		logger:  d.Logger,
		views:   stream.NewBroadcaster[StateView](16),
	}
	d.Loop.Do(func() {
		s.engine = timer.NewEngine(d.Loop, d.Store, timer.Options{
			ThreePhase:   d.ThreePhase,
			TickInterval: d.TickInterval,
		})
		initial := s.engine.Snapshot()
		s.decks = deck.NewController(d.Loop, d.Store, d.Catalog, d.Factories, initial,
			deck.Options{ThreePhase: d.ThreePhase}, d.Logger.With("component", "deck"))
		s.alarm = alarm.New(d.Store, d.AlarmCue, d.AlarmRef, initial.SessionType, d.Logger.With("component", "alarm"))
		s.history = NewHistoryRecorder(d.Loop, d.Phases, initial, d.Logger.With("component", "history"))

		s.engine.Subscribe(s.decks.Observe)
		s.engine.Subscribe(s.alarm.Observe)
		s.engine.Subscribe(s.history.Observe)
		s.engine.Subscribe(s.onState)
		s.published = initial
	})
	return s
}

func (s *PomodoroService) GetState(ctx context.Context) StateView {
	var view StateView
	s.loop.Do(func() { view = s.view() })
	return view
}

// Start is the user action that begins a run. Players are initialised before
// the engine starts so the work deck is already playing when the first
// snapshot arrives.
func (s *PomodoroService) Start(ctx context.Context) StateView {
	return s.act(func() {
		if s.engine.Snapshot().Status != model.StatusIdle {
			return
		}
		s.decks.InitializePlayers()
		s.engine.Start()
	})
}

func (s *PomodoroService) Pause(ctx context.Context) StateView {
	return s.act(s.engine.Pause)
}

func (s *PomodoroService) Resume(ctx context.Context) StateView {
	return s.act(s.engine.Resume)
}

func (s *PomodoroService) Reset(ctx context.Context) StateView {
	return s.act(s.engine.Reset)
}

func (s *PomodoroService) UpdateSettings(ctx context.Context, input UpdateSettingsInput) StateView {
	return s.act(func() {
		if input.WorkMinutes != nil {
			s.engine.SetWorkDuration(*input.WorkMinutes)
		}
		if input.ShortBreakMinutes != nil {
			s.engine.SetShortBreakDuration(*input.ShortBreakMinutes)
		}
		if input.LongBreakMinutes != nil {
			s.engine.SetLongBreakDuration(*input.LongBreakMinutes)
		}
		if input.TotalCycles != nil {
			s.engine.SetTotalCycles(*input.TotalCycles)
		}
		if input.LongBreakInterval != nil {
			s.engine.SetLongBreakInterval(*input.LongBreakInterval)
		}
	})
}

// UpdateDeck applies source kind first, then the reference and the library
// track, so one request can switch a deck and pick its media.
func (s *PomodoroService) UpdateDeck(ctx context.Context, rawType string, input UpdateDeckInput) (*model.DeckView, *apperrors.APIError) {
	t, ok := model.ParseSessionType(rawType)
	if !ok {
		return nil, apperrors.NotFound("unknown_deck", "unknown deck "+rawType)
	}

	var (
		view model.DeckView
		err  error
	)
	s.loop.Do(func() {
		view, err = s.updateDeck(t, input)
		s.publish()
	})
	if err != nil {
		return nil, deckError(t, err)
	}
	return &view, nil
}

func (s *PomodoroService) updateDeck(t model.SessionType, input UpdateDeckInput) (model.DeckView, error) {
	if input.Source != nil {
		if _, err := s.decks.SetSourceKind(t, *input.Source); err != nil {
			return model.DeckView{}, err
		}
	}
	if input.URL != nil {
		if _, err := s.decks.SetURL(t, *input.URL); err != nil {
			return model.DeckView{}, err
		}
	}
	if input.LibraryTrackID != nil {
		if _, err := s.decks.SetLibraryTrack(t, *input.LibraryTrackID); err != nil {
			return model.DeckView{}, err
		}
	}

	for _, v := range s.decks.Decks() {
		if v.SessionType == t {
			return v, nil
		}
	}
	return model.DeckView{}, deck.ErrUnknownDeck
}

func deckError(t model.SessionType, err error) *apperrors.APIError {
	details := map[string]any{"deck": t}
	switch {
	case errors.Is(err, deck.ErrUnknownDeck):
		return apperrors.NotFound("unknown_deck", err.Error()).WithDetails(details)
	case errors.Is(err, deck.ErrUnknownSource):
		return apperrors.BadRequest("unknown_source", "source must be one of youtube, library").WithDetails(details)
	case errors.Is(err, deck.ErrUnknownTrack):
		return apperrors.BadRequest("unknown_track", err.Error()).WithDetails(details)
	default:
		return apperrors.Internal("failed to update deck")
	}
}

func (s *PomodoroService) Tracks() []media.Track {
	return s.catalog.Tracks()
}

func (s *PomodoroService) ClearPlayerError(ctx context.Context) StateView {
	return s.act(s.decks.ClearPlayerError)
}

func (s *PomodoroService) SetAlarm(ctx context.Context, enabled bool) StateView {
	return s.act(func() { s.alarm.SetEnabled(enabled) })
}

// PlayerEvent handles a status report from a browser shell.
func (s *PomodoroService) PlayerEvent(ctx context.Context, rawType, event string, code int) *apperrors.APIError {
	t, ok := model.ParseSessionType(rawType)
	if !ok {
		return apperrors.NotFound("unknown_deck", "unknown deck "+rawType)
	}

	switch event {
	case "ready":
		s.loop.Post(s.Refresh)
		return nil
	case "error":
		if s.remote == nil || !s.remote.Report(t, code) {
			return apperrors.NotFound("no_player", "deck has no remote player")
		}
		s.loop.Post(s.publish)
		return nil
	default:
		return apperrors.BadRequest("invalid_event", "event must be one of ready, error")
	}
}

// Refresh lets the decks pick up a backend that became ready. It must run on
// the loop.
func (s *PomodoroService) Refresh() {
	s.decks.Refresh()
	s.publish()
}

func (s *PomodoroService) GetHistory(ctx context.Context, limit int) ([]model.PhaseRecord, *apperrors.APIError) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	records, err := s.history.List(ctx, limit)
	if err != nil {
		s.logger.Error("list history", "error", err)
		return nil, apperrors.Internal("failed to get history")
	}
	return records, nil
}

// Subscribe attaches a state listener. The current view is delivered first.
func (s *PomodoroService) Subscribe() *stream.Listener[StateView] {
	l := s.views.Subscribe()
	s.loop.Post(func() { stream.Send(l, s.view()) })
	return l
}

func (s *PomodoroService) Unsubscribe(l *stream.Listener[StateView]) {
	s.views.Unsubscribe(l)
}

// Close stops the engine and releases every player. It waits for the loop.
func (s *PomodoroService) Close() {
	s.loop.Do(func() {
		s.engine.Close()
		s.decks.Close()
		s.alarm.Close()
	})
}

func (s *PomodoroService) act(fn func()) StateView {
	var view StateView
	s.loop.Do(func() {
		fn()
		s.publish()
		view = s.view()
	})
	return view
}

// onState forwards engine snapshots to state listeners, skipping ticks that
// changed nothing.
func (s *PomodoroService) onState(state model.TimerState) {
	if state == s.published {
		return
	}
	s.published = state
	s.views.Publish(s.view())
}

func (s *PomodoroService) publish() {
	s.published = s.engine.Snapshot()
	s.views.Publish(s.view())
}

func (s *PomodoroService) view() StateView {
	view := StateView{
		State:        s.engine.Snapshot(),
		Decks:        s.decks.Decks(),
		AlarmEnabled: s.alarm.Enabled(),
		ServerTime:   s.loop.Now().UTC(),
	}
	if msg := s.decks.PlayerError(); msg != "" {
		view.PlayerError = &msg
	}
	return view
}
