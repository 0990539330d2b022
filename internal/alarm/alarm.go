// Package alarm plays a short cue just before a running phase ends.
package alarm

import (
	"log/slog"

	"pomodisc/backend/internal/media"
	"pomodisc/backend/internal/model"
	"pomodisc/backend/internal/settings"
)

// TriggerSeconds is the remaining time at or below which the cue fires.
const TriggerSeconds = 3

// Alarm fires its cue at most once per session type. It is confined to the
// event loop.
type Alarm struct {
	store   *settings.Store
	cue     media.Player
	logger  *slog.Logger
	enabled bool
	fired   bool
	session model.SessionType
}

// New loads the enabled flag and prepares cue with ref. A nil cue or an
// empty ref leaves the alarm silent.
func New(store *settings.Store, cue media.Player, ref media.Reference, initial model.SessionType, logger *slog.Logger) *Alarm {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Alarm{
		store:   store,
		logger:  logger,
		enabled: store.Bool(settings.KeyAlarmEnabled, true),
		session: initial,
	}
	if cue != nil && ref.Src != "" {
		cue.Create(ref)
		a.cue = cue
	} else {
		logger.Info("alarm cue not configured")
	}
	return a
}

func (a *Alarm) Enabled() bool {
	return a.enabled
}

func (a *Alarm) SetEnabled(enabled bool) {
	a.enabled = enabled
	a.store.Set(settings.KeyAlarmEnabled, enabled)
}

// Observe is the engine subscriber.
func (a *Alarm) Observe(s model.TimerState) {
	if s.SessionType != a.session {
		a.session = s.SessionType
		a.fired = false
	}
	if !a.enabled || a.fired || s.Status != model.StatusRunning {
		return
	}
	if s.RemainingSeconds > 0 && s.RemainingSeconds <= TriggerSeconds {
		a.fired = true
		a.play()
	}
}

func (a *Alarm) play() {
	if a.cue == nil {
		return
	}
	a.cue.SeekToStart()
	a.cue.SetVolume(100)
	a.cue.Play()
	a.logger.Debug("alarm fired", "session", a.session)
}

func (a *Alarm) Close() {
	if a.cue != nil {
		a.cue.Destroy()
		a.cue = nil
	}
}
