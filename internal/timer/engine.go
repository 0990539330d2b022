// Package timer implements the pomodoro state machine. Remaining time is
// always derived from a wall-clock anchor, so late or skipped ticks never
// cause drift.
package timer

import (
	"time"

	"pomodisc/backend/internal/clock"
	"pomodisc/backend/internal/model"
	"pomodisc/backend/internal/settings"
)

const DefaultTickInterval = 250 * time.Millisecond

type Options struct {
	ThreePhase   bool
	TickInterval time.Duration
}

// Engine owns the TimerState. All methods must run on the event loop.
type Engine struct {
	clock  clock.Clock
	store  *settings.Store
	opts   Options
	limits Limits

	state model.TimerState

	// anchorAt is zero when no phase is running.
	anchorAt        time.Time
	anchorRemaining time.Duration
	ticker          clock.Timer

	subscribers []func(model.TimerState)
}

// NewEngine rehydrates the configured durations and cycle counts from the
// store. Stored values outside the current limits are clamped.
func NewEngine(c clock.Clock, store *settings.Store, opts Options) *Engine {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	limits := LimitsFor(opts.ThreePhase)

	e := &Engine{
		clock:  c,
		store:  store,
		opts:   opts,
		limits: limits,
	}
	e.state = model.TimerState{
		SessionType:       model.SessionWork,
		Status:            model.StatusIdle,
		CurrentCycle:      1,
		ThreePhase:        opts.ThreePhase,
		WorkMinutes:       clampInt(float64(store.Int(settings.KeyWorkMinutes, model.DefaultWorkMinutes)), limits.Work),
		ShortBreakMinutes: clampInt(float64(store.Int(settings.KeyShortBreakMinutes, model.DefaultShortBreakMinutes)), limits.ShortBreak),
		LongBreakMinutes:  clampInt(float64(store.Int(settings.KeyLongBreakMinutes, model.DefaultLongBreakMinutes)), limits.LongBreak),
		TotalCycles:       clampInt(float64(store.Int(settings.KeyTotalCycles, model.DefaultTotalCycles)), model.MaxTotalCycles),
		LongBreakInterval: clampInt(float64(store.Int(settings.KeyLongBreakInterval, model.DefaultLongBreakInterval)), model.MaxLongBreakInterval),
	}
	e.state.RemainingSeconds = e.state.WorkMinutes * 60
	e.anchorRemaining = time.Duration(e.state.RemainingSeconds) * time.Second
	return e
}

// Snapshot returns the state as of the last tick or operation.
func (e *Engine) Snapshot() model.TimerState {
	return e.state
}

// Subscribe registers fn to be called after every state change.
func (e *Engine) Subscribe(fn func(model.TimerState)) {
	e.subscribers = append(e.subscribers, fn)
}

func (e *Engine) Start() {
	if e.state.Status != model.StatusIdle {
		return
	}
	seconds := e.state.WorkMinutes * 60
	e.state.IsComplete = false
	e.state.SessionType = model.SessionWork
	e.state.CurrentCycle = 1
	e.state.RemainingSeconds = seconds
	e.state.Status = model.StatusRunning
	e.anchor(seconds)
	e.startTicking()
	e.publish()
}

func (e *Engine) Pause() {
	if e.state.Status != model.StatusRunning {
		return
	}
	remaining := e.anchorRemaining - e.clock.Now().Sub(e.anchorAt)
	if remaining < 0 {
		remaining = 0
	}
	e.anchorRemaining = remaining
	e.anchorAt = time.Time{}
	e.state.RemainingSeconds = ceilSeconds(remaining)
	e.state.Status = model.StatusPaused
	e.stopTicking()
	e.publish()
}

func (e *Engine) Resume() {
	if e.state.Status != model.StatusPaused {
		return
	}
	e.anchorAt = e.clock.Now()
	e.state.Status = model.StatusRunning
	e.startTicking()
	e.publish()
}

func (e *Engine) Reset() {
	e.stopTicking()
	seconds := e.state.WorkMinutes * 60
	e.anchorAt = time.Time{}
	e.anchorRemaining = time.Duration(seconds) * time.Second
	e.state.RemainingSeconds = seconds
	e.state.SessionType = model.SessionWork
	e.state.CurrentCycle = 1
	e.state.Status = model.StatusIdle
	e.state.IsComplete = false
	e.publish()
}

func (e *Engine) SetWorkDuration(minutes float64) {
	e.setDuration(model.SessionWork, minutes)
}

func (e *Engine) SetShortBreakDuration(minutes float64) {
	e.setDuration(model.SessionShortBreak, minutes)
}

func (e *Engine) SetLongBreakDuration(minutes float64) {
	e.setDuration(model.SessionLongBreak, minutes)
}

func (e *Engine) SetTotalCycles(n float64) {
	e.state.TotalCycles = clampInt(n, model.MaxTotalCycles)
	e.store.Set(settings.KeyTotalCycles, e.state.TotalCycles)
	e.publish()
}

func (e *Engine) SetLongBreakInterval(n float64) {
	e.state.LongBreakInterval = clampInt(n, model.MaxLongBreakInterval)
	e.store.Set(settings.KeyLongBreakInterval, e.state.LongBreakInterval)
	e.publish()
}

// Close stops the tick loop. The state is left as is.
func (e *Engine) Close() {
	e.stopTicking()
}

func (e *Engine) setDuration(t model.SessionType, minutes float64) {
	value := clampInt(minutes, e.limits.For(t))
	switch t {
	case model.SessionShortBreak:
		e.state.ShortBreakMinutes = value
		e.store.Set(settings.KeyShortBreakMinutes, value)
	case model.SessionLongBreak:
		e.state.LongBreakMinutes = value
		e.store.Set(settings.KeyLongBreakMinutes, value)
	default:
		e.state.WorkMinutes = value
		e.store.Set(settings.KeyWorkMinutes, value)
	}

	if e.state.Status == model.StatusIdle && !e.state.IsComplete && e.state.SessionType == t {
		seconds := value * 60
		e.state.RemainingSeconds = seconds
		e.anchorRemaining = time.Duration(seconds) * time.Second
	}
	e.publish()
}

func (e *Engine) tick() {
	if e.anchorAt.IsZero() {
		return
	}
	remaining := e.anchorRemaining - e.clock.Now().Sub(e.anchorAt)
	if remaining <= 0 {
		e.state.RemainingSeconds = 0
		e.advance()
	} else {
		e.state.RemainingSeconds = ceilSeconds(remaining)
	}
	e.publish()
}

// advance moves to the next phase. Completion is only checked when a work
// phase ends, so the last cycle never gets its break.
func (e *Engine) advance() {
	if e.state.SessionType == model.SessionWork {
		if e.state.CurrentCycle >= e.state.TotalCycles {
			e.stopTicking()
			e.anchorAt = time.Time{}
			e.anchorRemaining = 0
			e.state.Status = model.StatusIdle
			e.state.IsComplete = true
			e.state.RemainingSeconds = 0
			return
		}
		next := model.SessionShortBreak
		if e.opts.ThreePhase && e.state.CurrentCycle%e.state.LongBreakInterval == 0 {
			next = model.SessionLongBreak
		}
		e.enter(next)
		return
	}

	e.state.CurrentCycle++
	e.enter(model.SessionWork)
}

func (e *Engine) enter(t model.SessionType) {
	seconds := e.state.DurationMinutes(t) * 60
	e.state.SessionType = t
	e.state.RemainingSeconds = seconds
	e.anchor(seconds)
}

func (e *Engine) anchor(seconds int) {
	e.anchorAt = e.clock.Now()
	e.anchorRemaining = time.Duration(seconds) * time.Second
}

func (e *Engine) startTicking() {
	e.stopTicking()
	e.ticker = e.clock.Every(e.opts.TickInterval, e.tick)
}

func (e *Engine) stopTicking() {
	if e.ticker != nil {
		e.ticker.Stop()
		e.ticker = nil
	}
}

func (e *Engine) publish() {
	snapshot := e.state
	for _, fn := range e.subscribers {
		fn(snapshot)
	}
}

func ceilSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}
