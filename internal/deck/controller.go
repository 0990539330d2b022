// Package deck keeps one playback deck per session type in step with the
// timer: it picks the active deck, fades it out before a phase ends, fades
// the next one in, and mirrors pause, resume and reset onto every backend.
//
// The controller only reacts to timer snapshots. Every reaction is decided by
// comparing the snapshot with the previous one, so repeated snapshots are
// harmless.
package deck

import (
	"log/slog"
	"math"
	"time"

	"pomodisc/backend/internal/clock"
	"pomodisc/backend/internal/media"
	"pomodisc/backend/internal/model"
	"pomodisc/backend/internal/settings"
)

const (
	FadeOutSeconds = 5
	FadeInSteps    = 20
	FadeInInterval = 50 * time.Millisecond
	// RepauseDelay follows seek-to-start on reset; some backends resume
	// playback as a side effect of seeking.
	RepauseDelay = 100 * time.Millisecond
)

type Options struct {
	ThreePhase bool
}

// Controller owns the decks. All methods must run on the event loop.
type Controller struct {
	clock     clock.Clock
	store     *settings.Store
	catalog   *media.Catalog
	factories map[model.SourceKind]media.Factory
	logger    *slog.Logger

	order []model.SessionType
	decks map[model.SessionType]*deck

	initialized bool
	last        model.TimerState
	prevSession model.SessionType
	fade        clock.Timer
	repause     clock.Timer
	playerError string
	closed      bool
}

// NewController rehydrates each deck's source, reference and track from the
// store and pre-warms the decks whose backend is already ready.
func NewController(
	c clock.Clock,
	store *settings.Store,
	catalog *media.Catalog,
	factories []media.Factory,
	initial model.TimerState,
	opts Options,
	logger *slog.Logger,
) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	ctrl := &Controller{
		clock:       c,
		store:       store,
		catalog:     catalog,
		factories:   make(map[model.SourceKind]media.Factory, len(factories)),
		logger:      logger,
		order:       model.SessionTypes(opts.ThreePhase),
		decks:       make(map[model.SessionType]*deck),
		last:        initial,
		prevSession: initial.SessionType,
	}
	for _, f := range factories {
		ctrl.factories[f.Kind()] = f
	}

	for _, t := range ctrl.order {
		d := &deck{sessionType: t, volume: -1}

		source, ok := model.ParseSourceKind(store.String(settings.DeckSourceKey(t), string(model.SourceYouTube)))
		if !ok {
			source = model.SourceYouTube
		}
		d.source = source

		d.url = store.String(settings.DeckURLKey(t), "")
		d.videoID, d.urlError = parseURL(d.url)

		d.trackID = store.String(settings.DeckTrackKey(t), catalog.DefaultID())
		if _, ok := catalog.Lookup(d.trackID); !ok {
			d.trackID = catalog.DefaultID()
		}
		ctrl.decks[t] = d
	}

	ctrl.prewarm()
	return ctrl
}

// Refresh re-evaluates pre-warming, for instance after a backend became
// ready.
func (c *Controller) Refresh() {
	if c.closed {
		return
	}
	for _, t := range c.order {
		d := c.decks[t]
		if !d.created && c.ensureCreated(d) {
			c.resumeIfActive(d)
		}
	}
}

// InitializePlayers must be called from the user action that starts the
// timer: it creates every deck that can be created, loads library tracks and
// starts the work deck at full volume.
func (c *Controller) InitializePlayers() {
	if c.closed {
		return
	}
	for _, t := range c.order {
		d := c.decks[t]
		if !c.ensureCreated(d) {
			continue
		}
		if d.source == model.SourceLibrary {
			d.player.Load(d.reference(c.catalog))
		}
	}

	if work := c.decks[model.SessionWork]; work.created {
		c.setVolume(work, 100)
		work.player.Play()
	}
	c.initialized = true
}

// Initialized reports whether InitializePlayers ran since the last completed
// run.
func (c *Controller) Initialized() bool {
	return c.initialized
}

// Observe reacts to a timer snapshot. It is the engine subscriber.
func (c *Controller) Observe(s model.TimerState) {
	if c.closed {
		return
	}
	prev := c.last
	c.last = s
	statusChanged := s.Status != prev.Status

	// A transition is handled before the fade-out check so the incoming deck
	// is not restored to full volume ahead of its fade-in.
	if s.Status == model.StatusRunning && s.SessionType != c.prevSession {
		outgoing := c.prevSession
		c.prevSession = s.SessionType
		c.transition(outgoing, s.SessionType)
	}

	if s.Status == model.StatusRunning &&
		(statusChanged || s.RemainingSeconds != prev.RemainingSeconds || s.SessionType != prev.SessionType) {
		c.fadeOut(s)
	}

	if statusChanged {
		switch s.Status {
		case model.StatusPaused:
			c.cancelFade()
			for _, t := range c.order {
				if d := c.decks[t]; d.created {
					d.player.Pause()
				}
			}
		case model.StatusRunning:
			if c.initialized {
				if d, ok := c.decks[s.SessionType]; ok && d.created {
					d.player.Play()
				}
			}
		}
	}

	if s.Status == model.StatusIdle && (statusChanged || s.IsComplete != prev.IsComplete) {
		c.stopAll()
		c.prevSession = s.SessionType
		if s.IsComplete {
			c.initialized = false
		}
	}
}

func (c *Controller) fadeOut(s model.TimerState) {
	d, ok := c.decks[s.SessionType]
	if !ok {
		return
	}
	r := s.RemainingSeconds
	switch {
	case r > 0 && r <= FadeOutSeconds:
		c.setVolume(d, envelope(r))
	case r > FadeOutSeconds && c.fade == nil:
		c.setVolume(d, 100)
	}
}

// envelope is the volume of the active deck with remaining seconds left.
func envelope(remaining int) int {
	if remaining <= 0 || remaining > FadeOutSeconds {
		return 100
	}
	return media.ClampVolume(int(math.Round(float64(remaining) / FadeOutSeconds * 100)))
}

func (c *Controller) transition(from, to model.SessionType) {
	if out, ok := c.decks[from]; ok && out.created {
		c.setVolume(out, 0)
		out.player.Pause()
	}

	in, ok := c.decks[to]
	if !ok {
		c.cancelFade()
		return
	}
	if !c.ensureCreated(in) {
		c.cancelFade()
		return
	}
	c.setVolume(in, 0)
	in.player.Play()
	c.startFadeIn(in)
}

// startFadeIn ramps d from 0 to 100. At most one fade runs; a new one
// replaces the old.
func (c *Controller) startFadeIn(d *deck) {
	c.cancelFade()
	step := 0
	c.fade = c.clock.Every(FadeInInterval, func() {
		step++
		c.setVolume(d, media.ClampVolume(int(math.Round(float64(step)/FadeInSteps*100))))
		if step >= FadeInSteps {
			c.cancelFade()
		}
	})
}

func (c *Controller) cancelFade() {
	if c.fade != nil {
		c.fade.Stop()
		c.fade = nil
	}
}

// Fading reports whether a fade-in is in flight.
func (c *Controller) Fading() bool {
	return c.fade != nil
}

func (c *Controller) stopAll() {
	c.cancelFade()
	for _, t := range c.order {
		if d := c.decks[t]; d.created {
			d.player.Stop()
			d.player.SeekToStart()
		}
	}

	if c.repause != nil {
		c.repause.Stop()
	}
	c.repause = c.clock.AfterFunc(RepauseDelay, func() {
		c.repause = nil
		if c.last.Status != model.StatusIdle {
			return
		}
		for _, t := range c.order {
			if d := c.decks[t]; d.created {
				d.player.Pause()
			}
		}
	})
}

// PlayerError returns the latched playback error, or "".
func (c *Controller) PlayerError() string {
	return c.playerError
}

func (c *Controller) ClearPlayerError() {
	c.playerError = ""
}

func (c *Controller) reportError(t model.SessionType, kind model.SourceKind, code int) {
	c.playerError = media.ErrorMessage(kind, code)
	c.logger.Warn("playback error", "deck", t, "source", kind, "code", code)
}

// Decks returns the view of every deck in phase order.
func (c *Controller) Decks() []model.DeckView {
	views := make([]model.DeckView, 0, len(c.order))
	for _, t := range c.order {
		views = append(views, c.decks[t].view(t == c.last.SessionType))
	}
	return views
}

// SetURL stores raw as the remote reference of deck t. A valid reference is
// loaded in place; a null one releases the player.
func (c *Controller) SetURL(t model.SessionType, raw string) (model.DeckView, error) {
	d, ok := c.decks[t]
	if !ok {
		return model.DeckView{}, ErrUnknownDeck
	}
	c.store.Set(settings.DeckURLKey(t), raw)

	previous := d.videoID
	d.url = raw
	d.videoID, d.urlError = parseURL(raw)

	if d.source == model.SourceYouTube {
		switch {
		case d.videoID == "":
			c.release(d)
		case d.created && d.videoID != previous:
			d.player.Load(d.reference(c.catalog))
			c.resumeIfActive(d)
		default:
			c.Refresh()
		}
	}
	return d.view(t == c.last.SessionType), nil
}

// SetSourceKind switches deck t between remote video and the library. The
// previous player is destroyed.
func (c *Controller) SetSourceKind(t model.SessionType, raw string) (model.DeckView, error) {
	d, ok := c.decks[t]
	if !ok {
		return model.DeckView{}, ErrUnknownDeck
	}
	kind, ok := model.ParseSourceKind(raw)
	if !ok {
		return model.DeckView{}, ErrUnknownSource
	}
	c.store.Set(settings.DeckSourceKey(t), string(kind))

	if kind != d.source {
		c.release(d)
		d.source = kind
		c.Refresh()
	}
	return d.view(t == c.last.SessionType), nil
}

// SetLibraryTrack selects the library track of deck t.
func (c *Controller) SetLibraryTrack(t model.SessionType, id string) (model.DeckView, error) {
	d, ok := c.decks[t]
	if !ok {
		return model.DeckView{}, ErrUnknownDeck
	}
	if _, ok := c.catalog.Lookup(id); !ok {
		return model.DeckView{}, ErrUnknownTrack
	}
	c.store.Set(settings.DeckTrackKey(t), id)

	changed := d.trackID != id
	d.trackID = id
	if changed && d.source == model.SourceLibrary && d.created {
		d.player.Load(d.reference(c.catalog))
	}
	return d.view(t == c.last.SessionType), nil
}

// Close cancels pending timers and destroys every player.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.cancelFade()
	if c.repause != nil {
		c.repause.Stop()
		c.repause = nil
	}
	for _, t := range c.order {
		c.release(c.decks[t])
	}
	c.closed = true
}

func (c *Controller) prewarm() {
	for _, t := range c.order {
		c.ensureCreated(c.decks[t])
	}
}

// resumeIfActive starts d when it is the deck of a running phase, for decks
// created or reloaded mid-phase.
func (c *Controller) resumeIfActive(d *deck) {
	if !c.initialized || c.last.Status != model.StatusRunning || d.sessionType != c.last.SessionType {
		return
	}
	if !d.created {
		return
	}
	if c.fade == nil {
		c.setVolume(d, envelope(c.last.RemainingSeconds))
	}
	d.player.Play()
}

// ensureCreated creates d's player when its backend is ready and it has a
// valid reference. It reports whether d has a live player.
func (c *Controller) ensureCreated(d *deck) bool {
	if d.created {
		return true
	}
	f, ok := c.factories[d.source]
	if !ok || !f.Ready() {
		return false
	}
	ref := d.reference(c.catalog)
	if !ref.Valid() {
		return false
	}

	t, kind := d.sessionType, d.source
	d.player = f.NewPlayer(t, func(code int) {
		c.reportError(t, kind, code)
	})
	d.player.Create(ref)
	d.created = true
	d.volume = -1
	c.logger.Debug("deck created", "deck", d.sessionType, "source", d.source, "media", ref.ID)
	return true
}

func (c *Controller) release(d *deck) {
	if d.created {
		d.player.Destroy()
	}
	if c.fade != nil && c.last.SessionType == d.sessionType {
		c.cancelFade()
	}
	d.player = nil
	d.created = false
	d.volume = -1
}

func (c *Controller) setVolume(d *deck, v int) {
	if !d.created || d.volume == v {
		return
	}
	d.player.SetVolume(v)
	d.volume = v
}
