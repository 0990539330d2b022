package remote

import (
	"sync"

	"pomodisc/backend/internal/media"
	"pomodisc/backend/internal/model"
)

// Factory builds players whose commands go through a Hub. It is ready once a
// shell is connected, the equivalent of the embed API having loaded.
type Factory struct {
	hub  *Hub
	post func(func())

	mu      sync.Mutex
	players map[model.SessionType]*Player
}

// NewFactory returns a factory whose error callbacks are delivered through
// post, normally the event loop's Post.
func NewFactory(hub *Hub, post func(func())) *Factory {
	return &Factory{
		hub:     hub,
		post:    post,
		players: make(map[model.SessionType]*Player),
	}
}

func (f *Factory) Kind() model.SourceKind {
	return model.SourceYouTube
}

func (f *Factory) Ready() bool {
	return f.hub.Connected()
}

func (f *Factory) NewPlayer(deck model.SessionType, onError func(code int)) media.Player {
	p := &Player{deck: deck, hub: f.hub, onError: onError}
	f.mu.Lock()
	f.players[deck] = p
	f.mu.Unlock()
	return p
}

// Report delivers an error code a shell observed on the player of deck. It
// reports false when that deck has no live player.
func (f *Factory) Report(deck model.SessionType, code int) bool {
	f.mu.Lock()
	p, ok := f.players[deck]
	f.mu.Unlock()
	if !ok {
		return false
	}
	f.post(func() {
		if p.live() {
			p.onError(code)
		}
	})
	return true
}

// Player is the daemon side of one shell-hosted video player.
type Player struct {
	deck    model.SessionType
	hub     *Hub
	onError func(code int)

	mu      sync.Mutex
	created bool
}

func (p *Player) live() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}

func (p *Player) Create(ref media.Reference) {
	p.mu.Lock()
	p.created = true
	p.mu.Unlock()
	p.send(Command{Action: ActionCreate, VideoID: ref.ID})
}

func (p *Player) Load(ref media.Reference) {
	if !p.live() {
		return
	}
	p.send(Command{Action: ActionCue, VideoID: ref.ID})
}

func (p *Player) Play()  { p.sendIfLive(ActionPlay) }
func (p *Player) Pause() { p.sendIfLive(ActionPause) }
func (p *Player) Stop()  { p.sendIfLive(ActionStop) }

func (p *Player) SeekToStart() { p.sendIfLive(ActionSeek) }

func (p *Player) SetVolume(volume int) {
	if !p.live() {
		return
	}
	v := media.ClampVolume(volume)
	p.send(Command{Action: ActionVolume, Volume: &v})
}

func (p *Player) Destroy() {
	p.mu.Lock()
	wasCreated := p.created
	p.created = false
	p.mu.Unlock()
	if wasCreated {
		p.send(Command{Action: ActionDestroy})
	}
}

func (p *Player) sendIfLive(action string) {
	if !p.live() {
		return
	}
	p.send(Command{Action: action})
}

func (p *Player) send(cmd Command) {
	cmd.Deck = p.deck
	p.hub.Send(cmd)
}
