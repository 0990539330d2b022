// Package remote drives embeddable video players that live in connected
// browser shells. The daemon decides; the shells only execute commands.
package remote

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"pomodisc/backend/internal/model"
	"pomodisc/backend/internal/stream"
)

const (
	ActionCreate  = "create"
	ActionCue     = "cue"
	ActionPlay    = "play"
	ActionPause   = "pause"
	ActionStop    = "stop"
	ActionSeek    = "seek"
	ActionVolume  = "volume"
	ActionDestroy = "destroy"
)

// Command is one instruction for the player of a deck. Seq increases
// monotonically; shells skip any Seq they have already applied, which covers
// a command arriving both live and in a replay.
type Command struct {
	Seq     uint64            `json:"seq"`
	Deck    model.SessionType `json:"deck"`
	Action  string            `json:"action"`
	VideoID string            `json:"videoId,omitempty"`
	Volume  *int              `json:"volume,omitempty"`
}

// deckReplay is what a shell joining late needs to rebuild one deck.
type deckReplay struct {
	create    *Command
	volume    *Command
	transport *Command
}

// Hub fans commands out to every connected shell and replays the current
// player set to shells that connect later.
type Hub struct {
	commands *stream.Broadcaster[Command]
	logger   *slog.Logger
	seq      atomic.Uint64

	mu        sync.Mutex
	replay    map[model.SessionType]*deckReplay
	onConnect func()
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		commands: stream.NewBroadcaster[Command](256),
		logger:   logger,
		replay:   make(map[model.SessionType]*deckReplay),
	}
	h.commands.OnJoin(h.sendReplay)
	return h
}

// OnConnect registers fn to run whenever the first shell connects.
func (h *Hub) OnConnect(fn func()) {
	h.mu.Lock()
	h.onConnect = fn
	h.mu.Unlock()
}

// Connected reports whether any shell is listening.
func (h *Hub) Connected() bool {
	return h.commands.ListenerCount() > 0
}

// Subscribe attaches a shell. The returned listener first receives the replay
// of every live deck.
func (h *Hub) Subscribe() *stream.Listener[Command] {
	first := !h.Connected()
	l := h.commands.Subscribe()
	h.logger.Info("player shell connected", "shells", h.commands.ListenerCount())

	h.mu.Lock()
	fn := h.onConnect
	h.mu.Unlock()
	if first && fn != nil {
		fn()
	}
	return l
}

func (h *Hub) Unsubscribe(l *stream.Listener[Command]) {
	h.commands.Unsubscribe(l)
	h.logger.Info("player shell disconnected", "shells", h.commands.ListenerCount())
}

// Send records cmd for replay and broadcasts it.
func (h *Hub) Send(cmd Command) {
	cmd.Seq = h.seq.Add(1)

	h.mu.Lock()
	h.remember(cmd)
	h.mu.Unlock()

	h.commands.Publish(cmd)
}

func (h *Hub) remember(cmd Command) {
	if cmd.Action == ActionDestroy {
		delete(h.replay, cmd.Deck)
		return
	}
	r := h.replay[cmd.Deck]
	if r == nil {
		if cmd.Action != ActionCreate {
			return
		}
		r = &deckReplay{}
		h.replay[cmd.Deck] = r
	}

	c := cmd
	switch cmd.Action {
	case ActionCreate:
		r.create = &c
		r.volume = nil
		r.transport = nil
	case ActionCue:
		created := *r.create
		created.VideoID = cmd.VideoID
		r.create = &created
		r.transport = nil
	case ActionVolume:
		r.volume = &c
	case ActionPlay, ActionPause, ActionStop:
		r.transport = &c
	}
}

// sendReplay runs under the broadcaster lock, before l sees live commands.
func (h *Hub) sendReplay(l *stream.Listener[Command]) {
	h.mu.Lock()
	var pending []Command
	for _, r := range h.replay {
		for _, cmd := range []*Command{r.create, r.volume, r.transport} {
			if cmd != nil {
				pending = append(pending, *cmd)
			}
		}
	}
	h.mu.Unlock()

	sort.Slice(pending, func(i, j int) bool { return pending[i].Seq < pending[j].Seq })
	for _, cmd := range pending {
		stream.Send(l, cmd)
	}
}
