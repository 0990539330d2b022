// Package library plays local audio files through the daemon's mixer.
package library

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pomodisc/backend/internal/audio"
	"pomodisc/backend/internal/media"
	"pomodisc/backend/internal/model"
)

const decodeTimeout = 2 * time.Minute

// Factory builds library players that feed mixer. Library playback needs no
// external readiness, so it is always ready.
type Factory struct {
	mixer  *audio.Mixer
	decode audio.Decoder
	post   func(func())
	logger *slog.Logger
}

// NewFactory returns a factory decoding with decode; error callbacks are
// delivered through post.
func NewFactory(mixer *audio.Mixer, decode audio.Decoder, post func(func()), logger *slog.Logger) *Factory {
	if decode == nil {
		decode = audio.DecodeFile
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{mixer: mixer, decode: decode, post: post, logger: logger}
}

func (f *Factory) Kind() model.SourceKind {
	return model.SourceLibrary
}

func (f *Factory) Ready() bool {
	return true
}

func (f *Factory) NewPlayer(deck model.SessionType, onError func(code int)) media.Player {
	return f.NewLoopingPlayer(deck, onError, true)
}

// NewLoopingPlayer is NewPlayer with explicit loop behaviour; the alarm cue
// plays once.
func (f *Factory) NewLoopingPlayer(deck model.SessionType, onError func(code int), loop bool) *Player {
	return &Player{
		name:    string(deck),
		factory: f,
		onError: onError,
		loop:    loop,
		gain:    1,
	}
}

// Player is one looping track. Transport calls only flip state; the mixer
// goroutine reads it every frame.
type Player struct {
	name    string
	factory *Factory
	onError func(code int)
	loop    bool

	mu         sync.Mutex
	attached   bool
	src        string
	generation int
	samples    []int16
	pos        int
	playing    bool
	gain       float64
	cancel     context.CancelFunc
}

func (p *Player) Create(ref media.Reference) {
	p.mu.Lock()
	attach := !p.attached
	p.attached = true
	p.mu.Unlock()

	if attach {
		p.factory.mixer.Add(p)
	}
	p.Load(ref)
}

// Load decodes ref in the background. Playback state is kept; a playing
// player starts the new track as soon as it is decoded.
func (p *Player) Load(ref media.Reference) {
	p.mu.Lock()
	if !p.attached || ref.Src == "" {
		p.mu.Unlock()
		return
	}
	if ref.Src == p.src {
		p.mu.Unlock()
		return
	}
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), decodeTimeout)
	p.cancel = cancel
	p.generation++
	generation := p.generation
	p.src = ref.Src
	p.samples = nil
	p.pos = 0
	p.mu.Unlock()

	go p.decode(ctx, cancel, ref.Src, generation)
}

func (p *Player) decode(ctx context.Context, cancel context.CancelFunc, src string, generation int) {
	defer cancel()
	samples, err := p.factory.decode(ctx, src)

	p.mu.Lock()
	current := p.attached && p.generation == generation
	if current {
		if err != nil {
			p.src = ""
		} else {
			p.samples = samples
			p.pos = 0
		}
	}
	p.mu.Unlock()

	if !current {
		return
	}
	if err != nil {
		p.factory.logger.Warn("library track unavailable", "deck", p.name, "src", src, "error", err)
		p.factory.post(func() { p.onError(media.CodeTrackUnavailable) })
		return
	}
	p.factory.logger.Debug("library track decoded", "deck", p.name, "src", src, "samples", len(samples))
}

func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.attached {
		return
	}
	if !p.loop && p.samples != nil && p.pos >= len(p.samples) {
		p.pos = 0
	}
	p.playing = true
}

func (p *Player) Pause() {
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
}

func (p *Player) Stop() {
	p.mu.Lock()
	p.playing = false
	p.pos = 0
	p.mu.Unlock()
}

// SetVolume maps 0 to 100 onto a linear gain of 0 to 1.
func (p *Player) SetVolume(volume int) {
	p.mu.Lock()
	p.gain = float64(media.ClampVolume(volume)) / 100
	p.mu.Unlock()
}

func (p *Player) SeekToStart() {
	p.mu.Lock()
	p.pos = 0
	p.mu.Unlock()
}

func (p *Player) Destroy() {
	p.mu.Lock()
	wasAttached := p.attached
	p.attached = false
	p.playing = false
	p.samples = nil
	p.src = ""
	p.pos = 0
	p.generation++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	if wasAttached {
		p.factory.mixer.Remove(p)
	}
}

// Playing reports whether the player is currently audible or waiting for its
// track to decode.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Volume returns the current gain scaled back to 0 to 100.
func (p *Player) Volume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int(p.gain*100 + 0.5)
}

// AddTo mixes one frame into acc. It runs on the mixer goroutine.
func (p *Player) AddTo(acc []int32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing || len(p.samples) == 0 || p.gain == 0 {
		return false
	}

	for i := range acc {
		if p.pos >= len(p.samples) {
			if !p.loop {
				p.playing = false
				return i > 0
			}
			p.pos = 0
		}
		acc[i] += int32(float64(p.samples[p.pos]) * p.gain)
		p.pos++
	}
	return true
}
