package audio

import (
	"context"
	"sync"
	"time"
)

// Mixer sums every registered source into one frame per FrameDuration. It
// emits silence when nothing plays so listeners keep a steady clock.
type Mixer struct {
	frameCh chan []int16

	mu      sync.RWMutex
	sources map[Source]struct{}
	active  int
}

func NewMixer() *Mixer {
	return &Mixer{
		frameCh: make(chan []int16, 100),
		sources: make(map[Source]struct{}),
	}
}

// Frames returns the channel of mixed PCM frames.
func (m *Mixer) Frames() <-chan []int16 {
	return m.frameCh
}

func (m *Mixer) Add(s Source) {
	m.mu.Lock()
	m.sources[s] = struct{}{}
	m.mu.Unlock()
}

func (m *Mixer) Remove(s Source) {
	m.mu.Lock()
	delete(m.sources, s)
	m.mu.Unlock()
}

// Active returns how many sources contributed to the last frame.
func (m *Mixer) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// Run produces frames in real time until ctx is cancelled. Blocks.
func (m *Mixer) Run(ctx context.Context) {
	defer close(m.frameCh)

	ticker := time.NewTicker(FrameDuration)
	defer ticker.Stop()

	acc := make([]int32, FrameSamples)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame := m.Mix(acc)
		select {
		case m.frameCh <- frame:
		case <-ctx.Done():
			return
		default:
			// nobody is draining the mixer; drop rather than fall behind
		}
	}
}

// Mix renders one frame using acc as scratch space.
func (m *Mixer) Mix(acc []int32) []int16 {
	for i := range acc {
		acc[i] = 0
	}

	m.mu.Lock()
	active := 0
	for s := range m.sources {
		if s.AddTo(acc) {
			active++
		}
	}
	m.active = active
	m.mu.Unlock()

	frame := make([]int16, len(acc))
	for i, v := range acc {
		frame[i] = clip(v)
	}
	return frame
}

func clip(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
