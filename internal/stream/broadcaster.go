// Package stream fans values out to many listeners and serves the mixed
// library audio over HTTP and WebRTC.
package stream

import (
	"context"
	"sync"
)

// Broadcaster fans out values from one producer to N listeners. Slow
// listeners lose values instead of stalling the producer.
type Broadcaster[T any] struct {
	mu        sync.RWMutex
	listeners map[*Listener[T]]struct{}
	buffer    int
	onJoin    func(*Listener[T])
}

type Listener[T any] struct {
	C    chan T
	done chan struct{}
}

// Done is closed once the listener is unsubscribed.
func (l *Listener[T]) Done() <-chan struct{} {
	return l.done
}

// NewBroadcaster creates a broadcaster whose listeners buffer up to buffer
// values.
func NewBroadcaster[T any](buffer int) *Broadcaster[T] {
	return &Broadcaster[T]{
		listeners: make(map[*Listener[T]]struct{}),
		buffer:    buffer,
	}
}

// OnJoin registers fn to run for each new listener before it receives any
// broadcast value. fn may Send to the listener.
func (b *Broadcaster[T]) OnJoin(fn func(*Listener[T])) {
	b.mu.Lock()
	b.onJoin = fn
	b.mu.Unlock()
}

func (b *Broadcaster[T]) Subscribe() *Listener[T] {
	l := &Listener[T]{
		C:    make(chan T, b.buffer),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.onJoin != nil {
		b.onJoin(l)
	}
	b.listeners[l] = struct{}{}
	return l
}

func (b *Broadcaster[T]) Unsubscribe(l *Listener[T]) {
	b.mu.Lock()
	_, ok := b.listeners[l]
	delete(b.listeners, l)
	b.mu.Unlock()
	if ok {
		close(l.done)
	}
}

func (b *Broadcaster[T]) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Publish delivers v to every listener that has room for it.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for l := range b.listeners {
		Send(l, v)
	}
}

// Send delivers v to one listener, dropping it if the listener is full.
func Send[T any](l *Listener[T], v T) bool {
	select {
	case l.C <- v:
		return true
	default:
		return false
	}
}

// Run publishes everything read from source until ctx is cancelled or source
// closes.
func (b *Broadcaster[T]) Run(ctx context.Context, source <-chan T) {
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-source:
			if !ok {
				return
			}
			b.Publish(v)
		}
	}
}
