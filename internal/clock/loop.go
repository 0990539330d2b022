package clock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Loop is the real Scheduler. All callbacks run on the goroutine executing Run.
type Loop struct {
	queue    chan func()
	done     chan struct{}
	stopOnce sync.Once
}

func NewLoop() *Loop {
	return &Loop{
		queue: make(chan func(), 256),
		done:  make(chan struct{}),
	}
}

// Run processes queued work until ctx is cancelled. Blocks.
func (l *Loop) Run(ctx context.Context) {
	defer l.stopOnce.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.queue:
			fn()
		}
	}
}

func (l *Loop) Now() time.Time {
	return time.Now()
}

func (l *Loop) Post(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

func (l *Loop) Do(fn func()) {
	finished := make(chan struct{})
	l.Post(func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
	case <-l.done:
	}
}

type loopTimer struct {
	stopped atomic.Bool
	halt    chan struct{}
	once    sync.Once
	timer   *time.Timer
}

func (t *loopTimer) Stop() {
	t.stopped.Store(true)
	t.once.Do(func() {
		if t.halt != nil {
			close(t.halt)
		}
		if t.timer != nil {
			t.timer.Stop()
		}
	})
}

// Every posts fn to the loop once per period. Ticks the loop cannot keep up
// with are dropped, never queued.
func (l *Loop) Every(d time.Duration, fn func()) Timer {
	t := &loopTimer{halt: make(chan struct{})}
	ticker := time.NewTicker(d)
	pending := atomic.Bool{}
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-t.halt:
				return
			case <-l.done:
				return
			case <-ticker.C:
				if !pending.CompareAndSwap(false, true) {
					continue
				}
				l.Post(func() {
					pending.Store(false)
					if !t.stopped.Load() {
						fn()
					}
				})
			}
		}
	}()
	return t
}

func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if !t.stopped.Load() {
				fn()
			}
		})
	})
	return t
}
