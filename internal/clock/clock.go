// Package clock provides the time source and the single event loop every
// timer, deck and alarm operation runs on.
package clock

import "time"

// Timer is a scheduled callback. Stop is synchronous: once it returns on the
// loop, the callback will not run again.
type Timer interface {
	Stop()
}

// Clock is the wall-clock capability injected into the timer engine.
type Clock interface {
	Now() time.Time
	Every(d time.Duration, fn func()) Timer
	AfterFunc(d time.Duration, fn func()) Timer
}

// Scheduler is a Clock whose callbacks are serialised on one loop. Post
// enqueues work from any goroutine; Do enqueues and waits for completion and
// must not be called from the loop itself.
type Scheduler interface {
	Clock
	Post(fn func())
	Do(fn func())
}
