package clock

import (
	"sort"
	"time"
)

// Fake is a virtual-time Scheduler for tests. Nothing happens until Advance
// is called; Post and Do run inline.
type Fake struct {
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	when    time.Time
	period  time.Duration
	fn      func()
	seq     int
	stopped bool
}

func (t *fakeTimer) Stop() {
	t.stopped = true
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	return f.now
}

func (f *Fake) Post(fn func()) { fn() }

func (f *Fake) Do(fn func()) { fn() }

func (f *Fake) Every(d time.Duration, fn func()) Timer {
	return f.schedule(d, d, fn)
}

func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	return f.schedule(d, 0, fn)
}

func (f *Fake) schedule(delay, period time.Duration, fn func()) *fakeTimer {
	f.seq++
	t := &fakeTimer{when: f.now.Add(delay), period: period, fn: fn, seq: f.seq}
	f.timers = append(f.timers, t)
	return t
}

// Active reports how many timers are still scheduled.
func (f *Fake) Active() int {
	n := 0
	for _, t := range f.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Advance moves virtual time forward by d, firing every due timer in order.
func (f *Fake) Advance(d time.Duration) {
	target := f.now.Add(d)
	for {
		next := f.nextDue(target)
		if next == nil {
			break
		}
		if next.when.After(f.now) {
			f.now = next.when
		}
		if next.period > 0 {
			next.when = f.now.Add(next.period)
		} else {
			next.stopped = true
		}
		next.fn()
	}
	f.now = target
}

// Skew moves virtual time forward without firing anything, as if the host
// throttled every timer. The next Advance delivers each overdue timer once.
func (f *Fake) Skew(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *Fake) nextDue(target time.Time) *fakeTimer {
	live := f.timers[:0]
	for _, t := range f.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	f.timers = live
	sort.SliceStable(f.timers, func(i, j int) bool {
		if f.timers[i].when.Equal(f.timers[j].when) {
			return f.timers[i].seq < f.timers[j].seq
		}
		return f.timers[i].when.Before(f.timers[j].when)
	})
	if len(f.timers) > 0 && !f.timers[0].when.After(target) {
		return f.timers[0]
	}
	return nil
}
