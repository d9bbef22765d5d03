package display

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type Timer interface {
	Stop()
}

// Scheduler is how engine components get work back onto the loop. Both
// timers and posted functions always run on the loop goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
	Post(fn func()) bool
}

// Loop owns every piece of display state. Anything that happens elsewhere
// (timers, push events, renderer callbacks, fetch results) is posted here
// and runs one at a time, so none of the engine types need locks.
type Loop struct {
	clock clockwork.Clock
	tasks chan func()
	quit  chan struct{}
	once  sync.Once
}

func NewLoop(clock clockwork.Clock) *Loop {
	return &Loop{
		clock: clock,
		tasks: make(chan func(), 64),
		quit:  make(chan struct{}),
	}
}

func (l *Loop) Run(ctx context.Context) {
	defer l.once.Do(func() { close(l.quit) })
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Post queues fn and reports whether the loop accepted it. Once the loop has
// stopped nothing is accepted.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.quit:
		return false
	}
}

// Call runs fn on the loop and waits for it to finish
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return context.Canceled
	}
	select {
	case <-done:
		return nil
	case <-l.quit:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

type loopTimer struct {
	timer   clockwork.Timer
	stopped bool
}

// Stop must be called from the loop goroutine. A timer whose clock already
// fired but whose callback hasn't run yet will see the flag and do nothing.
func (t *loopTimer) Stop() {
	t.stopped = true
	t.timer.Stop()
}

func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = l.clock.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped {
				return
			}
			t.stopped = true
			fn()
		})
	})
	return t
}
