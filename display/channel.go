package display

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/r3labs/sse/v2"
	"gopkg.in/cenkalti/backoff.v1"
)

type ConnState int

const (
	Disconnected ConnState = iota
	Connected
)

func (s ConnState) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

type Subscription interface {
	Unsubscribe()
}

// Channel is a set of named push streams sharing one notion of being
// connected. Handlers and listeners are called from whatever goroutine the
// channel reads on, callers are expected to post back to their own loop.
type Channel interface {
	Subscribe(stream string, handler func(event string, data []byte)) Subscription
	OnConnectionChange(listener func(ConnState)) Subscription
}

type subscriptionFunc func()

func (f subscriptionFunc) Unsubscribe() { f() }

// connTracker folds the connection state of every subscription into one.
// We are connected only while all of them are, and listeners only hear about
// transitions of that overall state.
type connTracker struct {
	mu        sync.Mutex
	states    map[string]bool
	overall   ConnState
	listeners map[string]func(ConnState)
}

func newConnTracker() *connTracker {
	return &connTracker{
		states:    map[string]bool{},
		listeners: map[string]func(ConnState){},
	}
}

func (t *connTracker) listen(fn func(ConnState)) Subscription {
	id := uuid.NewString()
	t.mu.Lock()
	t.listeners[id] = fn
	t.mu.Unlock()
	return subscriptionFunc(func() {
		t.mu.Lock()
		delete(t.listeners, id)
		t.mu.Unlock()
	})
}

func (t *connTracker) add(id string) {
	t.update(func() { t.states[id] = false })
}

// set only touches subscriptions that are still tracked, a callback that
// lands after remove must not bring one back
func (t *connTracker) set(id string, up bool) {
	t.update(func() {
		if _, ok := t.states[id]; ok {
			t.states[id] = up
		}
	})
}

func (t *connTracker) remove(id string) {
	t.update(func() { delete(t.states, id) })
}

func (t *connTracker) update(change func()) {
	t.mu.Lock()
	change()
	next := Disconnected
	if len(t.states) > 0 {
		next = Connected
		for _, up := range t.states {
			if !up {
				next = Disconnected
				break
			}
		}
	}
	if next == t.overall {
		t.mu.Unlock()
		return
	}
	t.overall = next
	listeners := make([]func(ConnState), 0, len(t.listeners))
	for _, fn := range t.listeners {
		listeners = append(listeners, fn)
	}
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}

// SSEChannel subscribes to the API's event streams with one r3labs client per
// stream. Reconnects back off exponentially and never give up.
type SSEChannel struct {
	baseURL string
	token   string
	ctx     context.Context
	tracker *connTracker
	// MaxInterval caps the reconnect backoff
	MaxInterval time.Duration
}

func NewSSEChannel(ctx context.Context, baseURL, token string) *SSEChannel {
	return &SSEChannel{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		token:       token,
		ctx:         ctx,
		tracker:     newConnTracker(),
		MaxInterval: 30 * time.Second,
	}
}

func (sc *SSEChannel) OnConnectionChange(listener func(ConnState)) Subscription {
	return sc.tracker.listen(listener)
}

func (sc *SSEChannel) Subscribe(stream string, handler func(event string, data []byte)) Subscription {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(sc.ctx)
	logger := slog.With(slog.String("stream", stream), slog.String("subscription_id", id))

	client := sse.NewClient(sc.baseURL + "/events")
	if sc.token != "" {
		client.Headers["Authorization"] = "Bearer " + sc.token
	}
	client.OnConnect(func(c *sse.Client) {
		logger.Info("Connected to event stream")
		sc.tracker.set(id, true)
	})
	client.OnDisconnect(func(c *sse.Client) {
		logger.Warn("Lost connection to event stream")
		sc.tracker.set(id, false)
	})
	client.ReconnectNotify = func(err error, next time.Duration) {
		logger.Debug("Reconnecting to event stream", slog.Any("error", err), slog.Duration("next", next))
	}

	sc.tracker.add(id)

	go func() {
		defer sc.tracker.remove(id)
		for ctx.Err() == nil {
			b := backoff.NewExponentialBackOff()
			b.MaxInterval = sc.MaxInterval
			b.MaxElapsedTime = 0
			client.ReconnectStrategy = backoff.WithContext(b, ctx)

			err := client.SubscribeWithContext(ctx, stream, func(msg *sse.Event) {
				handler(string(msg.Event), msg.Data)
			})
			if ctx.Err() != nil {
				return
			}
			// A clean end of stream returns nil and never reports a disconnect
			if client.Connected {
				client.Connected = false
				sc.tracker.set(id, false)
			}
			if err != nil {
				logger.Warn("Event stream subscription ended", slog.Any("error", err))
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}()

	return subscriptionFunc(cancel)
}
