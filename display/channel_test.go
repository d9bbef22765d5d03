package display

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/r3labs/sse/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus-crane/lobby/shared"
)

type stateRecorder struct {
	mu     sync.Mutex
	states []ConnState
}

func (r *stateRecorder) record(s ConnState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *stateRecorder) get() []ConnState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ConnState(nil), r.states...)
}

func TestConnTracker_OnlyReportsTransitions(t *testing.T) {
	tracker := newConnTracker()
	rec := &stateRecorder{}
	tracker.listen(rec.record)

	tracker.add("a")
	tracker.add("b")
	assert.Empty(t, rec.get())

	tracker.set("a", true)
	assert.Empty(t, rec.get(), "one of two streams up is not connected")

	tracker.set("b", true)
	tracker.set("b", true)
	assert.Equal(t, []ConnState{Connected}, rec.get())

	tracker.set("a", false)
	tracker.set("b", false)
	assert.Equal(t, []ConnState{Connected, Disconnected}, rec.get())

	tracker.set("a", true)
	tracker.set("b", true)
	tracker.remove("b")
	assert.Equal(t, []ConnState{Connected, Disconnected, Connected}, rec.get())

	tracker.remove("a")
	assert.Equal(t, []ConnState{Connected, Disconnected, Connected, Disconnected}, rec.get())
}

func TestConnTracker_IgnoresRemovedSubscriptions(t *testing.T) {
	tracker := newConnTracker()
	rec := &stateRecorder{}
	tracker.listen(rec.record)

	tracker.add("a")
	tracker.remove("a")
	tracker.set("a", true)

	assert.Empty(t, rec.get())
}

func TestConnTracker_Unsubscribe(t *testing.T) {
	tracker := newConnTracker()
	rec := &stateRecorder{}
	sub := tracker.listen(rec.record)
	sub.Unsubscribe()

	tracker.add("a")
	tracker.set("a", true)
	assert.Empty(t, rec.get())
}

type receivedEvent struct {
	event string
	data  string
}

func TestSSEChannel_DeliversEventsAndTracksConnection(t *testing.T) {
	server := sse.New()
	server.CreateStream(shared.STREAM_PATIENTS)

	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer display-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		server.ServeHTTP(w, r)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	t.Cleanup(server.Close)

	server.Publish(shared.STREAM_PATIENTS, &sse.Event{
		Event: []byte(shared.EVENT_PATIENTS_UPDATED),
		Data:  []byte(`{"patients":[]}`),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := NewSSEChannel(ctx, ts.URL+"/", "display-token")

	states := &stateRecorder{}
	ch.OnConnectionChange(states.record)

	received := make(chan receivedEvent, 4)
	sub := ch.Subscribe(shared.STREAM_PATIENTS, func(event string, data []byte) {
		received <- receivedEvent{event: event, data: string(data)}
	})

	select {
	case got := <-received:
		assert.Equal(t, receivedEvent{event: shared.EVENT_PATIENTS_UPDATED, data: `{"patients":[]}`}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no event arrived")
	}
	require.Eventually(t, func() bool {
		return len(states.get()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []ConnState{Connected}, states.get())

	sub.Unsubscribe()
	require.Eventually(t, func() bool {
		return len(states.get()) == 2
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []ConnState{Connected, Disconnected}, states.get())
}
