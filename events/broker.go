package events

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/r3labs/sse/v2"

	"github.com/marcus-crane/lobby/shared"
)

// Broker owns the SSE server that displays subscribe to. Every stream carries
// full snapshots, never diffs.
type Broker struct {
	Server  *sse.Server
	streams []string
}

func New(streams ...string) *Broker {
	server := sse.New()
	server.AutoReplay = false
	for _, s := range streams {
		server.CreateStream(s)
	}
	return &Broker{
		Server:  server,
		streams: streams,
	}
}

// PublishJSON encodes payload and sends it to everyone listening on stream
func (b *Broker) PublishJSON(stream, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.Server.Publish(stream, &sse.Event{
		Event: []byte(event),
		Data:  data,
	})
	return nil
}

// Heartbeat pings every stream. Clients only learn they're connected once
// something arrives so this also bounds how long that takes.
func (b *Broker) Heartbeat() {
	for _, s := range b.streams {
		b.Server.Publish(s, &sse.Event{
			Event: []byte(shared.EVENT_HEARTBEAT),
			Data:  []byte("{}"),
		})
	}
	slog.Debug("Sent heartbeat", slog.Int("streams", len(b.streams)))
}

func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.Server.ServeHTTP(w, r)
}

func (b *Broker) Close() {
	b.Server.Close()
}
