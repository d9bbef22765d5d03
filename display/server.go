package display

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/r3labs/sse/v2"

	"github.com/marcus-crane/lobby/shared"
)

const PlayerOriginHeader = "X-Player-Origin"

type videoEnded struct {
	Src string `json:"src"`
}

func renderJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// RegisterRoutes exposes the display to the kiosk renderer. Commands flow out
// over /display/events and everything the renderer observes comes back in
// through the POST endpoints, which only ever post onto the loop.
func RegisterRoutes(mux *http.ServeMux, loop *Loop, d *Display, events *sse.Server) http.Handler {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /display/state", func(w http.ResponseWriter, r *http.Request) {
		var view View
		if err := loop.Call(r.Context(), func() { view = d.View() }); err != nil {
			renderJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "display is not running"})
			return
		}
		renderJSON(w, http.StatusOK, view)
	})

	mux.HandleFunc("GET /display/events", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		q.Set("stream", shared.STREAM_SURFACE)
		r.URL.RawQuery = q.Encode()
		events.ServeHTTP(w, r)
	})

	mux.HandleFunc("POST /display/video/ended", func(w http.ResponseWriter, r *http.Request) {
		var body videoEnded
		if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&body); err != nil {
			renderJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to parse request body"})
			return
		}
		loop.Post(func() { d.VideoEnded(body.Src) })
		w.WriteHeader(http.StatusAccepted)
	})

	// The renderer forwards embedded player messages untouched, origin included
	mux.HandleFunc("POST /display/player/message", func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
		if err != nil {
			renderJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
			return
		}
		origin := r.Header.Get(PlayerOriginHeader)
		loop.Post(func() { d.PlayerMessage(origin, raw) })
		w.WriteHeader(http.StatusAccepted)
	})

	mux.HandleFunc("POST /display/interaction", func(w http.ResponseWriter, r *http.Request) {
		loop.Post(d.Interact)
		slog.Debug("Received interaction from renderer")
		w.WriteHeader(http.StatusAccepted)
	})

	return mux
}
