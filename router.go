package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rs/cors"

	"github.com/marcus-crane/lobby/auth"
	"github.com/marcus-crane/lobby/db"
	"github.com/marcus-crane/lobby/events"
	"github.com/marcus-crane/lobby/ingest"
	"github.com/marcus-crane/lobby/media"
	"github.com/marcus-crane/lobby/models"
	"github.com/marcus-crane/lobby/patients"
	"github.com/marcus-crane/lobby/shared"
)

const maxFormMemory = 32 << 20

type API struct {
	Patients      *patients.PatientSystem
	Media         *media.MediaSystem
	Storage       *media.Storage
	Broker        *events.Broker
	Auth          *auth.Authenticator
	WebhookSecret string
}

func renderJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func renderError(w http.ResponseWriter, status int, message string) {
	renderJSON(w, status, map[string]string{"error": message})
}

// renderSystemError maps errors coming out of the patient and media systems
// onto a status code. Anything unexpected is logged and hidden from callers.
func renderSystemError(w http.ResponseWriter, err error) {
	var patientErr *patients.ValidationError
	var mediaErr *media.ValidationError
	switch {
	case errors.As(err, &patientErr), errors.As(err, &mediaErr):
		renderError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, db.ErrNotFound):
		renderError(w, http.StatusNotFound, "record not found")
	default:
		slog.Error("Request failed", slog.Any("error", err))
		renderError(w, http.StatusInternalServerError, "something went wrong")
	}
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}

func RegisterRoutes(mux *http.ServeMux, api API, allowedOrigins []string) http.Handler {
	a := api.Auth

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintln(w, "Lobby is up. Displays subscribe to /events and admins manage things under /api.")
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Displays subscribe here. Which permission is needed depends on the stream asked for.
	mux.HandleFunc("GET /events", func(w http.ResponseWriter, r *http.Request) {
		var permission string
		switch r.URL.Query().Get("stream") {
		case shared.STREAM_PATIENTS:
			permission = shared.PERMISSION_PATIENTS_READ
		case shared.STREAM_MEDIA:
			permission = shared.PERMISSION_MEDIA_READ
		default:
			renderError(w, http.StatusBadRequest, "unknown stream")
			return
		}
		a.Require(permission, api.Broker.ServeHTTP)(w, r)
	})

	mux.Handle("GET "+shared.STORAGE_PREFIX, api.Storage.Handler())

	mux.HandleFunc("GET /api/patients", a.Require(shared.PERMISSION_PATIENTS_READ, func(w http.ResponseWriter, r *http.Request) {
		renderJSON(w, http.StatusOK, models.PatientsSnapshot{Patients: api.Patients.Snapshot()})
	}))

	mux.HandleFunc("GET /api/patients/{id}", a.Require(shared.PERMISSION_PATIENTS_READ, func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			renderError(w, http.StatusBadRequest, err.Error())
			return
		}
		p, err := api.Patients.Get(r.Context(), id)
		if err != nil {
			renderSystemError(w, err)
			return
		}
		renderJSON(w, http.StatusOK, p)
	}))

	mux.HandleFunc("POST /api/patients", a.Require(shared.PERMISSION_PATIENTS_WRITE, func(w http.ResponseWriter, r *http.Request) {
		var in models.PatientInput
		if err := decode(w, r, &in); err != nil {
			renderError(w, http.StatusBadRequest, "failed to parse request body")
			return
		}
		p, err := api.Patients.Create(r.Context(), in)
		if err != nil {
			renderSystemError(w, err)
			return
		}
		renderJSON(w, http.StatusCreated, p)
	}))

	mux.HandleFunc("PUT /api/patients/{id}", a.Require(shared.PERMISSION_PATIENTS_WRITE, func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			renderError(w, http.StatusBadRequest, err.Error())
			return
		}
		var in models.PatientInput
		if err := decode(w, r, &in); err != nil {
			renderError(w, http.StatusBadRequest, "failed to parse request body")
			return
		}
		p, err := api.Patients.Update(r.Context(), id, in)
		if err != nil {
			renderSystemError(w, err)
			return
		}
		renderJSON(w, http.StatusOK, p)
	}))

	mux.HandleFunc("PATCH /api/patients/{id}/stage", a.Require(shared.PERMISSION_PATIENTS_WRITE, func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			renderError(w, http.StatusBadRequest, err.Error())
			return
		}
		var in models.StageUpdate
		if err := decode(w, r, &in); err != nil {
			renderError(w, http.StatusBadRequest, "failed to parse request body")
			return
		}
		p, err := api.Patients.UpdateStage(r.Context(), id, in.Stage)
		if err != nil {
			renderSystemError(w, err)
			return
		}
		renderJSON(w, http.StatusOK, p)
	}))

	mux.HandleFunc("DELETE /api/patients/{id}", a.Require(shared.PERMISSION_PATIENTS_DELETE, func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			renderError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := api.Patients.Delete(r.Context(), id); err != nil {
			renderSystemError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	mux.HandleFunc("GET /api/media", a.Require(shared.PERMISSION_MEDIA_READ, func(w http.ResponseWriter, r *http.Request) {
		renderJSON(w, http.StatusOK, models.MediaSnapshot{Media: api.Media.Snapshot()})
	}))

	mux.HandleFunc("GET /api/media/{id}", a.Require(shared.PERMISSION_MEDIA_READ, func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			renderError(w, http.StatusBadRequest, err.Error())
			return
		}
		item, err := api.Media.Get(r.Context(), id)
		if err != nil {
			renderSystemError(w, err)
			return
		}
		renderJSON(w, http.StatusOK, item)
	}))

	mux.HandleFunc("POST /api/media", a.Require(shared.PERMISSION_MEDIA_WRITE, func(w http.ResponseWriter, r *http.Request) {
		var in models.MediaInput
		if err := decode(w, r, &in); err != nil {
			renderError(w, http.StatusBadRequest, "failed to parse request body")
			return
		}
		item, err := api.Media.Create(r.Context(), in)
		if err != nil {
			renderSystemError(w, err)
			return
		}
		renderJSON(w, http.StatusCreated, item)
	}))

	mux.HandleFunc("PUT /api/media/{id}", a.Require(shared.PERMISSION_MEDIA_WRITE, func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			renderError(w, http.StatusBadRequest, err.Error())
			return
		}
		var in models.MediaInput
		if err := decode(w, r, &in); err != nil {
			renderError(w, http.StatusBadRequest, "failed to parse request body")
			return
		}
		item, err := api.Media.Update(r.Context(), id, in)
		if err != nil {
			renderSystemError(w, err)
			return
		}
		renderJSON(w, http.StatusOK, item)
	}))

	mux.HandleFunc("DELETE /api/media/{id}", a.Require(shared.PERMISSION_MEDIA_DELETE, func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			renderError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := api.Media.Delete(r.Context(), id); err != nil {
			renderSystemError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	// Uploads land in storage first. When a title comes along with the file we
	// create the media item straight away, otherwise the caller gets the stored
	// reference back and can attach it later.
	mux.HandleFunc("POST /api/media/upload", a.Require(shared.PERMISSION_MEDIA_WRITE, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			renderError(w, http.StatusBadRequest, "failed to parse upload")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			renderError(w, http.StatusBadRequest, "no file was provided")
			return
		}
		defer file.Close()

		stored, err := api.Storage.Save(header.Filename, file)
		if errors.Is(err, media.ErrUnsupportedUpload) {
			renderError(w, http.StatusUnsupportedMediaType, err.Error())
			return
		}
		if err != nil {
			renderSystemError(w, err)
			return
		}

		title := r.FormValue("title")
		if title == "" {
			renderJSON(w, http.StatusCreated, map[string]any{
				"file":             stored.Name,
				"kind":             stored.Kind,
				"dominant_colours": stored.DominantColours,
			})
			return
		}
		order, _ := strconv.Atoi(r.FormValue("order"))
		item, err := api.Media.Create(r.Context(), models.MediaInput{
			Title:           title,
			Kind:            stored.Kind,
			File:            stored.Name,
			Order:           order,
			Active:          r.FormValue("active") != "false",
			DominantColours: stored.DominantColours,
		})
		if err != nil {
			renderSystemError(w, err)
			return
		}
		renderJSON(w, http.StatusCreated, item)
	}))

	mux.HandleFunc("POST /api/webhooks/stage", ingest.WebhookHandler(api.WebhookSecret, api.Patients))

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	return c.Handler(mux)
}
