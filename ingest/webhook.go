package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	hmacext "github.com/alexellis/hmac/v2"

	"github.com/marcus-crane/lobby/db"
)

const SignatureHeader = "X-Lobby-Signature"

// WebhookHandler accepts stage updates from systems that can't hold a token,
// such as the theatre scheduling system. Bodies are signed with a shared
// secret using HMAC-SHA256.
func WebhookHandler(secret string, updater StageUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if secret == "" {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"error": "webhook is not configured"})
			return
		}

		signature := strings.TrimPrefix(r.Header.Get(SignatureHeader), "sha256=")
		if signature == "" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "no signature was provided"})
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "failed to read request body as part of signature validation"})
			return
		}

		if err := hmacext.Validate(body, fmt.Sprintf("sha256=%s", signature), secret); err != nil {
			slog.Error("Failed signature validation", slog.Any("error", err))
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "signature failed validation"})
			return
		}

		patient, err := ApplyStageUpdate(r.Context(), updater, body)
		switch {
		case errors.Is(err, ErrBadStageUpdate):
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		case errors.Is(err, db.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "patient not found"})
			return
		case err != nil:
			slog.Error("Failed to apply stage update", slog.Any("error", err))
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "failed to apply stage update"})
			return
		}

		slog.Info("Applied stage update from webhook",
			slog.Int64("patient_id", patient.ID),
			slog.String("stage", patient.Stage))
		json.NewEncoder(w).Encode(patient)
	}
}
