package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/marcus-crane/lobby/models"
)

var ErrBadStageUpdate = errors.New("malformed stage update")

type StageUpdater interface {
	UpdateStage(ctx context.Context, id int64, stage string) (models.Patient, error)
}

// ApplyStageUpdate decodes an external stage event and hands it to updater.
// Both the webhook and the MQTT subscriber speak the same payload.
func ApplyStageUpdate(ctx context.Context, updater StageUpdater, payload []byte) (models.Patient, error) {
	var update models.StageUpdate
	if err := json.Unmarshal(payload, &update); err != nil {
		return models.Patient{}, fmt.Errorf("%w: %w", ErrBadStageUpdate, err)
	}
	if update.PatientID <= 0 {
		return models.Patient{}, fmt.Errorf("%w: patient_id is required", ErrBadStageUpdate)
	}
	if strings.TrimSpace(update.Stage) == "" {
		return models.Patient{}, fmt.Errorf("%w: stage is required", ErrBadStageUpdate)
	}
	return updater.UpdateStage(ctx, update.PatientID, update.Stage)
}
