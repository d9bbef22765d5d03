package patients

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/marcus-crane/lobby/db"
	"github.com/marcus-crane/lobby/models"
	"github.com/marcus-crane/lobby/shared"
)

type Publisher interface {
	PublishJSON(stream, event string, payload any) error
}

// StageNotifier is told whenever a patient moves from one clinical stage to another
type StageNotifier interface {
	StageChanged(before, after models.Patient)
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PatientSystem fronts the store for everything patient related. State always
// holds the latest roster, and every change is pushed out to displays as a
// full snapshot on the patients stream.
type PatientSystem struct {
	State     []models.Patient
	store     db.Store
	publisher Publisher
	notifier  StageNotifier
	m         sync.RWMutex
}

func NewPatientSystem(store db.Store, publisher Publisher) *PatientSystem {
	return &PatientSystem{
		State:     []models.Patient{},
		store:     store,
		publisher: publisher,
	}
}

func (ps *PatientSystem) SetNotifier(n StageNotifier) {
	ps.notifier = n
}

func Validate(in models.PatientInput) error {
	if strings.TrimSpace(in.DocumentNumber) == "" {
		return &ValidationError{Field: "document_number", Message: "the document number is required"}
	}
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Message: "the patient name is required"}
	}
	if strings.TrimSpace(in.Procedure) == "" {
		return &ValidationError{Field: "procedure", Message: "the procedure is required"}
	}
	return validateStage(in.Stage)
}

// Unknown stage codes are accepted on purpose, the display renders them with a fallback style
func validateStage(stage string) error {
	if strings.TrimSpace(stage) == "" {
		return &ValidationError{Field: "stage", Message: "the patient stage is required"}
	}
	return nil
}

func (ps *PatientSystem) Snapshot() []models.Patient {
	ps.m.RLock()
	defer ps.m.RUnlock()
	out := make([]models.Patient, len(ps.State))
	copy(out, ps.State)
	return out
}

func (ps *PatientSystem) Get(ctx context.Context, id int64) (models.Patient, error) {
	return ps.store.GetPatient(ctx, id)
}

func (ps *PatientSystem) Create(ctx context.Context, in models.PatientInput) (models.Patient, error) {
	if err := Validate(in); err != nil {
		return models.Patient{}, err
	}
	p, err := ps.store.CreatePatient(ctx, normalise(in))
	if err != nil {
		return p, err
	}
	slog.Info("Created patient", slog.Int64("patient_id", p.ID), slog.String("stage", p.Stage))
	ps.refreshAndBroadcast(ctx)
	return p, nil
}

func (ps *PatientSystem) Update(ctx context.Context, id int64, in models.PatientInput) (models.Patient, error) {
	if err := Validate(in); err != nil {
		return models.Patient{}, err
	}
	before, err := ps.store.GetPatient(ctx, id)
	if err != nil {
		return before, err
	}
	p, err := ps.store.UpdatePatient(ctx, id, normalise(in))
	if err != nil {
		return p, err
	}
	ps.stageChanged(before, p)
	ps.refreshAndBroadcast(ctx)
	return p, nil
}

// UpdateStage is the stage-only update used by the admin console as well as
// the webhook and MQTT ingestion paths.
func (ps *PatientSystem) UpdateStage(ctx context.Context, id int64, stage string) (models.Patient, error) {
	if err := validateStage(stage); err != nil {
		return models.Patient{}, err
	}
	before, err := ps.store.GetPatient(ctx, id)
	if err != nil {
		return before, err
	}
	p, err := ps.store.UpdatePatientStage(ctx, id, strings.ToLower(strings.TrimSpace(stage)))
	if err != nil {
		return p, err
	}
	ps.stageChanged(before, p)
	ps.refreshAndBroadcast(ctx)
	return p, nil
}

func (ps *PatientSystem) Delete(ctx context.Context, id int64) error {
	if err := ps.store.DeletePatient(ctx, id); err != nil {
		return err
	}
	slog.Info("Deleted patient", slog.Int64("patient_id", id))
	ps.refreshAndBroadcast(ctx)
	return nil
}

// RefreshState reloads the roster from the store and reports whether it changed
func (ps *PatientSystem) RefreshState(ctx context.Context) (bool, error) {
	entries, err := ps.store.ListPatients(ctx)
	if err != nil {
		return false, err
	}

	ps.m.Lock()
	defer ps.m.Unlock()

	// reflect.DeepEqual is good enough for our purposes, we only use it to
	// decide whether a broadcast is worth sending
	changed := !reflect.DeepEqual(ps.State, entries)
	ps.State = entries

	return changed, nil
}

// Sync is what the background job calls. Writes made by other processes
// against the same database only reach displays through here.
func (ps *PatientSystem) Sync(ctx context.Context) {
	changed, err := ps.RefreshState(ctx)
	if err != nil {
		slog.Error("Failed to refresh patients", slog.Any("error", err))
		return
	}
	if changed {
		ps.Broadcast()
	}
}

func (ps *PatientSystem) Broadcast() {
	payload := models.PatientsSnapshot{Patients: ps.Snapshot()}
	if err := ps.publisher.PublishJSON(shared.STREAM_PATIENTS, shared.EVENT_PATIENTS_UPDATED, payload); err != nil {
		slog.Error("Failed to broadcast patients", slog.Any("error", err))
	}
}

func (ps *PatientSystem) refreshAndBroadcast(ctx context.Context) {
	if _, err := ps.RefreshState(ctx); err != nil {
		slog.Error("Failed to refresh patients", slog.Any("error", err))
		return
	}
	ps.Broadcast()
}

func (ps *PatientSystem) stageChanged(before, after models.Patient) {
	if before.Stage == after.Stage {
		return
	}
	slog.Info("Patient changed stage",
		slog.Int64("patient_id", after.ID),
		slog.String("old_stage", before.Stage),
		slog.String("new_stage", after.Stage))
	if ps.notifier != nil {
		ps.notifier.StageChanged(before, after)
	}
}

func normalise(in models.PatientInput) models.PatientInput {
	in.DocumentNumber = strings.TrimSpace(in.DocumentNumber)
	in.Name = strings.TrimSpace(in.Name)
	in.Procedure = strings.TrimSpace(in.Procedure)
	in.Stage = strings.ToLower(strings.TrimSpace(in.Stage))
	return in
}
