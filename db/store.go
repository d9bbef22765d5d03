package db

import (
	"context"
	"errors"

	"github.com/marcus-crane/lobby/models"
)

var ErrNotFound = errors.New("record not found")

// Store is everything the API server needs to persist. The display never
// talks to it directly, it only ever sees snapshots.
type Store interface {
	ListPatients(ctx context.Context) ([]models.Patient, error)
	GetPatient(ctx context.Context, id int64) (models.Patient, error)
	CreatePatient(ctx context.Context, in models.PatientInput) (models.Patient, error)
	UpdatePatient(ctx context.Context, id int64, in models.PatientInput) (models.Patient, error)
	UpdatePatientStage(ctx context.Context, id int64, stage string) (models.Patient, error)
	DeletePatient(ctx context.Context, id int64) error

	ListMedia(ctx context.Context) ([]models.MediaItem, error)
	GetMedia(ctx context.Context, id int64) (models.MediaItem, error)
	CreateMedia(ctx context.Context, in models.MediaInput) (models.MediaItem, error)
	UpdateMedia(ctx context.Context, id int64, in models.MediaInput) (models.MediaItem, error)
	DeleteMedia(ctx context.Context, id int64) error

	Close() error
}
