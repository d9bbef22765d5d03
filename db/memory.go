package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/marcus-crane/lobby/models"
)

// MemoryStore keeps everything in maps. It backs tests and the
// throwaway demo mode where no database path is configured.
type MemoryStore struct {
	m        *sync.Mutex
	patients map[int64]models.Patient
	media    map[int64]models.MediaItem
	nextID   int64
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:        new(sync.Mutex),
		patients: map[int64]models.Patient{},
		media:    map[int64]models.MediaItem{},
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (ms *MemoryStore) Close() error {
	return nil
}

func (ms *MemoryStore) ListPatients(ctx context.Context) ([]models.Patient, error) {
	ms.m.Lock()
	defer ms.m.Unlock()
	pl := make([]models.Patient, 0, len(ms.patients))
	for _, p := range ms.patients {
		pl = append(pl, p)
	}
	sort.Slice(pl, func(i, j int) bool {
		if pl[i].CreatedAt.Equal(pl[j].CreatedAt) {
			return pl[i].ID < pl[j].ID
		}
		return pl[i].CreatedAt.Before(pl[j].CreatedAt)
	})
	return pl, nil
}

func (ms *MemoryStore) GetPatient(ctx context.Context, id int64) (models.Patient, error) {
	ms.m.Lock()
	defer ms.m.Unlock()
	p, ok := ms.patients[id]
	if !ok {
		return models.Patient{}, ErrNotFound
	}
	return p, nil
}

func (ms *MemoryStore) CreatePatient(ctx context.Context, in models.PatientInput) (models.Patient, error) {
	ms.m.Lock()
	defer ms.m.Unlock()
	ms.nextID++
	now := ms.now()
	p := models.Patient{
		ID:             ms.nextID,
		DocumentNumber: in.DocumentNumber,
		Name:           in.Name,
		Procedure:      in.Procedure,
		Stage:          in.Stage,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	ms.patients[p.ID] = p
	return p, nil
}

func (ms *MemoryStore) UpdatePatient(ctx context.Context, id int64, in models.PatientInput) (models.Patient, error) {
	ms.m.Lock()
	defer ms.m.Unlock()
	p, ok := ms.patients[id]
	if !ok {
		return p, ErrNotFound
	}
	p.DocumentNumber = in.DocumentNumber
	p.Name = in.Name
	p.Procedure = in.Procedure
	p.Stage = in.Stage
	p.UpdatedAt = ms.now()
	ms.patients[id] = p
	return p, nil
}

func (ms *MemoryStore) UpdatePatientStage(ctx context.Context, id int64, stage string) (models.Patient, error) {
	ms.m.Lock()
	defer ms.m.Unlock()
	p, ok := ms.patients[id]
	if !ok {
		return p, ErrNotFound
	}
	p.Stage = stage
	p.UpdatedAt = ms.now()
	ms.patients[id] = p
	return p, nil
}

func (ms *MemoryStore) DeletePatient(ctx context.Context, id int64) error {
	ms.m.Lock()
	defer ms.m.Unlock()
	if _, ok := ms.patients[id]; !ok {
		return ErrNotFound
	}
	delete(ms.patients, id)
	return nil
}

func (ms *MemoryStore) ListMedia(ctx context.Context) ([]models.MediaItem, error) {
	ms.m.Lock()
	defer ms.m.Unlock()
	ml := make([]models.MediaItem, 0, len(ms.media))
	for _, m := range ms.media {
		ml = append(ml, m)
	}
	sort.Slice(ml, func(i, j int) bool {
		if ml[i].Order == ml[j].Order {
			return ml[i].ID < ml[j].ID
		}
		return ml[i].Order < ml[j].Order
	})
	return ml, nil
}

func (ms *MemoryStore) GetMedia(ctx context.Context, id int64) (models.MediaItem, error) {
	ms.m.Lock()
	defer ms.m.Unlock()
	m, ok := ms.media[id]
	if !ok {
		return models.MediaItem{}, ErrNotFound
	}
	return m, nil
}

func (ms *MemoryStore) CreateMedia(ctx context.Context, in models.MediaInput) (models.MediaItem, error) {
	ms.m.Lock()
	defer ms.m.Unlock()
	ms.nextID++
	now := ms.now()
	m := applyMediaInput(models.MediaItem{ID: ms.nextID, CreatedAt: now}, in)
	m.UpdatedAt = now
	ms.media[m.ID] = m
	return m, nil
}

func (ms *MemoryStore) UpdateMedia(ctx context.Context, id int64, in models.MediaInput) (models.MediaItem, error) {
	ms.m.Lock()
	defer ms.m.Unlock()
	m, ok := ms.media[id]
	if !ok {
		return m, ErrNotFound
	}
	m = applyMediaInput(m, in)
	m.UpdatedAt = ms.now()
	ms.media[id] = m
	return m, nil
}

func (ms *MemoryStore) DeleteMedia(ctx context.Context, id int64) error {
	ms.m.Lock()
	defer ms.m.Unlock()
	if _, ok := ms.media[id]; !ok {
		return ErrNotFound
	}
	delete(ms.media, id)
	return nil
}

func applyMediaInput(m models.MediaItem, in models.MediaInput) models.MediaItem {
	m.Title = in.Title
	m.Kind = in.Kind
	m.File = in.File
	m.URL = in.URL
	m.Order = in.Order
	m.Active = in.Active
	m.DominantColours = in.DominantColours
	return m
}
