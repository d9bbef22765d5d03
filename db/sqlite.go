package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/marcus-crane/lobby/models"

	_ "modernc.org/sqlite"
)

const (
	patientColumns = "id, document_number, name, procedure_description, stage, created_at, updated_at"
	mediaColumns   = "id, title, kind, file, url, display_order, active, dominant_colours, created_at, updated_at"
)

type SqliteStore struct {
	DB  *sqlx.DB
	now func() time.Time
}

func NewSqliteStore(dsn string) (*SqliteStore, error) {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// sqlite only allows a single writer so there's no point pretending otherwise
	db.SetMaxOpenConns(1)
	return NewSqliteStoreFromDB(db), nil
}

func NewSqliteStoreFromDB(db *sqlx.DB) *SqliteStore {
	return &SqliteStore{
		DB: db,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *SqliteStore) ApplyMigrations(migrations embed.FS, dir string) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		return err
	}

	if err := goose.Up(s.DB.DB, dir); err != nil {
		return err
	}

	return nil
}

func (s *SqliteStore) Close() error {
	return s.DB.Close()
}

func (s *SqliteStore) ListPatients(ctx context.Context) ([]models.Patient, error) {
	pl := []models.Patient{}
	if err := s.DB.SelectContext(ctx, &pl, "SELECT "+patientColumns+" FROM patients ORDER BY created_at ASC, id ASC"); err != nil {
		return pl, fmt.Errorf("list patients: %w", err)
	}
	return pl, nil
}

func (s *SqliteStore) GetPatient(ctx context.Context, id int64) (models.Patient, error) {
	p := models.Patient{}
	err := s.DB.GetContext(ctx, &p, "SELECT "+patientColumns+" FROM patients WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, fmt.Errorf("get patient %d: %w", id, err)
	}
	return p, nil
}

func (s *SqliteStore) CreatePatient(ctx context.Context, in models.PatientInput) (models.Patient, error) {
	now := s.now()
	res, err := s.DB.ExecContext(ctx,
		"INSERT INTO patients (document_number, name, procedure_description, stage, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		in.DocumentNumber,
		in.Name,
		in.Procedure,
		in.Stage,
		now,
		now,
	)
	if err != nil {
		return models.Patient{}, fmt.Errorf("insert patient: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Patient{}, err
	}
	return s.GetPatient(ctx, id)
}

func (s *SqliteStore) UpdatePatient(ctx context.Context, id int64, in models.PatientInput) (models.Patient, error) {
	res, err := s.DB.ExecContext(ctx,
		"UPDATE patients SET document_number = ?, name = ?, procedure_description = ?, stage = ?, updated_at = ? WHERE id = ?",
		in.DocumentNumber,
		in.Name,
		in.Procedure,
		in.Stage,
		s.now(),
		id,
	)
	if err := checkAffected(res, err); err != nil {
		return models.Patient{}, err
	}
	return s.GetPatient(ctx, id)
}

func (s *SqliteStore) UpdatePatientStage(ctx context.Context, id int64, stage string) (models.Patient, error) {
	res, err := s.DB.ExecContext(ctx, "UPDATE patients SET stage = ?, updated_at = ? WHERE id = ?", stage, s.now(), id)
	if err := checkAffected(res, err); err != nil {
		return models.Patient{}, err
	}
	return s.GetPatient(ctx, id)
}

func (s *SqliteStore) DeletePatient(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM patients WHERE id = ?", id)
	return checkAffected(res, err)
}

func (s *SqliteStore) ListMedia(ctx context.Context) ([]models.MediaItem, error) {
	ml := []models.MediaItem{}
	if err := s.DB.SelectContext(ctx, &ml, "SELECT "+mediaColumns+" FROM media_items ORDER BY display_order ASC, id ASC"); err != nil {
		return ml, fmt.Errorf("list media: %w", err)
	}
	return ml, nil
}

func (s *SqliteStore) GetMedia(ctx context.Context, id int64) (models.MediaItem, error) {
	m := models.MediaItem{}
	err := s.DB.GetContext(ctx, &m, "SELECT "+mediaColumns+" FROM media_items WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNotFound
	}
	if err != nil {
		return m, fmt.Errorf("get media %d: %w", id, err)
	}
	return m, nil
}

func (s *SqliteStore) CreateMedia(ctx context.Context, in models.MediaInput) (models.MediaItem, error) {
	now := s.now()
	res, err := s.DB.ExecContext(ctx,
		"INSERT INTO media_items (title, kind, file, url, display_order, active, dominant_colours, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		in.Title,
		in.Kind,
		in.File,
		in.URL,
		in.Order,
		in.Active,
		in.DominantColours,
		now,
		now,
	)
	if err != nil {
		return models.MediaItem{}, fmt.Errorf("insert media: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.MediaItem{}, err
	}
	return s.GetMedia(ctx, id)
}

func (s *SqliteStore) UpdateMedia(ctx context.Context, id int64, in models.MediaInput) (models.MediaItem, error) {
	res, err := s.DB.ExecContext(ctx,
		"UPDATE media_items SET title = ?, kind = ?, file = ?, url = ?, display_order = ?, active = ?, dominant_colours = ?, updated_at = ? WHERE id = ?",
		in.Title,
		in.Kind,
		in.File,
		in.URL,
		in.Order,
		in.Active,
		in.DominantColours,
		s.now(),
		id,
	)
	if err := checkAffected(res, err); err != nil {
		return models.MediaItem{}, err
	}
	return s.GetMedia(ctx, id)
}

func (s *SqliteStore) DeleteMedia(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM media_items WHERE id = ?", id)
	return checkAffected(res, err)
}

func checkAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
