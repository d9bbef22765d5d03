package db

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
	"github.com/marcus-crane/lobby/migrations"
	"github.com/marcus-crane/lobby/models"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SqliteStore {
	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	// every connection to :memory: is a brand new database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		db.Close()
	})

	s := NewSqliteStoreFromDB(db)
	require.NoError(t, s.ApplyMigrations(migrations.GetMigrations(), migrations.Dir))
	return s
}

func TestSqliteStore_PatientRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	created, err := s.CreatePatient(ctx, models.PatientInput{
		DocumentNumber: "1020304050",
		Name:           "Maria Perez",
		Procedure:      "Colecistectomía",
		Stage:          models.StagePreparation,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	staged, err := s.UpdatePatientStage(ctx, created.ID, models.StageSurgery)
	require.NoError(t, err)
	assert.Equal(t, models.StageSurgery, staged.Stage)
	assert.Equal(t, "Colecistectomía", staged.Procedure)

	pl, err := s.ListPatients(ctx)
	require.NoError(t, err)
	require.Len(t, pl, 1)
	assert.Equal(t, "Maria Perez", pl[0].Name)

	require.NoError(t, s.DeletePatient(ctx, created.ID))
	_, err = s.GetPatient(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSqliteStore_UpdateMissingPatient(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.UpdatePatientStage(context.Background(), 404, models.StageDischarged)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSqliteStore_MediaRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	_, err := s.CreateMedia(ctx, models.MediaInput{Title: "Bienvenida", Kind: models.KindVideo, File: "a.mp4", Order: 2, Active: true})
	require.NoError(t, err)
	img, err := s.CreateMedia(ctx, models.MediaInput{
		Title:           "Horarios",
		Kind:            models.KindImage,
		File:            "b.png",
		Order:           1,
		Active:          true,
		DominantColours: models.SerializedColors{"#020304", "#6581be"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.SerializedColors{"#020304", "#6581be"}, img.DominantColours)

	img.Active = false
	updated, err := s.UpdateMedia(ctx, img.ID, models.MediaInput{Title: img.Title, Kind: img.Kind, File: img.File, Order: img.Order, Active: false})
	require.NoError(t, err)
	assert.False(t, updated.Active)

	ml, err := s.ListMedia(ctx)
	require.NoError(t, err)
	var got []string
	for _, m := range ml {
		got = append(got, m.Title)
	}
	want := []string{"Horarios", "Bienvenida"}
	if !cmp.Equal(want, got) {
		t.Error(cmp.Diff(want, got))
	}
}

func TestSqliteStore_ListPatientsQuery(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})

	created := time.Date(2025, 9, 19, 14, 7, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "document_number", "name", "procedure_description", "stage", "created_at", "updated_at"}).
		AddRow(1, "111", "blah", "", "cirugia", created, created).
		AddRow(2, "222", "bleh", "", "alta", created, created)
	mock.ExpectQuery("SELECT " + patientColumns + " FROM patients ORDER BY created_at ASC, id ASC").WillReturnRows(rows)

	s := NewSqliteStoreFromDB(sqlx.NewDb(db, "sqlmock"))
	got, err := s.ListPatients(context.Background())
	require.NoError(t, err)

	want := []models.Patient{
		{ID: 1, DocumentNumber: "111", Name: "blah", Stage: "cirugia", CreatedAt: created, UpdatedAt: created},
		{ID: 2, DocumentNumber: "222", Name: "bleh", Stage: "alta", CreatedAt: created, UpdatedAt: created},
	}
	if !cmp.Equal(want, got) {
		t.Error(cmp.Diff(want, got))
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqliteStore_DeleteMediaNotFound(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})
	mock.ExpectExec("DELETE FROM media_items WHERE id = ?").WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewSqliteStoreFromDB(sqlx.NewDb(db, "sqlmock"))
	assert.ErrorIs(t, s.DeleteMedia(context.Background(), 9), ErrNotFound)
}
