package db

import (
	"log/slog"

	"github.com/marcus-crane/lobby/migrations"
)

// Initialize opens the sqlite database at path and brings its schema up to date
func Initialize(path string) (*SqliteStore, error) {
	store, err := NewSqliteStore(path)
	if err != nil {
		return nil, err
	}
	if err := store.ApplyMigrations(migrations.GetMigrations(), migrations.Dir); err != nil {
		store.Close()
		return nil, err
	}
	slog.Info("Initialised DB connection", slog.String("path", path))
	return store, nil
}
