package migrations

import (
	"embed"
)

// Dir is the directory goose should look in when given GetMigrations as its base FS
const Dir = "."

//go:embed *.sql
var embedMigrations embed.FS

func GetMigrations() embed.FS {
	return embedMigrations
}
