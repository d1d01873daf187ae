package snapshot

import (
	"embed"
	"io/fs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFS embed.FS

// PostgresMigrations are the schema files for the fetch_snapshot table.
func PostgresMigrations() fs.FS {
	sub, _ := fs.Sub(migrationFS, "migrations/postgres")
	return sub
}

// SQLiteMigrations are the SQLite flavour of PostgresMigrations.
func SQLiteMigrations() fs.FS {
	sub, _ := fs.Sub(migrationFS, "migrations/sqlite")
	return sub
}
