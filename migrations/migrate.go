// Package migrations embeds the goose schema migrations for the remote-store
// PostgreSQL database and the client's local SQLite file.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed server/*.sql
var serverMigrations embed.FS

//go:embed client/*.sql
var clientMigrations embed.FS

var errNilDB = errors.New("db is nil")

// Migrate applies the server schema to a PostgreSQL database opened with the
// pgx driver.
func Migrate(db *sql.DB) error {
	return migrate(db, serverMigrations, "pgx", "server")
}

// MigrateClient applies the local blob schema to a SQLite database.
func MigrateClient(db *sql.DB) error {
	return migrate(db, clientMigrations, "sqlite3", "client")
}

func migrate(db *sql.DB, fsys embed.FS, dialect, dir string) error {
	if db == nil {
		return fmt.Errorf("migration error: %w", errNilDB)
	}

	goose.SetBaseFS(fsys)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}
