package store

import (
	"database/sql"
	"fmt"

	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/MKhiriev/go-chat-keeper/migrations"
)

const (
	dialectPostgres = "pgx"
	dialectSQLite   = "sqlite3"
)

// ErrorClassificator decides whether a failed database call may be retried.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}

// DB wraps a *sql.DB with the dialect it was opened for, an error classifier
// and a logger.
type DB struct {
	*sql.DB
	dialect            string
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// Migrate applies the schema that matches the connection's dialect.
func (db *DB) Migrate() error {
	if db.dialect == dialectSQLite {
		return migrations.MigrateClient(db.DB)
	}
	return migrations.Migrate(db.DB)
}

// retryable reports whether err is worth another attempt according to the
// connection's classifier.
func (db *DB) retryable(err error) bool {
	if db.errorClassificator == nil {
		return false
	}
	return db.errorClassificator.Classify(err) == Retryable
}

// wrap tags err with kind and, when the failure is transient, with
// [ErrStorageUnavailable].
func (db *DB) wrap(kind, err error) error {
	if db.retryable(err) {
		return fmt.Errorf("%w: %w: %w", kind, ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%w: %w", kind, err)
}
