package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	sq "github.com/Masterminds/squirrel"
)

// blobsTable mirrors migrations/client.
const blobsTable = "blobs"

// runner is satisfied by both *sql.DB and *sql.Tx.
type runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteKV stores blobs in the "blobs" table of the local SQLite file.
type SQLiteKV struct {
	*DB
	builder sq.StatementBuilderType
}

func NewSQLiteKV(db *DB) *SQLiteKV {
	return &SQLiteKV{
		DB:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, error) {
	return s.get(ctx, s.DB, key)
}

func (s *SQLiteKV) Set(ctx context.Context, key string, value []byte) error {
	return s.set(ctx, s.DB, key, value)
}

func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	return s.delete(ctx, s.DB, key)
}

// Update reads and rewrites key in one transaction. Connections opened by
// [NewConnectSQLite] begin it with BEGIN IMMEDIATE, so a second process
// waits for the write lock instead of working on a stale blob.
func (s *SQLiteKV) Update(ctx context.Context, key string, fn UpdateFunc) error {
	log := logger.FromContext(ctx)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "*SQLiteKV.Update").Str("key", key).Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	current, err := s.get(ctx, tx, key)
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return err
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	if next == nil {
		err = s.delete(ctx, tx, key)
	} else {
		err = s.set(ctx, tx, key, next)
	}
	if err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("func", "*SQLiteKV.Update").Str("key", key).Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommittingTransaction, err)
	}
	return nil
}

func (s *SQLiteKV) get(ctx context.Context, r runner, key string) ([]byte, error) {
	log := logger.FromContext(ctx)

	query, args, err := s.builder.
		Select("payload").
		From(blobsTable).
		Where(sq.Eq{"id": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var payload []byte
	err = r.QueryRowContext(ctx, query, args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		log.Err(err).Str("func", "*SQLiteKV.Get").Str("key", key).Msg("failed to read blob")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return payload, nil
}

func (s *SQLiteKV) set(ctx context.Context, r runner, key string, value []byte) error {
	log := logger.FromContext(ctx)

	query, args, err := s.builder.
		Insert(blobsTable).
		Columns("id", "payload", "updated_at").
		Values(key, value, time.Now().UTC()).
		Suffix("ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "*SQLiteKV.Set").Str("key", key).Msg("failed to write blob")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (s *SQLiteKV) delete(ctx context.Context, r runner, key string) error {
	log := logger.FromContext(ctx)

	query, args, err := s.builder.
		Delete(blobsTable).
		Where(sq.Eq{"id": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "*SQLiteKV.Delete").Str("key", key).Msg("failed to delete blob")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (s *SQLiteKV) Close() error {
	return s.DB.DB.Close()
}
