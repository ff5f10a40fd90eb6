// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/MKhiriev/go-chat-keeper/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// newDBFromSQL создаёт DB из существующего *sql.DB (для тестов).
func newDBFromSQL(db *sql.DB) *DB {
	return &DB{
		DB:                 db,
		dialect:            dialectPostgres,
		errorClassificator: NewPostgresErrorClassifier(),
		logger:             logger.Nop(),
	}
}

func newTestRepo(t *testing.T) (ConversationRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newTestDB(t)
	return NewConversationRepository(newDBFromSQL(db), logger.Nop()), mock
}

func testContext() context.Context {
	l := zerolog.Nop()
	return l.WithContext(context.Background())
}

var conversationRowColumns = []string{"id", "user_id", "title", "messages", "created_at", "updated_at", "is_saved"}

// ── ListConversations ─────────────────────────────────────────────────────────

func TestListConversations(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	query := regexp.QuoteMeta(`SELECT id, user_id, title, messages, created_at, updated_at, is_saved FROM conversations WHERE user_id = $1 ORDER BY updated_at DESC, id`)

	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		wantErr error
		wantLen int
		check   func(t *testing.T, got []models.Conversation)
	}{
		{
			name: "success: decodes messages",
			setup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(conversationRowColumns).
					AddRow("c1", int64(42), "first", []byte(`[{"id":"m1","role":"user","content":"hi","timestamp":"2026-03-01T10:00:00Z"}]`), now, now, true).
					AddRow("c2", int64(42), "", []byte(`[]`), now, now, false)
				mock.ExpectQuery(query).WithArgs(int64(42)).WillReturnRows(rows)
			},
			wantLen: 2,
			check: func(t *testing.T, got []models.Conversation) {
				require.Len(t, got[0].Messages, 1)
				assert.Equal(t, "hi", got[0].Messages[0].Content)
				assert.Equal(t, models.RoleUser, got[0].Messages[0].Role)
				assert.True(t, got[0].IsSaved)
				assert.Empty(t, got[1].Messages)
			},
		},
		{
			name: "success: empty result",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).WithArgs(int64(42)).WillReturnRows(sqlmock.NewRows(conversationRowColumns))
			},
			wantLen: 0,
		},
		{
			name: "query error",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).WithArgs(int64(42)).WillReturnError(errors.New("connection refused"))
			},
			wantErr: ErrExecutingQuery,
		},
		{
			name: "corrupt messages column",
			setup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(conversationRowColumns).
					AddRow("c1", int64(42), "t", []byte(`{oops`), now, now, true)
				mock.ExpectQuery(query).WithArgs(int64(42)).WillReturnRows(rows)
			},
			wantErr: ErrEncoding,
		},
		{
			name: "row iteration error",
			setup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(conversationRowColumns).
					AddRow("c1", int64(42), "t", []byte(`[]`), now, now, true).
					RowError(0, errors.New("network blip"))
				mock.ExpectQuery(query).WithArgs(int64(42)).WillReturnRows(rows)
			},
			wantErr: ErrScanningRows,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newTestRepo(t)
			tt.setup(mock)

			got, err := repo.ListConversations(testContext(), 42)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Len(t, got, tt.wantLen)
				if tt.check != nil {
					tt.check(t, got)
				}
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// ── CreateConversation ────────────────────────────────────────────────────────

func TestCreateConversation(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := models.Conversation{ID: "c1", UserID: 42, Title: "t", CreatedAt: now, UpdatedAt: now}
	query := regexp.QuoteMeta(`INSERT INTO conversations (id,user_id,title,messages,created_at,updated_at,is_saved) VALUES ($1,$2,$3,$4,$5,$6,$7)`)

	t.Run("success: nil messages stored as empty array", func(t *testing.T) {
		repo, mock := newTestRepo(t)
		mock.ExpectExec(query).
			WithArgs("c1", int64(42), "t", []byte(`[]`), now, now, false).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.CreateConversation(testContext(), c))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation", func(t *testing.T) {
		repo, mock := newTestRepo(t)
		mock.ExpectExec(query).WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		err := repo.CreateConversation(testContext(), c)
		assert.ErrorIs(t, err, ErrConversationAlreadyExists)
	})

	t.Run("other error", func(t *testing.T) {
		repo, mock := newTestRepo(t)
		mock.ExpectExec(query).WillReturnError(&pgconn.PgError{Code: pgerrcode.ConnectionFailure})

		err := repo.CreateConversation(testContext(), c)
		assert.ErrorIs(t, err, ErrExecutingStatement)
	})
}

// ── updates / delete ──────────────────────────────────────────────────────────

func TestUpdateConversation(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := models.Conversation{
		ID: "c1", UserID: 42, Title: "t", CreatedAt: now, UpdatedAt: now, IsSaved: true,
		Messages: []models.Message{{ID: "m1", Role: models.RoleUser, Content: "x", Timestamp: now}},
	}
	query := regexp.QuoteMeta(`UPDATE conversations SET title = $1, messages = $2, created_at = $3, updated_at = $4, is_saved = $5 WHERE id = $6 AND user_id = $7`)

	t.Run("success", func(t *testing.T) {
		repo, mock := newTestRepo(t)
		mock.ExpectExec(query).
			WithArgs("t", sqlmock.AnyArg(), now, now, true, "c1", int64(42)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateConversation(testContext(), c))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newTestRepo(t)
		mock.ExpectExec(query).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.UpdateConversation(testContext(), c), ErrConversationNotFound)
	})
}

func TestUpdateTitle(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	query := regexp.QuoteMeta(`UPDATE conversations SET title = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`)

	repo, mock := newTestRepo(t)
	mock.ExpectExec(query).WithArgs("renamed", now, "c1", int64(42)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs("renamed", now, "gone", int64(42)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateTitle(testContext(), 42, "c1", "renamed", now))
	assert.ErrorIs(t, repo.UpdateTitle(testContext(), 42, "gone", "renamed", now), ErrConversationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMessages(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	query := regexp.QuoteMeta(`UPDATE conversations SET messages = $1, updated_at = $2, is_saved = $3 WHERE id = $4 AND user_id = $5`)

	repo, mock := newTestRepo(t)
	mock.ExpectExec(query).
		WithArgs(sqlmock.AnyArg(), now, true, "c1", int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	msgs := []models.Message{{ID: "m1", Role: models.RoleAssistant, Content: "ok", Timestamp: now}}
	require.NoError(t, repo.UpdateMessages(testContext(), 42, "c1", msgs, now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteConversation(t *testing.T) {
	query := regexp.QuoteMeta(`DELETE FROM conversations WHERE id = $1 AND user_id = $2`)

	repo, mock := newTestRepo(t)
	mock.ExpectExec(query).WithArgs("c1", int64(42)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs("c1", int64(42)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(query).WithArgs("c1", int64(42)).WillReturnError(errors.New("boom"))

	require.NoError(t, repo.DeleteConversation(testContext(), 42, "c1"))
	assert.ErrorIs(t, repo.DeleteConversation(testContext(), 42, "c1"), ErrConversationNotFound)
	assert.ErrorIs(t, repo.DeleteConversation(testContext(), 42, "c1"), ErrExecutingStatement)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ── error classification ──────────────────────────────────────────────────────

func TestPostgresErrorClassifier(t *testing.T) {
	c := NewPostgresErrorClassifier()

	tests := []struct {
		name string
		err  error
		want ErrorClassification
	}{
		{"nil", nil, NonRetryable},
		{"not a postgres error", errors.New("plain"), NonRetryable},
		{"deadlock", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}, Retryable},
		{"starting up", &pgconn.PgError{Code: pgerrcode.CannotConnectNow}, Retryable},
		{"wrapped serialization failure", fmt.Errorf("tx: %w", &pgconn.PgError{Code: pgerrcode.SerializationFailure}), Retryable},
		{"unique violation", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, NonRetryable},
		{"undefined table", &pgconn.PgError{Code: pgerrcode.UndefinedTable}, NonRetryable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.err))
		})
	}
}

func TestDB_Wrap(t *testing.T) {
	db := newDBFromSQL(nil)

	transient := db.wrap(ErrExecutingStatement, &pgconn.PgError{Code: pgerrcode.SerializationFailure})
	assert.ErrorIs(t, transient, ErrExecutingStatement)
	assert.ErrorIs(t, transient, ErrStorageUnavailable)

	permanent := db.wrap(ErrExecutingStatement, &pgconn.PgError{Code: pgerrcode.CheckViolation})
	assert.ErrorIs(t, permanent, ErrExecutingStatement)
	assert.NotErrorIs(t, permanent, ErrStorageUnavailable)

	// без классификатора ничего не считается временным
	assert.NotErrorIs(t, (&DB{}).wrap(ErrExecutingQuery, &pgconn.PgError{Code: pgerrcode.DeadlockDetected}), ErrStorageUnavailable)
}

func TestRepository_TransientFailure(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("SELECT").WillReturnError(&pgconn.PgError{Code: pgerrcode.AdminShutdown})

	_, err := repo.ListConversations(testContext(), 42)
	assert.ErrorIs(t, err, ErrExecutingQuery)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresError(t *testing.T) {
	assert.Equal(t, pgerrcode.UniqueViolation, postgresError(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
	assert.Equal(t, "", postgresError(errors.New("plain")))
}
