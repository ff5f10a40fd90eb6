// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/MKhiriev/go-chat-keeper/models"
	"github.com/jackc/pgerrcode"
)

// conversationRepository is the PostgreSQL-backed implementation of
// [ConversationRepository]. Messages live in a JSONB column next to the
// conversation row.
//
// Every public method obtains a context-scoped logger via
// [logger.FromContext] so that database interactions carry the request's
// trace id.
type conversationRepository struct {
	*DB
	logger *logger.Logger
}

// NewConversationRepository constructs a [ConversationRepository] backed by
// the provided database connection and logger.
func NewConversationRepository(db *DB, logger *logger.Logger) ConversationRepository {
	logger.Debug().Msg("creating conversation repository")
	return &conversationRepository{
		DB:     db,
		logger: logger,
	}
}

// ListConversations returns every conversation of the user, most recently
// updated first. An empty result is an empty slice.
func (r *conversationRepository) ListConversations(ctx context.Context, userID int64) ([]models.Conversation, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildListConversationsQuery(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "*conversationRepository.ListConversations").
			Int64("user_id", userID).
			Bool("retryable", r.retryable(err)).
			Msg("failed to execute query for listing conversations")
		return nil, r.wrap(ErrExecutingQuery, err)
	}
	defer rows.Close()

	result := make([]models.Conversation, 0, 16)
	for rows.Next() {
		var (
			c        models.Conversation
			messages []byte
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &messages, &c.CreatedAt, &c.UpdatedAt, &c.IsSaved); err != nil {
			log.Err(err).
				Str("func", "*conversationRepository.ListConversations").
				Int64("user_id", userID).
				Msg("failed to scan conversation row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		if err := json.Unmarshal(messages, &c.Messages); err != nil {
			log.Err(err).
				Str("func", "*conversationRepository.ListConversations").
				Str("conversation_id", c.ID).
				Msg("stored messages are not valid JSON")
			return nil, fmt.Errorf("%w: messages of %s: %w", ErrEncoding, c.ID, err)
		}
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		log.Err(err).
			Str("func", "*conversationRepository.ListConversations").
			Int64("user_id", userID).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return result, nil
}

// CreateConversation inserts a new row.
//
// Error handling:
//   - PostgreSQL unique_violation (23505) → [ErrConversationAlreadyExists].
//   - Any other driver-level error → wrapped [ErrExecutingStatement].
func (r *conversationRepository) CreateConversation(ctx context.Context, c models.Conversation) error {
	log := logger.FromContext(ctx)

	query, args, err := buildInsertConversationQuery(c)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.DB.ExecContext(ctx, query, args...); err != nil {
		if postgresError(err) == pgerrcode.UniqueViolation {
			return ErrConversationAlreadyExists
		}
		log.Err(err).
			Str("func", "*conversationRepository.CreateConversation").
			Int64("user_id", c.UserID).
			Str("conversation_id", c.ID).
			Bool("retryable", r.retryable(err)).
			Msg("failed to insert conversation")
		return r.wrap(ErrExecutingStatement, err)
	}

	return nil
}

// UpdateConversation replaces every mutable column of an existing row.
func (r *conversationRepository) UpdateConversation(ctx context.Context, c models.Conversation) error {
	query, args, err := buildUpdateConversationQuery(c)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return r.execAffectingOne(ctx, "*conversationRepository.UpdateConversation", c.UserID, c.ID, query, args)
}

// UpdateTitle sets the title and the update time.
func (r *conversationRepository) UpdateTitle(ctx context.Context, userID int64, id, title string, updatedAt time.Time) error {
	query, args, err := buildUpdateTitleQuery(userID, id, title, updatedAt)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return r.execAffectingOne(ctx, "*conversationRepository.UpdateTitle", userID, id, query, args)
}

// UpdateMessages replaces the message list, marks the conversation saved and
// sets the update time.
func (r *conversationRepository) UpdateMessages(ctx context.Context, userID int64, id string, messages []models.Message, updatedAt time.Time) error {
	query, args, err := buildUpdateMessagesQuery(userID, id, messages, updatedAt)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return r.execAffectingOne(ctx, "*conversationRepository.UpdateMessages", userID, id, query, args)
}

// DeleteConversation removes the row.
func (r *conversationRepository) DeleteConversation(ctx context.Context, userID int64, id string) error {
	query, args, err := buildDeleteConversationQuery(userID, id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return r.execAffectingOne(ctx, "*conversationRepository.DeleteConversation", userID, id, query, args)
}

// execAffectingOne runs a DML statement keyed by (user_id, id) and maps zero
// affected rows to [ErrConversationNotFound].
func (r *conversationRepository) execAffectingOne(ctx context.Context, fn string, userID int64, id, query string, args []any) error {
	log := logger.FromContext(ctx)

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", fn).
			Int64("user_id", userID).
			Str("conversation_id", id).
			Bool("retryable", r.retryable(err)).
			Msg("failed to execute statement")
		return r.wrap(ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		log.Err(err).Str("func", fn).Msg("failed to read affected rows")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrConversationNotFound
	}

	return nil
}
