package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/MKhiriev/go-chat-keeper/models"
	sq "github.com/Masterminds/squirrel"
)

const conversationsTable = "conversations"

var conversationColumns = []string{
	"id", "user_id", "title", "messages", "created_at", "updated_at", "is_saved",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func buildListConversationsQuery(userID int64) (string, []any, error) {
	return psql.
		Select(conversationColumns...).
		From(conversationsTable).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("updated_at DESC", "id").
		ToSql()
}

func buildInsertConversationQuery(c models.Conversation) (string, []any, error) {
	messages, err := encodeMessages(c.Messages)
	if err != nil {
		return "", nil, err
	}

	return psql.
		Insert(conversationsTable).
		Columns(conversationColumns...).
		Values(c.ID, c.UserID, c.Title, messages, c.CreatedAt, c.UpdatedAt, c.IsSaved).
		ToSql()
}

func buildUpdateConversationQuery(c models.Conversation) (string, []any, error) {
	messages, err := encodeMessages(c.Messages)
	if err != nil {
		return "", nil, err
	}

	return psql.
		Update(conversationsTable).
		Set("title", c.Title).
		Set("messages", messages).
		Set("created_at", c.CreatedAt).
		Set("updated_at", c.UpdatedAt).
		Set("is_saved", c.IsSaved).
		Where(sq.Eq{"user_id": c.UserID, "id": c.ID}).
		ToSql()
}

func buildUpdateTitleQuery(userID int64, id, title string, updatedAt time.Time) (string, []any, error) {
	return psql.
		Update(conversationsTable).
		Set("title", title).
		Set("updated_at", updatedAt).
		Where(sq.Eq{"user_id": userID, "id": id}).
		ToSql()
}

func buildUpdateMessagesQuery(userID int64, id string, msgs []models.Message, updatedAt time.Time) (string, []any, error) {
	messages, err := encodeMessages(msgs)
	if err != nil {
		return "", nil, err
	}

	return psql.
		Update(conversationsTable).
		Set("messages", messages).
		Set("updated_at", updatedAt).
		Set("is_saved", true).
		Where(sq.Eq{"user_id": userID, "id": id}).
		ToSql()
}

func buildDeleteConversationQuery(userID int64, id string) (string, []any, error) {
	return psql.
		Delete(conversationsTable).
		Where(sq.Eq{"user_id": userID, "id": id}).
		ToSql()
}

// encodeMessages renders the JSONB column. A nil slice is stored as [].
func encodeMessages(msgs []models.Message) ([]byte, error) {
	if msgs == nil {
		msgs = []models.Message{}
	}
	raw, err := json.Marshal(msgs)
	if err != nil {
		return nil, fmt.Errorf("%w: messages: %w", ErrEncoding, err)
	}
	return raw, nil
}
