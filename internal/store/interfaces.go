package store

import (
	"context"
	"time"

	"github.com/MKhiriev/go-chat-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// ConversationRepository is the server-side persistence of the remote store.
// Every method is scoped to one user.
type ConversationRepository interface {
	ListConversations(ctx context.Context, userID int64) ([]models.Conversation, error)
	// CreateConversation fails with [ErrConversationAlreadyExists] when the
	// id is taken.
	CreateConversation(ctx context.Context, c models.Conversation) error
	// UpdateConversation, UpdateTitle, UpdateMessages and DeleteConversation
	// fail with [ErrConversationNotFound] when nothing matched.
	UpdateConversation(ctx context.Context, c models.Conversation) error
	UpdateTitle(ctx context.Context, userID int64, id, title string, updatedAt time.Time) error
	UpdateMessages(ctx context.Context, userID int64, id string, messages []models.Message, updatedAt time.Time) error
	DeleteConversation(ctx context.Context, userID int64, id string) error
}
