package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-chat-keeper/models"
)

// ConversationService is the server side of the remote store contract.
// Every call is scoped to the authenticated user.
type ConversationService interface {
	ListConversations(ctx context.Context, userID int64) ([]models.Conversation, error)
	CreateConversation(ctx context.Context, c models.Conversation) error
	UpdateConversation(ctx context.Context, c models.Conversation) error
	UpdateTitle(ctx context.Context, userID int64, id string, req models.TitleRequest) error
	UpdateMessages(ctx context.Context, userID int64, id string, req models.MessagesRequest) error
	DeleteConversation(ctx context.Context, userID int64, id string) error
}

type AuthService interface {
	CreateToken(ctx context.Context, userID int64, duration time.Duration) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}

type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
	GetBuildInfo(ctx context.Context) models.AppBuildInfo
}

// ConversationServiceWrapper defines middleware composition for ConversationService.
// Implementations wrap an existing ConversationService to add behavior such as
// logging or validating.
type ConversationServiceWrapper interface {
	Wrap(ConversationService) ConversationService // returns a decorated ConversationService applying additional behavior
}
