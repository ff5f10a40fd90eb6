package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/MKhiriev/go-chat-keeper/internal/store"
	"github.com/MKhiriev/go-chat-keeper/models"
)

type conversationService struct {
	conversationRepository store.ConversationRepository

	logger *logger.Logger
}

func NewConversationService(conversationRepository store.ConversationRepository, logger *logger.Logger) ConversationService {
	return &conversationService{
		conversationRepository: conversationRepository,
		logger:                 logger,
	}
}

func (s *conversationService) ListConversations(ctx context.Context, userID int64) ([]models.Conversation, error) {
	conversations, err := s.conversationRepository.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations of user %d: %w", userID, err)
	}
	if conversations == nil {
		conversations = []models.Conversation{}
	}

	return conversations, nil
}

// CreateConversation stores c as saved; a client only uploads conversations
// it considers persisted.
func (s *conversationService) CreateConversation(ctx context.Context, c models.Conversation) error {
	c.IsSaved = true

	return s.conversationRepository.CreateConversation(ctx, c)
}

func (s *conversationService) UpdateConversation(ctx context.Context, c models.Conversation) error {
	c.IsSaved = true

	return s.conversationRepository.UpdateConversation(ctx, c)
}

func (s *conversationService) UpdateTitle(ctx context.Context, userID int64, id string, req models.TitleRequest) error {
	return s.conversationRepository.UpdateTitle(ctx, userID, id, req.Title, req.UpdatedAt)
}

func (s *conversationService) UpdateMessages(ctx context.Context, userID int64, id string, req models.MessagesRequest) error {
	messages := req.Messages
	if messages == nil {
		messages = []models.Message{}
	}

	return s.conversationRepository.UpdateMessages(ctx, userID, id, messages, req.UpdatedAt)
}

func (s *conversationService) DeleteConversation(ctx context.Context, userID int64, id string) error {
	return s.conversationRepository.DeleteConversation(ctx, userID, id)
}
