package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-chat-keeper/internal/validators"
	"github.com/MKhiriev/go-chat-keeper/models"
)

// ConversationValidationService rejects malformed input before it reaches
// the wrapped ConversationService. Every rejection wraps
// [ErrInvalidDataProvided].
type ConversationValidationService struct {
	inner     ConversationService
	validator validators.Validator
}

func NewConversationValidationService() ConversationServiceWrapper {
	return &ConversationValidationService{
		validator: validators.NewConversationValidator(),
	}
}

func (v *ConversationValidationService) ListConversations(ctx context.Context, userID int64) ([]models.Conversation, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDataProvided, ErrValidationNoUserID)
	}

	return v.inner.ListConversations(ctx, userID)
}

func (v *ConversationValidationService) CreateConversation(ctx context.Context, c models.Conversation) error {
	if err := v.validator.Validate(ctx, c); err != nil {
		return fmt.Errorf("%w: conversation validation before create: %w", ErrInvalidDataProvided, err)
	}

	return v.inner.CreateConversation(ctx, c)
}

func (v *ConversationValidationService) UpdateConversation(ctx context.Context, c models.Conversation) error {
	if err := v.validator.Validate(ctx, c); err != nil {
		return fmt.Errorf("%w: conversation validation before update: %w", ErrInvalidDataProvided, err)
	}

	return v.inner.UpdateConversation(ctx, c)
}

func (v *ConversationValidationService) UpdateTitle(ctx context.Context, userID int64, id string, req models.TitleRequest) error {
	if err := v.validateKey(userID, id); err != nil {
		return err
	}
	if err := v.validator.Validate(ctx, req); err != nil {
		return fmt.Errorf("%w: title validation: %w", ErrInvalidDataProvided, err)
	}

	return v.inner.UpdateTitle(ctx, userID, id, req)
}

func (v *ConversationValidationService) UpdateMessages(ctx context.Context, userID int64, id string, req models.MessagesRequest) error {
	if err := v.validateKey(userID, id); err != nil {
		return err
	}
	if err := v.validator.Validate(ctx, req); err != nil {
		return fmt.Errorf("%w: messages validation: %w", ErrInvalidDataProvided, err)
	}

	return v.inner.UpdateMessages(ctx, userID, id, req)
}

func (v *ConversationValidationService) DeleteConversation(ctx context.Context, userID int64, id string) error {
	if err := v.validateKey(userID, id); err != nil {
		return err
	}

	return v.inner.DeleteConversation(ctx, userID, id)
}

func (v *ConversationValidationService) Wrap(wrapped ConversationService) ConversationService {
	v.inner = wrapped
	return v
}

func (v *ConversationValidationService) validateKey(userID int64, id string) error {
	if userID <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDataProvided, ErrValidationNoUserID)
	}
	if id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDataProvided, ErrValidationNoConversationID)
	}
	return nil
}
