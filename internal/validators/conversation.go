package validators

import (
	"context"
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/MKhiriev/go-chat-keeper/models"
)

// Field name constants used to specify which fields should be validated.
// They are passed to Validate to restrict validation to a subset of fields.
const (
	// FieldConversationID targets the opaque conversation identifier.
	FieldConversationID = "id"

	// FieldUserID targets the owner of a conversation.
	FieldUserID = "user_id"

	// FieldTitle targets the conversation title length.
	FieldTitle = "title"

	// FieldTimestamps targets the created_at / updated_at pair.
	FieldTimestamps = "timestamps"

	// FieldMessages targets every message of a conversation or request.
	FieldMessages = "messages"

	// FieldUpdatedAt targets the updated_at of an update request.
	FieldUpdatedAt = "updated_at"

	// FieldLength targets the declared message count of a messages request.
	FieldLength = "length"
)

// MaxTitleRunes bounds stored titles.
const MaxTitleRunes = 256

var allowedRoles = []models.Role{
	models.RoleUser,
	models.RoleAssistant,
	models.RoleSystem,
}

var allowedAttachmentTypes = []models.AttachmentType{
	models.AttachmentImage,
	models.AttachmentAudio,
	models.AttachmentVideo,
}

// ConversationValidator implements [Validator] for conversations and the
// bodies of the remote store update routes: models.Conversation,
// models.Message, models.TitleRequest and models.MessagesRequest, by value
// or pointer.
type ConversationValidator struct {
}

func NewConversationValidator() Validator {
	return &ConversationValidator{}
}

// Validate dispatches on the dynamic type of obj. Optional fields restrict
// validation to the named subset; when omitted, every field that applies
// to the type is checked.
func (v *ConversationValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.Conversation:
		return v.validateConversation(ctx, value, fields...)
	case *models.Conversation:
		return v.validateConversation(ctx, *value, fields...)

	case models.Message:
		return v.validateMessage(value)
	case *models.Message:
		return v.validateMessage(*value)

	case models.TitleRequest:
		return v.validateTitleRequest(value, fields...)
	case *models.TitleRequest:
		return v.validateTitleRequest(*value, fields...)

	case models.MessagesRequest:
		return v.validateMessagesRequest(value, fields...)
	case *models.MessagesRequest:
		return v.validateMessagesRequest(*value, fields...)

	default:
		return ErrUnsupportedType
	}
}

// validateConversation checks a whole conversation.
//
// Default fields: id, user_id, title, timestamps, messages.
func (v *ConversationValidator) validateConversation(_ context.Context, c models.Conversation, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldConversationID, FieldUserID, FieldTitle, FieldTimestamps, FieldMessages}
	}

	for _, f := range fields {
		switch f {
		case FieldConversationID:
			if c.ID == "" {
				return ErrInvalidConversationID
			}
		case FieldUserID:
			if c.UserID <= 0 {
				return ErrInvalidUserID
			}
		case FieldTitle:
			if err := validateTitle(c.Title); err != nil {
				return err
			}
		case FieldTimestamps:
			if !c.CreatedAt.IsZero() && !c.UpdatedAt.IsZero() && c.UpdatedAt.Before(c.CreatedAt) {
				return ErrInvalidTimestamps
			}
		case FieldMessages:
			if err := v.validateMessages(c.Messages); err != nil {
				return err
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *ConversationValidator) validateTitleRequest(req models.TitleRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldTitle, FieldUpdatedAt}
	}

	for _, f := range fields {
		switch f {
		case FieldTitle:
			if err := validateTitle(req.Title); err != nil {
				return err
			}
		case FieldUpdatedAt:
			if req.UpdatedAt.IsZero() {
				return ErrEmptyUpdatedAt
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

// validateMessagesRequest checks the body of a messages update. The
// declared length guards against a truncated upload.
func (v *ConversationValidator) validateMessagesRequest(req models.MessagesRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldMessages, FieldUpdatedAt, FieldLength}
	}

	for _, f := range fields {
		switch f {
		case FieldMessages:
			if err := v.validateMessages(req.Messages); err != nil {
				return err
			}
		case FieldUpdatedAt:
			if req.UpdatedAt.IsZero() {
				return ErrEmptyUpdatedAt
			}
		case FieldLength:
			if req.Length != len(req.Messages) {
				return fmt.Errorf("%w: declared %d, got %d", ErrLengthMismatch, req.Length, len(req.Messages))
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *ConversationValidator) validateMessages(msgs []models.Message) error {
	seen := make(map[string]struct{}, len(msgs))
	for i, m := range msgs {
		if err := v.validateMessage(m); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("message %d: %w: %s", i, ErrDuplicateMessageID, m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}

func (v *ConversationValidator) validateMessage(m models.Message) error {
	if m.ID == "" {
		return ErrInvalidMessageID
	}
	if !slices.Contains(allowedRoles, m.Role) {
		return ErrInvalidRole
	}
	for _, a := range m.Attachments {
		if !slices.Contains(allowedAttachmentTypes, a.Type) || (a.URL == "" && a.Data == "") {
			return ErrInvalidAttachment
		}
	}
	return nil
}

func validateTitle(title string) error {
	if utf8.RuneCountInString(title) > MaxTitleRunes {
		return ErrTitleTooLong
	}
	return nil
}
