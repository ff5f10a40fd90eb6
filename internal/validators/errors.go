package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrInvalidUserID         = errors.New("invalid user ID")
	ErrInvalidConversationID = errors.New("invalid conversation id")
	ErrInvalidTimestamps     = errors.New("updated_at must not precede created_at")
	ErrEmptyUpdatedAt        = errors.New("updated_at is required")
	ErrTitleTooLong          = errors.New("title is too long")

	ErrInvalidMessageID   = errors.New("invalid message id")
	ErrDuplicateMessageID = errors.New("duplicate message id")
	ErrInvalidRole        = errors.New("invalid message role")
	ErrInvalidAttachment  = errors.New("invalid attachment")
	ErrLengthMismatch     = errors.New("length does not match the number of messages")
)
