package client

import "errors"

var (
	ErrInvalidToken          = errors.New("remote token has no usable user id")
	ErrConversationUnknown   = errors.New("conversation not found")
	ErrNoVaultKey            = errors.New("vault key is not configured")
	ErrUnsupportedAttachment = errors.New("unsupported attachment")
)
