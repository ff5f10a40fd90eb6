// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the client side of the remote conversation store.
//
// The primary abstraction is [RemoteStore], which decouples the sync engine
// and the chat session from the underlying protocol. The package ships an
// HTTP/REST implementation ([NewHTTPRemoteStore]).
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic error
// handling (e.g. [ErrConflict] for 409, [ErrUnauthorized] for 401).
package adapter

import (
	"context"
	"time"

	"github.com/MKhiriev/go-chat-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/remote_store_mock.go -package=mock

// RemoteStore is CRUD over the conversations of the token's user.
//
// Update methods report a vanished target as found == false with a nil
// error, so callers can fall back to a create.
type RemoteStore interface {
	// SetToken replaces the bearer token used for authenticated calls.
	SetToken(token string)

	// Token returns the current bearer token.
	Token() string

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// ListConversations returns every conversation of the user.
	ListConversations(ctx context.Context) ([]models.Conversation, error)

	// CreateConversation stores a new conversation. An existing id yields
	// [ErrConflict].
	CreateConversation(ctx context.Context, c models.Conversation) error

	// UpdateConversation replaces a conversation wholesale.
	UpdateConversation(ctx context.Context, c models.Conversation) (found bool, err error)

	// UpdateTitle renames a conversation.
	UpdateTitle(ctx context.Context, id, title string, updatedAt time.Time) (found bool, err error)

	// UpdateMessages replaces the message list and marks the conversation
	// saved.
	UpdateMessages(ctx context.Context, id string, messages []models.Message, updatedAt time.Time) (found bool, err error)

	// DeleteConversation removes a conversation. Deleting a missing one
	// succeeds.
	DeleteConversation(ctx context.Context, id string) error
}
