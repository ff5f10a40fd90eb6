package service

import (
	"context"

	"github.com/MKhiriev/go-chat-keeper/models"
)

// Identity supplies the current user and connectivity state to the chat
// session. The session treats both values as opaque.
type Identity interface {
	// UserID returns the stable identifier of the signed-in user.
	UserID() int64

	// Online reports whether the remote store is believed reachable.
	Online() bool
}

// NoticeKind classifies a [Notice].
type NoticeKind string

const (
	NoticeOffline    NoticeKind = "offline"
	NoticeOnline     NoticeKind = "online"
	NoticeSynced     NoticeKind = "synced"
	NoticeSyncFailed NoticeKind = "sync-failed"
)

// Notice is a non-blocking informational message for the user.
type Notice struct {
	Kind NoticeKind
	Text string
}

// Notifier delivers notices. Implementations must not block.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a plain function to [Notifier].
type NotifierFunc func(Notice)

// Notify implements [Notifier].
func (f NotifierFunc) Notify(n Notice) {
	if f != nil {
		f(n)
	}
}

// IDGenerator produces opaque identifiers for conversations, messages and
// journal records.
type IDGenerator interface {
	Generate() string
}

// ConversationSyncer reconciles the local replica with the remote store.
type ConversationSyncer interface {
	// Reconcile runs one reconciliation pass. Concurrent calls share a
	// single pass.
	Reconcile(ctx context.Context) (models.SyncReport, error)
}

// ChatService is the client-facing chat API.
type ChatService interface {
	ConversationSyncer

	// NewConversation creates an empty local conversation. It stays local
	// until its first successful exchange.
	NewConversation(ctx context.Context, title string) (models.Conversation, error)

	// Send appends a user message, streams the assistant reply into a
	// placeholder and persists the result.
	Send(ctx context.Context, conversationID string, profile models.BackendProfile, content string, opts SendOptions) (models.Message, error)

	// Retry drops everything after the last user message and asks again.
	Retry(ctx context.Context, conversationID string, profile models.BackendProfile, opts SendOptions) (models.Message, error)

	// Edit replaces the content of a user message, drops everything after it
	// and asks again.
	Edit(ctx context.Context, conversationID, messageID string, profile models.BackendProfile, content string, opts SendOptions) (models.Message, error)

	// Branch copies the messages up to and including messageID into a new
	// conversation.
	Branch(ctx context.Context, conversationID, messageID string) (models.Conversation, error)

	Rename(ctx context.Context, conversationID, title string) error
	Delete(ctx context.Context, conversationID string) error

	Conversations() []models.Conversation
	Conversation(conversationID string) (models.Conversation, bool)

	// SetOnline records a connectivity change. Going online triggers a
	// reconciliation pass.
	SetOnline(ctx context.Context, online bool)
	Online() bool
}
