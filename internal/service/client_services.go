package service

import (
	"github.com/MKhiriev/go-chat-keeper/internal/adapter"
	"github.com/MKhiriev/go-chat-keeper/internal/config"
	"github.com/MKhiriev/go-chat-keeper/internal/llm"
	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/MKhiriev/go-chat-keeper/internal/store"
)

// ClientServices groups the client-side services. Reconciler is nil for a
// local-only client.
type ClientServices struct {
	Reconciler *Reconciler
	Titles     *TitleGenerator
	Session    *ChatSession
}

// NewClientServices wires the chat session over the local storages. remote
// may be nil, in which case nothing is journaled or reconciled.
func NewClientServices(
	cfg *config.ClientConfig,
	streamer llm.Streamer,
	remote adapter.RemoteStore,
	storages *store.ClientStorages,
	identity Identity,
	notifier Notifier,
	log *logger.Logger,
) *ClientServices {
	titles := NewTitleGenerator(streamer, cfg.Chat.TitleTimeout, log)

	var (
		reconciler *Reconciler
		syncer     ConversationSyncer
	)
	if remote != nil {
		reconciler = NewReconciler(remote, storages.Replica, storages.Journal, cfg.Chat.ConflictStrategy, log)
		syncer = reconciler
	}

	session := NewChatSession(ChatSessionDeps{
		Streamer: streamer,
		Remote:   remote,
		Replica:  storages.Replica,
		Journal:  storages.Journal,
		Syncer:   syncer,
		Titles:   titles,
		Identity: identity,
		Notifier: notifier,
		Logger:   log,
	})

	return &ClientServices{
		Reconciler: reconciler,
		Titles:     titles,
		Session:    session,
	}
}
