// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/go-chat-keeper/internal/adapter"
	"github.com/MKhiriev/go-chat-keeper/internal/llm"
	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/MKhiriev/go-chat-keeper/internal/store"
	"github.com/MKhiriev/go-chat-keeper/internal/utils"
	"github.com/MKhiriev/go-chat-keeper/models"
)

// SendOptions tune a single exchange.
type SendOptions struct {
	// Attachments go with the user message. Backends that are not
	// multimodal never see them.
	Attachments []models.Attachment
	// KeepPartial keeps the text streamed before an abort instead of
	// dropping the assistant message.
	KeepPartial bool
	// Handler observes the stream. It may be nil.
	Handler llm.Handler
}

// ChatSessionDeps are the collaborators of a [ChatSession]. Remote and
// Syncer may be nil for a local-only session.
type ChatSessionDeps struct {
	Streamer llm.Streamer
	Remote   adapter.RemoteStore
	Replica  *store.Replica
	Journal  *store.Journal
	Syncer   ConversationSyncer
	Titles   *TitleGenerator
	Identity Identity
	Notifier Notifier
	IDs      IDGenerator
	Now      func() time.Time
	Logger   *logger.Logger
}

// ChatSession drives send, retry, edit and branch flows on top of the local
// replica.
//
// Every exchange marks its conversation busy for the duration of the stream,
// which keeps reconciliation off it. Produced content is never discarded
// because the remote store is unreachable: the session goes offline and
// queues an equivalent change in the journal instead.
type ChatSession struct {
	streamer llm.Streamer
	remote   adapter.RemoteStore
	replica  *store.Replica
	journal  *store.Journal
	syncer   ConversationSyncer
	titles   *TitleGenerator
	identity Identity
	notifier Notifier
	ids      IDGenerator
	now      func() time.Time

	online atomic.Bool
	logger *logger.Logger
}

var _ ChatService = (*ChatSession)(nil)

func NewChatSession(deps ChatSessionDeps) *ChatSession {
	s := &ChatSession{
		streamer: deps.Streamer,
		remote:   deps.Remote,
		replica:  deps.Replica,
		journal:  deps.Journal,
		syncer:   deps.Syncer,
		titles:   deps.Titles,
		identity: deps.Identity,
		notifier: deps.Notifier,
		ids:      deps.IDs,
		now:      deps.Now,
		logger:   deps.Logger,
	}
	if s.notifier == nil {
		s.notifier = NotifierFunc(nil)
	}
	if s.ids == nil {
		s.ids = utils.NewUUIDGenerator()
	}
	if s.now == nil {
		s.now = models.Now
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	s.online.Store(s.remote != nil && s.identity != nil && s.identity.Online())

	return s
}

// Online reports whether remote writes are attempted directly.
func (s *ChatSession) Online() bool {
	return s.online.Load()
}

func (s *ChatSession) Conversations() []models.Conversation {
	return s.replica.List()
}

func (s *ChatSession) Conversation(conversationID string) (models.Conversation, bool) {
	return s.replica.Get(conversationID)
}

// NewConversation implements [ChatService].
func (s *ChatSession) NewConversation(ctx context.Context, title string) (models.Conversation, error) {
	now := s.now()
	c := models.Conversation{
		ID:        s.ids.Generate(),
		UserID:    s.userID(),
		Title:     strings.TrimSpace(title),
		Messages:  []models.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.replica.Put(ctx, c); err != nil {
		return models.Conversation{}, err
	}
	return c, nil
}

// Send implements [ChatService].
func (s *ChatSession) Send(ctx context.Context, conversationID string, profile models.BackendProfile, content string, opts SendOptions) (models.Message, error) {
	if strings.TrimSpace(content) == "" && len(opts.Attachments) == 0 {
		return models.Message{}, ErrEmptyMessage
	}

	c, release, err := s.acquire(conversationID)
	if err != nil {
		return models.Message{}, err
	}
	defer release()

	c.Messages = append(c.Messages, models.Message{
		ID:          s.ids.Generate(),
		Role:        models.RoleUser,
		Content:     content,
		Timestamp:   s.now(),
		Attachments: slices.Clone(opts.Attachments),
	})

	return s.exchange(ctx, c, profile, opts, nil)
}

// Retry implements [ChatService].
func (s *ChatSession) Retry(ctx context.Context, conversationID string, profile models.BackendProfile, opts SendOptions) (models.Message, error) {
	c, release, err := s.acquire(conversationID)
	if err != nil {
		return models.Message{}, err
	}
	defer release()

	i := c.LastUserIndex()
	if i < 0 {
		return models.Message{}, ErrNothingToRetry
	}
	previous := c.Clone()
	c.Messages = c.Messages[:i+1]

	return s.exchange(ctx, c, profile, opts, &previous)
}

// Edit implements [ChatService]. The edited message keeps its id.
func (s *ChatSession) Edit(ctx context.Context, conversationID, messageID string, profile models.BackendProfile, content string, opts SendOptions) (models.Message, error) {
	c, release, err := s.acquire(conversationID)
	if err != nil {
		return models.Message{}, err
	}
	defer release()

	i := c.MessageIndex(messageID)
	if i < 0 {
		return models.Message{}, ErrMessageNotFound
	}
	edited := c.Messages[i]
	if edited.Role != models.RoleUser {
		return models.Message{}, ErrNotUserMessage
	}
	if strings.TrimSpace(content) == "" && !edited.HasAttachments() {
		return models.Message{}, ErrEmptyMessage
	}

	edited.Content = content
	edited.Timestamp = s.now()
	c.Messages = append(c.Messages[:i], edited)

	return s.exchange(ctx, c, profile, opts, nil)
}

// Branch implements [ChatService].
func (s *ChatSession) Branch(ctx context.Context, conversationID, messageID string) (models.Conversation, error) {
	src, ok := s.replica.Get(conversationID)
	if !ok {
		return models.Conversation{}, ErrConversationNotFound
	}
	i := src.MessageIndex(messageID)
	if i < 0 {
		return models.Conversation{}, ErrMessageNotFound
	}

	now := s.now()
	branch := models.Conversation{
		ID:        s.ids.Generate(),
		UserID:    s.userID(),
		Title:     src.Title,
		Messages:  src.Messages[:i+1],
		CreatedAt: now,
		UpdatedAt: now,
		IsSaved:   src.IsSaved,
	}
	if err := s.replica.Put(ctx, branch); err != nil {
		return models.Conversation{}, err
	}
	if branch.IsSaved {
		s.persistConversation(ctx, branch, true)
	}

	return branch, nil
}

// Rename implements [ChatService].
func (s *ChatSession) Rename(ctx context.Context, conversationID, title string) error {
	c, release, err := s.acquire(conversationID)
	if err != nil {
		return err
	}
	defer release()

	c.Title = strings.TrimSpace(title)
	c.UpdatedAt = s.now()
	if err = s.replica.Put(ctx, c); err != nil {
		return err
	}
	if !c.IsSaved || s.remote == nil {
		return nil
	}

	if s.Online() {
		found, err := s.remote.UpdateTitle(ctx, c.ID, c.Title, c.UpdatedAt)
		if err == nil && !found {
			err = s.createRemote(ctx, c)
		}
		if err == nil {
			return nil
		}
		s.downgrade(err)
	}

	s.enqueue(ctx, models.ChangeUpdateTitle, c.ID, models.TitlePayload{Title: c.Title, UpdatedAt: c.UpdatedAt})
	return nil
}

// Delete implements [ChatService].
func (s *ChatSession) Delete(ctx context.Context, conversationID string) error {
	c, release, err := s.acquire(conversationID)
	if err != nil {
		return err
	}
	defer release()

	if err = s.replica.Delete(ctx, c.ID); err != nil {
		return err
	}
	if !c.IsSaved || s.remote == nil {
		return nil
	}

	if s.Online() {
		if err = s.remote.DeleteConversation(ctx, c.ID); err == nil {
			return nil
		}
		s.downgrade(err)
	}

	s.enqueue(ctx, models.ChangeDeleteConversation, c.ID, nil)
	return nil
}

// Reconcile implements [ConversationSyncer]. A successful pass puts the
// session back online; an unreachable remote takes it offline.
func (s *ChatSession) Reconcile(ctx context.Context) (models.SyncReport, error) {
	if s.remote == nil || s.syncer == nil {
		return models.SyncReport{}, ErrRemoteDisabled
	}

	report, err := s.syncer.Reconcile(ctx)
	if err != nil {
		if errors.Is(err, ErrRemoteUnavailable) {
			s.downgrade(err)
		}
		return report, err
	}
	if !s.online.Swap(true) {
		s.notifier.Notify(Notice{Kind: NoticeOnline, Text: "remote store is reachable again"})
	}

	return report, nil
}

// SetOnline implements [ChatService].
func (s *ChatSession) SetOnline(ctx context.Context, online bool) {
	if s.remote == nil {
		return
	}
	if s.online.Swap(online) == online {
		return
	}

	if !online {
		s.logger.Warn().Str("func", "*ChatSession.SetOnline").Msg("remote store went offline")
		s.notifier.Notify(Notice{Kind: NoticeOffline, Text: "working offline, changes will be synced later"})
		return
	}

	s.logger.Info().Str("func", "*ChatSession.SetOnline").Msg("remote store is back online")
	s.notifier.Notify(Notice{Kind: NoticeOnline, Text: "remote store is reachable again"})
	if s.syncer == nil {
		return
	}

	report, err := s.syncer.Reconcile(ctx)
	if err != nil {
		s.notifier.Notify(Notice{Kind: NoticeSyncFailed, Text: fmt.Sprintf("sync failed: %v", err)})
		return
	}
	s.notifier.Notify(Notice{Kind: NoticeSynced, Text: report.String()})
}

// acquire marks the conversation busy and returns a copy of it together with
// the function that clears the flag.
func (s *ChatSession) acquire(conversationID string) (models.Conversation, func(), error) {
	if _, ok := s.replica.Get(conversationID); !ok {
		return models.Conversation{}, nil, ErrConversationNotFound
	}
	if !s.replica.MarkBusy(conversationID) {
		return models.Conversation{}, nil, ErrConversationBusy
	}
	release := func() { s.replica.ClearBusy(conversationID) }

	// re-read under the flag: a reconcile may have replaced it meanwhile
	c, ok := s.replica.Get(conversationID)
	if !ok {
		release()
		return models.Conversation{}, nil, ErrConversationNotFound
	}
	return c, release, nil
}

// exchange streams an assistant reply to c, whose last message is the user
// turn to answer. The caller holds the busy flag.
//
// When no reply is kept the conversation is reset to restore, or loses only
// the placeholder when restore is nil.
func (s *ChatSession) exchange(ctx context.Context, c models.Conversation, profile models.BackendProfile, opts SendOptions, restore *models.Conversation) (models.Message, error) {
	log := s.logger.With().Str("conversation_id", c.ID).Str("profile", profile.ID).Logger()

	wasSaved := c.IsSaved
	history := slices.Clone(c.Messages)

	placeholder := models.Message{
		ID:        s.ids.Generate(),
		Role:      models.RoleAssistant,
		Timestamp: s.now(),
		ModelName: profile.DisplayName(),
		ModelID:   profile.Model,
	}
	c.Messages = append(c.Messages, placeholder)
	c.UpdatedAt = placeholder.Timestamp
	if err := s.replica.Put(ctx, c); err != nil {
		return models.Message{}, err
	}

	observer := opts.Handler
	if observer == nil {
		observer = llm.HandlerFuncs{}
	}

	var (
		final     string
		streamErr error
	)
	state := s.streamer.Stream(ctx, profile, history, llm.HandlerFuncs{
		Update: func(content string) {
			s.replica.SetMessageContent(c.ID, placeholder.ID, content)
			observer.OnUpdate(content)
		},
		Complete: func(content string) {
			final = content
			observer.OnComplete(content)
		},
		Error: func(err error) {
			streamErr = err
			observer.OnError(err)
		},
		State: func(st llm.State) {
			if o, ok := observer.(llm.StateObserver); ok {
				o.OnState(st)
			}
		},
	})

	last := len(c.Messages) - 1
	switch state {
	case llm.StateCompleted:
		c.Messages[last].Content = final
		c.UpdatedAt = s.now()
		c.IsSaved = true
		if c.Title == "" {
			c.Title = s.title(ctx, profile, c.Messages)
		}
		if err := s.replica.Put(ctx, c); err != nil {
			log.Err(err).Str("func", "*ChatSession.exchange").Msg("failed to store reply")
			return models.Message{}, err
		}
		s.persistConversation(ctx, c, !wasSaved)
		return c.Messages[last], nil

	case llm.StateAborted:
		// ctx is already cancelled here
		detached := context.WithoutCancel(ctx)

		current, _ := s.replica.Get(c.ID)
		partial := ""
		if i := current.MessageIndex(placeholder.ID); i >= 0 {
			partial = current.Messages[i].Content
		}

		if opts.KeepPartial && partial != "" {
			c.Messages[last].Content = partial
			if err := s.replica.Put(detached, c); err != nil {
				log.Err(err).Str("func", "*ChatSession.exchange").Msg("failed to store partial reply")
			}
			if wasSaved {
				s.persistConversation(detached, c, false)
			}
			log.Info().Int("length", len(partial)).Msg("send aborted, partial reply kept")
			return c.Messages[last], ErrSendAborted
		}

		s.rollback(detached, c, restore)
		log.Info().Msg("send aborted")
		return models.Message{}, ErrSendAborted

	default:
		s.rollback(ctx, c, restore)
		if streamErr == nil {
			streamErr = fmt.Errorf("stream ended in state %s", state)
		}
		log.Err(streamErr).Str("func", "*ChatSession.exchange").Msg("send failed")
		return models.Message{}, fmt.Errorf("%w: %w", ErrSendFailed, streamErr)
	}
}

// rollback undoes a failed exchange: c is replaced by restore, or loses its
// trailing placeholder.
func (s *ChatSession) rollback(ctx context.Context, c models.Conversation, restore *models.Conversation) {
	if restore != nil {
		c = *restore
	} else {
		c.Messages = c.Messages[:len(c.Messages)-1]
	}
	if err := s.replica.Put(ctx, c); err != nil {
		s.logger.Err(err).Str("func", "*ChatSession.rollback").Str("conversation_id", c.ID).Msg("failed to roll back exchange")
	}
}

func (s *ChatSession) title(ctx context.Context, profile models.BackendProfile, history []models.Message) string {
	if s.titles == nil {
		return FallbackTitle(history)
	}
	return s.titles.Generate(ctx, profile, history)
}

// persistConversation writes c to the remote store, or queues it when that
// is not possible. created selects a create over a messages update.
func (s *ChatSession) persistConversation(ctx context.Context, c models.Conversation, created bool) {
	if s.remote == nil {
		return
	}

	if s.Online() {
		err := s.pushConversation(ctx, c, created)
		if err == nil {
			return
		}
		s.downgrade(err)
	}

	if created {
		s.enqueue(ctx, models.ChangeCreateConversation, c.ID, c)
		return
	}
	s.enqueue(ctx, models.ChangeUpdateMessages, c.ID, models.MessagesPayload{Messages: c.Messages, UpdatedAt: c.UpdatedAt})
}

func (s *ChatSession) pushConversation(ctx context.Context, c models.Conversation, created bool) error {
	if created {
		return s.createRemote(ctx, c)
	}

	found, err := s.remote.UpdateMessages(ctx, c.ID, c.Messages, c.UpdatedAt)
	if err != nil {
		return err
	}
	if !found {
		return s.createRemote(ctx, c)
	}
	return nil
}

func (s *ChatSession) createRemote(ctx context.Context, c models.Conversation) error {
	err := s.remote.CreateConversation(ctx, c)
	if !errors.Is(err, adapter.ErrConflict) {
		return err
	}

	found, err := s.remote.UpdateConversation(ctx, c)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("conversation %s vanished during create: %w", c.ID, adapter.ErrNotFound)
	}
	return nil
}

// enqueue appends a change to the journal. A journal that cannot be written
// loses nothing locally, the next reconcile uploads the replica state.
func (s *ChatSession) enqueue(ctx context.Context, kind models.ChangeKind, conversationID string, payload any) {
	rec, err := models.NewChangeRecord(s.ids.Generate(), kind, conversationID, payload, s.now())
	if err == nil {
		err = s.journal.Append(ctx, rec)
	}
	if err != nil {
		s.logger.Err(err).
			Str("func", "*ChatSession.enqueue").
			Str("kind", string(kind)).
			Str("conversation_id", conversationID).
			Msg("failed to journal change")
		return
	}
	s.logger.Debug().Str("kind", string(kind)).Str("conversation_id", conversationID).Msg("change journaled")
}

// downgrade switches to offline mode after a failed remote write.
func (s *ChatSession) downgrade(cause error) {
	s.logger.Err(cause).Str("func", "*ChatSession.downgrade").Msg("remote write failed, going offline")
	if s.online.Swap(false) {
		s.notifier.Notify(Notice{Kind: NoticeOffline, Text: "remote store unavailable, changes are queued"})
	}
}

func (s *ChatSession) userID() int64 {
	if s.identity == nil {
		return 0
	}
	return s.identity.UserID()
}
