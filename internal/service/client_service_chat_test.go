// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MKhiriev/go-chat-keeper/internal/adapter"
	"github.com/MKhiriev/go-chat-keeper/internal/llm"
	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/MKhiriev/go-chat-keeper/internal/mock"
	"github.com/MKhiriev/go-chat-keeper/internal/store"
	"github.com/MKhiriev/go-chat-keeper/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

// ── test doubles ─────────────────────────────────────────────────────────────

type stubIdentity struct {
	online bool
}

func (s stubIdentity) UserID() int64 { return 7 }
func (s stubIdentity) Online() bool  { return s.online }

// seqIDs выдаёт предсказуемые идентификаторы
type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

// tickClock сдвигается на минуту при каждом вызове
type tickClock struct {
	mu sync.Mutex
	n  int
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return at(100 + c.n)
}

type noticeRecorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *noticeRecorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *noticeRecorder) kinds() []NoticeKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]NoticeKind, 0, len(r.notices))
	for _, n := range r.notices {
		out = append(out, n.Kind)
	}
	return out
}

type stubSyncer struct {
	calls  int
	report models.SyncReport
	err    error
}

func (s *stubSyncer) Reconcile(context.Context) (models.SyncReport, error) {
	s.calls++
	return s.report, s.err
}

type sessionFixture struct {
	session  *ChatSession
	remote   *mock.MockRemoteStore
	streamer *mock.MockStreamer
	replica  *store.Replica
	journal  *store.Journal
	notices  *noticeRecorder
	syncer   *stubSyncer
}

func newSessionFixture(t *testing.T, online bool, convs ...models.Conversation) *sessionFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &sessionFixture{
		remote:   mock.NewMockRemoteStore(ctrl),
		streamer: mock.NewMockStreamer(ctrl),
		notices:  &noticeRecorder{},
		syncer:   &stubSyncer{},
	}
	f.replica, f.journal = newLocalState(t, convs...)

	clock := &tickClock{}
	f.session = NewChatSession(ChatSessionDeps{
		Streamer: f.streamer,
		Remote:   f.remote,
		Replica:  f.replica,
		Journal:  f.journal,
		Syncer:   f.syncer,
		Identity: stubIdentity{online: online},
		Notifier: f.notices,
		IDs:      &seqIDs{},
		Now:      clock.Now,
		Logger:   logger.Nop(),
	})
	return f
}

var testProfile = models.BackendProfile{
	ID: "main", Name: "GPT-4o", Family: models.FamilyOpenAI,
	Endpoint: "https://api.example.com/v1/chat/completions", Model: "gpt-4o",
}

// streamText отдаёт текст по дельтам и завершает поток
func streamText(deltas ...string) func(context.Context, models.BackendProfile, []models.Message, llm.Handler) llm.State {
	return func(_ context.Context, _ models.BackendProfile, _ []models.Message, h llm.Handler) llm.State {
		acc := ""
		for _, d := range deltas {
			acc += d
			h.OnUpdate(acc)
		}
		h.OnComplete(acc)
		return llm.StateCompleted
	}
}

func emptyConversation(id string) models.Conversation {
	return models.Conversation{ID: id, CreatedAt: t0, UpdatedAt: t0, Messages: []models.Message{}}
}

// ── Send ─────────────────────────────────────────────────────────────────────

func TestChatSession_SendFirstExchangeCreatesRemotely(t *testing.T) {
	f := newSessionFixture(t, true)
	ctx := context.Background()

	c, err := f.session.NewConversation(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.UserID)
	assert.False(t, c.IsSaved)

	var updates []string
	f.streamer.EXPECT().Stream(gomock.Any(), testProfile, gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, p models.BackendProfile, history []models.Message, h llm.Handler) llm.State {
			require.Len(t, history, 1, "the placeholder is not sent")
			assert.Equal(t, models.RoleUser, history[0].Role)
			return streamText("H", "i")(ctx, p, history, h)
		})
	f.remote.EXPECT().CreateConversation(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, got models.Conversation) error {
			assert.True(t, got.IsSaved)
			assert.Equal(t, "What is Go?", got.Title)
			require.Len(t, got.Messages, 2)
			assert.Equal(t, "Hi", got.Messages[1].Content)
			return nil
		})

	reply, err := f.session.Send(ctx, c.ID, testProfile, "What is Go?", SendOptions{
		Handler: llm.HandlerFuncs{Update: func(s string) { updates = append(updates, s) }},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"H", "Hi"}, updates)
	assert.Equal(t, "Hi", reply.Content)
	assert.Equal(t, models.RoleAssistant, reply.Role)
	assert.Equal(t, "GPT-4o", reply.ModelName)
	assert.Equal(t, "gpt-4o", reply.ModelID)

	stored, ok := f.session.Conversation(c.ID)
	require.True(t, ok)
	assert.True(t, stored.IsSaved)
	assert.Len(t, stored.Messages, 2)
	assert.False(t, f.replica.IsBusy(c.ID), "busy flag is cleared")
	assert.Zero(t, f.journal.Len())
}

func TestChatSession_SendUpdatesSavedConversation(t *testing.T) {
	c := conv("c", 1, msg("u1", models.RoleUser, "hi", 1), msg("a1", models.RoleAssistant, "hello", 2))
	f := newSessionFixture(t, true, c)

	f.streamer.EXPECT().Stream(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(streamText("sure"))
	// the remote copy vanished, so the update falls back to a create
	f.remote.EXPECT().UpdateMessages(gomock.Any(), "c", gomock.Any(), gomock.Any()).Return(false, nil)
	f.remote.EXPECT().CreateConversation(gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.session.Send(context.Background(), "c", testProfile, "more", SendOptions{})
	require.NoError(t, err)

	stored, _ := f.session.Conversation("c")
	assert.Len(t, stored.Messages, 4)
	assert.Equal(t, "c", stored.Title, "an existing title is kept")
}

func TestChatSession_RemoteFailureDowngradesAndJournals(t *testing.T) {
	f := newSessionFixture(t, true, emptyConversation("c"))

	f.streamer.EXPECT().Stream(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(streamText("answer"))
	f.remote.EXPECT().CreateConversation(gomock.Any(), gomock.Any()).Return(adapter.ErrUnreachable)

	reply, err := f.session.Send(context.Background(), "c", testProfile, "q", SendOptions{})
	require.NoError(t, err, "a persistence failure is not the user's problem")
	assert.Equal(t, "answer", reply.Content)

	assert.False(t, f.session.Online())
	assert.Equal(t, []NoticeKind{NoticeOffline}, f.notices.kinds())

	pending := f.journal.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, models.ChangeCreateConversation, pending[0].Kind)
	queued, err := pending[0].Conversation()
	require.NoError(t, err)
	assert.Equal(t, "answer", queued.Messages[1].Content)

	stored, _ := f.session.Conversation("c")
	assert.Equal(t, "answer", stored.Messages[1].Content, "produced content is kept")
}

func TestChatSession_OfflineJournalsWithoutRemoteCalls(t *testing.T) {
	c := conv("c", 1, msg("u1", models.RoleUser, "hi", 1), msg("a1", models.RoleAssistant, "hello", 2))
	f := newSessionFixture(t, false, c)

	f.streamer.EXPECT().Stream(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(streamText("ok"))

	_, err := f.session.Send(context.Background(), "c", testProfile, "again", SendOptions{})
	require.NoError(t, err)

	pending := f.journal.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, models.ChangeUpdateMessages, pending[0].Kind)
	payload, err := pending[0].Messages()
	require.NoError(t, err)
	assert.Len(t, payload.Messages, 4)
	assert.Empty(t, f.notices.kinds(), "already offline")
}

func TestChatSession_SendForwardsStreamStates(t *testing.T) {
	f := newSessionFixture(t, false, emptyConversation("c"))

	f.streamer.EXPECT().Stream(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, p models.BackendProfile, history []models.Message, h llm.Handler) llm.State {
			o, ok := h.(llm.StateObserver)
			require.True(t, ok)
			o.OnState(llm.StateSending)
			o.OnState(llm.StateStreaming)
			return streamText("ok")(ctx, p, history, h)
		})

	var states []llm.State
	_, err := f.session.Send(context.Background(), "c", testProfile, "q", SendOptions{
		Handler: llm.HandlerFuncs{State: func(s llm.State) { states = append(states, s) }},
	})
	require.NoError(t, err)
	assert.Equal(t, []llm.State{llm.StateSending, llm.StateStreaming}, states)
}

func TestChatSession_SendFailedRemovesPlaceholder(t *testing.T) {
	f := newSessionFixture(t, true, emptyConversation("c"))
	backendErr := &llm.TransportError{StatusCode: 500}

	var observed error
	f.streamer.EXPECT().Stream(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ models.BackendProfile, _ []models.Message, h llm.Handler) llm.State {
			h.OnUpdate("par")
			h.OnError(backendErr)
			return llm.StateFailed
		})

	_, err := f.session.Send(context.Background(), "c", testProfile, "q", SendOptions{
		Handler: llm.HandlerFuncs{Error: func(err error) { observed = err }},
	})
	require.ErrorIs(t, err, ErrSendFailed)

	var terr *llm.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, 500, terr.StatusCode)
	assert.Equal(t, backendErr, observed)

	stored, _ := f.session.Conversation("c")
	require.Len(t, stored.Messages, 1, "no empty assistant bubble")
	assert.Equal(t, models.RoleUser, stored.Messages[0].Role)
	assert.False(t, stored.IsSaved)
}

func TestChatSession_Abort(t *testing.T) {
	defer goleak.VerifyNone(t)

	tests := []struct {
		name        string
		keepPartial bool
		wantLen     int
	}{
		{"partial dropped", false, 1},
		{"partial kept", true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture(t, true, emptyConversation("c"))
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			f.streamer.EXPECT().Stream(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, _ models.BackendProfile, _ []models.Message, h llm.Handler) llm.State {
					h.OnUpdate("par")
					cancel()
					return llm.StateAborted
				})

			_, err := f.session.Send(ctx, "c", testProfile, "q", SendOptions{KeepPartial: tt.keepPartial})
			require.ErrorIs(t, err, ErrSendAborted)

			stored, _ := f.session.Conversation("c")
			require.Len(t, stored.Messages, tt.wantLen)
			if tt.keepPartial {
				assert.Equal(t, "par", stored.Messages[1].Content)
			}
			assert.False(t, f.replica.IsBusy("c"))
		})
	}
}

func TestChatSession_SendValidation(t *testing.T) {
	f := newSessionFixture(t, true, emptyConversation("c"))
	ctx := context.Background()

	_, err := f.session.Send(ctx, "c", testProfile, "   ", SendOptions{})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = f.session.Send(ctx, "missing", testProfile, "hi", SendOptions{})
	assert.ErrorIs(t, err, ErrConversationNotFound)

	require.True(t, f.replica.MarkBusy("c"))
	_, err = f.session.Send(ctx, "c", testProfile, "hi", SendOptions{})
	assert.ErrorIs(t, err, ErrConversationBusy)
}

func TestChatSession_SendKeepsAttachments(t *testing.T) {
	f := newSessionFixture(t, false, emptyConversation("c"))
	att := []models.Attachment{{Type: models.AttachmentImage, URL: "https://x/cat.png"}}

	f.streamer.EXPECT().Stream(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, p models.BackendProfile, history []models.Message, h llm.Handler) llm.State {
			assert.Equal(t, att, history[0].Attachments)
			return streamText("a cat")(ctx, p, history, h)
		})

	_, err := f.session.Send(context.Background(), "c", testProfile, "", SendOptions{Attachments: att})
	require.NoError(t, err, "attachments alone are a valid message")
}

// ── Retry / Edit / Branch ────────────────────────────────────────────────────

func TestChatSession_Retry(t *testing.T) {
	c := conv("c", 1,
		msg("u1", models.RoleUser, "hi", 1),
		msg("a1", models.RoleAssistant, "bad answer", 2),
	)
	f := newSessionFixture(t, false, c)

	f.streamer.EXPECT().Stream(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, p models.BackendProfile, history []models.Message, h llm.Handler) llm.State {
			assert.Equal(t, []string{"u1"}, ids(history))
			return streamText("good answer")(ctx, p, history, h)
		})

	_, err := f.session.Retry(context.Background(), "c", testProfile, SendOptions{})
	require.NoError(t, err)

	stored, _ := f.session.Conversation("c")
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, "good answer", stored.Messages[1].Content)
	assert.NotEqual(t, "a1", stored.Messages[1].ID)
}

func TestChatSession_RetryFailureRestoresPreviousReply(t *testing.T) {
	before := conv("c", 2, msg("u1", models.RoleUser, "hi", 1), msg("a1", models.RoleAssistant, "hello", 2))
	f := newSessionFixture(t, true, before)

	f.streamer.EXPECT().Stream(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ models.BackendProfile, history []models.Message, h llm.Handler) llm.State {
			require.Len(t, history, 1, "the old reply is not resent")
			h.OnError(&llm.TransportError{StatusCode: 503})
			return llm.StateFailed
		})

	_, err := f.session.Retry(context.Background(), "c", testProfile, SendOptions{})
	require.ErrorIs(t, err, ErrSendFailed)

	stored, ok := f.session.Conversation("c")
	require.True(t, ok)
	assert.Equal(t, []string{"u1", "a1"}, ids(stored.Messages))
	assert.Equal(t, "hello", stored.Messages[1].Content)
	assert.True(t, before.UpdatedAt.Equal(stored.UpdatedAt))
	assert.Zero(t, f.journal.Len())
}

func TestChatSession_RetryWithoutUserTurn(t *testing.T) {
	f := newSessionFixture(t, false, emptyConversation("c"))
	_, err := f.session.Retry(context.Background(), "c", testProfile, SendOptions{})
	assert.ErrorIs(t, err, ErrNothingToRetry)
}

func TestChatSession_Edit(t *testing.T) {
	c := conv("c", 1,
		msg("u1", models.RoleUser, "first", 1),
		msg("a1", models.RoleAssistant, "one", 2),
		msg("u2", models.RoleUser, "second", 3),
		msg("a2", models.RoleAssistant, "two", 4),
	)
	f := newSessionFixture(t, false, c)
	ctx := context.Background()

	_, err := f.session.Edit(ctx, "c", "a1", testProfile, "x", SendOptions{})
	assert.ErrorIs(t, err, ErrNotUserMessage)
	_, err = f.session.Edit(ctx, "c", "nope", testProfile, "x", SendOptions{})
	assert.ErrorIs(t, err, ErrMessageNotFound)

	f.streamer.EXPECT().Stream(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, p models.BackendProfile, history []models.Message, h llm.Handler) llm.State {
			require.Len(t, history, 1)
			assert.Equal(t, "u1", history[0].ID)
			assert.Equal(t, "first, edited", history[0].Content)
			return streamText("new")(ctx, p, history, h)
		})

	_, err = f.session.Edit(ctx, "c", "u1", testProfile, "first, edited", SendOptions{})
	require.NoError(t, err)

	stored, _ := f.session.Conversation("c")
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, "new", stored.Messages[1].Content)
}

func TestChatSession_Branch(t *testing.T) {
	c := conv("c", 1,
		msg("u1", models.RoleUser, "first", 1),
		msg("a1", models.RoleAssistant, "one", 2),
		msg("u2", models.RoleUser, "second", 3),
	)
	f := newSessionFixture(t, true, c)

	f.remote.EXPECT().CreateConversation(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, got models.Conversation) error {
			assert.Equal(t, []string{"u1", "a1"}, ids(got.Messages))
			return nil
		})

	branch, err := f.session.Branch(context.Background(), "c", "a1")
	require.NoError(t, err)
	assert.NotEqual(t, "c", branch.ID)
	assert.Equal(t, []string{"u1", "a1"}, ids(branch.Messages))

	src, _ := f.session.Conversation("c")
	assert.Len(t, src.Messages, 3, "the source is untouched")

	_, err = f.session.Branch(context.Background(), "c", "nope")
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

// ── Rename / Delete ──────────────────────────────────────────────────────────

func TestChatSession_RenameOfflineJournals(t *testing.T) {
	f := newSessionFixture(t, false, conv("c", 1))

	require.NoError(t, f.session.Rename(context.Background(), "c", "  Trip plans "))

	stored, _ := f.session.Conversation("c")
	assert.Equal(t, "Trip plans", stored.Title)

	pending := f.journal.Pending()
	require.Len(t, pending, 1)
	p, err := pending[0].Title()
	require.NoError(t, err)
	assert.Equal(t, "Trip plans", p.Title)
}

func TestChatSession_RenameUnsavedStaysLocal(t *testing.T) {
	f := newSessionFixture(t, true, emptyConversation("draft"))

	require.NoError(t, f.session.Rename(context.Background(), "draft", "Draft"))
	assert.Zero(t, f.journal.Len())
}

func TestChatSession_DeleteOnline(t *testing.T) {
	f := newSessionFixture(t, true, conv("c", 1))
	f.remote.EXPECT().DeleteConversation(gomock.Any(), "c").Return(nil)

	require.NoError(t, f.session.Delete(context.Background(), "c"))
	_, ok := f.session.Conversation("c")
	assert.False(t, ok)
	assert.Zero(t, f.journal.Len())

	assert.ErrorIs(t, f.session.Delete(context.Background(), "c"), ErrConversationNotFound)
}

func TestChatSession_DeleteFailureJournals(t *testing.T) {
	f := newSessionFixture(t, true, conv("c", 1))
	f.remote.EXPECT().DeleteConversation(gomock.Any(), "c").Return(adapter.ErrBadGateway)

	require.NoError(t, f.session.Delete(context.Background(), "c"))
	assert.False(t, f.session.Online())
	assert.True(t, f.journal.Has("c", models.ChangeDeleteConversation))
}

func TestChatSession_BusyConversationRejectsMutations(t *testing.T) {
	f := newSessionFixture(t, true, conv("c", 1))
	require.True(t, f.replica.MarkBusy("c"))

	assert.ErrorIs(t, f.session.Rename(context.Background(), "c", "x"), ErrConversationBusy)
	assert.ErrorIs(t, f.session.Delete(context.Background(), "c"), ErrConversationBusy)
}

// ── connectivity ─────────────────────────────────────────────────────────────

func TestChatSession_SetOnlineTriggersReconcile(t *testing.T) {
	f := newSessionFixture(t, false)
	f.syncer.report = models.SyncReport{Synced: 3}
	ctx := context.Background()

	f.session.SetOnline(ctx, true)
	assert.True(t, f.session.Online())
	assert.Equal(t, 1, f.syncer.calls)
	assert.Equal(t, []NoticeKind{NoticeOnline, NoticeSynced}, f.notices.kinds())

	f.session.SetOnline(ctx, true)
	assert.Equal(t, 1, f.syncer.calls, "no transition, no pass")

	f.session.SetOnline(ctx, false)
	assert.False(t, f.session.Online())
	assert.Equal(t, 1, f.syncer.calls)
}

func TestChatSession_SetOnlineReportsSyncFailure(t *testing.T) {
	f := newSessionFixture(t, false)
	f.syncer.err = errors.New("boom")

	f.session.SetOnline(context.Background(), true)
	assert.Equal(t, []NoticeKind{NoticeOnline, NoticeSyncFailed}, f.notices.kinds())
}

func TestChatSession_Reconcile(t *testing.T) {
	f := newSessionFixture(t, false)
	f.syncer.report = models.SyncReport{Synced: 1}

	report, err := f.session.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Synced)
	assert.True(t, f.session.Online(), "a successful pass proves the remote is back")

	f.syncer.err = fmt.Errorf("%w: down", ErrRemoteUnavailable)
	_, err = f.session.Reconcile(context.Background())
	require.ErrorIs(t, err, ErrRemoteUnavailable)
	assert.False(t, f.session.Online())
}

func TestChatSession_LocalOnly(t *testing.T) {
	replica, journal := newLocalState(t, emptyConversation("c"))
	ctrl := gomock.NewController(t)
	streamer := mock.NewMockStreamer(ctrl)

	s := NewChatSession(ChatSessionDeps{
		Streamer: streamer,
		Replica:  replica,
		Journal:  journal,
		Identity: stubIdentity{online: true},
	})
	assert.False(t, s.Online())

	streamer.EXPECT().Stream(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(streamText("ok"))
	_, err := s.Send(context.Background(), "c", testProfile, "hi", SendOptions{})
	require.NoError(t, err)
	assert.Zero(t, journal.Len(), "nothing to sync to")

	_, err = s.Reconcile(context.Background())
	assert.ErrorIs(t, err, ErrRemoteDisabled)
}
