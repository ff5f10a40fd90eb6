package service

import (
	"context"
	"errors"
	"testing"

	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/MKhiriev/go-chat-keeper/internal/mock"
	"github.com/MKhiriev/go-chat-keeper/internal/store"
	"github.com/MKhiriev/go-chat-keeper/internal/validators"
	"github.com/MKhiriev/go-chat-keeper/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func ownedConv(id string, userID int64) models.Conversation {
	c := conv(id, 1, msg(id+"-u", models.RoleUser, "hi", 1))
	c.UserID = userID
	return c
}

func newConversationServiceUnderTest(t *testing.T) (ConversationService, *mock.MockConversationRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mock.NewMockConversationRepository(ctrl)

	svc := NewConversationValidationService().Wrap(NewConversationService(repo, logger.Nop()))
	return svc, repo
}

// ─────────────────────────────────────────────
// ConversationService
// ─────────────────────────────────────────────

func TestConversationService_List(t *testing.T) {
	svc, repo := newConversationServiceUnderTest(t)

	t.Run("nil becomes empty", func(t *testing.T) {
		repo.EXPECT().ListConversations(gomock.Any(), int64(1)).Return(nil, nil)

		got, err := svc.ListConversations(context.Background(), 1)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("repository error is wrapped", func(t *testing.T) {
		repo.EXPECT().ListConversations(gomock.Any(), int64(1)).Return(nil, store.ErrExecutingQuery)

		_, err := svc.ListConversations(context.Background(), 1)
		assert.ErrorIs(t, err, store.ErrExecutingQuery)
	})

	t.Run("no user", func(t *testing.T) {
		_, err := svc.ListConversations(context.Background(), 0)
		assert.ErrorIs(t, err, ErrInvalidDataProvided)
		assert.ErrorIs(t, err, ErrValidationNoUserID)
	})
}

func TestConversationService_CreateMarksSaved(t *testing.T) {
	svc, repo := newConversationServiceUnderTest(t)

	c := ownedConv("c1", 7)
	c.IsSaved = false

	repo.EXPECT().CreateConversation(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, stored models.Conversation) error {
			assert.True(t, stored.IsSaved)
			assert.Equal(t, int64(7), stored.UserID)
			return nil
		})

	require.NoError(t, svc.CreateConversation(context.Background(), c))
}

func TestConversationService_CreateConflictPassesThrough(t *testing.T) {
	svc, repo := newConversationServiceUnderTest(t)
	repo.EXPECT().CreateConversation(gomock.Any(), gomock.Any()).Return(store.ErrConversationAlreadyExists)

	err := svc.CreateConversation(context.Background(), ownedConv("c1", 7))
	assert.ErrorIs(t, err, store.ErrConversationAlreadyExists)
}

func TestConversationService_UpdateNotFoundPassesThrough(t *testing.T) {
	svc, repo := newConversationServiceUnderTest(t)
	repo.EXPECT().UpdateConversation(gomock.Any(), gomock.Any()).Return(store.ErrConversationNotFound)

	err := svc.UpdateConversation(context.Background(), ownedConv("c1", 7))
	assert.ErrorIs(t, err, store.ErrConversationNotFound)
}

func TestConversationService_UpdateTitle(t *testing.T) {
	svc, repo := newConversationServiceUnderTest(t)
	repo.EXPECT().UpdateTitle(gomock.Any(), int64(7), "c1", "Renamed", at(5)).Return(nil)

	err := svc.UpdateTitle(context.Background(), 7, "c1", models.TitleRequest{Title: "Renamed", UpdatedAt: at(5)})
	require.NoError(t, err)
}

func TestConversationService_UpdateMessages(t *testing.T) {
	svc, repo := newConversationServiceUnderTest(t)

	t.Run("nil messages stored as empty list", func(t *testing.T) {
		repo.EXPECT().UpdateMessages(gomock.Any(), int64(7), "c1", []models.Message{}, at(5)).Return(nil)

		err := svc.UpdateMessages(context.Background(), 7, "c1", models.MessagesRequest{UpdatedAt: at(5)})
		require.NoError(t, err)
	})

	t.Run("length mismatch rejected before storage", func(t *testing.T) {
		req := models.MessagesRequest{
			Messages:  []models.Message{msg("m1", models.RoleUser, "hi", 1)},
			UpdatedAt: at(5),
			Length:    2,
		}

		err := svc.UpdateMessages(context.Background(), 7, "c1", req)
		assert.ErrorIs(t, err, ErrInvalidDataProvided)
		assert.ErrorIs(t, err, validators.ErrLengthMismatch)
	})
}

func TestConversationService_Delete(t *testing.T) {
	svc, repo := newConversationServiceUnderTest(t)
	repo.EXPECT().DeleteConversation(gomock.Any(), int64(7), "c1").Return(store.ErrConversationNotFound)

	err := svc.DeleteConversation(context.Background(), 7, "c1")
	assert.True(t, errors.Is(err, store.ErrConversationNotFound))
}

// ─────────────────────────────────────────────
// Validation wrapper
// ─────────────────────────────────────────────

func TestConversationValidationService_RejectsBeforeRepository(t *testing.T) {
	// репозиторий не должен вызываться ни в одном из случаев
	svc, _ := newConversationServiceUnderTest(t)
	ctx := context.Background()

	noOwner := ownedConv("c1", 0)
	badRole := ownedConv("c1", 7)
	badRole.Messages[0].Role = "robot"

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"create without owner", func() error { return svc.CreateConversation(ctx, noOwner) }, validators.ErrInvalidUserID},
		{"update with bad role", func() error { return svc.UpdateConversation(ctx, badRole) }, validators.ErrInvalidRole},
		{"title without id", func() error {
			return svc.UpdateTitle(ctx, 7, "", models.TitleRequest{UpdatedAt: at(1)})
		}, ErrValidationNoConversationID},
		{"title without updated_at", func() error {
			return svc.UpdateTitle(ctx, 7, "c1", models.TitleRequest{Title: "x"})
		}, validators.ErrEmptyUpdatedAt},
		{"messages without user", func() error {
			return svc.UpdateMessages(ctx, 0, "c1", models.MessagesRequest{UpdatedAt: at(1)})
		}, ErrValidationNoUserID},
		{"delete without id", func() error { return svc.DeleteConversation(ctx, 7, "") }, ErrValidationNoConversationID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			assert.ErrorIs(t, err, ErrInvalidDataProvided)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
