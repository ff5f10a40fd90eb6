// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MKhiriev/go-chat-keeper/internal/config"
	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/MKhiriev/go-chat-keeper/internal/utils"
	"github.com/MKhiriev/go-chat-keeper/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHashKey = "testhashkey"

// newTestStore создаёт httpRemoteStore, направленный на тестовый сервер
func newTestStore(t *testing.T, serverURL string) *httpRemoteStore {
	t.Helper()
	adapterCfg := config.ClientAdapter{HTTPAddress: serverURL, Token: " jwt-token ", RequestTimeout: 5 * time.Second}
	appCfg := config.ClientApp{HashKey: testHashKey}

	s, err := NewHTTPRemoteStore(adapterCfg, appCfg, logger.Nop())
	require.NoError(t, err)
	return s.(*httpRemoteStore)
}

var ts = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNewHTTPRemoteStore_InvalidAddress(t *testing.T) {
	_, err := NewHTTPRemoteStore(config.ClientAdapter{HTTPAddress: "  "}, config.ClientApp{}, logger.Nop())
	assert.Error(t, err)

	_, err = NewHTTPRemoteStore(config.ClientAdapter{HTTPAddress: "http://"}, config.ClientApp{}, logger.Nop())
	assert.Error(t, err)
}

func TestNormalizeBaseURL(t *testing.T) {
	got, err := normalizeBaseURL("localhost:8080/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", got)

	got, err = normalizeBaseURL("https://chat.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example.com", got)
}

func TestToken_TrimmedAndSent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer jwt-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	s := newTestStore(t, srv.URL)
	assert.Equal(t, "jwt-token", s.Token())

	_, err := s.ListConversations(context.Background())
	require.NoError(t, err)
}

// ── Ping ─────────────────────────────────────────────────────────────────────

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ping", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))

	s := newTestStore(t, srv.URL)
	require.NoError(t, s.Ping(context.Background()))

	srv.Close()
	assert.ErrorIs(t, s.Ping(context.Background()), ErrUnreachable)
}

// ── ListConversations ────────────────────────────────────────────────────────

func TestListConversations_Success(t *testing.T) {
	want := []models.Conversation{{
		ID: "c1", Title: "hello", CreatedAt: ts, UpdatedAt: ts, IsSaved: true,
		Messages: []models.Message{{ID: "m1", Role: models.RoleUser, Content: "hi", Timestamp: ts}},
	}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/conversations", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	got, err := newTestStore(t, srv.URL).ListConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ID)
	assert.True(t, models.MessagesEqual(want[0].Messages, got[0].Messages))
}

func TestListConversations_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, "no token", ErrUnauthorized},
		{"internal", http.StatusInternalServerError, "boom", ErrInternalServerError},
		{"storage down", http.StatusServiceUnavailable, "retry later", ErrServiceUnavailable},
		{"garbage", http.StatusOK, "{not json", ErrDecodeResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestStore(t, srv.URL).ListConversations(context.Background())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// ── CreateConversation ───────────────────────────────────────────────────────

func TestCreateConversation(t *testing.T) {
	c := models.Conversation{ID: "c1", Title: "t", CreatedAt: ts, UpdatedAt: ts}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/conversations", r.URL.Path)

		var got models.Conversation
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		if got.Title == "dup" {
			w.WriteHeader(http.StatusConflict)
			return
		}
		assert.Equal(t, "c1", got.ID)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := newTestStore(t, srv.URL)
	require.NoError(t, s.CreateConversation(context.Background(), c))

	c.Title = "dup"
	assert.ErrorIs(t, s.CreateConversation(context.Background(), c), ErrConflict)
}

// ── updates ──────────────────────────────────────────────────────────────────

func TestUpdateConversation_FoundAndMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		switch r.URL.Path {
		case "/api/conversations/c1":
			w.WriteHeader(http.StatusOK)
		case "/api/conversations/gone":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	s := newTestStore(t, srv.URL)

	found, err := s.UpdateConversation(context.Background(), models.Conversation{ID: "c1"})
	require.NoError(t, err)
	assert.True(t, found)

	found, err = s.UpdateConversation(context.Background(), models.Conversation{ID: "gone"})
	require.NoError(t, err, "a missing target is not an error")
	assert.False(t, found)

	_, err = s.UpdateConversation(context.Background(), models.Conversation{ID: "other"})
	assert.ErrorIs(t, err, ErrBadGateway)
}

func TestUpdateTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/conversations/c1/title", r.URL.Path)

		var req models.TitleRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "renamed", req.Title)
		assert.True(t, ts.Equal(req.UpdatedAt))
	}))
	defer srv.Close()

	found, err := newTestStore(t, srv.URL).UpdateTitle(context.Background(), "c1", "renamed", ts)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestUpdateMessages_SendsIntegrityHash(t *testing.T) {
	msgs := []models.Message{
		{ID: "m1", Role: models.RoleUser, Content: "hi", Timestamp: ts},
		{ID: "m2", Role: models.RoleAssistant, Content: "hello", Timestamp: ts.Add(time.Second), ModelName: "gpt"},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/conversations/c1/messages", r.URL.Path)

		var req models.MessagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 2, req.Length)

		payload, err := json.Marshal(req.Messages)
		require.NoError(t, err)
		assert.Equal(t, utils.HashString(string(payload), testHashKey), req.Hash)
	}))
	defer srv.Close()

	found, err := newTestStore(t, srv.URL).UpdateMessages(context.Background(), "c1", msgs, ts)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestUpdateMessages_NoHashKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.MessagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Empty(t, req.Hash)
		assert.NotNil(t, req.Messages)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s, err := NewHTTPRemoteStore(config.ClientAdapter{HTTPAddress: srv.URL}, config.ClientApp{}, logger.Nop())
	require.NoError(t, err)

	found, err := s.UpdateMessages(context.Background(), "c1", nil, ts)
	require.NoError(t, err)
	assert.False(t, found)
}

// ── DeleteConversation ───────────────────────────────────────────────────────

func TestDeleteConversation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		switch r.URL.Path {
		case "/api/conversations/c1":
			w.WriteHeader(http.StatusNoContent)
		case "/api/conversations/gone":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer srv.Close()

	s := newTestStore(t, srv.URL)
	require.NoError(t, s.DeleteConversation(context.Background(), "c1"))
	require.NoError(t, s.DeleteConversation(context.Background(), "gone"), "404 counts as deleted")
	assert.ErrorIs(t, s.DeleteConversation(context.Background(), "x"), ErrForbidden)
}
