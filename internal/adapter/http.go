package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/go-chat-keeper/internal/config"
	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/MKhiriev/go-chat-keeper/internal/utils"
	"github.com/MKhiriev/go-chat-keeper/models"
	"github.com/go-resty/resty/v2"
)

type httpRemoteStore struct {
	client *utils.HTTPClient

	hasher *utils.MessagesHasher

	mu    sync.RWMutex
	token string

	logger *logger.Logger
}

// NewHTTPRemoteStore constructs an HTTP/REST implementation of [RemoteStore].
// It normalises and validates the base URL from adapterCfg.HTTPAddress,
// configures the underlying HTTP client with the resolved base URL and request
// timeout. Messages uploads carry an integrity hash when appCfg.HashKey is set.
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be parsed as a
// valid URL.
func NewHTTPRemoteStore(adapterCfg config.ClientAdapter, appCfg config.ClientApp, logger *logger.Logger) (RemoteStore, error) {
	client := utils.NewHTTPClient()
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	client.
		SetBaseURL(baseURL).
		SetTimeout(adapterCfg.RequestTimeout)

	s := &httpRemoteStore{client: client, hasher: utils.NewMessagesHasher(appCfg.HashKey), logger: logger}
	s.SetToken(adapterCfg.Token)

	return s, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [RemoteStore]. It stores token (whitespace-trimmed) for
// use in the Authorization header of all subsequent authenticated requests.
func (h *httpRemoteStore) SetToken(token string) {
	h.mu.Lock()
	h.token = strings.TrimSpace(token)
	h.mu.Unlock()
}

// Token implements [RemoteStore].
func (h *httpRemoteStore) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Ping implements [RemoteStore] with GET /api/ping.
func (h *httpRemoteStore) Ping(ctx context.Context) error {
	resp, err := h.client.R().SetContext(ctx).Get("/api/ping")
	if err != nil {
		return fmt.Errorf("%w: ping: %w", ErrUnreachable, err)
	}

	return mapHTTPError(resp)
}

// ListConversations implements [RemoteStore] with GET /api/conversations.
func (h *httpRemoteStore) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	resp, err := h.authedRequest(ctx).Get("/api/conversations")
	if err != nil {
		return nil, fmt.Errorf("%w: list conversations: %w", ErrUnreachable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	items := make([]models.Conversation, 0)
	if err = json.Unmarshal(resp.Body(), &items); err != nil {
		h.logger.Err(err).Str("func", "*httpRemoteStore.ListConversations").Msg("undecodable conversation list")
		return nil, fmt.Errorf("%w: %w", ErrDecodeResponse, err)
	}

	return items, nil
}

// CreateConversation implements [RemoteStore] with POST /api/conversations.
func (h *httpRemoteStore) CreateConversation(ctx context.Context, c models.Conversation) error {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(c).
		Post("/api/conversations")
	if err != nil {
		return fmt.Errorf("%w: create conversation: %w", ErrUnreachable, err)
	}

	return mapHTTPError(resp)
}

// UpdateConversation implements [RemoteStore] with PUT /api/conversations/{id}.
func (h *httpRemoteStore) UpdateConversation(ctx context.Context, c models.Conversation) (bool, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(c).
		Put("/api/conversations/" + url.PathEscape(c.ID))
	if err != nil {
		return false, fmt.Errorf("%w: update conversation: %w", ErrUnreachable, err)
	}

	return foundFrom(mapHTTPError(resp))
}

// UpdateTitle implements [RemoteStore] with PATCH /api/conversations/{id}/title.
func (h *httpRemoteStore) UpdateTitle(ctx context.Context, id, title string, updatedAt time.Time) (bool, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(models.TitleRequest{Title: title, UpdatedAt: updatedAt}).
		Patch("/api/conversations/" + url.PathEscape(id) + "/title")
	if err != nil {
		return false, fmt.Errorf("%w: update title: %w", ErrUnreachable, err)
	}

	return foundFrom(mapHTTPError(resp))
}

// UpdateMessages implements [RemoteStore] with
// PUT /api/conversations/{id}/messages. The body carries an integrity hash
// of the message list when a hash key is configured.
func (h *httpRemoteStore) UpdateMessages(ctx context.Context, id string, messages []models.Message, updatedAt time.Time) (bool, error) {
	if messages == nil {
		messages = []models.Message{}
	}
	req := models.MessagesRequest{
		Messages:  messages,
		UpdatedAt: updatedAt,
		Hash:      h.computeTransportHash(messages),
		Length:    len(messages),
	}

	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Put("/api/conversations/" + url.PathEscape(id) + "/messages")
	if err != nil {
		return false, fmt.Errorf("%w: update messages: %w", ErrUnreachable, err)
	}

	return foundFrom(mapHTTPError(resp))
}

// DeleteConversation implements [RemoteStore] with
// DELETE /api/conversations/{id}. A 404 counts as success.
func (h *httpRemoteStore) DeleteConversation(ctx context.Context, id string) error {
	resp, err := h.authedRequest(ctx).Delete("/api/conversations/" + url.PathEscape(id))
	if err != nil {
		return fmt.Errorf("%w: delete conversation: %w", ErrUnreachable, err)
	}

	if err = mapHTTPError(resp); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	return nil
}

func (h *httpRemoteStore) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

func (h *httpRemoteStore) computeTransportHash(messages []models.Message) string {
	sum, err := h.hasher.Sum(messages)
	if err != nil {
		h.logger.Err(err).Str("func", "*httpRemoteStore.computeTransportHash").Msg("failed to hash messages")
		return ""
	}
	return sum
}

// foundFrom turns a 404 into found == false.
func foundFrom(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
