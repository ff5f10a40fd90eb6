// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChangeKind names the mutation a [ChangeRecord] carries.
type ChangeKind string

const (
	ChangeCreateConversation ChangeKind = "create-conversation"
	ChangeUpdateTitle        ChangeKind = "update-title"
	ChangeDeleteConversation ChangeKind = "delete-conversation"
	ChangeUpdateMessages     ChangeKind = "update-messages"
)

// ChangeRecord is one mutation queued while the remote store was unreachable.
// Records are removed one by one once replayed and are never replayed twice.
type ChangeRecord struct {
	ID             string          `json:"id"`
	Kind           ChangeKind      `json:"kind"`
	ConversationID string          `json:"conversation_id"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// TitlePayload is the payload of an update-title record.
type TitlePayload struct {
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MessagesPayload is the payload of an update-messages record.
type MessagesPayload struct {
	Messages  []Message `json:"messages"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewChangeRecord encodes payload and stamps the record. A nil payload is
// stored as an empty field.
func NewChangeRecord(id string, kind ChangeKind, conversationID string, payload any, at time.Time) (ChangeRecord, error) {
	rec := ChangeRecord{
		ID:             id,
		Kind:           kind,
		ConversationID: conversationID,
		Timestamp:      at,
	}
	if payload == nil {
		return rec, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return ChangeRecord{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	rec.Payload = raw

	return rec, nil
}

// Conversation decodes the payload of a create-conversation record.
func (r ChangeRecord) Conversation() (Conversation, error) {
	var c Conversation
	err := json.Unmarshal(r.Payload, &c)
	return c, err
}

// Title decodes the payload of an update-title record.
func (r ChangeRecord) Title() (TitlePayload, error) {
	var p TitlePayload
	err := json.Unmarshal(r.Payload, &p)
	return p, err
}

// Messages decodes the payload of an update-messages record.
func (r ChangeRecord) Messages() (MessagesPayload, error) {
	var p MessagesPayload
	err := json.Unmarshal(r.Payload, &p)
	return p, err
}
