// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"slices"
	"time"
)

// Role identifies the author of a [Message].
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// AttachmentType is the media kind of an [Attachment].
type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentAudio AttachmentType = "audio"
	AttachmentVideo AttachmentType = "video"
)

// Attachment is a media file referenced by a message. Exactly one of URL or
// Data is expected to be set; Data holds a base64 payload.
type Attachment struct {
	Type     AttachmentType `json:"type"`
	URL      string         `json:"url,omitempty"`
	Data     string         `json:"data,omitempty"`
	MIMEType string         `json:"mime_type,omitempty"`
	FileName string         `json:"file_name,omitempty"`
	FileSize int64          `json:"file_size,omitempty"`
}

// Message is a single turn of a [Conversation].
//
// ModelName and ModelID are a snapshot of the backend that produced an
// assistant message. They are fixed when the message is created, so switching
// the active profile later never rewrites displayed history.
type Message struct {
	ID          string       `json:"id"`
	Role        Role         `json:"role"`
	Content     string       `json:"content"`
	Timestamp   time.Time    `json:"timestamp"`
	ModelName   string       `json:"model_name,omitempty"`
	ModelID     string       `json:"model_id,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// HasAttachments reports whether the message carries any media.
func (m Message) HasAttachments() bool {
	return len(m.Attachments) > 0
}

// Equal reports whether two messages are identical, attachments included.
func (m Message) Equal(other Message) bool {
	return m.ID == other.ID &&
		m.Role == other.Role &&
		m.Content == other.Content &&
		SameInstant(m.Timestamp, other.Timestamp) &&
		m.ModelName == other.ModelName &&
		m.ModelID == other.ModelID &&
		slices.Equal(m.Attachments, other.Attachments)
}

// Conversation is an ordered exchange of messages owned by one user.
// ID is opaque and never changes after creation.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id,omitempty"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// IsSaved becomes true after the first successful exchange.
	IsSaved bool `json:"is_saved"`
}

// Clone returns a deep copy so callers can mutate the result without
// touching the replica's state.
func (c Conversation) Clone() Conversation {
	out := c
	out.Messages = make([]Message, len(c.Messages))
	for i, m := range c.Messages {
		m.Attachments = slices.Clone(m.Attachments)
		out.Messages[i] = m
	}
	return out
}

// MessageIndex returns the position of the message with the given id, or -1.
func (c Conversation) MessageIndex(messageID string) int {
	return slices.IndexFunc(c.Messages, func(m Message) bool {
		return m.ID == messageID
	})
}

// LastUserIndex returns the position of the latest user message, or -1.
func (c Conversation) LastUserIndex() int {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return i
		}
	}
	return -1
}

// MessagesEqual compares two message sequences element by element.
func MessagesEqual(a, b []Message) bool {
	return slices.EqualFunc(a, b, Message.Equal)
}

// SortMessages orders messages by timestamp, breaking ties by id so the
// result does not depend on input order.
func SortMessages(msgs []Message) {
	slices.SortStableFunc(msgs, func(a, b Message) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}
