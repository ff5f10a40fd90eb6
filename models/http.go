package models

import "time"

// TitleRequest is the body of PATCH /api/conversations/{id}/title.
type TitleRequest struct {
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MessagesRequest is the body of PUT /api/conversations/{id}/messages.
type MessagesRequest struct {
	// Messages replaces the stored message list.
	Messages []Message `json:"messages"`

	// UpdatedAt becomes the conversation's update time.
	UpdatedAt time.Time `json:"updated_at"`

	// Hash of serialized Messages, used as a transport integrity check.
	Hash string `json:"hash,omitempty"`

	// Length is the total number of entries in Messages.
	Length int `json:"length"`
}
