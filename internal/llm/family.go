// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package llm

import (
	"fmt"
	"strings"

	"github.com/MKhiriev/go-chat-keeper/models"
)

const (
	anthropicVersion = "2023-06-01"
	// anthropicMaxTokens is sent when a profile sets no limit; the Messages
	// API rejects requests without one.
	anthropicMaxTokens = 4096
)

// dialect is the request shape of one backend family. The set is closed:
// families not listed here use the custom dialect, which speaks the
// OpenAI-compatible format.
type dialect struct {
	framing Framing
	// multimodal means the family accepts typed content parts.
	multimodal bool
	// fallbackOnAuth retries once without streaming after a 401/403.
	fallbackOnAuth bool
	// streamFlag means the body, not the URL, selects streaming.
	streamFlag bool
	url        func(p models.BackendProfile, stream bool) string
	headers    func(p models.BackendProfile) map[string]string
	body       func(p models.BackendProfile, history []models.Message, stream bool, multimodal bool) any
}

var dialects = map[models.Family]dialect{
	models.FamilyOpenAI: {
		framing:    FramingEventStream,
		streamFlag: true,
		multimodal: true,
		url:        endpointURL,
		headers:    bearerHeaders,
		body:       openAIBody,
	},
	models.FamilyAnthropic: {
		framing:    FramingEventStream,
		streamFlag: true,
		multimodal: true,
		url:        endpointURL,
		headers: func(p models.BackendProfile) map[string]string {
			return map[string]string{
				"Content-Type":      "application/json",
				"x-api-key":         p.Credential,
				"anthropic-version": anthropicVersion,
			}
		},
		body: anthropicBody,
	},
	models.FamilyGemini: {
		framing:        FramingEventStream,
		multimodal:     true,
		fallbackOnAuth: true,
		url: func(p models.BackendProfile, stream bool) string {
			base := strings.TrimRight(p.Endpoint, "/")
			if stream {
				return fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", base, p.Model)
			}
			return fmt.Sprintf("%s/models/%s:generateContent", base, p.Model)
		},
		headers: func(p models.BackendProfile) map[string]string {
			return map[string]string{
				"Content-Type":   "application/json",
				"x-goog-api-key": p.Credential,
			}
		},
		body: geminiBody,
	},
	models.FamilyOllama: {
		framing:    FramingNDJSON,
		streamFlag: true,
		url:        endpointURL,
		headers:    bearerHeaders,
		body:       ollamaBody,
	},
	models.FamilyCustom: {
		framing:    FramingEventStream,
		streamFlag: true,
		url:        endpointURL,
		headers:    bearerHeaders,
		body:       openAIBody,
	},
}

func dialectOf(family models.Family) dialect {
	if d, ok := dialects[family]; ok {
		return d
	}
	return dialects[models.FamilyCustom]
}

// knownFamily maps unknown tags to custom for extraction purposes.
func knownFamily(family models.Family) models.Family {
	if _, ok := dialects[family]; ok {
		return family
	}
	return models.FamilyCustom
}

func endpointURL(p models.BackendProfile, _ bool) string {
	return p.Endpoint
}

func bearerHeaders(p models.BackendProfile) map[string]string {
	h := map[string]string{"Content-Type": "application/json"}
	if p.Credential != "" {
		h["Authorization"] = "Bearer " + p.Credential
	}
	return h
}

// ── OpenAI ───────────────────────────────────────────────────────────────────

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Stream      bool            `json:"stream"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	TopP        *float64        `json:"top_p,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type openAIPart struct {
	Type       string           `json:"type"`
	Text       string           `json:"text,omitempty"`
	ImageURL   *openAIImageURL  `json:"image_url,omitempty"`
	InputAudio *openAIAudioData `json:"input_audio,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIAudioData struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}

func openAIBody(p models.BackendProfile, history []models.Message, stream, multimodal bool) any {
	req := openAIRequest{
		Model:       p.Model,
		Messages:    make([]openAIMessage, 0, len(history)),
		Stream:      stream,
		MaxTokens:   p.Params.MaxTokens,
		Temperature: p.Params.Temperature,
		TopP:        p.Params.TopP,
	}
	for _, m := range history {
		msg := openAIMessage{Role: string(m.Role), Content: m.Content}
		if multimodal && m.HasAttachments() {
			msg.Content = openAIParts(m)
		}
		req.Messages = append(req.Messages, msg)
	}
	return req
}

func openAIParts(m models.Message) []openAIPart {
	parts := make([]openAIPart, 0, len(m.Attachments)+1)
	if m.Content != "" {
		parts = append(parts, openAIPart{Type: "text", Text: m.Content})
	}
	for _, a := range m.Attachments {
		switch a.Type {
		case models.AttachmentImage:
			parts = append(parts, openAIPart{Type: "image_url", ImageURL: &openAIImageURL{URL: attachmentURL(a)}})
		case models.AttachmentAudio:
			if a.Data == "" {
				continue
			}
			parts = append(parts, openAIPart{Type: "input_audio", InputAudio: &openAIAudioData{
				Data:   a.Data,
				Format: audioFormat(a),
			}})
		}
	}
	return parts
}

// ── Anthropic ────────────────────────────────────────────────────────────────

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Stream      bool               `json:"stream"`
	Temperature *float64           `json:"temperature,omitempty"`
	TopP        *float64           `json:"top_p,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type anthropicPart struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

func anthropicBody(p models.BackendProfile, history []models.Message, stream, multimodal bool) any {
	req := anthropicRequest{
		Model:       p.Model,
		Messages:    make([]anthropicMessage, 0, len(history)),
		MaxTokens:   anthropicMaxTokens,
		Stream:      stream,
		Temperature: p.Params.Temperature,
		TopP:        p.Params.TopP,
	}
	if p.Params.MaxTokens != nil {
		req.MaxTokens = *p.Params.MaxTokens
	}

	var system []string
	for _, m := range history {
		if m.Role == models.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		msg := anthropicMessage{Role: string(m.Role), Content: m.Content}
		if multimodal && m.HasAttachments() {
			msg.Content = anthropicParts(m)
		}
		req.Messages = append(req.Messages, msg)
	}
	req.System = strings.Join(system, "\n\n")

	return req
}

func anthropicParts(m models.Message) []anthropicPart {
	parts := make([]anthropicPart, 0, len(m.Attachments)+1)
	for _, a := range m.Attachments {
		if a.Type != models.AttachmentImage {
			continue
		}
		src := &anthropicSource{Type: "url", URL: a.URL}
		if a.Data != "" {
			src = &anthropicSource{Type: "base64", MediaType: mimeOf(a), Data: a.Data}
		}
		parts = append(parts, anthropicPart{Type: "image", Source: src})
	}
	if m.Content != "" {
		parts = append(parts, anthropicPart{Type: "text", Text: m.Content})
	}
	return parts
}

// ── Gemini ───────────────────────────────────────────────────────────────────

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *geminiBlob     `json:"inline_data,omitempty"`
	FileData   *geminiFileData `json:"file_data,omitempty"`
}

type geminiBlob struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiFileData struct {
	MIMEType string `json:"mime_type,omitempty"`
	FileURI  string `json:"file_uri"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
}

func geminiBody(p models.BackendProfile, history []models.Message, _ bool, multimodal bool) any {
	req := geminiRequest{Contents: make([]geminiContent, 0, len(history))}
	if p.Params != (models.GenerationParams{}) {
		req.GenerationConfig = &geminiGenerationConfig{
			MaxOutputTokens: p.Params.MaxTokens,
			Temperature:     p.Params.Temperature,
			TopP:            p.Params.TopP,
		}
	}

	var system []geminiPart
	for _, m := range history {
		if m.Role == models.RoleSystem {
			system = append(system, geminiPart{Text: m.Content})
			continue
		}
		role := "user"
		if m.Role == models.RoleAssistant {
			role = "model"
		}
		parts := []geminiPart{{Text: m.Content}}
		if multimodal && m.HasAttachments() {
			parts = geminiParts(m)
		}
		req.Contents = append(req.Contents, geminiContent{Role: role, Parts: parts})
	}
	if len(system) > 0 {
		req.SystemInstruction = &geminiContent{Parts: system}
	}

	return req
}

func geminiParts(m models.Message) []geminiPart {
	parts := make([]geminiPart, 0, len(m.Attachments)+1)
	if m.Content != "" {
		parts = append(parts, geminiPart{Text: m.Content})
	}
	for _, a := range m.Attachments {
		if a.Data != "" {
			parts = append(parts, geminiPart{InlineData: &geminiBlob{MIMEType: mimeOf(a), Data: a.Data}})
			continue
		}
		parts = append(parts, geminiPart{FileData: &geminiFileData{MIMEType: a.MIMEType, FileURI: a.URL}})
	}
	return parts
}

// ── Ollama ───────────────────────────────────────────────────────────────────

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	NumPredict  *int     `json:"num_predict,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
}

func ollamaBody(p models.BackendProfile, history []models.Message, stream, _ bool) any {
	req := ollamaRequest{
		Model:    p.Model,
		Messages: plainMessages(history),
		Stream:   stream,
	}
	if p.Params != (models.GenerationParams{}) {
		req.Options = &ollamaOptions{
			NumPredict:  p.Params.MaxTokens,
			Temperature: p.Params.Temperature,
			TopP:        p.Params.TopP,
		}
	}
	return req
}

// plainMessages drops attachments and keeps role and text only.
func plainMessages(history []models.Message) []ollamaMessage {
	out := make([]ollamaMessage, 0, len(history))
	for _, m := range history {
		out = append(out, ollamaMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// ── attachments ──────────────────────────────────────────────────────────────

func attachmentURL(a models.Attachment) string {
	if a.Data == "" {
		return a.URL
	}
	return "data:" + mimeOf(a) + ";base64," + a.Data
}

func mimeOf(a models.Attachment) string {
	if a.MIMEType != "" {
		return a.MIMEType
	}
	switch a.Type {
	case models.AttachmentAudio:
		return "audio/wav"
	case models.AttachmentVideo:
		return "video/mp4"
	default:
		return "image/png"
	}
}

func audioFormat(a models.Attachment) string {
	if _, sub, ok := strings.Cut(mimeOf(a), "/"); ok {
		if sub == "mpeg" {
			return "mp3"
		}
		return sub
	}
	return "wav"
}
