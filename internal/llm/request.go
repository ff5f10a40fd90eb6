// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/MKhiriev/go-chat-keeper/models"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Template placeholders.
const (
	placeholderModel       = "{{model}}"
	placeholderMessages    = "{{messages}}"
	placeholderMaxTokens   = "{{max_tokens}}"
	placeholderTemperature = "{{temperature}}"
	placeholderAPIKey      = "{{api_key}}"
)

// Values substituted when a template references a parameter the profile
// leaves unset.
const (
	defaultTemplateMaxTokens   = 2048
	defaultTemplateTemperature = 0.7
)

const redacted = "[REDACTED]"

var errInvalidTemplateJSON = errors.New("body is not valid JSON after substitution")

// Request is a ready-to-send backend call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	Stream  bool
	Framing Framing
	Family  models.Family
	// ResponsePath overrides the family extraction rules when set.
	ResponsePath string

	secret string
}

// MarshalZerologObject logs the request without its credential or body.
func (r Request) MarshalZerologObject(e *zerolog.Event) {
	e.Str("method", r.Method).
		Str("url", r.redact(r.URL)).
		Str("family", string(r.Family)).
		Bool("stream", r.Stream).
		Str("framing", r.Framing.String()).
		Int("body_bytes", len(r.Body))

	headers := zerolog.Dict()
	for k, v := range r.Headers {
		headers.Str(k, r.redact(v))
	}
	e.Dict("headers", headers)
}

func (r Request) redact(s string) string {
	if r.secret == "" {
		return s
	}
	return strings.ReplaceAll(s, r.secret, redacted)
}

// Builder turns a profile and a message history into a [Request].
// It holds no state; the profile is passed explicitly on every call.
type Builder struct{}

// NewBuilder returns a Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build returns the streaming request. A broken template yields a
// [*TemplateError].
func (b *Builder) Build(profile models.BackendProfile, history []models.Message) (Request, error) {
	return b.build(profile, history, true)
}

// BuildFallback returns the non-streaming variant of the same request.
func (b *Builder) BuildFallback(profile models.BackendProfile, history []models.Message) (Request, error) {
	return b.build(profile, history, false)
}

func (b *Builder) build(profile models.BackendProfile, history []models.Message, stream bool) (Request, error) {
	if strings.TrimSpace(profile.Endpoint) == "" {
		return Request{}, ErrEmptyEndpoint
	}

	if profile.Template != nil && strings.TrimSpace(profile.Template.Body) != "" {
		return b.fromTemplate(profile, history, stream)
	}

	d := dialectOf(profile.Family)
	body, err := json.Marshal(d.body(profile, history, stream, d.multimodal && profile.Multimodal))
	if err != nil {
		return Request{}, fmt.Errorf("encode %s request: %w", profile.Family, err)
	}

	req := Request{
		Method:  "POST",
		URL:     d.url(profile, stream),
		Headers: d.headers(profile),
		Body:    body,
		Stream:  stream,
		Framing: d.framing,
		Family:  knownFamily(profile.Family),
		secret:  profile.Credential,
	}
	if profile.Template != nil {
		req.ResponsePath = profile.Template.ResponsePath
		if f, ok := ParseFraming(profile.Template.Framing); ok {
			req.Framing = f
		}
		maps.Copy(req.Headers, substituteHeaders(profile.Template.Headers, profile))
	}

	return req, nil
}

func (b *Builder) fromTemplate(profile models.BackendProfile, history []models.Message, stream bool) (Request, error) {
	tmpl := profile.Template

	messages, err := json.Marshal(plainMessages(history))
	if err != nil {
		return Request{}, fmt.Errorf("encode template messages: %w", err)
	}

	maxTokens := defaultTemplateMaxTokens
	if profile.Params.MaxTokens != nil {
		maxTokens = *profile.Params.MaxTokens
	}
	temperature := defaultTemplateTemperature
	if profile.Params.Temperature != nil {
		temperature = *profile.Params.Temperature
	}

	body := strings.NewReplacer(
		placeholderModel, jsonEscape(profile.Model),
		placeholderMessages, string(messages),
		placeholderMaxTokens, strconv.Itoa(maxTokens),
		placeholderTemperature, strconv.FormatFloat(temperature, 'f', -1, 64),
		placeholderAPIKey, jsonEscape(profile.Credential),
	).Replace(tmpl.Body)

	if !gjson.Valid(body) {
		return Request{}, &TemplateError{ProfileID: profile.ID, Err: errInvalidTemplateJSON}
	}

	d := dialectOf(profile.Family)
	raw := []byte(body)
	if !stream && gjson.Parse(body).IsObject() && (d.streamFlag || gjson.GetBytes(raw, "stream").Exists()) {
		if raw, err = sjson.SetBytes(raw, "stream", false); err != nil {
			return Request{}, &TemplateError{ProfileID: profile.ID, Err: err}
		}
	}

	framing := d.framing
	if f, ok := ParseFraming(tmpl.Framing); ok {
		framing = f
	}

	headers := bearerHeaders(profile)
	if len(tmpl.Headers) > 0 {
		headers = map[string]string{"Content-Type": "application/json"}
		maps.Copy(headers, substituteHeaders(tmpl.Headers, profile))
	}

	return Request{
		Method:       "POST",
		URL:          profile.Endpoint,
		Headers:      headers,
		Body:         raw,
		Stream:       stream,
		Framing:      framing,
		Family:       knownFamily(profile.Family),
		ResponsePath: tmpl.ResponsePath,
		secret:       profile.Credential,
	}, nil
}

func substituteHeaders(headers map[string]string, profile models.BackendProfile) map[string]string {
	r := strings.NewReplacer(
		placeholderAPIKey, profile.Credential,
		placeholderModel, profile.Model,
	)
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		out[k] = r.Replace(v)
	}
	return out
}

// jsonEscape escapes s for use inside a JSON string literal.
func jsonEscape(s string) string {
	b, _ := json.Marshal(s)
	return string(b[1 : len(b)-1])
}
