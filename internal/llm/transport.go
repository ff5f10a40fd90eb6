// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package llm talks to chat-completion backends.
//
// A [Builder] shapes the request for the profile's family, a [Decoder] splits
// the streamed body into payloads, [Extract] pulls a text delta out of each
// payload and [Transport] ties them together into one incremental stream of
// accumulated text.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/MKhiriev/go-chat-keeper/internal/utils"
	"github.com/MKhiriev/go-chat-keeper/models"
	"github.com/go-resty/resty/v2"
)

//go:generate mockgen -source=transport.go -destination=../mock/streamer_mock.go -package=mock

// maxErrorBody bounds how much of a failed response is kept for the error.
const maxErrorBody = 4 << 10

// State is the lifecycle of one send: Idle, Sending, Streaming, then one of
// Completed, Failed or Aborted. [Transport.Stream] returns the terminal
// state; a [StateObserver] sees the ones before it.
type State int

const (
	// StateIdle is the zero value, nothing has been sent yet.
	StateIdle State = iota
	StateSending
	StateStreaming
	StateCompleted
	StateFailed
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Handler receives the outcome of a send. OnUpdate always gets the full text
// accumulated so far. Exactly one of OnComplete and OnError is called, unless
// the context is cancelled, in which case neither is.
type Handler interface {
	OnUpdate(content string)
	OnComplete(content string)
	OnError(err error)
}

// StateObserver is an optional extension of [Handler]. OnState is called
// with [StateSending] before the request goes out and with [StateStreaming]
// once the backend accepted it.
type StateObserver interface {
	OnState(s State)
}

// HandlerFuncs adapts plain functions to [Handler] and [StateObserver]. Nil
// fields are skipped.
type HandlerFuncs struct {
	Update   func(content string)
	Complete func(content string)
	Error    func(err error)
	State    func(s State)
}

func (h HandlerFuncs) OnState(s State) {
	if h.State != nil {
		h.State(s)
	}
}

func (h HandlerFuncs) OnUpdate(content string) {
	if h.Update != nil {
		h.Update(content)
	}
}

func (h HandlerFuncs) OnComplete(content string) {
	if h.Complete != nil {
		h.Complete(content)
	}
}

func (h HandlerFuncs) OnError(err error) {
	if h.Error != nil {
		h.Error(err)
	}
}

// Streamer is what the chat session needs from a transport.
type Streamer interface {
	// Stream runs one chat completion and reports progress to h. It returns
	// the terminal state: completed, failed or aborted.
	Stream(ctx context.Context, profile models.BackendProfile, history []models.Message, h Handler) State
	// Complete runs a single non-streaming call and returns the whole reply.
	Complete(ctx context.Context, profile models.BackendProfile, history []models.Message) (string, error)
}

// Transport is the HTTP implementation of [Streamer].
type Transport struct {
	client  *utils.HTTPClient
	builder *Builder
	logger  *logger.Logger
}

// NewTransport returns a Transport. The client must not carry a request
// timeout: streams end only when the backend finishes or ctx is cancelled.
func NewTransport(client *utils.HTTPClient, log *logger.Logger) *Transport {
	return &Transport{
		client:  client,
		builder: NewBuilder(),
		logger:  log,
	}
}

// Stream implements [Streamer].
func (t *Transport) Stream(ctx context.Context, profile models.BackendProfile, history []models.Message, h Handler) State {
	log := t.logger.With().Str("profile", profile.ID).Logger()

	req, err := t.builder.Build(profile, history)
	if err != nil {
		log.Err(err).Str("func", "*Transport.Stream").Msg("error building request")
		return t.fail(ctx, h, err)
	}

	notifyState(h, StateSending)
	log.Debug().Object("request", req).Msg("sending chat request")
	resp, err := t.client.R().
		SetContext(ctx).
		SetHeaders(req.Headers).
		SetBody(req.Body).
		SetDoNotParseResponse(true).
		Execute(req.Method, req.URL)
	if ctx.Err() != nil {
		closeRaw(resp)
		return StateAborted
	}
	if err != nil {
		log.Err(err).Str("func", "*Transport.Stream").Msg("error sending request")
		return t.fail(ctx, h, &TransportError{Err: err})
	}

	body := resp.RawBody()
	defer body.Close()

	if !resp.IsSuccess() {
		terr := readTransportError(resp.StatusCode(), body)
		if ctx.Err() != nil {
			return StateAborted
		}
		log.Warn().Int("status", terr.StatusCode).Str("func", "*Transport.Stream").Msg("backend refused stream")

		if terr.Unauthorized() && dialectOf(profile.Family).fallbackOnAuth {
			return t.fallback(ctx, profile, history, h)
		}
		return t.fail(ctx, h, terr)
	}

	notifyState(h, StateStreaming)
	return t.consume(ctx, NewDecoder(body, req.Framing), req, h)
}

func notifyState(h Handler, s State) {
	if o, ok := h.(StateObserver); ok {
		o.OnState(s)
	}
}

func (t *Transport) consume(ctx context.Context, dec *Decoder, req Request, h Handler) State {
	var (
		acc        strings.Builder
		seen       int
		recognized int
	)

	for dec.Next() {
		if ctx.Err() != nil {
			return StateAborted
		}
		payload := dec.Payload()
		seen++

		if msg, ok := backendError(payload); ok {
			return t.fail(ctx, h, fmt.Errorf("%w: %s", ErrBackendReported, msg))
		}

		delta, ok := extract(payload, req.Family, req.ResponsePath)
		if !ok {
			t.logger.Debug().Str("func", "*Transport.consume").Msg("skipping unrecognized payload")
			continue
		}
		recognized++
		if delta == "" {
			continue
		}

		acc.WriteString(delta)
		if ctx.Err() != nil {
			return StateAborted
		}
		h.OnUpdate(acc.String())
	}

	if ctx.Err() != nil {
		return StateAborted
	}
	if err := dec.Err(); err != nil {
		return t.fail(ctx, h, &TransportError{Err: err})
	}
	if seen > 0 && recognized == 0 {
		return t.fail(ctx, h, &ExtractionError{Err: ErrUnrecognizedStream})
	}

	h.OnComplete(acc.String())
	return StateCompleted
}

// fallback repeats the call once without streaming and delivers the reply
// as a single update.
func (t *Transport) fallback(ctx context.Context, profile models.BackendProfile, history []models.Message, h Handler) State {
	t.logger.Info().Str("profile", profile.ID).Msg("retrying without streaming")

	text, err := t.Complete(ctx, profile, history)
	if ctx.Err() != nil {
		return StateAborted
	}
	if err != nil {
		return t.fail(ctx, h, err)
	}

	notifyState(h, StateStreaming)
	if text != "" {
		h.OnUpdate(text)
	}
	if ctx.Err() != nil {
		return StateAborted
	}
	h.OnComplete(text)
	return StateCompleted
}

// Complete implements [Streamer].
func (t *Transport) Complete(ctx context.Context, profile models.BackendProfile, history []models.Message) (string, error) {
	req, err := t.builder.BuildFallback(profile, history)
	if err != nil {
		return "", err
	}

	t.logger.Debug().Object("request", req).Msg("sending completion request")
	resp, err := t.client.R().
		SetContext(ctx).
		SetHeaders(req.Headers).
		SetBody(req.Body).
		Execute(req.Method, req.URL)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	if !resp.IsSuccess() {
		return "", &TransportError{StatusCode: resp.StatusCode(), Body: truncate(resp.String())}
	}

	payload := strings.TrimSpace(resp.String())
	if msg, ok := backendError(payload); ok {
		return "", fmt.Errorf("%w: %s", ErrBackendReported, msg)
	}
	text, ok := extract(payload, req.Family, req.ResponsePath)
	if !ok && req.ResponsePath != "" {
		// a declared path usually names the streaming delta
		text, ok = extract(payload, req.Family, "")
	}
	if !ok {
		return "", &ExtractionError{Payload: truncate(payload), Err: ErrUnrecognizedStream}
	}
	return text, nil
}

func (t *Transport) fail(ctx context.Context, h Handler, err error) State {
	if ctx.Err() != nil {
		return StateAborted
	}
	h.OnError(err)
	return StateFailed
}

func readTransportError(status int, body io.Reader) *TransportError {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	terr := &TransportError{StatusCode: status, Body: strings.TrimSpace(string(raw))}
	if err != nil && !errors.Is(err, io.EOF) {
		terr.Err = err
	}
	return terr
}

func closeRaw(resp *resty.Response) {
	if resp == nil || resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return
	}
	_ = resp.RawResponse.Body.Close()
}

func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	return s[:maxErrorBody]
}
