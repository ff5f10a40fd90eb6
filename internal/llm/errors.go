// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package llm

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnrecognizedStream is wrapped by [ExtractionError] when a stream
	// ended without a single payload the extractor understood.
	ErrUnrecognizedStream = errors.New("no recognizable payload in stream")
	// ErrEmptyEndpoint is returned when a profile has no URL to call.
	ErrEmptyEndpoint = errors.New("backend profile has no endpoint")
	// ErrBackendReported is wrapped when the backend sends an error object
	// inside an otherwise successful stream.
	ErrBackendReported = errors.New("backend reported an error")
)

// TransportError is a network failure or a non-success HTTP response.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode == 0:
		return fmt.Sprintf("transport: %v", e.Err)
	case e.Body != "":
		return fmt.Sprintf("transport: http %d: %s", e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("transport: http %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// Unauthorized reports a 401 or 403 response.
func (e *TransportError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// TemplateError means a declared request template did not produce valid
// JSON after substitution. It is a configuration defect and never retried.
type TemplateError struct {
	ProfileID string
	Err       error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("request template of profile %q: %v", e.ProfileID, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// ExtractionError carries a payload whose shape was not understood.
// Single occurrences are treated as empty deltas; it only surfaces when a
// whole stream was unrecognized.
type ExtractionError struct {
	Payload string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract delta: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
