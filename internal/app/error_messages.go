// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app contains shared application-layer constants used across the
// remote store handlers and middleware.
//
// All Msg* constants are human-readable message strings written into HTTP
// response bodies when the underlying error must not reach the caller or
// when the request never made it to the service layer.
package app

const (
	// MsgInvalidJSON is returned when a request body cannot be decoded.
	MsgInvalidJSON = "invalid JSON was passed"

	// MsgInvalidGzip is returned when a gzip-encoded body cannot be inflated.
	MsgInvalidGzip = "invalid gzip data"

	// MsgInternalServerError replaces the body of every 5xx response.
	MsgInternalServerError = "internal server error"

	// MsgTokenIsExpiredOrInvalid is returned when a bearer token fails
	// verification.
	MsgTokenIsExpiredOrInvalid = "token is expired or invalid"
)
