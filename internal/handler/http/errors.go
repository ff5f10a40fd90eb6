// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// Sentinel errors used by the authentication middleware when parsing the
// "Authorization" HTTP header. Callers can match against them with [errors.Is].
var (
	// ErrEmptyAuthorizationHeader is returned by the auth middleware when the
	// incoming request does not include an "Authorization" header at all.
	ErrEmptyAuthorizationHeader = errors.New("empty `Authorization` header")

	// ErrInvalidAuthorizationHeader is returned when the "Authorization"
	// header is not of the form "Bearer <token>".
	ErrInvalidAuthorizationHeader = errors.New("invalid `Authorization` header")

	// ErrEmptyToken is returned when the "Authorization" header contains the
	// expected scheme prefix but the token value itself is an empty string.
	ErrEmptyToken = errors.New("empty token in `Authorization` header")
)

var (
	// ErrNoUserInContext is returned by handlers mounted without the auth
	// middleware.
	ErrNoUserInContext = errors.New("no authenticated user in request context")

	// ErrIntegrityCheckFailed is returned when the hash of an uploaded
	// message list does not match the one in the body.
	ErrIntegrityCheckFailed = errors.New("integrity check failed")

	// ErrIDMismatch is returned when the id in a conversation body differs
	// from the one in the URL.
	ErrIDMismatch = errors.New("conversation id in body does not match the URL")
)
