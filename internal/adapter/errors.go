package adapter

import "errors"

var (
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("client unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrBadGateway          = errors.New("bad gateway")
	ErrInternalServerError = errors.New("internal server error")
	ErrServiceUnavailable  = errors.New("service unavailable")

	// ErrUnreachable wraps network-level failures: refused connections,
	// timeouts, DNS errors.
	ErrUnreachable = errors.New("remote store unreachable")

	// ErrDecodeResponse is returned when a success body cannot be decoded.
	ErrDecodeResponse = errors.New("failed to decode remote store response")
)
