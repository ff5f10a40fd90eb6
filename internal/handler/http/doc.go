// Package http implements the HTTP transport layer of the remote store.
// It provides middleware, route handlers, and request/response utilities
// for the conversation API. Authentication, logging, tracing, compression,
// and integrity-checking concerns are all handled at this layer before
// requests are forwarded to the service layer.
package http
