package utils

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// UserAgent is sent with every outbound request.
const UserAgent = "go-chat-keeper"

// DefaultHeaderTimeout bounds the wait for a backend's response head.
const DefaultHeaderTimeout = 60 * time.Second

// HTTPClient embeds *resty.Client. The remote store adapter and the LLM
// transport each own one.
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient returns an independent client for request/response calls.
// Callers set the base URL and the overall timeout.
func NewHTTPClient() *HTTPClient {
	return &HTTPClient{Client: resty.New().SetHeader("User-Agent", UserAgent)}
}

// NewStreamingHTTPClient returns a client without an overall timeout, so a
// long reply is never cut off mid-stream, that still gives up when no
// response head arrives within headerTimeout. Cancellation of a running
// stream goes through the request context.
func NewStreamingHTTPClient(headerTimeout time.Duration) *HTTPClient {
	if headerTimeout <= 0 {
		headerTimeout = DefaultHeaderTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = headerTimeout

	return &HTTPClient{
		Client: resty.New().
			SetTransport(transport).
			SetHeader("User-Agent", UserAgent),
	}
}
