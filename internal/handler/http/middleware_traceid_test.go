package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestHandler создаёт Handler с nop-логгером (без вывода в stdout).
func newTestHandler() *Handler {
	return &Handler{logger: logger.Nop()}
}

func executeWithTraceID(h *Handler, incoming string) *httptest.ResponseRecorder {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if incoming != "" {
		req.Header.Set(traceIDHeader, incoming)
	}

	rr := httptest.NewRecorder()
	h.withTraceID(next).ServeHTTP(rr, req)
	return rr
}

func TestWithTraceID_TableTest(t *testing.T) {
	tests := []struct {
		name      string
		incoming  string
		wantSame  bool // ответный header совпадает с входящим
		wantUUID7 bool // сгенерирован новый UUID v7
	}{
		{name: "trace ID from request header is reused", incoming: "my-custom-trace-id", wantSame: true},
		{name: "UUID v4 string as incoming trace ID", incoming: "550e8400-e29b-41d4-a716-446655440000", wantSame: true},
		{name: "no trace ID in request, generated", incoming: "", wantUUID7: true},
		{name: "oversized trace ID is replaced", incoming: strings.Repeat("x", maxTraceIDLen+1), wantUUID7: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := executeWithTraceID(newTestHandler(), tt.incoming)

			got := rr.Header().Get(traceIDHeader)
			require.NotEmpty(t, got, "X-Trace-ID header must be set in response")
			assert.Equal(t, http.StatusOK, rr.Code)

			if tt.wantSame {
				assert.Equal(t, tt.incoming, got)
			}
			if tt.wantUUID7 {
				id, err := uuid.Parse(got)
				require.NoError(t, err)
				assert.Equal(t, uuid.Version(7), id.Version())
			}
		})
	}
}

func TestWithTraceID_LoggerInContext(t *testing.T) {
	var ctxLogger *logger.Logger
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxLogger = logger.FromRequest(r)
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	newTestHandler().withTraceID(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	require.NotNil(t, ctxLogger)
	assert.Equal(t, http.StatusTeapot, rr.Code)
}

// ---- Concurrent requests: нет гонок ----

func TestWithTraceID_ConcurrentRequests(t *testing.T) {
	h := newTestHandler()

	const n = 50
	done := make(chan string, n)

	for i := 0; i < n; i++ {
		go func() {
			done <- executeWithTraceID(h, "").Header().Get(traceIDHeader)
		}()
	}

	seen := make(map[string]struct{})
	for i := 0; i < n; i++ {
		id := <-done
		require.NotEmpty(t, id)
		seen[id] = struct{}{}
	}

	assert.Len(t, seen, n, "all generated trace IDs should be unique")
}
