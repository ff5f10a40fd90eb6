package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-chat-keeper/internal/app"
	"github.com/MKhiriev/go-chat-keeper/internal/service"
	"github.com/MKhiriev/go-chat-keeper/internal/store"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided:        http.StatusBadRequest,
	service.ErrValidationNoUserID:         http.StatusBadRequest,
	service.ErrValidationNoConversationID: http.StatusBadRequest,
	service.ErrTokenIsExpiredOrInvalid:    http.StatusUnauthorized,
	service.ErrTokenCreationFailed:        http.StatusInternalServerError,
	ErrIDMismatch:                         http.StatusBadRequest,
	ErrIntegrityCheckFailed:               http.StatusBadRequest,
	ErrNoUserInContext:                    http.StatusUnauthorized,

	store.ErrConversationNotFound:      http.StatusNotFound,
	store.ErrConversationAlreadyExists: http.StatusConflict,

	store.ErrBuildingSQLQuery:   http.StatusInternalServerError,
	store.ErrExecutingQuery:     http.StatusInternalServerError,
	store.ErrExecutingStatement: http.StatusInternalServerError,
	store.ErrScanningRow:        http.StatusInternalServerError,
	store.ErrScanningRows:       http.StatusInternalServerError,
	store.ErrEncoding:           http.StatusInternalServerError,
	store.ErrStorageUnavailable: http.StatusServiceUnavailable,
}

// retryAfter is advertised with 503 answers.
const retryAfter = "5"

// statusFromError returns the HTTP status for err. The lowest client error
// wins when err wraps several; otherwise the most specific server error does.
func statusFromError(err error) int {
	clientStatus, serverStatus := 0, http.StatusInternalServerError
	for target, code := range errorStatusMap {
		if !errors.Is(err, target) {
			continue
		}
		switch {
		case code < http.StatusInternalServerError:
			if clientStatus == 0 || code < clientStatus {
				clientStatus = code
			}
		case code > serverStatus:
			serverStatus = code
		}
	}
	if clientStatus != 0 {
		return clientStatus
	}
	return serverStatus
}

// writeError answers with the mapped status. 5xx bodies never leak the
// underlying error.
func writeError(w http.ResponseWriter, err error) {
	status := statusFromError(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = app.MsgInternalServerError
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", retryAfter)
	}
	http.Error(w, msg, status)
}
