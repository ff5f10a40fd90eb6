package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/MKhiriev/go-chat-keeper/internal/app"
	"github.com/MKhiriev/go-chat-keeper/internal/utils"
	"github.com/MKhiriev/go-chat-keeper/models"
)

// messagesHashing verifies the integrity hash of a messages upload: the
// hex HMAC-SHA256 of the JSON-encoded message list under the shared hash
// key. It passes everything through when no key is configured.
func (h *Handler) messagesHashing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.hasher == nil {
			next.ServeHTTP(w, r)
			return
		}

		var req struct {
			Messages []models.Message `json:"messages"`
			Hash     string           `json:"hash"`
		}

		h.logger.Debug().Str("func", "*Handler.messagesHashing").Msg("checking hash begins")

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, utils.MaxBodyBytes))
		if err != nil {
			h.logger.Err(err).Str("func", "*Handler.messagesHashing").Msg("failed to read request body")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		if err := json.Unmarshal(body, &req); err != nil {
			h.logger.Err(err).Str("func", "*Handler.messagesHashing").Msg("failed to decode JSON")
			http.Error(w, app.MsgInvalidJSON, http.StatusBadRequest)
			return
		}

		if !h.hasher.Verify(req.Messages, req.Hash) {
			h.logger.Error().Str("func", "*Handler.messagesHashing").
				Str("hash from request", req.Hash).
				Int("messages", len(req.Messages)).
				Msg("hashes are not equal")
			writeError(w, ErrIntegrityCheckFailed)
			return
		}

		next.ServeHTTP(w, r)
	})
}
