package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"hash"
	"sync"

	"github.com/MKhiriev/go-chat-keeper/models"
)

// MessagesHasher computes the integrity hash of a messages upload: the hex
// HMAC-SHA256 of the JSON-encoded message list. Client and server must share
// the key. A MessagesHasher is safe for concurrent use.
type MessagesHasher struct {
	pool sync.Pool
}

// NewMessagesHasher returns nil for an empty key, which disables hashing.
func NewMessagesHasher(key string) *MessagesHasher {
	if key == "" {
		return nil
	}
	h := &MessagesHasher{}
	h.pool.New = func() any {
		return hmac.New(sha256.New, []byte(key))
	}
	return h
}

// Sum returns the hash of msgs, or "" on a nil hasher.
func (h *MessagesHasher) Sum(msgs []models.Message) (string, error) {
	if h == nil {
		return "", nil
	}
	payload, err := json.Marshal(msgs)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.sum(payload)), nil
}

// Verify reports whether sum is the hash of msgs. A nil hasher accepts
// everything.
func (h *MessagesHasher) Verify(msgs []models.Message, sum string) bool {
	if h == nil {
		return true
	}
	want, err := h.Sum(msgs)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(want), []byte(sum))
}

func (h *MessagesHasher) sum(data []byte) []byte {
	mac := h.pool.Get().(hash.Hash)
	defer h.pool.Put(mac)

	mac.Reset()
	mac.Write(data)
	return mac.Sum(nil)
}

// HashString returns the hex HMAC-SHA256 of data under hashKey.
func HashString(data string, hashKey string) string {
	mac := hmac.New(sha256.New, []byte(hashKey))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
