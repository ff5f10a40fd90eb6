// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/MKhiriev/go-chat-keeper/models"
)

// Replica is the local read model of one user's conversations. It is the
// only owner of the conversation list shown to callers; everything it hands
// out is a deep copy.
//
// Streaming updates go through [Replica.SetMessageContent] and stay in
// memory until the next [Replica.Put] or [Replica.Persist]. Reconciliation
// writes through [Replica.Replace], which refuses conversations that are
// marked busy, so the two writers never interleave on one conversation.
//
// Several processes may share one KV. Every write is applied to the stored
// snapshot inside [KV.Update] and the result becomes the in-memory state, so
// a write only touches the conversation it names. [Replica.Load] picks up
// what other processes wrote since.
type Replica struct {
	kv     KV
	key    string
	logger *logger.Logger

	mu            sync.RWMutex
	loaded        bool
	conversations map[string]models.Conversation
	busy          map[string]struct{}
}

func NewReplica(kv KV, userID int64, log *logger.Logger) *Replica {
	return &Replica{
		kv:            kv,
		key:           "replica/" + strconv.FormatInt(userID, 10),
		logger:        log,
		conversations: make(map[string]models.Conversation),
		busy:          make(map[string]struct{}),
	}
}

// Load reads the persisted snapshot. A missing snapshot yields an empty
// replica. Conversations marked busy keep their in-memory state.
func (r *Replica) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := r.kv.Get(ctx, r.key)
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return fmt.Errorf("load replica: %w", err)
	}

	stored, err := decodeReplica(raw)
	if err != nil {
		r.logger.Err(err).Str("func", "*Replica.Load").Msg("stored replica is corrupt")
		return err
	}

	r.adoptLocked(stored)
	r.loaded = true
	return nil
}

// List returns every conversation, most recently updated first.
func (r *Replica) List() []models.Conversation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedLocked()
}

// Get returns a copy of one conversation.
func (r *Replica) Get(id string) (models.Conversation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conversations[id]
	if !ok {
		return models.Conversation{}, false
	}
	return c.Clone(), true
}

// Put stores c and persists the replica.
func (r *Replica) Put(ctx context.Context, c models.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		return ErrReplicaNotLoaded
	}
	r.conversations[c.ID] = c.Clone()
	return r.writeLocked(ctx, func(stored map[string]models.Conversation) {
		stored[c.ID] = c.Clone()
	})
}

// Replace is the reconciliation write path. It fails with
// [ErrConversationBusy] while a send is in flight for c.
func (r *Replica) Replace(ctx context.Context, c models.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		return ErrReplicaNotLoaded
	}
	if _, busy := r.busy[c.ID]; busy {
		return ErrConversationBusy
	}
	return r.writeLocked(ctx, func(stored map[string]models.Conversation) {
		stored[c.ID] = c.Clone()
	})
}

// Delete drops a conversation and persists the replica.
func (r *Replica) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		return ErrReplicaNotLoaded
	}
	delete(r.conversations, id)
	return r.writeLocked(ctx, func(stored map[string]models.Conversation) {
		delete(stored, id)
	})
}

// SetMessageContent rewrites the content of one message in memory. It
// reports false when the conversation or message is gone.
func (r *Replica) SetMessageContent(conversationID, messageID, content string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conversations[conversationID]
	if !ok {
		return false
	}
	i := c.MessageIndex(messageID)
	if i < 0 {
		return false
	}
	c.Messages[i].Content = content
	r.conversations[conversationID] = c
	return true
}

// Persist writes the in-memory state of the busy conversations, the only
// state [Replica.SetMessageContent] leaves unsaved.
func (r *Replica) Persist(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		return ErrReplicaNotLoaded
	}
	return r.writeLocked(ctx, func(stored map[string]models.Conversation) {
		for id := range r.busy {
			if c, ok := r.conversations[id]; ok {
				stored[id] = c.Clone()
			}
		}
	})
}

// MarkBusy flags a conversation as having an in-flight send. It reports
// false when the flag was already set.
func (r *Replica) MarkBusy(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.busy[id]; busy {
		return false
	}
	r.busy[id] = struct{}{}
	return true
}

func (r *Replica) ClearBusy(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.busy, id)
}

func (r *Replica) IsBusy(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, busy := r.busy[id]
	return busy
}

func (r *Replica) sortedLocked() []models.Conversation {
	return sortConversations(r.conversations)
}

func sortConversations(set map[string]models.Conversation) []models.Conversation {
	out := make([]models.Conversation, 0, len(set))
	for _, c := range set {
		out = append(out, c.Clone())
	}
	slices.SortFunc(out, func(a, b models.Conversation) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// writeLocked applies change to the stored snapshot under the KV's write
// lock and adopts the result.
func (r *Replica) writeLocked(ctx context.Context, change func(stored map[string]models.Conversation)) error {
	var next map[string]models.Conversation
	err := r.kv.Update(ctx, r.key, func(raw []byte) ([]byte, error) {
		stored, err := decodeReplica(raw)
		if err != nil {
			return nil, err
		}
		change(stored)
		next = stored
		return encodeReplica(stored)
	})
	if err != nil {
		r.logger.Err(err).Str("func", "*Replica.writeLocked").Msg("failed to persist replica")
		return fmt.Errorf("persist replica: %w", err)
	}

	r.adoptLocked(next)
	return nil
}

// adoptLocked makes stored the in-memory state. Busy conversations are owned
// by the send streaming into them and keep their in-memory copy.
func (r *Replica) adoptLocked(stored map[string]models.Conversation) {
	for id := range r.busy {
		if c, ok := r.conversations[id]; ok {
			stored[id] = c
		}
	}
	r.conversations = stored
}

func decodeReplica(raw []byte) (map[string]models.Conversation, error) {
	if raw == nil {
		return make(map[string]models.Conversation), nil
	}

	var list []models.Conversation
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: replica: %w", ErrEncoding, err)
	}

	out := make(map[string]models.Conversation, len(list))
	for _, c := range list {
		out[c.ID] = c
	}
	return out, nil
}

func encodeReplica(set map[string]models.Conversation) ([]byte, error) {
	raw, err := json.Marshal(sortConversations(set))
	if err != nil {
		return nil, fmt.Errorf("%w: replica: %w", ErrEncoding, err)
	}
	return raw, nil
}
