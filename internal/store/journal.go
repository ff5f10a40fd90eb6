// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
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

// Journal is the outbox of mutations recorded while the remote store was
// unreachable. Records are persisted after every change, so a record removed
// once is never replayed again.
//
// Like [Replica], every change is applied to the stored outbox inside
// [KV.Update]: a record appended by another process survives a removal made
// here, even when this journal has not loaded it yet.
type Journal struct {
	kv     KV
	key    string
	logger *logger.Logger

	mu      sync.Mutex
	loaded  bool
	records []models.ChangeRecord
}

func NewJournal(kv KV, userID int64, log *logger.Logger) *Journal {
	return &Journal{
		kv:     kv,
		key:    "journal/" + strconv.FormatInt(userID, 10),
		logger: log,
	}
}

// Load reads the persisted outbox. A missing outbox is empty.
func (j *Journal) Load(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	raw, err := j.kv.Get(ctx, j.key)
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return fmt.Errorf("load journal: %w", err)
	}

	records, err := decodeJournal(raw)
	if err != nil {
		j.logger.Err(err).Str("func", "*Journal.Load").Msg("stored journal is corrupt")
		return err
	}
	j.records = records
	j.loaded = true
	return nil
}

// Append queues rec and persists the outbox. On failure the record is not
// kept in memory either.
func (j *Journal) Append(ctx context.Context, rec models.ChangeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.loaded {
		return ErrReplicaNotLoaded
	}

	return j.writeLocked(ctx, func(stored []models.ChangeRecord) []models.ChangeRecord {
		return append(stored, rec)
	})
}

// Pending returns the queued records in chronological order. Records with
// equal timestamps keep their append order.
func (j *Journal) Pending() []models.ChangeRecord {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := slices.Clone(j.records)
	slices.SortStableFunc(out, func(a, b models.ChangeRecord) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}

// Remove drops the record with the given id and persists the outbox.
// Removing an unknown id is a no-op.
func (j *Journal) Remove(ctx context.Context, id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !slices.ContainsFunc(j.records, func(r models.ChangeRecord) bool { return r.ID == id }) {
		return nil
	}

	return j.writeLocked(ctx, func(stored []models.ChangeRecord) []models.ChangeRecord {
		return slices.DeleteFunc(stored, func(r models.ChangeRecord) bool { return r.ID == id })
	})
}

// Has reports whether a record of the given kind is queued for the
// conversation.
func (j *Journal) Has(conversationID string, kind models.ChangeKind) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	return slices.ContainsFunc(j.records, func(r models.ChangeRecord) bool {
		return r.ConversationID == conversationID && r.Kind == kind
	})
}

func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	return len(j.records)
}

// writeLocked applies change to the stored outbox under the KV's write lock.
// The in-memory records change only when the write succeeds. An empty outbox
// drops its key.
func (j *Journal) writeLocked(ctx context.Context, change func(stored []models.ChangeRecord) []models.ChangeRecord) error {
	var next []models.ChangeRecord
	err := j.kv.Update(ctx, j.key, func(raw []byte) ([]byte, error) {
		stored, err := decodeJournal(raw)
		if err != nil {
			return nil, err
		}

		next = change(stored)
		if len(next) == 0 {
			return nil, nil
		}
		raw, err = json.Marshal(next)
		if err != nil {
			return nil, fmt.Errorf("%w: journal: %w", ErrEncoding, err)
		}
		return raw, nil
	})
	if err != nil {
		j.logger.Err(err).Str("func", "*Journal.writeLocked").Int("records", len(j.records)).Msg("failed to persist journal")
		return fmt.Errorf("persist journal: %w", err)
	}

	j.records = next
	return nil
}

func decodeJournal(raw []byte) ([]models.ChangeRecord, error) {
	if raw == nil {
		return nil, nil
	}

	var records []models.ChangeRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: journal: %w", ErrEncoding, err)
	}
	return records, nil
}
