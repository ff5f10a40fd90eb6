// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-chat-keeper/internal/config"
	"github.com/MKhiriev/go-chat-keeper/internal/logger"
)

//go:generate mockgen -source=kv.go -destination=../mock/kv_mock.go -package=mock

// KV is the local durable storage collaborator: opaque blobs keyed by
// string. The replica and the change journal are built on top of it.
type KV interface {
	// Get returns the blob stored under key or [ErrKeyNotFound].
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous blob.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Update atomically replaces the blob under key with fn's result. fn gets
	// nil when the key is missing; returning nil deletes the key. Writers in
	// other processes sharing the file are serialized with it.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Close() error
}

// UpdateFunc computes the next value of a key from the current one.
type UpdateFunc func(current []byte) ([]byte, error)

const (
	boltScheme = "bolt://"
	memoryDSN  = ":memory:"
)

// NewKV opens the local store selected by the DSN:
//   - ":memory:"        process-local map, nothing survives a restart;
//   - "bolt://<path>"   a bbolt file;
//   - anything else     a SQLite file path, migrated with goose.
func NewKV(ctx context.Context, cfg config.ClientDB, log *logger.Logger) (KV, error) {
	dsn := strings.TrimSpace(cfg.DSN)

	switch {
	case dsn == "":
		return nil, ErrUnsupportedDSN
	case dsn == memoryDSN:
		return NewMemoryKV(), nil
	case strings.HasPrefix(dsn, boltScheme):
		return NewBoltKV(strings.TrimPrefix(dsn, boltScheme), log)
	}

	db, err := NewConnectSQLite(ctx, config.ClientDB{DSN: dsn}, log)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return NewSQLiteKV(db), nil
}
