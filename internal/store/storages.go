package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-chat-keeper/internal/config"
	"github.com/MKhiriev/go-chat-keeper/internal/logger"
)

// Storages groups the server-side repositories.
type Storages struct {
	ConversationRepository ConversationRepository

	db *DB
}

// NewStorages connects to PostgreSQL, applies migrations and wires the
// repositories.
func NewStorages(ctx context.Context, cfg config.Storage, logger *logger.Logger) (*Storages, error) {
	logger.Info().Msg("creating new storages...")

	db, err := NewConnectPostgres(ctx, cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Storages{
		ConversationRepository: NewConversationRepository(db, logger),
		db:                     db,
	}, nil
}

// Close releases the database connection pool.
func (s *Storages) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ClientStorages groups the client's local state: the blob store and the
// replica and journal built on it.
type ClientStorages struct {
	KV      KV
	Replica *Replica
	Journal *Journal
}

// NewClientStorages opens the local store selected by cfg.DB.DSN and loads
// the replica and journal of userID.
func NewClientStorages(ctx context.Context, cfg config.ClientStorage, userID int64, logger *logger.Logger) (*ClientStorages, error) {
	kv, err := NewKV(ctx, cfg.DB, logger)
	if err != nil {
		return nil, err
	}

	s := &ClientStorages{
		KV:      kv,
		Replica: NewReplica(kv, userID, logger),
		Journal: NewJournal(kv, userID, logger),
	}

	if err := s.Replica.Load(ctx); err != nil {
		kv.Close()
		return nil, err
	}
	if err := s.Journal.Load(ctx); err != nil {
		kv.Close()
		return nil, err
	}

	return s, nil
}

func (s *ClientStorages) Close() error {
	return s.KV.Close()
}
