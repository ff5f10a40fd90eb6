package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("chatkeeper")

// BoltKV stores blobs in a single bbolt bucket.
type BoltKV struct {
	db     *bolt.DB
	logger *logger.Logger
}

// NewBoltKV opens (or creates) the bbolt file at path.
func NewBoltKV(path string, log *logger.Logger) (*BoltKV, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create bolt dir: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		log.Err(err).Str("func", "NewBoltKV").Str("path", path).Msg("error opening bolt file")
		return nil, fmt.Errorf("open bolt: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bolt bucket: %w", err)
	}

	return &BoltKV{db: db, logger: log}, nil
}

func (b *BoltKV) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(boltBucket).Get([]byte(key))
		if v == nil {
			return ErrKeyNotFound
		}
		// v is only valid inside the transaction
		out = bytes.Clone(v)
		return nil
	})
	return out, err
}

func (b *BoltKV) Set(_ context.Context, key string, value []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key), value)
	})
	if err != nil {
		b.logger.Err(err).Str("func", "*BoltKV.Set").Str("key", key).Msg("failed to write blob")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (b *BoltKV) Delete(_ context.Context, key string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete([]byte(key))
	})
	if err != nil {
		b.logger.Err(err).Str("func", "*BoltKV.Delete").Str("key", key).Msg("failed to delete blob")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

// Update runs fn inside a bbolt write transaction. The file lock taken by
// [bolt.Open] already keeps other processes out.
func (b *BoltKV) Update(_ context.Context, key string, fn UpdateFunc) error {
	var fnErr error
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltBucket)

		next, err := fn(bytes.Clone(bucket.Get([]byte(key))))
		if err != nil {
			fnErr = err
			return err
		}
		if next == nil {
			return bucket.Delete([]byte(key))
		}
		return bucket.Put([]byte(key), next)
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		b.logger.Err(err).Str("func", "*BoltKV.Update").Str("key", key).Msg("failed to update blob")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (b *BoltKV) Close() error {
	return b.db.Close()
}
