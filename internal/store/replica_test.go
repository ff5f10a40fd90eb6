package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/MKhiriev/go-chat-keeper/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingKV wraps a MemoryKV and fails writes while failSet is true.
type failingKV struct {
	*MemoryKV
	failSet bool
}

func (f *failingKV) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.MemoryKV.Set(ctx, key, value)
}

func (f *failingKV) Delete(ctx context.Context, key string) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.MemoryKV.Delete(ctx, key)
}

func (f *failingKV) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.MemoryKV.Update(ctx, key, fn)
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func conv(id string, updated time.Time, msgs ...models.Message) models.Conversation {
	return models.Conversation{ID: id, Title: id, Messages: msgs, CreatedAt: t0, UpdatedAt: updated}
}

func newLoadedReplica(t *testing.T, kv KV) *Replica {
	t.Helper()
	r := NewReplica(kv, 7, logger.Nop())
	require.NoError(t, r.Load(context.Background()))
	return r
}

func TestReplica_PutPersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	r := newLoadedReplica(t, kv)

	require.NoError(t, r.Put(ctx, conv("old", t0)))
	require.NoError(t, r.Put(ctx, conv("new", t0.Add(time.Hour), models.Message{ID: "m1", Content: "hi"})))

	reloaded := newLoadedReplica(t, kv)
	list := reloaded.List()
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID, "most recent first")
	assert.Equal(t, "hi", list[0].Messages[0].Content)

	// other users do not see it
	other := NewReplica(kv, 8, logger.Nop())
	require.NoError(t, other.Load(ctx))
	assert.Empty(t, other.List())
}

func TestReplica_ReturnsCopies(t *testing.T) {
	r := newLoadedReplica(t, NewMemoryKV())
	require.NoError(t, r.Put(context.Background(), conv("c", t0, models.Message{ID: "m", Content: "a"})))

	got, ok := r.Get("c")
	require.True(t, ok)
	got.Messages[0].Content = "mutated"

	again, _ := r.Get("c")
	assert.Equal(t, "a", again.Messages[0].Content)
}

func TestReplica_SetMessageContentStaysInMemory(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	r := newLoadedReplica(t, kv)
	require.NoError(t, r.Put(ctx, conv("c", t0, models.Message{ID: "m"})))
	require.True(t, r.MarkBusy("c"))

	assert.True(t, r.SetMessageContent("c", "m", "partial"))
	assert.False(t, r.SetMessageContent("c", "missing", "x"))
	assert.False(t, r.SetMessageContent("missing", "m", "x"))

	got, _ := r.Get("c")
	assert.Equal(t, "partial", got.Messages[0].Content)

	persisted, _ := newLoadedReplica(t, kv).Get("c")
	assert.Empty(t, persisted.Messages[0].Content)

	// a reload keeps the streamed content of a busy conversation
	require.NoError(t, r.Load(ctx))
	got, _ = r.Get("c")
	assert.Equal(t, "partial", got.Messages[0].Content)

	require.NoError(t, r.Persist(ctx))
	persisted, _ = newLoadedReplica(t, kv).Get("c")
	assert.Equal(t, "partial", persisted.Messages[0].Content)
}

func TestReplica_ReplaceRejectsBusy(t *testing.T) {
	ctx := context.Background()
	r := newLoadedReplica(t, NewMemoryKV())
	require.NoError(t, r.Put(ctx, conv("c", t0)))

	assert.True(t, r.MarkBusy("c"))
	assert.False(t, r.MarkBusy("c"), "second mark is refused")
	assert.True(t, r.IsBusy("c"))

	err := r.Replace(ctx, conv("c", t0.Add(time.Hour)))
	assert.ErrorIs(t, err, ErrConversationBusy)

	r.ClearBusy("c")
	assert.False(t, r.IsBusy("c"))
	require.NoError(t, r.Replace(ctx, conv("c", t0.Add(time.Hour))))

	got, _ := r.Get("c")
	assert.Equal(t, t0.Add(time.Hour), got.UpdatedAt)
}

func TestReplica_Delete(t *testing.T) {
	ctx := context.Background()
	r := newLoadedReplica(t, NewMemoryKV())
	require.NoError(t, r.Put(ctx, conv("c", t0)))

	require.NoError(t, r.Delete(ctx, "c"))
	_, ok := r.Get("c")
	assert.False(t, ok)
}

func TestReplica_NotLoaded(t *testing.T) {
	r := NewReplica(NewMemoryKV(), 1, logger.Nop())
	assert.ErrorIs(t, r.Put(context.Background(), conv("c", t0)), ErrReplicaNotLoaded)
}

func TestReplica_CorruptSnapshot(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(context.Background(), "replica/7", []byte("{not json")))

	err := NewReplica(kv, 7, logger.Nop()).Load(context.Background())
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestReplica_PersistFailureSurfaces(t *testing.T) {
	kv := &failingKV{MemoryKV: NewMemoryKV()}
	r := newLoadedReplica(t, kv)

	kv.failSet = true
	err := r.Put(context.Background(), conv("c", t0))
	assert.Error(t, err)
}
