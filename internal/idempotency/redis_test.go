package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func newEntry(ttl time.Duration) *Entry {
	now := time.Now().UTC()
	return &Entry{
		Key:         "key-1",
		Scope:       "acct-1",
		RequestHash: "hash",
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

func TestRedisStore_GetMissing(t *testing.T) {
	store, _ := setupRedisStore(t)

	got, err := store.Get(context.Background(), "acct-1", "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_ReserveThenSet(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()
	entry := newEntry(time.Hour)

	ok, err := store.Reserve(ctx, entry)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Reserve(ctx, entry)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := store.Get(ctx, entry.Scope, entry.Key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.InProgress())

	entry.StatusCode = 201
	entry.ResponseBody = []byte(`{"success":true}`)
	require.NoError(t, store.Set(ctx, entry))

	got, err = store.Get(ctx, entry.Scope, entry.Key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.InProgress())
	assert.Equal(t, 201, got.StatusCode)
	assert.JSONEq(t, `{"success":true}`, string(got.ResponseBody))
}

func TestRedisStore_ScopesAreIsolated(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()
	entry := newEntry(time.Hour)

	ok, err := store.Reserve(ctx, entry)
	require.NoError(t, err)
	require.True(t, ok)

	other := newEntry(time.Hour)
	other.Scope = "acct-2"
	ok, err = store.Reserve(ctx, other)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisStore_ReleaseAndExpiry(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()
	entry := newEntry(time.Minute)

	_, err := store.Reserve(ctx, entry)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, entry.Scope, entry.Key))

	got, err := store.Get(ctx, entry.Scope, entry.Key)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = store.Reserve(ctx, entry)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	got, err = store.Get(ctx, entry.Scope, entry.Key)
	require.NoError(t, err)
	assert.Nil(t, got)
}
