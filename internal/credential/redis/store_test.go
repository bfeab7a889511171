package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DmytroLysenko1/Store/internal/credential"
)

var _ credential.Store = (*Store)(nil)

func setupStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

func TestStore_PutGet(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()
	tok := credential.Token{AccessToken: "downstream-1", ExpiresAt: time.Now().Add(10 * time.Minute).UTC().Truncate(time.Second)}

	require.NoError(t, store.Put(ctx, "u-1", tok))

	got, ok, err := store.Get(ctx, "u-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, tok.AccessToken, got.AccessToken)
	assert.True(t, tok.ExpiresAt.Equal(got.ExpiresAt))

	ttl := mr.TTL(keyPrefix + "u-1")
	assert.InDelta(t, (10 * time.Minute).Seconds(), ttl.Seconds(), 2)
}

func TestStore_Miss(t *testing.T) {
	store, _ := setupStore(t)
	_, ok, err := store.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_EntryExpiresWithToken(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "u-1", credential.Token{AccessToken: "t", ExpiresAt: time.Now().Add(time.Minute)}))

	mr.FastForward(2 * time.Minute)

	_, ok, err := store.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ExpiredTokenNotStored(t *testing.T) {
	store, mr := setupStore(t)
	require.NoError(t, store.Put(context.Background(), "u-1", credential.Token{AccessToken: "t", ExpiresAt: time.Now().Add(-time.Second)}))
	assert.False(t, mr.Exists(keyPrefix+"u-1"))
}

func TestStore_Delete(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "u-1", credential.Token{AccessToken: "t", ExpiresAt: time.Now().Add(time.Minute)}))
	require.NoError(t, store.Delete(ctx, "u-1"))

	_, ok, err := store.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_CorruptEntry(t *testing.T) {
	store, mr := setupStore(t)
	require.NoError(t, mr.Set(keyPrefix+"u-1", "not json"))

	_, _, err := store.Get(context.Background(), "u-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal credential")
}

func TestStore_Unavailable(t *testing.T) {
	store, mr := setupStore(t)
	mr.Close()

	_, _, err := store.Get(context.Background(), "u-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis get credential")
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	assert.NoError(t, client.Ping(context.Background()).Err())

	addr := mr.Addr()
	mr.Close()
	_, err = Connect(context.Background(), Options{Addr: addr})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}
