package kvs

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := NewRedisStore(RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStoreContract(t *testing.T) {
	store, _ := newTestRedisStore(t)
	storeContract(t, store)
}

func TestRedisStoreTTLExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	ttl := 10 * time.Second
	require.NoError(t, store.Set(ctx, "short", []byte("x"), ttl))

	value, err := store.Get(ctx, "short")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), value)

	// miniredis expires keys only when its clock moves
	mr.FastForward(ttl)

	_, err = store.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreConnectFailure(t *testing.T) {
	_, err := NewRedisStore(RedisConfig{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect")
}

func TestNamespacedStoreIsolation(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryStore()
	defer base.Close()

	sessions := NewNamespacedStore(base, "session:")
	oauth := NewNamespacedStore(base, "oauth:")

	require.NoError(t, sessions.Set(ctx, "token", []byte("bearer"), 0))
	require.NoError(t, oauth.Set(ctx, "state", []byte("xyz"), 0))

	// Same logical key, different namespaces
	_, err := oauth.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrNotFound)

	value, err := sessions.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, []byte("bearer"), value)

	// Physical keys carry the prefix
	value, err = base.Get(ctx, "oauth:state")
	require.NoError(t, err)
	assert.Equal(t, []byte("xyz"), value)
}
