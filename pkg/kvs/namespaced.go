package kvs

import (
	"context"
	"time"
)

// NamespacedStore wraps a Store and prepends a prefix to all keys. The
// session record and the OAuth handshake record share one physical backend
// but live under distinct namespaces so neither can collide with the other
// or with unrelated stored data.
//
// Example:
//
//	base, _ := kvs.New(kvs.Config{Type: "leveldb"})
//	sessionKVS := kvs.NewNamespacedStore(base, "jobswipe:session:")
//	oauthKVS := kvs.NewNamespacedStore(base, "jobswipe:oauth:")
type NamespacedStore struct {
	store  Store
	prefix string
}

// NewNamespacedStore creates a new namespaced store wrapper.
// If prefix is empty, it returns the underlying store as-is.
func NewNamespacedStore(store Store, prefix string) Store {
	if prefix == "" {
		return store
	}
	return &NamespacedStore{store: store, prefix: prefix}
}

// Get retrieves a value by key (with prefix prepended).
func (n *NamespacedStore) Get(ctx context.Context, key string) ([]byte, error) {
	return n.store.Get(ctx, n.prefix+key)
}

// Set stores a value with optional TTL (with prefix prepended).
func (n *NamespacedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return n.store.Set(ctx, n.prefix+key, value, ttl)
}

// Delete removes a key (with prefix prepended).
func (n *NamespacedStore) Delete(ctx context.Context, key string) error {
	return n.store.Delete(ctx, n.prefix+key)
}

// Exists checks if a key exists (with prefix prepended).
func (n *NamespacedStore) Exists(ctx context.Context, key string) (bool, error) {
	return n.store.Exists(ctx, n.prefix+key)
}

// Close closes the underlying store. When several namespaced wrappers share
// a backend, only the owner of the base store should call Close.
func (n *NamespacedStore) Close() error {
	return n.store.Close()
}
