package kvs

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	lderrors "github.com/syndtr/goleveldb/leveldb/errors"
)

// LevelDBStore is a LevelDB-based implementation of Store. It is the default
// backend: a local on-disk store that keeps the session record across agent
// restarts, the way a browser keeps localStorage across reloads.
type LevelDBStore struct {
	db     *leveldb.DB
	closed bool
	mu     sync.RWMutex
}

// NewLevelDBStore creates a new LevelDB KVS store.
func NewLevelDBStore(cfg LevelDBConfig) (*LevelDBStore, error) {
	dbPath := cfg.Path
	if dbPath == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			cacheDir = os.TempDir()
		}
		dbPath = filepath.Join(cacheDir, "jobswipe")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kvs/leveldb: failed to create directory: %w", err)
	}

	db, err := leveldb.OpenFile(dbPath, nil)
	if err != nil {
		// Try to recover if database is corrupted
		if _, ok := err.(*lderrors.ErrCorrupted); ok {
			db, err = leveldb.RecoverFile(dbPath, nil)
		}
		if err != nil {
			return nil, fmt.Errorf("kvs/leveldb: failed to open database at %s: %w", dbPath, err)
		}
	}

	return &LevelDBStore{db: db}, nil
}

// encodeValue encodes a value with optional expiration time.
// Format: [8 bytes: expiration unix nano (0 = no expiration)][value bytes]
func encodeValue(value []byte, ttl time.Duration) []byte {
	expiresAt := int64(0)
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixNano()
	}

	encoded := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(encoded[0:8], uint64(expiresAt))
	copy(encoded[8:], value)
	return encoded
}

// decodeValue decodes a value and checks expiration.
// Returns (value, expired, error)
func decodeValue(encoded []byte) ([]byte, bool, error) {
	if len(encoded) < 8 {
		return nil, false, fmt.Errorf("kvs/leveldb: invalid encoded value (too short)")
	}

	expiresAt := int64(binary.BigEndian.Uint64(encoded[0:8]))
	value := encoded[8:]

	if expiresAt > 0 && time.Now().UnixNano() > expiresAt {
		return nil, true, nil
	}
	return value, false, nil
}

func (l *LevelDBStore) isClosed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.closed
}

// Get retrieves a value by key.
func (l *LevelDBStore) Get(ctx context.Context, key string) ([]byte, error) {
	if l.isClosed() {
		return nil, ErrClosed
	}

	encoded, err := l.db.Get([]byte(key), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("kvs/leveldb: get failed: %w", err)
	}

	value, expired, err := decodeValue(encoded)
	if err != nil {
		return nil, err
	}
	if expired {
		// Delete expired key asynchronously
		go l.Delete(context.Background(), key)
		return nil, ErrNotFound
	}

	return value, nil
}

// Set stores a value with optional TTL.
func (l *LevelDBStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if l.isClosed() {
		return ErrClosed
	}

	if err := l.db.Put([]byte(key), encodeValue(value, ttl), nil); err != nil {
		return fmt.Errorf("kvs/leveldb: set failed: %w", err)
	}
	return nil
}

// Delete removes a key.
func (l *LevelDBStore) Delete(ctx context.Context, key string) error {
	if l.isClosed() {
		return ErrClosed
	}

	if err := l.db.Delete([]byte(key), nil); err != nil {
		return fmt.Errorf("kvs/leveldb: delete failed: %w", err)
	}
	return nil
}

// Exists checks if a key exists and has not expired.
func (l *LevelDBStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := l.Get(ctx, key)
	if err != nil {
		if err == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Close closes the underlying database.
func (l *LevelDBStore) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	l.closed = true
	return l.db.Close()
}
