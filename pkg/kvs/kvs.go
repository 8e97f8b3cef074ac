// Package kvs provides the agent's local key-value storage, the durable
// home of session credentials and cross-invocation handshake records.
// Implementations exist for Memory, LevelDB, and Redis.
package kvs

import (
	"context"
	"errors"
	"time"
)

// Store is a key-value store interface that supports TTL and basic operations.
// All implementations must be thread-safe.
type Store interface {
	// Get retrieves a value by key.
	// Returns ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with optional TTL.
	// If ttl is 0, the key will not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key.
	// Does not return an error if the key does not exist.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists and has not expired.
	Exists(ctx context.Context, key string) (bool, error)

	// Close closes the store and releases resources.
	// After Close is called, all operations return ErrClosed.
	Close() error
}

// Common errors
var (
	// ErrNotFound is returned when a key is not found or has expired.
	ErrNotFound = errors.New("kvs: key not found")

	// ErrClosed is returned when an operation is attempted on a closed store.
	ErrClosed = errors.New("kvs: store is closed")
)

// Config represents the configuration for creating a KVS store.
type Config struct {
	// Type specifies the store type: "memory", "leveldb", or "redis"
	Type string `yaml:"type" json:"type"`

	// LevelDB-specific config
	LevelDB LevelDBConfig `yaml:"leveldb" json:"leveldb"`

	// Redis-specific config
	Redis RedisConfig `yaml:"redis" json:"redis"`
}

// LevelDBConfig configures the LevelDB store.
type LevelDBConfig struct {
	// Path is the directory path for LevelDB storage.
	// If empty, a directory under the OS cache dir is used.
	Path string `yaml:"path" json:"path"`
}

// RedisConfig configures the Redis store.
type RedisConfig struct {
	// Addr is the Redis server address (host:port)
	Addr string `yaml:"addr" json:"addr"`

	// Password is the Redis password (optional)
	Password string `yaml:"password" json:"password"`

	// DB is the Redis database number (0-15)
	DB int `yaml:"db" json:"db"`
}

// New creates a new KVS store based on the provided config.
// LevelDB is the default: credential custody must survive process restarts.
func New(cfg Config) (Store, error) {
	switch cfg.Type {
	case "leveldb", "":
		return NewLevelDBStore(cfg.LevelDB)
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(cfg.Redis)
	default:
		return nil, errors.New("kvs: unsupported store type: " + cfg.Type)
	}
}
