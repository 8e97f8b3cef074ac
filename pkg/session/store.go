// Package session holds custody of the local session record: the bearer
// token, the user snapshot, and the expiry timestamp.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/swipingforjobs/jobswipe/pkg/api"
	"github.com/swipingforjobs/jobswipe/pkg/kvs"
	"github.com/swipingforjobs/jobswipe/pkg/logging"
)

// The record is persisted as three keys, one per field, namespaced by the
// caller's KVS wrapper.
const (
	keyToken     = "token"
	keyUser      = "user"
	keyExpiresAt = "expires_at"
)

// ValidUser reports whether a snapshot satisfies the record invariant:
// a non-empty unique identifier and an email. A snapshot failing this is
// treated as absent everywhere.
func ValidUser(u *api.User) bool {
	return u != nil && u.ID > 0 && u.Email != ""
}

// Store owns the session record. All reads and writes go through its lock,
// so no reader ever observes a partially written record. It is the single
// point of truth; no other component persists session state.
type Store struct {
	kvs    kvs.Store
	logger logging.Logger
	mu     sync.RWMutex
}

// NewStore creates a session store over the given (namespaced) KVS backend.
func NewStore(kvsStore kvs.Store, logger logging.Logger) *Store {
	return &Store{
		kvs:    kvsStore,
		logger: logger.WithComponent("session"),
	}
}

// Set persists token, user, and expiry as a unit. It returns false and
// leaves the prior record untouched when any argument is empty or the user
// snapshot violates the record invariant.
func (s *Store) Set(token string, user *api.User, expiresAt time.Time) bool {
	if token == "" || !ValidUser(user) || expiresAt.IsZero() {
		return false
	}

	userData, err := json.Marshal(user)
	if err != nil {
		s.logger.Error("failed to marshal user snapshot", "error", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prior := s.snapshotLocked()
	ctx := context.Background()

	write := func() error {
		if err := s.kvs.Set(ctx, keyToken, []byte(token), 0); err != nil {
			return err
		}
		if err := s.kvs.Set(ctx, keyUser, userData, 0); err != nil {
			return err
		}
		return s.kvs.Set(ctx, keyExpiresAt, []byte(expiresAt.UTC().Format(time.RFC3339)), 0)
	}

	if err := write(); err != nil {
		s.logger.Error("failed to persist session, restoring prior record", "error", err)
		s.restoreLocked(prior)
		return false
	}
	return true
}

// rawRecord captures the persisted bytes of the three keys, for rollback.
type rawRecord struct {
	token, user, expiresAt []byte
}

func (s *Store) snapshotLocked() rawRecord {
	ctx := context.Background()
	var r rawRecord
	r.token, _ = s.kvs.Get(ctx, keyToken)
	r.user, _ = s.kvs.Get(ctx, keyUser)
	r.expiresAt, _ = s.kvs.Get(ctx, keyExpiresAt)
	return r
}

func (s *Store) restoreLocked(r rawRecord) {
	ctx := context.Background()
	restore := func(key string, value []byte) {
		if value == nil {
			_ = s.kvs.Delete(ctx, key)
			return
		}
		if err := s.kvs.Set(ctx, key, value, 0); err != nil {
			s.logger.Error("failed to restore session key", "key", key, "error", err)
		}
	}
	restore(keyToken, r.token)
	restore(keyUser, r.user)
	restore(keyExpiresAt, r.expiresAt)
}

// Token returns the stored bearer token, or "" when absent.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, err := s.kvs.Get(context.Background(), keyToken)
	if err != nil {
		return ""
	}
	return string(value)
}

// User returns the stored user snapshot, or nil when absent. The record
// invariant is re-checked on every read so a corrupted or tampered snapshot
// reads as no session rather than as a broken one.
func (s *Store) User() *api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userLocked()
}

func (s *Store) userLocked() *api.User {
	data, err := s.kvs.Get(context.Background(), keyUser)
	if err != nil {
		return nil
	}

	var user api.User
	if err := json.Unmarshal(data, &user); err != nil {
		s.logger.Warn("stored user snapshot is malformed, treating as absent", "error", err)
		return nil
	}
	if !ValidUser(&user) {
		return nil
	}
	return &user
}

// Expiry returns the stored expiry timestamp, or the zero time when the
// field is absent or does not parse.
func (s *Store) Expiry() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, err := s.kvs.Get(context.Background(), keyExpiresAt)
	if err != nil {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339, string(value))
	if err != nil {
		s.logger.Warn("stored expiry is malformed, treating as absent", "value", string(value))
		return time.Time{}
	}
	return t
}

// UpdateUser replaces only the user snapshot, preserving token and expiry.
// Used for refresh echoes of profile updates.
func (s *Store) UpdateUser(user *api.User) bool {
	if !ValidUser(user) {
		return false
	}

	data, err := json.Marshal(user)
	if err != nil {
		s.logger.Error("failed to marshal user snapshot", "error", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kvs.Set(context.Background(), keyUser, data, 0); err != nil {
		s.logger.Error("failed to update user snapshot", "error", err)
		return false
	}
	return true
}

// Swap replaces the token and expiry in place, preserving the user
// snapshot. Used by refresh.
func (s *Store) Swap(token string, expiresAt time.Time) bool {
	if token == "" || expiresAt.IsZero() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	prior := s.snapshotLocked()

	if err := s.kvs.Set(ctx, keyToken, []byte(token), 0); err != nil {
		s.logger.Error("failed to swap token", "error", err)
		return false
	}
	if err := s.kvs.Set(ctx, keyExpiresAt, []byte(expiresAt.UTC().Format(time.RFC3339)), 0); err != nil {
		s.logger.Error("failed to swap expiry, restoring prior record", "error", err)
		s.restoreLocked(prior)
		return false
	}
	return true
}

// Clear removes all three fields. Idempotent and safe when nothing is
// stored.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	for _, key := range []string{keyToken, keyUser, keyExpiresAt} {
		if err := s.kvs.Delete(ctx, key); err != nil && !errors.Is(err, kvs.ErrNotFound) {
			s.logger.Error("failed to clear session key", "key", key, "error", err)
		}
	}
}
