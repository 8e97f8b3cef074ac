package oauthlink

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/swipingforjobs/jobswipe/pkg/kvs"
)

// HandshakeTTL bounds how long a linking attempt may sit between the
// redirect out and the callback in.
const HandshakeTTL = 10 * time.Minute

// The handshake is persisted as two namespaced keys so it survives the
// full redirect (phase 1 and phase 2 are separate invocations sharing no
// memory).
const (
	keyState         = "state"
	keyLinkingUserID = "linking_user_id"
)

// Handshake is the short-lived anti-forgery record carried across the
// provider redirect.
type Handshake struct {
	State         string
	LinkingUserID int64
}

// HandshakeStore persists the handshake record in the agent's KV backend.
type HandshakeStore struct {
	kvs kvs.Store
}

// NewHandshakeStore creates a handshake store over the given (namespaced)
// KVS backend.
func NewHandshakeStore(kvsStore kvs.Store) *HandshakeStore {
	return &HandshakeStore{kvs: kvsStore}
}

// Put stores a fresh handshake, replacing any previous one.
func (h *HandshakeStore) Put(ctx context.Context, state string, linkingUserID int64) error {
	if err := h.kvs.Set(ctx, keyState, []byte(state), HandshakeTTL); err != nil {
		return fmt.Errorf("oauthlink: failed to store state: %w", err)
	}
	userID := strconv.FormatInt(linkingUserID, 10)
	if err := h.kvs.Set(ctx, keyLinkingUserID, []byte(userID), HandshakeTTL); err != nil {
		_ = h.kvs.Delete(ctx, keyState)
		return fmt.Errorf("oauthlink: failed to store linking user id: %w", err)
	}
	return nil
}

// Get reads the stored handshake. Absent or malformed fields come back as
// zero values; the caller decides what each missing piece means.
func (h *HandshakeStore) Get(ctx context.Context) (*Handshake, error) {
	hs := &Handshake{}

	state, err := h.kvs.Get(ctx, keyState)
	if err != nil && !errors.Is(err, kvs.ErrNotFound) {
		return nil, err
	}
	hs.State = string(state)

	raw, err := h.kvs.Get(ctx, keyLinkingUserID)
	if err != nil && !errors.Is(err, kvs.ErrNotFound) {
		return nil, err
	}
	if len(raw) > 0 {
		if id, perr := strconv.ParseInt(string(raw), 10, 64); perr == nil {
			hs.LinkingUserID = id
		}
	}

	return hs, nil
}

// Consume deletes the handshake. Idempotent; a consumed record is never
// reused.
func (h *HandshakeStore) Consume(ctx context.Context) {
	_ = h.kvs.Delete(ctx, keyState)
	_ = h.kvs.Delete(ctx, keyLinkingUserID)
}
