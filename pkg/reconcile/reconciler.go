// Package reconcile resolves the local session record against server truth.
package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/swipingforjobs/jobswipe/pkg/api"
	"github.com/swipingforjobs/jobswipe/pkg/logging"
	"github.com/swipingforjobs/jobswipe/pkg/session"
)

// DefaultRefreshWindow is the remaining-lifetime window, in whole minutes,
// inside which a successful reconcile also attempts a token refresh.
const DefaultRefreshWindow = 60

// Backend is the slice of the API boundary the reconciler needs.
type Backend interface {
	Me(ctx context.Context, token string) (*api.User, error)
	Refresh(ctx context.Context, token string) (*api.SessionPayload, error)
}

// Reconciler cross-checks local validity against the server and refreshes
// the token when expiry approaches. Its one hard rule: a transient server
// or network fault must never clear the store. Only an explicit 401 is
// terminal.
type Reconciler struct {
	store         *session.Store
	validator     *session.Validator
	backend       Backend
	logger        logging.Logger
	refreshWindow int

	// Overlapping invocations (background poll vs. inactivity trigger)
	// serialize here rather than racing on the store.
	mu sync.Mutex
}

// Option customizes a Reconciler.
type Option func(*Reconciler)

// WithRefreshWindow overrides the refresh window in minutes.
func WithRefreshWindow(minutes int) Option {
	return func(r *Reconciler) { r.refreshWindow = minutes }
}

// New creates a Reconciler.
func New(store *session.Store, validator *session.Validator, backend Backend, logger logging.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:         store,
		validator:     validator,
		backend:       backend,
		logger:        logger.WithComponent("reconcile"),
		refreshWindow: DefaultRefreshWindow,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile returns the final session verdict.
//
// The failure handling splits three ways and the split is load-bearing:
// an explicit 401 clears the store, any other non-2xx is a soft server
// fault, and a network-level failure is indistinguishable from a partial
// outage. The soft cases fall back to the local verdict so a connectivity
// blip can never log a user out.
func (r *Reconciler) Reconcile(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	token := r.store.Token()
	if token == "" || r.store.User() == nil {
		r.store.Clear()
		return false
	}

	if !r.validator.IsValid() {
		r.store.Clear()
		return false
	}

	serverUser, err := r.backend.Me(ctx, token)
	switch {
	case err == nil:
		// Server view wins for profile-derived fields
		if !r.store.UpdateUser(serverUser) {
			r.logger.Warn("server returned an invalid user snapshot, keeping local one")
		}
		r.maybeRefresh(ctx, token)
		return true

	case errors.Is(err, api.ErrUnauthorized):
		r.logger.Info("server rejected credential, clearing session")
		r.store.Clear()
		return false

	default:
		// Soft server error or network failure: keep the store, fall back
		// to the local verdict established above.
		r.logger.Warn("session check unavailable, keeping local session", "error", err)
		return true
	}
}

// maybeRefresh attempts a token refresh when expiry is near. Failures are
// logged and swallowed; the still-valid session is retried next cycle.
func (r *Reconciler) maybeRefresh(ctx context.Context, token string) {
	if r.validator.TimeUntilExpiry() > r.refreshWindow {
		return
	}

	payload, err := r.backend.Refresh(ctx, token)
	if err != nil {
		r.logger.Warn("token refresh failed, will retry next cycle", "error", err)
		return
	}

	expiresAt, err := time.Parse(time.RFC3339, payload.ExpiresAt)
	if err != nil {
		r.logger.Warn("refresh returned unparseable expiry, ignoring", "expires_at", payload.ExpiresAt)
		return
	}

	if r.store.Swap(payload.Token, expiresAt) {
		r.logger.Debug("token refreshed", "expires_at", payload.ExpiresAt)
	}
}
