package session

import (
	"time"

	"github.com/benbjohnson/clock"
)

// ExpiringSoonThreshold is the window, in whole minutes, inside which a
// session counts as expiring soon.
const ExpiringSoonThreshold = 30

// Validator computes local validity from the stored record. It performs no
// network calls and never panics on malformed stored data; malformed fields
// read as absent.
type Validator struct {
	store *Store
	clock clock.Clock
}

// NewValidator creates a validator over the given store. A nil clock
// defaults to the wall clock.
func NewValidator(store *Store, clk clock.Clock) *Validator {
	if clk == nil {
		clk = clock.New()
	}
	return &Validator{store: store, clock: clk}
}

// IsValid reports whether token, user, and a parseable future expiry are
// all present.
func (v *Validator) IsValid() bool {
	if v.store.Token() == "" {
		return false
	}
	if v.store.User() == nil {
		return false
	}

	expiry := v.store.Expiry()
	if expiry.IsZero() {
		return false
	}
	return v.clock.Now().Before(expiry)
}

// TimeUntilExpiry returns whole minutes until expiry, clamped to 0 once
// past expiry and 0 when no expiry is stored.
func (v *Validator) TimeUntilExpiry() int {
	expiry := v.store.Expiry()
	if expiry.IsZero() {
		return 0
	}

	remaining := expiry.Sub(v.clock.Now())
	if remaining <= 0 {
		return 0
	}
	return int(remaining / time.Minute)
}

// IsExpiringSoon reports whether fewer than 30 minutes remain.
func (v *Validator) IsExpiringSoon() bool {
	return v.TimeUntilExpiry() < ExpiringSoonThreshold
}

// IsLoggedIn reports local validity plus a present user snapshot.
func (v *Validator) IsLoggedIn() bool {
	return v.IsValid() && v.store.User() != nil
}
