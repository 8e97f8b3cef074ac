package session

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator(t *testing.T) (*Validator, *Store, *clock.Mock) {
	t.Helper()
	store, _ := newTestStore(t)
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return NewValidator(store, mock), store, mock
}

func TestValidatorEmptyStore(t *testing.T) {
	v, _, _ := newTestValidator(t)

	assert.False(t, v.IsValid())
	assert.False(t, v.IsLoggedIn())
	assert.Equal(t, 0, v.TimeUntilExpiry())
	// No expiry stored reads as zero minutes remaining
	assert.True(t, v.IsExpiringSoon())
}

func TestValidatorPastExpiry(t *testing.T) {
	tests := []struct {
		name string
		ago  time.Duration
	}{
		{"one minute past", time.Minute},
		{"one hour past", time.Hour},
		{"one year past", 365 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, store, mock := newTestValidator(t)
			require.True(t, store.Set("tok", testUser(), mock.Now().Add(-tt.ago)))

			assert.False(t, v.IsValid())
			assert.Equal(t, 0, v.TimeUntilExpiry())
		})
	}
}

func TestValidatorTimeUntilExpiry(t *testing.T) {
	tests := []struct {
		name      string
		remaining time.Duration
		minutes   int
		soon      bool
	}{
		{"ninety minutes", 90 * time.Minute, 90, false},
		{"thirty minutes exactly", 30 * time.Minute, 30, false},
		{"just under thirty", 30*time.Minute - time.Second, 29, true},
		{"five minutes", 5 * time.Minute, 5, true},
		{"under a minute", 30 * time.Second, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, store, mock := newTestValidator(t)
			require.True(t, store.Set("tok", testUser(), mock.Now().Add(tt.remaining)))

			assert.Equal(t, tt.minutes, v.TimeUntilExpiry())
			assert.Equal(t, tt.soon, v.IsExpiringSoon())
			assert.True(t, v.IsValid())
			assert.True(t, v.IsLoggedIn())
		})
	}
}

func TestValidatorVirtualTimeAdvance(t *testing.T) {
	v, store, mock := newTestValidator(t)
	require.True(t, store.Set("tok", testUser(), mock.Now().Add(45*time.Minute)))

	assert.True(t, v.IsValid())
	assert.False(t, v.IsExpiringSoon())

	mock.Add(20 * time.Minute)
	assert.True(t, v.IsValid())
	assert.True(t, v.IsExpiringSoon())

	mock.Add(30 * time.Minute)
	assert.False(t, v.IsValid())
	assert.False(t, v.IsLoggedIn())
	assert.Equal(t, 0, v.TimeUntilExpiry())
}
