// Package activity bridges user interaction signals to the reconciler:
// a background poll, a fine-grained expiry watch, and an inactivity
// countdown, all scoped to the authenticated lifetime.
package activity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/swipingforjobs/jobswipe/pkg/logging"
	"github.com/swipingforjobs/jobswipe/pkg/session"
)

// Default cadences.
const (
	DefaultPollInterval      = 5 * time.Minute
	DefaultWatchInterval     = 60 * time.Second
	DefaultInactivityTimeout = 30 * time.Minute
)

// Expiry warning tiers, in minutes.
const (
	tierNone     = 0
	tierWarning  = 15
	tierCritical = 5
)

// Reconciler is the slice of the reconcile package the monitor needs.
type Reconciler interface {
	Reconcile(ctx context.Context) bool
}

// Monitor runs the three session cadences on one goroutine so timer and
// interaction callbacks interleave without racing each other. Stop tears
// all of them down together.
type Monitor struct {
	reconciler Reconciler
	validator  *session.Validator
	notifier   Notifier
	logger     logging.Logger
	clock      clock.Clock

	pollInterval      time.Duration
	watchInterval     time.Duration
	inactivityTimeout time.Duration

	activityC chan struct{}
	stopC     chan struct{}
	doneC     chan struct{}

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithClock injects a clock, letting tests advance virtual time.
func WithClock(clk clock.Clock) Option {
	return func(m *Monitor) { m.clock = clk }
}

// WithIntervals overrides the three cadences.
func WithIntervals(poll, watch, inactivity time.Duration) Option {
	return func(m *Monitor) {
		m.pollInterval = poll
		m.watchInterval = watch
		m.inactivityTimeout = inactivity
	}
}

// NewMonitor creates a Monitor.
func NewMonitor(reconciler Reconciler, validator *session.Validator, notifier Notifier, logger logging.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		reconciler:        reconciler,
		validator:         validator,
		notifier:          notifier,
		logger:            logger.WithComponent("activity"),
		clock:             clock.New(),
		pollInterval:      DefaultPollInterval,
		watchInterval:     DefaultWatchInterval,
		inactivityTimeout: DefaultInactivityTimeout,
		activityC:         make(chan struct{}, 1),
		stopC:             make(chan struct{}),
		doneC:             make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the monitor loop. It returns immediately; the loop runs
// until Stop is called or a forced logout ends the authenticated lifetime.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	// Timers are created before the goroutine launches so a caller that
	// advances a mock clock right after Start cannot miss the first tick.
	poll := m.clock.Ticker(m.pollInterval)
	watch := m.clock.Ticker(m.watchInterval)
	inactivity := m.clock.Timer(m.inactivityTimeout)

	go m.run(ctx, poll, watch, inactivity)
}

// Stop cancels all timers and listeners together. Idempotent.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopC) })
	m.mu.Lock()
	started := m.started
	m.mu.Unlock()
	if started {
		<-m.doneC
	}
}

// Done is closed when the monitor loop exits, whether by Stop, context
// cancellation, or a forced logout ending the authenticated lifetime.
func (m *Monitor) Done() <-chan struct{} {
	return m.doneC
}

// RecordActivity registers a qualifying user interaction. Non-blocking;
// coalesces bursts.
func (m *Monitor) RecordActivity() {
	select {
	case m.activityC <- struct{}{}:
	default:
	}
}

func (m *Monitor) run(ctx context.Context, poll, watch *clock.Ticker, inactivity *clock.Timer) {
	defer close(m.doneC)
	defer poll.Stop()
	defer watch.Stop()
	defer inactivity.Stop()

	lastTier := tierNone

	for {
		select {
		case <-poll.C:
			if !m.backgroundPoll(ctx) {
				return
			}

		case <-watch.C:
			lastTier = m.expiryWatch(lastTier)

		case <-inactivity.C:
			m.logger.Info("inactivity timeout reached")
			if !m.reconciler.Reconcile(ctx) {
				m.notifier.ForceLogout(ReasonInactivity, "Your session expired due to inactivity. Please log in again.")
				return
			}
			inactivity.Reset(m.inactivityTimeout)

		case <-m.activityC:
			inactivity.Reset(m.inactivityTimeout)
			if m.validator.IsExpiringSoon() {
				// Active users get refreshed proactively instead of
				// waiting for the background poll
				if !m.reconciler.Reconcile(ctx) {
					m.notifier.ForceLogout(ReasonEnded, "Your session has ended. Please log in again.")
					return
				}
			}

		case <-m.stopC:
			return

		case <-ctx.Done():
			return
		}
	}
}

// backgroundPoll reconciles on the coarse cadence. Returns false when the
// authenticated lifetime ended.
func (m *Monitor) backgroundPoll(ctx context.Context) bool {
	if !m.reconciler.Reconcile(ctx) {
		m.notifier.ForceLogout(ReasonExpired, "Your session has expired. Please log in again.")
		return false
	}
	if m.validator.IsExpiringSoon() {
		m.notifier.Warn(fmt.Sprintf("Your session expires in %d minutes.", m.validator.TimeUntilExpiry()))
	}
	return true
}

// expiryWatch surfaces escalating warnings as expiry approaches. No action
// is taken here; extending the session is the poll's job.
func (m *Monitor) expiryWatch(lastTier int) int {
	minutes := m.validator.TimeUntilExpiry()
	if minutes == 0 {
		return lastTier
	}

	switch {
	case minutes <= tierCritical:
		if lastTier != tierCritical {
			m.notifier.Warn(fmt.Sprintf("Session expires in %d minutes! Save your work.", minutes))
		}
		return tierCritical
	case minutes <= tierWarning:
		if lastTier != tierWarning && lastTier != tierCritical {
			m.notifier.Warn(fmt.Sprintf("Session expires in %d minutes.", minutes))
		}
		return tierWarning
	default:
		return tierNone
	}
}
