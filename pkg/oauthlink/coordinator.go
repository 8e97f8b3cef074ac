// Package oauthlink drives the redirect-based flow that attaches a GitHub
// identity to the current account. The flow spans two invocations: phase 1
// writes a handshake record and ends at the provider redirect; phase 2 runs
// on callback, verifies the handshake, and completes the link.
package oauthlink

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/swipingforjobs/jobswipe/pkg/api"
	"github.com/swipingforjobs/jobswipe/pkg/logging"
	"github.com/swipingforjobs/jobswipe/pkg/session"
)

// State is the coordinator's flow state.
type State string

const (
	// StateIdle is the initial state.
	StateIdle State = "idle"
	// StateProcessing covers callback verification and the code exchange.
	StateProcessing State = "processing"
	// StateLinking covers the link call to the backend.
	StateLinking State = "linking"
	// StateSuccess is terminal.
	StateSuccess State = "success"
	// StateError is terminal; Failure retains the reason.
	StateError State = "error"
)

// RedirectDelay is how long the success message stays visible before the
// return to the profile view.
const RedirectDelay = 2 * time.Second

// Backend is the slice of the API boundary the coordinator needs.
type Backend interface {
	GithubLogin(ctx context.Context, token string) (*api.GithubLoginResponse, error)
	GithubCallback(ctx context.Context, token, code, state string) (*api.GithubCallbackResponse, error)
	GithubLink(ctx context.Context, token string, req *api.GithubLinkRequest) (*api.User, error)
}

// CallbackParams are the query parameters the provider redirects back with.
type CallbackParams struct {
	Code  string
	State string
	// Err is the provider's error parameter, e.g. "access_denied".
	Err string
}

// Coordinator runs the linking flow. A failed attempt is terminal to the
// flow only; the authenticated session is never touched by it.
type Coordinator struct {
	backend    Backend
	store      *session.Store
	handshakes *HandshakeStore
	logger     logging.Logger
	clock      clock.Clock

	// onTransition, when set, observes every state change; the CLI uses it
	// for progress output.
	onTransition func(State)
	// redirect, when set, is invoked RedirectDelay after success to return
	// the user to the profile view.
	redirect func()

	mu      sync.Mutex
	state   State
	failure string
	result  *LinkResult
}

// LinkResult is what a successful flow yields.
type LinkResult struct {
	GithubUsername string
	AccessToken    string
	AlreadyLinked  bool
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithTransitionHook observes state changes.
func WithTransitionHook(hook func(State)) Option {
	return func(c *Coordinator) { c.onTransition = hook }
}

// WithRedirect sets the return-to-profile action scheduled after success.
func WithRedirect(redirect func()) Option {
	return func(c *Coordinator) { c.redirect = redirect }
}

// WithClock injects a clock for the redirect delay.
func WithClock(clk clock.Clock) Option {
	return func(c *Coordinator) { c.clock = clk }
}

// New creates a Coordinator in the idle state.
func New(backend Backend, store *session.Store, handshakes *HandshakeStore, logger logging.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		backend:    backend,
		store:      store,
		handshakes: handshakes,
		logger:     logger.WithComponent("oauthlink"),
		clock:      clock.New(),
		state:      StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current flow state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Failure returns the retained human-readable reason after StateError.
func (c *Coordinator) Failure() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failure
}

// Result returns the link result after StateSuccess, nil otherwise.
func (c *Coordinator) Result() *LinkResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

func (c *Coordinator) transition(state State) {
	c.mu.Lock()
	c.state = state
	hook := c.onTransition
	c.mu.Unlock()
	if hook != nil {
		hook(state)
	}
}

func (c *Coordinator) fail(reason string) State {
	c.logger.Warn("linking flow failed", "reason", reason)
	c.mu.Lock()
	c.failure = reason
	c.mu.Unlock()
	// Terminal state consumes the handshake; a restart mints a fresh state
	c.handshakes.Consume(context.Background())
	c.transition(StateError)
	return StateError
}

// Begin is phase 1: fetch the authorization URL and anti-forgery state from
// the server, persist the handshake, and hand the URL back for the full
// page redirect. Control flow ends here until the callback invocation.
func (c *Coordinator) Begin(ctx context.Context) (string, error) {
	token := c.store.Token()
	user := c.store.User()
	if token == "" || user == nil {
		return "", &FlowError{Reason: "You must be logged in to link a GitHub account."}
	}

	login, err := c.backend.GithubLogin(ctx, token)
	if err != nil {
		return "", &FlowError{Reason: "Could not start GitHub linking: " + err.Error()}
	}

	if err := c.handshakes.Put(ctx, login.State, user.ID); err != nil {
		return "", &FlowError{Reason: "Could not store the linking handshake: " + err.Error()}
	}

	c.logger.Info("linking flow started", "user_id", user.ID)
	return login.AuthURL, nil
}

// Complete is phase 2, run after the provider redirects back. It never
// returns an error; every failure maps to StateError with a retained
// reason.
func (c *Coordinator) Complete(ctx context.Context, params CallbackParams) State {
	c.transition(StateProcessing)

	if params.Err != "" {
		return c.fail("GitHub reported an error: " + params.Err)
	}
	if params.Code == "" {
		return c.fail("No authorization code was returned by GitHub.")
	}

	handshake, err := c.handshakes.Get(ctx)
	if err != nil {
		return c.fail("Could not read the linking handshake: " + err.Error())
	}
	if handshake.State == "" || params.State != handshake.State {
		// Anti-forgery rejection: never proceed to the exchange
		return c.fail("State mismatch. Please restart the linking flow.")
	}
	if handshake.LinkingUserID == 0 {
		return c.fail("No session found for this linking attempt. Please restart the flow.")
	}

	token := c.store.Token()
	exchange, err := c.backend.GithubCallback(ctx, token, params.Code, params.State)
	if err != nil {
		return c.fail("Could not exchange the authorization code: " + err.Error())
	}

	if exchange.GithubLinked {
		c.mu.Lock()
		c.result = &LinkResult{AlreadyLinked: true}
		c.mu.Unlock()
		return c.succeed()
	}

	if exchange.GithubUser == nil || exchange.AccessToken == "" {
		return c.fail("GitHub did not return an account profile.")
	}

	c.transition(StateLinking)

	linked, err := c.backend.GithubLink(ctx, token, &api.GithubLinkRequest{
		UserID:         handshake.LinkingUserID,
		GithubID:       exchange.GithubUser.ID,
		AccessToken:    exchange.AccessToken,
		GithubUsername: exchange.GithubUser.Login,
	})
	if err != nil {
		return c.fail("Could not link the GitHub account: " + err.Error())
	}

	// The linked user record flows back through the session store
	if !c.store.UpdateUser(linked) {
		c.logger.Warn("link succeeded but returned an invalid user record")
	}

	c.mu.Lock()
	c.result = &LinkResult{
		GithubUsername: exchange.GithubUser.Login,
		AccessToken:    exchange.AccessToken,
	}
	c.mu.Unlock()
	return c.succeed()
}

func (c *Coordinator) succeed() State {
	c.handshakes.Consume(context.Background())
	c.transition(StateSuccess)

	if c.redirect != nil {
		// Keep the success message visible before returning to the profile
		c.clock.AfterFunc(RedirectDelay, c.redirect)
	}
	return StateSuccess
}

// Retry clears the handshake and returns the user to the profile view. It
// never replays network calls; restarting the flow mints a fresh state.
func (c *Coordinator) Retry(ctx context.Context) {
	c.handshakes.Consume(ctx)
	c.transition(StateIdle)
	if c.redirect != nil {
		c.redirect()
	}
}

// FlowError is a phase-1 failure with a user-facing reason.
type FlowError struct {
	Reason string
}

// Error returns the error message
func (e *FlowError) Error() string { return e.Reason }
