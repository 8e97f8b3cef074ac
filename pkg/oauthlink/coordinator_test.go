package oauthlink

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swipingforjobs/jobswipe/pkg/api"
	"github.com/swipingforjobs/jobswipe/pkg/kvs"
	"github.com/swipingforjobs/jobswipe/pkg/logging"
	"github.com/swipingforjobs/jobswipe/pkg/session"
)

// fakeBackend scripts the three linking endpoints.
type fakeBackend struct {
	login       *api.GithubLoginResponse
	loginErr    error
	callback    *api.GithubCallbackResponse
	callbackErr error
	linked      *api.User
	linkErr     error

	linkCalls    int
	lastLinkBody *api.GithubLinkRequest
}

func (f *fakeBackend) GithubLogin(ctx context.Context, token string) (*api.GithubLoginResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.login, nil
}

func (f *fakeBackend) GithubCallback(ctx context.Context, token, code, state string) (*api.GithubCallbackResponse, error) {
	if f.callbackErr != nil {
		return nil, f.callbackErr
	}
	return f.callback, nil
}

func (f *fakeBackend) GithubLink(ctx context.Context, token string, req *api.GithubLinkRequest) (*api.User, error) {
	f.linkCalls++
	f.lastLinkBody = req
	if f.linkErr != nil {
		return nil, f.linkErr
	}
	return f.linked, nil
}

type linkFixture struct {
	backend     *fakeBackend
	store       *session.Store
	handshakes  *HandshakeStore
	transitions []State
	mu          sync.Mutex
}

func newLinkFixture(t *testing.T) *linkFixture {
	t.Helper()

	base := kvs.NewMemoryStore()
	t.Cleanup(func() { _ = base.Close() })

	store := session.NewStore(kvs.NewNamespacedStore(base, "session:"), logging.NewTestLogger())
	user := &api.User{ID: 7, Name: "Ada", Email: "ada@example.com"}
	require.True(t, store.Set("tok", user, time.Now().Add(2*time.Hour)))

	return &linkFixture{
		backend:    &fakeBackend{},
		store:      store,
		handshakes: NewHandshakeStore(kvs.NewNamespacedStore(base, "oauth:")),
	}
}

func (f *linkFixture) coordinator(t *testing.T, opts ...Option) *Coordinator {
	t.Helper()
	opts = append(opts, WithTransitionHook(func(s State) {
		f.mu.Lock()
		f.transitions = append(f.transitions, s)
		f.mu.Unlock()
	}))
	return New(f.backend, f.store, f.handshakes, logging.NewTestLogger(), opts...)
}

func (f *linkFixture) seenTransitions() []State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]State(nil), f.transitions...)
}

func (f *linkFixture) handshakeStored(t *testing.T) *Handshake {
	t.Helper()
	hs, err := f.handshakes.Get(context.Background())
	require.NoError(t, err)
	return hs
}

func TestBeginStoresHandshakeAndReturnsURL(t *testing.T) {
	f := newLinkFixture(t)
	f.backend.login = &api.GithubLoginResponse{
		AuthURL: "https://github.com/login/oauth/authorize?state=abc",
		State:   "abc",
	}
	c := f.coordinator(t)

	authURL, err := c.Begin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f.backend.login.AuthURL, authURL)

	hs := f.handshakeStored(t)
	assert.Equal(t, "abc", hs.State)
	assert.Equal(t, int64(7), hs.LinkingUserID)
	assert.Equal(t, StateIdle, c.State())
}

func TestBeginRequiresSession(t *testing.T) {
	f := newLinkFixture(t)
	f.store.Clear()
	c := f.coordinator(t)

	_, err := c.Begin(context.Background())
	var fe *FlowError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Reason, "logged in")
}

func TestCompleteHappyPath(t *testing.T) {
	f := newLinkFixture(t)
	require.NoError(t, f.handshakes.Put(context.Background(), "abc", 7))
	f.backend.callback = &api.GithubCallbackResponse{
		GithubUser:  &api.GithubUser{ID: 1234, Login: "ada-dev"},
		AccessToken: "gh-token",
	}
	f.backend.linked = &api.User{ID: 7, Name: "Ada", Email: "ada@example.com", GithubUsername: "ada-dev"}
	c := f.coordinator(t)

	state := c.Complete(context.Background(), CallbackParams{Code: "code-1", State: "abc"})
	assert.Equal(t, StateSuccess, state)

	// Transition order is processing -> linking -> success
	assert.Equal(t, []State{StateProcessing, StateLinking, StateSuccess}, f.seenTransitions())

	// The link request carried the handshake's user id
	require.NotNil(t, f.backend.lastLinkBody)
	assert.Equal(t, int64(7), f.backend.lastLinkBody.UserID)
	assert.Equal(t, int64(1234), f.backend.lastLinkBody.GithubID)
	assert.Equal(t, "gh-token", f.backend.lastLinkBody.AccessToken)
	assert.Equal(t, "ada-dev", f.backend.lastLinkBody.GithubUsername)

	// Handshake consumed
	hs := f.handshakeStored(t)
	assert.Empty(t, hs.State)
	assert.Zero(t, hs.LinkingUserID)

	// Linked record written through the session store
	assert.Equal(t, "ada-dev", f.store.User().GithubUsername)

	require.NotNil(t, c.Result())
	assert.Equal(t, "ada-dev", c.Result().GithubUsername)
}

func TestCompleteStateMismatchNeverCallsLink(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		sent   string
	}{
		{"mismatched state", "abc", "evil"},
		{"missing stored state", "", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLinkFixture(t)
			if tt.stored != "" {
				require.NoError(t, f.handshakes.Put(context.Background(), tt.stored, 7))
			}
			c := f.coordinator(t)

			state := c.Complete(context.Background(), CallbackParams{Code: "code", State: tt.sent})
			assert.Equal(t, StateError, state)
			assert.Contains(t, c.Failure(), "restart")
			assert.Zero(t, f.backend.linkCalls)
		})
	}
}

func TestCompleteProviderError(t *testing.T) {
	f := newLinkFixture(t)
	c := f.coordinator(t)

	state := c.Complete(context.Background(), CallbackParams{Err: "access_denied"})
	assert.Equal(t, StateError, state)
	assert.Contains(t, c.Failure(), "access_denied")
	assert.Zero(t, f.backend.linkCalls)
}

func TestCompleteMissingCode(t *testing.T) {
	f := newLinkFixture(t)
	c := f.coordinator(t)

	state := c.Complete(context.Background(), CallbackParams{State: "abc"})
	assert.Equal(t, StateError, state)
	assert.Contains(t, c.Failure(), "authorization code")
}

func TestCompleteMissingLinkingUserID(t *testing.T) {
	f := newLinkFixture(t)
	ctx := context.Background()
	// State present but no linking user id
	require.NoError(t, f.handshakes.kvs.Set(ctx, keyState, []byte("abc"), 0))
	c := f.coordinator(t)

	state := c.Complete(ctx, CallbackParams{Code: "code", State: "abc"})
	assert.Equal(t, StateError, state)
	assert.Contains(t, c.Failure(), "No session found")
}

func TestCompleteAlreadyLinkedShortCircuits(t *testing.T) {
	f := newLinkFixture(t)
	require.NoError(t, f.handshakes.Put(context.Background(), "abc", 7))
	f.backend.callback = &api.GithubCallbackResponse{GithubLinked: true}
	c := f.coordinator(t)

	state := c.Complete(context.Background(), CallbackParams{Code: "code", State: "abc"})
	assert.Equal(t, StateSuccess, state)
	assert.Zero(t, f.backend.linkCalls)
	assert.Equal(t, []State{StateProcessing, StateSuccess}, f.seenTransitions())
	require.NotNil(t, c.Result())
	assert.True(t, c.Result().AlreadyLinked)
}

func TestCompleteExchangeFailurePreservesSession(t *testing.T) {
	f := newLinkFixture(t)
	require.NoError(t, f.handshakes.Put(context.Background(), "abc", 7))
	f.backend.callbackErr = errors.New("exchange exploded")
	c := f.coordinator(t)

	state := c.Complete(context.Background(), CallbackParams{Code: "code", State: "abc"})
	assert.Equal(t, StateError, state)

	// A failed linking attempt never touches the authenticated session
	assert.Equal(t, "tok", f.store.Token())
	assert.NotNil(t, f.store.User())
}

func TestCompleteLinkFailure(t *testing.T) {
	f := newLinkFixture(t)
	require.NoError(t, f.handshakes.Put(context.Background(), "abc", 7))
	f.backend.callback = &api.GithubCallbackResponse{
		GithubUser:  &api.GithubUser{ID: 1, Login: "ada-dev"},
		AccessToken: "gh-token",
	}
	f.backend.linkErr = &api.StatusError{StatusCode: 409, Detail: "already linked to another account"}
	c := f.coordinator(t)

	state := c.Complete(context.Background(), CallbackParams{Code: "code", State: "abc"})
	assert.Equal(t, StateError, state)
	assert.Contains(t, c.Failure(), "already linked to another account")
	assert.Equal(t, []State{StateProcessing, StateLinking, StateError}, f.seenTransitions())
	assert.Equal(t, "tok", f.store.Token())
}

func TestSuccessSchedulesDelayedRedirect(t *testing.T) {
	f := newLinkFixture(t)
	require.NoError(t, f.handshakes.Put(context.Background(), "abc", 7))
	f.backend.callback = &api.GithubCallbackResponse{GithubLinked: true}

	mock := clock.NewMock()
	redirected := make(chan struct{})
	c := f.coordinator(t,
		WithClock(mock),
		WithRedirect(func() { close(redirected) }))

	c.Complete(context.Background(), CallbackParams{Code: "code", State: "abc"})

	select {
	case <-redirected:
		t.Fatal("redirect fired before the delay")
	default:
	}

	mock.Add(RedirectDelay)
	select {
	case <-redirected:
	case <-time.After(time.Second):
		t.Fatal("redirect never fired")
	}
}

func TestRetryClearsHandshakeAndRedirects(t *testing.T) {
	f := newLinkFixture(t)
	require.NoError(t, f.handshakes.Put(context.Background(), "abc", 7))

	redirected := false
	c := f.coordinator(t, WithRedirect(func() { redirected = true }))

	c.Retry(context.Background())

	hs := f.handshakeStored(t)
	assert.Empty(t, hs.State)
	assert.True(t, redirected)
	assert.Equal(t, StateIdle, c.State())
}
