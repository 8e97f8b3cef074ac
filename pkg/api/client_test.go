package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swipingforjobs/jobswipe/pkg/logging"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, logging.NewTestLogger())
}

func TestMe(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/me", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		json.NewEncoder(w).Encode(MeResponse{
			User: &User{ID: 7, Name: "Ada", Email: "ada@example.com"},
		})
	}))

	user, err := client.Me(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "ada@example.com", user.Email)
}

func TestMeUnauthorized(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.Me(context.Background(), "revoked")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestMeServerErrorCarriesDetail(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"detail": "maintenance window"})
	}))

	_, err := client.Me(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, IsServerError(err))

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Contains(t, se.Detail, "maintenance")
}

func TestStatusResponsesAreNotRetried(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.Me(context.Background(), "tok")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTransportFailureSurfacesAfterRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	client := NewClient(server.URL, logging.NewTestLogger(), WithMaxTries(2))

	_, err := client.Me(context.Background(), "tok")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.False(t, IsServerError(err))
}

func TestRefresh(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/refresh", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		json.NewEncoder(w).Encode(RefreshResponse{
			Session: &SessionPayload{Token: "fresh", ExpiresAt: "2026-03-01T18:00:00Z"},
		})
	}))

	payload, err := client.Refresh(context.Background(), "old")
	require.NoError(t, err)
	assert.Equal(t, "fresh", payload.Token)
	assert.Equal(t, "2026-03-01T18:00:00Z", payload.ExpiresAt)
}

func TestRefreshEmptySessionIsError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))

	_, err := client.Refresh(context.Background(), "old")
	require.Error(t, err)
	assert.True(t, IsServerError(err))
}

func TestLogin(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/login", r.URL.Path)

		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ada", req.Name)
		assert.Equal(t, "1234", req.LoginCode)

		json.NewEncoder(w).Encode(LoginResponse{
			Message: "Login successful",
			User:    &User{ID: 7, Name: "Ada", Email: "ada@example.com"},
			Session: &SessionPayload{Token: "tok", ExpiresAt: "2026-03-01T18:00:00Z"},
		})
	}))

	resp, err := client.Login(context.Background(), "ada", "1234")
	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.User.ID)
	assert.Equal(t, "tok", resp.Session.Token)
}

func TestUpdateProfile(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/profile", r.URL.Path)
		require.Equal(t, http.MethodPut, r.Method)

		var req ProfileUpdateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Go, Postgres", req.Skills)

		json.NewEncoder(w).Encode(User{ID: 7, Email: "ada@example.com", Skills: req.Skills})
	}))

	user, err := client.UpdateProfile(context.Background(), "tok", &ProfileUpdateRequest{Skills: "Go, Postgres"})
	require.NoError(t, err)
	assert.Equal(t, "Go, Postgres", user.Skills)
}

func TestGithubCallbackSendsCodeAndState(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/github/callback", r.URL.Path)
		assert.Equal(t, "code-1", r.URL.Query().Get("code"))
		assert.Equal(t, "state-1", r.URL.Query().Get("state"))
		json.NewEncoder(w).Encode(GithubCallbackResponse{
			GithubUser:  &GithubUser{ID: 9, Login: "ada-dev"},
			AccessToken: "gh-tok",
		})
	}))

	resp, err := client.GithubCallback(context.Background(), "tok", "code-1", "state-1")
	require.NoError(t, err)
	assert.Equal(t, "ada-dev", resp.GithubUser.Login)
	assert.Equal(t, "gh-tok", resp.AccessToken)
}

func TestGithubLink(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/github/link", r.URL.Path)

		var req GithubLinkRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(7), req.UserID)
		assert.Equal(t, "ada-dev", req.GithubUsername)

		json.NewEncoder(w).Encode(User{ID: 7, Email: "ada@example.com", GithubUsername: "ada-dev"})
	}))

	user, err := client.GithubLink(context.Background(), "tok", &GithubLinkRequest{
		UserID: 7, GithubID: 9, AccessToken: "gh-tok", GithubUsername: "ada-dev",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada-dev", user.GithubUsername)
}
