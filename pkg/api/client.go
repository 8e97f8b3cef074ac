// Package api is the HTTP client for the SwipingForJobs backend: session
// introspection and refresh, the GitHub linking endpoints, and login.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/swipingforjobs/jobswipe/pkg/logging"
)

const defaultTimeout = 15 * time.Second

// Client talks to the backend API. All methods are safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
	maxTries   uint
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxTries sets how many attempts a transport failure is given before
// it surfaces. Status responses are never retried.
func WithMaxTries(n uint) Option {
	return func(c *Client) { c.maxTries = n }
}

// NewClient creates a new API client for the given base URL.
func NewClient(baseURL string, logger logging.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.WithComponent("api"),
		maxTries:   3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

// do performs one API call: marshal, send with bounded transport retry,
// map the status, decode into out.
func (c *Client) do(ctx context.Context, method, path, token string, query url.Values, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: failed to marshal request: %w", err)
		}
	}

	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}
	requestID := uuid.NewString()

	operation := func() (*http.Response, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Transport-level failure, worth another attempt
			c.logger.Debug("request failed, retrying", "method", method, "path", path, "error", err)
			return nil, err
		}
		return resp, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(c.maxTries))
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		return ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		detail := eb.Detail
		if detail == "" {
			detail = eb.Error
		}
		return &StatusError{StatusCode: resp.StatusCode, Detail: detail}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("api: failed to decode response: %w", err)
		}
	}
	return nil
}

// Login authenticates with name and login code and returns the fresh
// session grant together with the user snapshot.
func (c *Client) Login(ctx context.Context, name, loginCode string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, http.MethodPost, "/users/login", "", nil,
		&LoginRequest{Name: name, LoginCode: loginCode}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the server's current view of the bearer's account.
// A 401 means the credential has been revoked or expired server-side.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var out MeResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, &StatusError{StatusCode: http.StatusOK, Detail: "empty user in /auth/me response"}
	}
	return out.User, nil
}

// Refresh exchanges the current token for a new token and expiry.
func (c *Client) Refresh(ctx context.Context, token string) (*SessionPayload, error) {
	var out RefreshResponse
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", token, nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Session == nil || out.Session.Token == "" {
		return nil, &StatusError{StatusCode: http.StatusOK, Detail: "empty session in refresh response"}
	}
	return out.Session, nil
}

// UpdateProfile pushes profile edits and returns the server's updated
// user record.
func (c *Client) UpdateProfile(ctx context.Context, token string, req *ProfileUpdateRequest) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodPut, "/users/profile", token, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GithubLogin asks the server for the provider authorization URL and the
// anti-forgery state for a new linking attempt.
func (c *Client) GithubLogin(ctx context.Context, token string) (*GithubLoginResponse, error) {
	var out GithubLoginResponse
	if err := c.do(ctx, http.MethodGet, "/auth/github/login", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GithubCallback forwards the provider's code to the server for the token
// exchange.
func (c *Client) GithubCallback(ctx context.Context, token, code, state string) (*GithubCallbackResponse, error) {
	query := url.Values{}
	query.Set("code", code)
	query.Set("state", state)

	var out GithubCallbackResponse
	if err := c.do(ctx, http.MethodGet, "/auth/github/callback", token, query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GithubLink attaches the exchanged provider identity to the given account.
func (c *Client) GithubLink(ctx context.Context, token string, req *GithubLinkRequest) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodPost, "/auth/github/link", token, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
