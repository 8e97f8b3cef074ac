// Package github fetches the linked account's GitHub profile and
// repositories with the access token obtained by the linking flow.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"golang.org/x/oauth2"

	"github.com/swipingforjobs/jobswipe/pkg/logging"
)

const defaultBaseURL = "https://api.github.com"

// Profile is the GitHub account profile.
type Profile struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	HTMLURL   string `json:"html_url"`
	Followers int    `json:"followers"`
}

// Repository is a repository summary.
type Repository struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Description string   `json:"description"`
	HTMLURL     string   `json:"html_url"`
	Language    string   `json:"language"`
	Stars       int      `json:"stargazers_count"`
	Forks       int      `json:"forks_count"`
	Fork        bool     `json:"fork"`
	Private     bool     `json:"private"`
	Topics      []string `json:"topics"`
}

// Client talks to the GitHub API on behalf of a linked account.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     logging.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// NewClient creates a client authenticated with the given access token.
func NewClient(ctx context.Context, accessToken string, logger logging.Logger, opts ...Option) *Client {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	c := &Client{
		httpClient: oauth2.NewClient(ctx, source),
		baseURL:    defaultBaseURL,
		logger:     logger.WithComponent("github"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "SwipingForJobs/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github: %s returned status %d", path, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// User fetches the authenticated account's profile.
func (c *Client) User(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.get(ctx, "/user", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Repositories fetches the account's repositories, most recently updated
// first.
func (c *Client) Repositories(ctx context.Context, page, perPage int) ([]Repository, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("sort", "updated")
	query.Set("direction", "desc")

	var repos []Repository
	if err := c.get(ctx, "/user/repos", query, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// Summary aggregates a repository list for profile enrichment.
type Summary struct {
	RepoCount    int
	TotalStars   int
	TopLanguages []string
}

// Summarize builds a Summary from repositories, skipping forks.
func Summarize(repos []Repository) Summary {
	summary := Summary{}
	languageCounts := make(map[string]int)

	for _, repo := range repos {
		if repo.Fork {
			continue
		}
		summary.RepoCount++
		summary.TotalStars += repo.Stars
		if repo.Language != "" {
			languageCounts[repo.Language]++
		}
	}

	languages := make([]string, 0, len(languageCounts))
	for lang := range languageCounts {
		languages = append(languages, lang)
	}
	sort.Slice(languages, func(i, j int) bool {
		if languageCounts[languages[i]] != languageCounts[languages[j]] {
			return languageCounts[languages[i]] > languageCounts[languages[j]]
		}
		return languages[i] < languages[j]
	})
	if len(languages) > 5 {
		languages = languages[:5]
	}
	summary.TopLanguages = languages
	return summary
}
