// SPDX-License-Identifier: MPL-2.0

package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	defaultGitHubAPI = "https://api.github.com"

	// tagsPerPage is the largest page size the tags endpoint accepts.
	tagsPerPage = 100

	// maxPages bounds pagination; the newest tags come first.
	maxPages = 3

	// maxJSONResponseBytes caps a single API response (10 MB).
	maxJSONResponseBytes = 10 << 20
)

// ErrNoVersionTag is returned when a repository has no tag that parses as
// a stable semantic version.
var ErrNoVersionTag = errors.New("no version tag found")

type (
	// RateLimitError is returned when the GitHub API quota is exhausted.
	RateLimitError struct {
		Limit   int
		ResetAt time.Time
	}

	// GitHubClient reads repository tags from the GitHub REST API.
	GitHubClient struct {
		httpClient *http.Client
		baseURL    string
		token      string
		userAgent  string
	}

	// ClientOption configures a GitHubClient.
	ClientOption func(*GitHubClient)

	githubTag struct {
		Name string `json:"name"`
	}
)

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("GitHub API rate limit of %d requests exceeded, resets at %s (set GITHUB_TOKEN to raise it)",
		e.Limit, e.ResetAt.UTC().Format("15:04 UTC"))
}

// WithHTTPClient sets the HTTP client, e.g. one with a timeout.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(g *GitHubClient) {
		g.httpClient = c
	}
}

// WithBaseURL points the client at another API root. Tests use it with httptest.
func WithBaseURL(base string) ClientOption {
	return func(g *GitHubClient) {
		g.baseURL = strings.TrimRight(base, "/")
	}
}

// WithToken authenticates requests, which raises the rate limit.
func WithToken(token string) ClientOption {
	return func(g *GitHubClient) {
		g.token = token
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(g *GitHubClient) {
		g.userAgent = ua
	}
}

// NewGitHubClient returns a client for api.github.com.
func NewGitHubClient(opts ...ClientOption) *GitHubClient {
	c := &GitHubClient{
		httpClient: http.DefaultClient,
		baseURL:    defaultGitHubAPI,
		userAgent:  "turludock",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tags lists the tag names of owner/repo, newest first as returned by the API.
func (c *GitHubClient) Tags(ctx context.Context, owner, repo string) ([]string, error) {
	pageURL := fmt.Sprintf("%s/repos/%s/%s/tags?per_page=%d", c.baseURL, owner, repo, tagsPerPage)

	var names []string
	for page := 0; page < maxPages && pageURL != ""; page++ {
		tags, next, err := c.tagsPage(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("listing tags of %s/%s: %w", owner, repo, err)
		}
		for _, t := range tags {
			names = append(names, t.Name)
		}
		pageURL = next
	}
	return names, nil
}

// LatestVersionTag returns the highest stable semantic version among the tags
// of owner/repo, without a leading "v". Tags such as "3.3a" or "v4.0.0-rc1"
// are ignored.
func (c *GitHubClient) LatestVersionTag(ctx context.Context, owner, repo string) (string, error) {
	tags, err := c.Tags(ctx, owner, repo)
	if err != nil {
		return "", err
	}
	latest := LatestStable(tags)
	if latest == "" {
		return "", fmt.Errorf("%s/%s: %w", owner, repo, ErrNoVersionTag)
	}
	return latest, nil
}

func (c *GitHubClient) tagsPage(ctx context.Context, pageURL string) ([]githubTag, string, error) {
	resp, err := c.doRequest(ctx, pageURL)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if err := checkRateLimit(resp); err != nil {
		return nil, "", err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var tags []githubTag
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&tags); err != nil {
		return nil, "", fmt.Errorf("decoding tags: %w", err)
	}
	return tags, parseLinkHeader(resp.Header.Get("Link")), nil
}

func (c *GitHubClient) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", c.userAgent)

	// Pagination links come from the server; never send the token elsewhere.
	if c.token != "" && sameHost(req.URL, c.baseURL) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

// checkRateLimit reports a RateLimitError when X-RateLimit-Remaining is zero.
func checkRateLimit(resp *http.Response) error {
	remaining, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Remaining"))
	if err != nil || remaining > 0 {
		return nil //nolint:nilerr // missing or malformed header means no limit info
	}
	limit, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))                 //nolint:errcheck // best effort
	resetUnix, _ := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64) //nolint:errcheck // best effort
	return &RateLimitError{Limit: limit, ResetAt: time.Unix(resetUnix, 0)}
}

// parseLinkHeader returns the rel="next" URL of a GitHub Link header, or "".
//
//	<https://api.github.com/...&page=2>; rel="next", <...>; rel="last"
func parseLinkHeader(header string) string {
	for part := range strings.SplitSeq(header, ",") {
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start >= 0 && end > start {
			return part[start+1 : end]
		}
	}
	return ""
}

func sameHost(reqURL *url.URL, baseURL string) bool {
	base, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(reqURL.Host, base.Host)
}

// LatestStable returns the highest stable semantic version in tags, without
// a leading "v". Two-component versions such as "3.4" are accepted.
func LatestStable(tags []string) string {
	best, bestTag := "", ""
	for _, tag := range tags {
		v := canonical(tag)
		if v == "" || semver.Prerelease(v) != "" || semver.Build(v) != "" {
			continue
		}
		if best == "" || semver.Compare(v, best) > 0 {
			best, bestTag = v, tag
		}
	}
	return strings.TrimPrefix(bestTag, "v")
}

// canonical maps "3.28.1", "v3.28.1" and "3.4" to a valid semver string,
// or "" when the tag is not a version.
func canonical(tag string) string {
	v := tag
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return v
}
