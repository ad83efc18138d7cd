// SPDX-License-Identifier: MPL-2.0

package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

func serveTags(t *testing.T, tags ...string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/tmux/tmux/tags" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("per_page"); got != "100" {
			t.Errorf("per_page = %q, want 100", got)
		}
		out := make([]githubTag, 0, len(tags))
		for _, tag := range tags {
			out = append(out, githubTag{Name: tag})
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			t.Errorf("encoding tags: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLatestVersionTag(t *testing.T) {
	t.Parallel()

	srv := serveTags(t, "3.5a", "3.5", "3.4", "3.10-rc", "2.9a", "3.3a")
	client := NewGitHubClient(WithBaseURL(srv.URL))

	got, err := client.LatestVersionTag(t.Context(), "tmux", "tmux")
	if err != nil {
		t.Fatalf("LatestVersionTag() unexpected error: %v", err)
	}
	if got != "3.5" {
		t.Errorf("LatestVersionTag() = %q, want 3.5", got)
	}
}

func TestLatestVersionTag_NoVersions(t *testing.T) {
	t.Parallel()

	srv := serveTags(t, "nightly", "3.3a")
	client := NewGitHubClient(WithBaseURL(srv.URL))

	_, err := client.LatestVersionTag(t.Context(), "tmux", "tmux")
	if !errors.Is(err, ErrNoVersionTag) {
		t.Errorf("LatestVersionTag() error = %v, want ErrNoVersionTag", err)
	}
}

func TestTags_Pagination(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page == 0 {
			page = 1
		}
		// every page links to the next one; the client must stop at maxPages
		next := fmt.Sprintf("%s/repos/Kitware/CMake/tags?per_page=100&page=%d", srvURL, page+1)
		w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="next", <%s>; rel="last"`, next, next))
		_ = json.NewEncoder(w).Encode([]githubTag{{Name: fmt.Sprintf("v3.%d.0", 30-page)}})
	}))
	defer srv.Close()
	srvURL = srv.URL

	client := NewGitHubClient(WithBaseURL(srv.URL))
	tags, err := client.Tags(t.Context(), "Kitware", "CMake")
	if err != nil {
		t.Fatalf("Tags() unexpected error: %v", err)
	}
	if len(tags) != maxPages {
		t.Errorf("len(Tags()) = %d, want %d", len(tags), maxPages)
	}
	if int(requests.Load()) != maxPages {
		t.Errorf("requests = %d, want %d", requests.Load(), maxPages)
	}
	if got := LatestStable(tags); got != "3.29.0" {
		t.Errorf("LatestStable() = %q, want 3.29.0", got)
	}
}

func TestTags_RateLimit(t *testing.T) {
	t.Parallel()

	reset := time.Date(2026, 1, 2, 15, 4, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewGitHubClient(WithBaseURL(srv.URL)).Tags(t.Context(), "tmux", "tmux")

	var rlErr *RateLimitError
	if !errors.As(err, &rlErr) {
		t.Fatalf("Tags() error = %v, want *RateLimitError", err)
	}
	if rlErr.Limit != 60 || !rlErr.ResetAt.Equal(reset) {
		t.Errorf("RateLimitError = %+v", rlErr)
	}
}

func TestTags_UnexpectedStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewGitHubClient(WithBaseURL(srv.URL)).Tags(t.Context(), "tmux", "tmux")
	if err == nil {
		t.Fatal("Tags() expected error for HTTP 500")
	}
}

func TestTags_Headers(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "turludock/test" {
			t.Errorf("User-Agent = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/vnd.github+json" {
			t.Errorf("Accept = %q", got)
		}
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	client := NewGitHubClient(WithBaseURL(srv.URL+"/"), WithToken("secret"), WithUserAgent("turludock/test"))
	if _, err := client.Tags(t.Context(), "tmux", "tmux"); err != nil {
		t.Fatalf("Tags() unexpected error: %v", err)
	}
}

func TestTags_TokenNotSentToOtherHosts(t *testing.T) {
	t.Parallel()

	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("token leaked to a foreign host: %q", got)
		}
		_, _ = w.Write([]byte("[]"))
	}))
	defer other.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Link", fmt.Sprintf(`<%s/page2>; rel="next"`, other.URL))
		_, _ = w.Write([]byte(`[{"name":"3.4"}]`))
	}))
	defer api.Close()

	tags, err := NewGitHubClient(WithBaseURL(api.URL), WithToken("secret")).Tags(t.Context(), "tmux", "tmux")
	if err != nil {
		t.Fatalf("Tags() unexpected error: %v", err)
	}
	if len(tags) != 1 {
		t.Errorf("Tags() = %v", tags)
	}
}

func TestParseLinkHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "empty", header: "", want: ""},
		{name: "next and last", header: `<https://a/x?page=2>; rel="next", <https://a/x?page=5>; rel="last"`, want: "https://a/x?page=2"},
		{name: "last only", header: `<https://a/x?page=5>; rel="last"`, want: ""},
		{name: "next second", header: `<https://a/x?page=1>; rel="prev", <https://a/x?page=3>; rel="next"`, want: "https://a/x?page=3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := parseLinkHeader(tt.header); got != tt.want {
				t.Errorf("parseLinkHeader() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLatestStable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tags []string
		want string
	}{
		{name: "cmake style", tags: []string{"v3.28.1", "v3.29.0-rc1", "v3.27.9"}, want: "3.28.1"},
		{name: "two components", tags: []string{"3.4", "3.10", "3.9"}, want: "3.10"},
		{name: "suffixed tags skipped", tags: []string{"3.5a", "3.3a", "3.2"}, want: "3.2"},
		{name: "leading zero invalid", tags: []string{"3.04", "2.1"}, want: "2.1"},
		{name: "none", tags: []string{"latest"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := LatestStable(tt.tags); got != tt.want {
				t.Errorf("LatestStable(%v) = %q, want %q", tt.tags, got, tt.want)
			}
		})
	}
}
