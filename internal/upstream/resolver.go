// SPDX-License-Identifier: MPL-2.0

package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/turlucode/turludock/pkg/imageconfig"
)

// ErrNoOfflineVersion is returned by Offline when no default is configured
// for a package.
var ErrNoOfflineVersion = errors.New("no offline version configured")

type (
	// Project identifies where a package's versions are published.
	Project struct {
		Owner string
		Repo  string
		// TagPrefix is prepended to a version to form its git tag.
		TagPrefix string
	}

	// Resolver answers version questions against the real upstreams and
	// caches every successful answer.
	Resolver struct {
		github     *GitHubClient
		httpClient *http.Client
		llvmURL    string
		remoteTags func(ctx context.Context, url string) ([]string, error)

		mu    sync.Mutex
		cache map[string][]string
	}

	// ResolverOption configures a Resolver.
	ResolverOption func(*Resolver)

	// Offline is a version source backed by configured defaults.
	Offline struct {
		CMake string
		Tmux  string
		LLVM  string
	}
)

// Projects maps the version-pinnable git packages to their repositories.
var Projects = map[imageconfig.PackageName]Project{
	imageconfig.PackageCMake: {Owner: "Kitware", Repo: "CMake", TagPrefix: "v"},
	imageconfig.PackageTmux:  {Owner: "tmux", Repo: "tmux"},
}

// GitURL is the clone URL of the project.
func (p Project) GitURL() string {
	return fmt.Sprintf("https://github.com/%s/%s.git", p.Owner, p.Repo)
}

// WithGitHubClient replaces the GitHub API client.
func WithGitHubClient(c *GitHubClient) ResolverOption {
	return func(r *Resolver) {
		r.github = c
	}
}

// WithResolverHTTPClient sets the HTTP client used to fetch llvm.sh.
func WithResolverHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) {
		r.httpClient = c
	}
}

// WithLLVMScriptURL overrides LLVMScriptURL.
func WithLLVMScriptURL(u string) ResolverOption {
	return func(r *Resolver) {
		r.llvmURL = u
	}
}

// WithRemoteTags replaces the git remote listing, e.g. with a fixture.
func WithRemoteTags(fn func(ctx context.Context, url string) ([]string, error)) ResolverOption {
	return func(r *Resolver) {
		r.remoteTags = fn
	}
}

// NewResolver creates a Resolver that talks to GitHub, the git remotes and
// apt.llvm.org.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		httpClient: http.DefaultClient,
		llvmURL:    LLVMScriptURL,
		remoteTags: RemoteTags,
		cache:      make(map[string][]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.github == nil {
		r.github = NewGitHubClient(WithHTTPClient(r.httpClient))
	}
	return r
}

// TagExists reports whether version is a released tag of pkg.
func (r *Resolver) TagExists(ctx context.Context, pkg imageconfig.PackageName, version string) (bool, error) {
	project, ok := Projects[pkg]
	if !ok {
		return false, fmt.Errorf("no upstream repository known for %s", pkg)
	}
	url := project.GitURL()
	tags, err := r.memo(ctx, "git:"+url, func(ctx context.Context) ([]string, error) {
		return r.remoteTags(ctx, url)
	})
	if err != nil {
		return false, err
	}
	return slices.Contains(tags, project.TagPrefix+strings.TrimPrefix(version, "v")), nil
}

// LLVMVersions lists the LLVM versions apt.llvm.org supports.
func (r *Resolver) LLVMVersions(ctx context.Context) ([]string, error) {
	return r.memo(ctx, "llvm", func(ctx context.Context) ([]string, error) {
		return FetchLLVMVersions(ctx, r.httpClient, r.llvmURL)
	})
}

// LatestVersion returns the newest release of pkg.
func (r *Resolver) LatestVersion(ctx context.Context, pkg imageconfig.PackageName) (string, error) {
	if pkg == imageconfig.PackageLLVM {
		versions, err := r.LLVMVersions(ctx)
		if err != nil {
			return "", err
		}
		return maxNumeric(versions), nil
	}

	project, ok := Projects[pkg]
	if !ok {
		return "", fmt.Errorf("no upstream repository known for %s", pkg)
	}
	latest, err := r.memo(ctx, "latest:"+project.Owner+"/"+project.Repo, func(ctx context.Context) ([]string, error) {
		v, err := r.github.LatestVersionTag(ctx, project.Owner, project.Repo)
		if err != nil {
			return nil, err
		}
		return []string{v}, nil
	})
	if err != nil {
		return "", err
	}
	return latest[0], nil
}

func (r *Resolver) memo(ctx context.Context, key string, fetch func(context.Context) ([]string, error)) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.cache[key]; ok {
		return v, nil
	}
	v, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	r.cache[key] = v
	return v, nil
}

// LatestVersion returns the configured default for pkg.
func (o Offline) LatestVersion(_ context.Context, pkg imageconfig.PackageName) (string, error) {
	var v string
	switch pkg {
	case imageconfig.PackageCMake:
		v = o.CMake
	case imageconfig.PackageTmux:
		v = o.Tmux
	case imageconfig.PackageLLVM:
		v = o.LLVM
	}
	if v == "" {
		return "", fmt.Errorf("%s: %w", pkg, ErrNoOfflineVersion)
	}
	return v, nil
}

func maxNumeric(versions []string) string {
	best, bestN := "", -1
	for _, v := range versions {
		if n, err := strconv.Atoi(v); err == nil && n > bestN {
			best, bestN = v, n
		}
	}
	return best
}
