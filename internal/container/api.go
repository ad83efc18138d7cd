// SPDX-License-Identifier: MPL-2.0

package container

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/moby/go-archive"
)

const (
	pingAttempts = 3
	pingBackoff  = 250 * time.Millisecond
)

type (
	// dockerAPI is the part of the Docker client APIEngine uses.
	dockerAPI interface {
		Ping(ctx context.Context) (types.Ping, error)
		ImageBuild(ctx context.Context, buildContext io.Reader, options build.ImageBuildOptions) (build.ImageBuildResponse, error)
		ImageInspect(ctx context.Context, imageID string, opts ...client.ImageInspectOption) (image.InspectResponse, error)
		DaemonHost() string
		Close() error
	}

	// APIEngine builds images through the Docker Engine API. Podman is
	// driven through its Docker-compatible socket.
	APIEngine struct {
		engine EngineType
		api    dockerAPI
		tar    func(dir string) (io.ReadCloser, error)
	}
)

// NewAPIEngine creates a client for the engine. host overrides the address
// ResolveHost would pick.
func NewAPIEngine(t EngineType, host string) (*APIEngine, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if h := ResolveHost(t, host, nil); h != "" {
		opts = append(opts, client.WithHost(h))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, &EngineNotAvailableError{Engine: string(t), Host: host, Err: err}
	}
	return newAPIEngine(t, cli), nil
}

func newAPIEngine(t EngineType, api dockerAPI) *APIEngine {
	return &APIEngine{engine: t, api: api, tar: tarContext}
}

// Name returns the engine name.
func (e *APIEngine) Name() string {
	return string(e.engine)
}

// Host returns the daemon address in use.
func (e *APIEngine) Host() string {
	return e.api.DaemonHost()
}

// Available pings the daemon, retrying briefly while the connection is
// refused so socket-activated daemons can start.
func (e *APIEngine) Available(ctx context.Context) error {
	err := RetryWithBackoff(ctx, pingAttempts, pingBackoff, func(int) (bool, error) {
		_, err := e.api.Ping(ctx)
		return err != nil && client.IsErrConnectionFailed(err), err
	})
	if err != nil {
		return &EngineNotAvailableError{Engine: e.Name(), Host: e.Host(), Err: err}
	}
	return nil
}

// Build tars the context directory, streams it to the daemon and waits for
// the build to finish.
func (e *APIEngine) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	buildCtx, err := e.tar(opts.ContextDir)
	if err != nil {
		return nil, fmt.Errorf("creating build context from %s: %w", opts.ContextDir, err)
	}
	defer buildCtx.Close()

	resp, err := e.api.ImageBuild(ctx, buildCtx, build.ImageBuildOptions{
		Tags:       opts.Tags,
		NoCache:    opts.NoCache,
		Remove:     true,
		Dockerfile: cmp.Or(opts.Dockerfile, "Dockerfile"),
		Version:    build.BuilderV1,
	})
	if err != nil {
		if client.IsErrConnectionFailed(err) {
			return nil, &EngineNotAvailableError{Engine: e.Name(), Host: e.Host(), Err: err}
		}
		return nil, fmt.Errorf("starting image build: %w", err)
	}
	defer resp.Body.Close()

	id, err := DecodeBuildStream(resp.Body, opts.OnStream)
	if err != nil {
		return nil, err
	}
	if id == "" && len(opts.Tags) > 0 {
		inspect, err := e.api.ImageInspect(ctx, opts.Tags[0])
		if err != nil {
			return nil, fmt.Errorf("inspecting built image %s: %w", opts.Tags[0], err)
		}
		id = inspect.ID
	}
	return &BuildResult{ImageID: id, Tags: opts.Tags}, nil
}

// Close closes the client.
func (e *APIEngine) Close() error {
	return e.api.Close()
}

func tarContext(dir string) (io.ReadCloser, error) {
	return archive.TarWithOptions(dir, &archive.TarOptions{})
}
