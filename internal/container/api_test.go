// SPDX-License-Identifier: MPL-2.0

package container

import (
	"archive/tar"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

type fakeAPI struct {
	pingErr    error
	buildErr   error
	body       string
	inspectID  string
	inspectErr error

	gotOpts    build.ImageBuildOptions
	gotContext []string
	inspected  []string
	closed     bool
}

func (f *fakeAPI) Ping(context.Context) (types.Ping, error) {
	return types.Ping{}, f.pingErr
}

func (f *fakeAPI) ImageBuild(_ context.Context, buildContext io.Reader, opts build.ImageBuildOptions) (build.ImageBuildResponse, error) {
	f.gotOpts = opts
	tr := tar.NewReader(buildContext)
	for {
		hdr, err := tr.Next()
		if err != nil {
			break
		}
		f.gotContext = append(f.gotContext, hdr.Name)
	}
	if f.buildErr != nil {
		return build.ImageBuildResponse{}, f.buildErr
	}
	return build.ImageBuildResponse{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func (f *fakeAPI) ImageInspect(_ context.Context, ref string, _ ...client.ImageInspectOption) (image.InspectResponse, error) {
	f.inspected = append(f.inspected, ref)
	return image.InspectResponse{ID: f.inspectID}, f.inspectErr
}

func (f *fakeAPI) DaemonHost() string { return "unix:///fake.sock" }

func (f *fakeAPI) Close() error {
	f.closed = true
	return nil
}

func writeContext(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"Dockerfile":          "FROM scratch\n",
		"entrypoint_setup.sh": "#!/bin/sh\n",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestAPIEngine_Build(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{body: `{"stream":"Step 1/2 : FROM scratch\n"}
{"stream":" ---> Running in 1234\n"}
{"aux":{"ID":"sha256:abc"}}
{"stream":"Successfully built abc\n"}
`}
	engine := newAPIEngine(EngineTypeDocker, api)

	var streamed []string
	res, err := engine.Build(t.Context(), BuildOptions{
		ContextDir: writeContext(t),
		Tags:       []string{"turlucode/ros-humble:mesa"},
		NoCache:    true,
		OnStream:   func(s string) { streamed = append(streamed, s) },
	})
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}
	if res.ImageID != "sha256:abc" {
		t.Errorf("ImageID = %q, want sha256:abc", res.ImageID)
	}
	if len(api.inspected) != 0 {
		t.Errorf("aux ID present, ImageInspect should not be called")
	}
	if len(streamed) != 3 || streamed[0] != "Step 1/2 : FROM scratch\n" {
		t.Errorf("streamed = %q", streamed)
	}

	opts := api.gotOpts
	if !opts.Remove || !opts.NoCache || opts.Dockerfile != "Dockerfile" || opts.Version != build.BuilderV1 {
		t.Errorf("ImageBuildOptions = %+v", opts)
	}
	if !slices.Equal(opts.Tags, []string{"turlucode/ros-humble:mesa"}) {
		t.Errorf("Tags = %v", opts.Tags)
	}
	slices.Sort(api.gotContext)
	if !slices.Contains(api.gotContext, "Dockerfile") || !slices.Contains(api.gotContext, "entrypoint_setup.sh") {
		t.Errorf("build context = %v", api.gotContext)
	}
}

func TestAPIEngine_Build_InspectFallback(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{body: `{"stream":"Successfully built abc\n"}`, inspectID: "sha256:def"}
	engine := newAPIEngine(EngineTypePodman, api)

	res, err := engine.Build(t.Context(), BuildOptions{ContextDir: writeContext(t), Tags: []string{"a/b:c"}})
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}
	if res.ImageID != "sha256:def" {
		t.Errorf("ImageID = %q, want the inspected ID", res.ImageID)
	}
	if !slices.Equal(api.inspected, []string{"a/b:c"}) {
		t.Errorf("inspected = %v", api.inspected)
	}
}

func TestAPIEngine_Build_Errors(t *testing.T) {
	t.Parallel()

	t.Run("stream error", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{body: `{"stream":"Step 1/1 : RUN false\n"}
{"errorDetail":{"code":1,"message":"The command '/bin/sh -c false' returned a non-zero code: 1"},"error":"The command '/bin/sh -c false' returned a non-zero code: 1"}
`}
		_, err := newAPIEngine(EngineTypeDocker, api).Build(t.Context(), BuildOptions{ContextDir: writeContext(t)})
		if !errors.Is(err, ErrBuildFailed) {
			t.Fatalf("Build() error = %v, want ErrBuildFailed", err)
		}
		if err.Error() != "Docker build error: The command '/bin/sh -c false' returned a non-zero code: 1" {
			t.Errorf("Error() = %q", err)
		}
	})

	t.Run("request error", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{buildErr: errors.New("boom")}
		_, err := newAPIEngine(EngineTypeDocker, api).Build(t.Context(), BuildOptions{ContextDir: writeContext(t)})
		if err == nil || !strings.Contains(err.Error(), "boom") {
			t.Errorf("Build() error = %v", err)
		}
	})

	t.Run("inspect error", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{inspectErr: errors.New("no such image")}
		_, err := newAPIEngine(EngineTypeDocker, api).Build(t.Context(), BuildOptions{ContextDir: writeContext(t), Tags: []string{"x:y"}})
		if err == nil || !strings.Contains(err.Error(), "inspecting built image x:y") {
			t.Errorf("Build() error = %v", err)
		}
	})

	t.Run("missing context", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{}
		engine := newAPIEngine(EngineTypeDocker, api)
		engine.tar = func(string) (io.ReadCloser, error) { return nil, os.ErrNotExist }
		_, err := engine.Build(t.Context(), BuildOptions{ContextDir: "/nope"})
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Build() error = %v, want os.ErrNotExist", err)
		}
	})
}

func TestAPIEngine_Available(t *testing.T) {
	t.Parallel()

	ok := newAPIEngine(EngineTypeDocker, &fakeAPI{})
	if err := ok.Available(t.Context()); err != nil {
		t.Errorf("Available() unexpected error: %v", err)
	}

	failing := newAPIEngine(EngineTypeDocker, &fakeAPI{pingErr: errors.New("permission denied")})
	err := failing.Available(t.Context())
	if !errors.Is(err, ErrEngineNotAvailable) {
		t.Fatalf("Available() error = %v, want ErrEngineNotAvailable", err)
	}
	var notAvail *EngineNotAvailableError
	if !errors.As(err, &notAvail) || notAvail.Host != "unix:///fake.sock" || notAvail.Engine != "docker" {
		t.Errorf("error = %#v", err)
	}
}

func TestAPIEngine_UnreachableSocket(t *testing.T) {
	t.Parallel()

	sock := "unix://" + filepath.Join(t.TempDir(), "missing.sock")
	engine, err := NewAPIEngine(EngineTypePodman, sock)
	if err != nil {
		t.Fatalf("NewAPIEngine() unexpected error: %v", err)
	}
	defer engine.Close()

	if engine.Host() != sock {
		t.Errorf("Host() = %q, want %q", engine.Host(), sock)
	}
	if engine.Name() != "podman" {
		t.Errorf("Name() = %q", engine.Name())
	}
	if err := engine.Available(t.Context()); !errors.Is(err, ErrEngineNotAvailable) {
		t.Errorf("Available() error = %v, want ErrEngineNotAvailable", err)
	}
}

func TestAPIEngine_Close(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	if err := newAPIEngine(EngineTypeDocker, api).Close(); err != nil || !api.closed {
		t.Errorf("Close() = %v, closed = %v", err, api.closed)
	}
}
