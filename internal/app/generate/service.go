// SPDX-License-Identifier: MPL-2.0

package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/turlucode/turludock/internal/assets"
	"github.com/turlucode/turludock/internal/container"
	"github.com/turlucode/turludock/internal/dockerfile"
	"github.com/turlucode/turludock/internal/progress"
	"github.com/turlucode/turludock/pkg/imageconfig"
)

// DockerfileName is the name of the generated Dockerfile.
const DockerfileName = "Dockerfile"

var (
	// ErrNotADirectory is returned when the output path is not a directory.
	ErrNotADirectory = errors.New("not a valid directory")
	// ErrNotWritable is returned when the output directory cannot be written.
	ErrNotWritable = errors.New("directory not writable")
	// ErrNoEngine is returned by Build when the service has no engine factory.
	ErrNoEngine = errors.New("no container engine configured")
)

type (
	// EngineFactory connects to the container engine.
	EngineFactory func(ctx context.Context) (container.Engine, error)

	// Options wires a Service.
	Options struct {
		// Checker verifies pinned versions upstream. Nil skips the check.
		Checker imageconfig.TagChecker
		// Versions resolves unpinned package versions.
		Versions dockerfile.VersionSource
		// Engine is only needed by Build.
		Engine    EngineFactory
		Logger    *log.Logger
		Namespace string
		// Stdout receives build output and the progress bar.
		Stdout io.Writer
	}

	// Service generates build folders and builds images.
	Service struct {
		validator *imageconfig.Validator
		versions  dockerfile.VersionSource
		engine    EngineFactory
		logger    *log.Logger
		namespace string
		stdout    io.Writer
	}

	// GenerateRequest asks for a build folder.
	GenerateRequest struct {
		Config *imageconfig.ImageConfig
		Dir    string
	}

	// GenerateResult lists the files written.
	GenerateResult struct {
		Dir   string
		Files []string
		Plan  *dockerfile.Plan
	}

	// BuildRequest asks for an image.
	BuildRequest struct {
		Config *imageconfig.ImageConfig
		// Tag defaults to dockerfile.ImageTag.
		Tag     string
		NoCache bool
		// Verbose streams the raw build output instead of a progress bar.
		Verbose bool
	}

	// BuildResult identifies the built image.
	BuildResult struct {
		Tag     string
		ImageID string
	}

	// DirectoryError reports an unusable output directory.
	DirectoryError struct {
		Path string
		Err  error
	}
)

// NewService creates a Service.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	return &Service{
		validator: imageconfig.NewValidator(opts.Checker, logger),
		versions:  opts.Versions,
		engine:    opts.Engine,
		logger:    logger,
		namespace: opts.Namespace,
		stdout:    stdout,
	}
}

func (e *DirectoryError) Error() string {
	if errors.Is(e.Err, ErrNotWritable) {
		return fmt.Sprintf("We do not have write access to '%s'", e.Path)
	}
	return fmt.Sprintf("The path '%s' is not a valid directory.", e.Path)
}

func (e *DirectoryError) Unwrap() error {
	return e.Err
}

// Generate validates the configuration and writes the Dockerfile and its
// assets into an existing directory, overwriting previous files.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if err := checkDir(req.Dir); err != nil {
		return nil, err
	}
	plan, content, err := s.prepare(ctx, req.Config)
	if err != nil {
		return nil, err
	}
	files, err := writeFolder(req.Dir, content)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("build folder written", "dir", req.Dir, "files", len(files))
	return &GenerateResult{Dir: req.Dir, Files: files, Plan: plan}, nil
}

// Build generates the folder in a temporary directory and hands it to the
// container engine.
func (s *Service) Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	if s.engine == nil {
		return nil, ErrNoEngine
	}
	_, content, err := s.prepare(ctx, req.Config)
	if err != nil {
		return nil, err
	}

	tag := req.Tag
	if tag == "" {
		tag = dockerfile.ImageTag(req.Config, s.namespace)
	}

	dir, err := os.MkdirTemp("", "turludock-")
	if err != nil {
		return nil, fmt.Errorf("creating build folder: %w", err)
	}
	defer os.RemoveAll(dir)
	if _, err := writeFolder(dir, content); err != nil {
		return nil, err
	}

	engine, err := s.engine(ctx)
	if err != nil {
		return nil, err
	}
	defer engine.Close()
	s.logger.Debug("building image", "engine", engine.Name(), "tag", tag, "context", dir)

	opts := container.BuildOptions{
		ContextDir: dir,
		Dockerfile: DockerfileName,
		Tags:       []string{tag},
		NoCache:    req.NoCache,
	}
	if req.Verbose {
		opts.OnStream = func(msg string) {
			fmt.Fprint(s.stdout, msg)
		}
	} else {
		bar := progress.New(s.stdout)
		defer bar.Finish()
		opts.OnStream = bar.Advance
	}

	res, err := engine.Build(ctx, opts)
	if err != nil {
		var buildErr *container.BuildError
		if req.Verbose && errors.As(err, &buildErr) {
			fmt.Fprintln(s.stdout, buildErr.Message)
		}
		return nil, err
	}
	return &BuildResult{Tag: tag, ImageID: res.ImageID}, nil
}

// Render validates the configuration and returns the Dockerfile without
// writing anything.
func (s *Service) Render(ctx context.Context, cfg *imageconfig.ImageConfig) (string, error) {
	_, content, err := s.prepare(ctx, cfg)
	return content, err
}

func (s *Service) prepare(ctx context.Context, cfg *imageconfig.ImageConfig) (*dockerfile.Plan, string, error) {
	if cfg == nil {
		return nil, "", fmt.Errorf("%w: no image configuration", imageconfig.ErrInvalidConfig)
	}
	if err := s.validator.Validate(ctx, cfg); err != nil {
		return nil, "", err
	}
	plan, err := dockerfile.Resolve(ctx, cfg, s.versions)
	if err != nil {
		return nil, "", err
	}
	for _, w := range plan.Warnings {
		s.logger.Warn(w)
	}
	content, err := dockerfile.Compose(plan)
	if err != nil {
		return nil, "", err
	}
	return plan, content, nil
}

func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return &DirectoryError{Path: dir, Err: ErrNotADirectory}
	}
	tmp, err := os.CreateTemp(dir, ".turludock-*")
	if err != nil {
		return &DirectoryError{Path: dir, Err: fmt.Errorf("%w: %w", ErrNotWritable, err)}
	}
	name := tmp.Name()
	_ = tmp.Close()
	_ = os.Remove(name)
	return nil
}

func writeFolder(dir, content string) ([]string, error) {
	path := filepath.Join(dir, DockerfileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := assets.WriteTo(dir); err != nil {
		return nil, err
	}
	return append([]string{DockerfileName}, assets.Names()...), nil
}
