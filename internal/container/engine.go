// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

const (
	EngineTypeDocker EngineType = "docker"
	EngineTypePodman EngineType = "podman"
)

var (
	// ErrEngineNotAvailable is returned when no container engine can be reached.
	ErrEngineNotAvailable = errors.New("container engine not available")

	// ErrUnknownEngine is returned for an engine name other than docker or podman.
	ErrUnknownEngine = errors.New("unknown container engine")

	// ErrBuildFailed is returned when the engine reports an error in the
	// build stream.
	ErrBuildFailed = errors.New("image build failed")
)

type (
	// EngineType identifies the container engine.
	EngineType string

	// Engine builds images.
	Engine interface {
		// Name returns the engine name (docker or podman).
		Name() string
		// Available returns nil when the engine daemon answers.
		Available(ctx context.Context) error
		// Build builds an image from a context directory.
		Build(ctx context.Context, opts BuildOptions) (*BuildResult, error)
		// Close releases the connection to the daemon.
		Close() error
	}

	// BuildOptions contains options for building an image.
	BuildOptions struct {
		// ContextDir is the build context directory.
		ContextDir string
		// Dockerfile is relative to ContextDir. Defaults to "Dockerfile".
		Dockerfile string
		// Tags are applied to the built image.
		Tags []string
		// NoCache disables the build cache.
		NoCache bool
		// OnStream receives every "stream" message of the build, in order.
		OnStream func(msg string)
	}

	// BuildResult describes a finished build.
	BuildResult struct {
		ImageID string
		Tags    []string
	}

	// EngineNotAvailableError reports an unreachable engine daemon.
	EngineNotAvailableError struct {
		Engine string
		Host   string
		Err    error
	}

	// BuildError is an error reported by the daemon inside the build stream.
	BuildError struct {
		Code    int
		Message string
	}
)

// EngineTypes lists the supported engines.
func EngineTypes() []EngineType {
	return []EngineType{EngineTypeDocker, EngineTypePodman}
}

// ParseEngineType converts a configuration value to an EngineType.
func ParseEngineType(s string) (EngineType, error) {
	t := EngineType(s)
	if !slices.Contains(EngineTypes(), t) {
		return "", fmt.Errorf("%w %q, supported are %v", ErrUnknownEngine, s, EngineTypes())
	}
	return t, nil
}

func (e *EngineNotAvailableError) Error() string {
	msg := fmt.Sprintf("container engine '%s' is not available", e.Engine)
	if e.Host != "" {
		msg += " at " + e.Host
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EngineNotAvailableError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrEngineNotAvailable}
	}
	return []error{ErrEngineNotAvailable, e.Err}
}

func (e *BuildError) Error() string {
	return "Docker build error: " + e.Message
}

func (e *BuildError) Unwrap() error {
	return ErrBuildFailed
}

// Select connects to the preferred engine. When host is empty and the
// preferred engine does not answer, the other engine is tried.
func Select(ctx context.Context, preferred EngineType, host string) (Engine, error) {
	if _, err := ParseEngineType(string(preferred)); err != nil {
		return nil, err
	}

	candidates := []EngineType{preferred}
	if host == "" {
		for _, t := range EngineTypes() {
			if t != preferred {
				candidates = append(candidates, t)
			}
		}
	}

	var errs []error
	for _, t := range candidates {
		engine, err := NewAPIEngine(t, host)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := engine.Available(ctx); err != nil {
			_ = engine.Close()
			errs = append(errs, err)
			continue
		}
		return engine, nil
	}
	return nil, &EngineNotAvailableError{Engine: string(preferred), Host: host, Err: errors.Join(errs...)}
}
