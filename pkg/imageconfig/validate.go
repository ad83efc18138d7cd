// SPDX-License-Identifier: MPL-2.0

package imageconfig

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/turlucode/turludock/internal/compat"
)

type (
	// TagChecker answers the questions validation has to ask upstream.
	TagChecker interface {
		// TagExists reports whether version is a released tag of pkg
		// (cmake or tmux).
		TagExists(ctx context.Context, pkg PackageName, version string) (bool, error)
		// LLVMVersions lists the LLVM major versions apt.llvm.org ships.
		LLVMVersions(ctx context.Context) ([]string, error)
	}

	// Validator checks an ImageConfig. A nil Checker skips the upstream
	// checks, which is how offline mode works.
	Validator struct {
		Checker TagChecker
		Logger  *log.Logger
	}

	// UpstreamError wraps a failure to reach an upstream source during
	// validation, as opposed to a configuration mistake.
	UpstreamError struct {
		Package PackageName
		Err     error
	}
)

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("checking %s versions upstream: %v", e.Package, e.Err)
}

// Unwrap returns the underlying network error.
func (e *UpstreamError) Unwrap() error { return e.Err }

// NewValidator creates a Validator. logger may be nil.
func NewValidator(checker TagChecker, logger *log.Logger) *Validator {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Validator{Checker: checker, Logger: logger}
}

// Validate runs the checks in a fixed order and returns the first failure:
// required fields, gpu_driver, the NVIDIA setup, ros_version and finally
// extra_packages.
func (v *Validator) Validate(ctx context.Context, cfg *ImageConfig) error {
	if err := checkRequired(cfg); err != nil {
		return err
	}
	if !cfg.GPUDriver.IsValid() {
		return notSupported("gpu_driver", cfg.GPUDriver, GPUDrivers())
	}
	if err := v.checkNvidia(cfg); err != nil {
		return err
	}
	if !compat.IsSupported(cfg.ROSVersion) {
		return notSupported("ros_version", cfg.ROSVersion, compat.Codenames())
	}
	return v.checkExtraPackages(ctx, cfg)
}

func checkRequired(cfg *ImageConfig) error {
	if cfg.ROSVersion == "" {
		return &ValidationError{Field: "ros_version", Message: "Please a ROS version, e.g. 'ros_version: noetic'"}
	}
	if cfg.GPUDriver == "" {
		return &ValidationError{Field: "gpu_driver", Message: "Please a GPU driver, e.g. 'gpu_driver: mesa'"}
	}
	return nil
}

func (v *Validator) checkNvidia(cfg *ImageConfig) error {
	if cfg.CUDNNVersion != "" && cfg.CUDAVersion == "" {
		return &ValidationError{
			Field:   "cudnn_version",
			Message: "CUDNN version was configured, but not the CUDA version. Please configure also CUDA version.",
		}
	}

	if cfg.GPUDriver == GPUDriverMesa {
		if cfg.CUDAVersion != "" {
			v.Logger.Warn("CUDA has been configured although 'gpu_driver: mesa'. Did you mean 'gpu_driver: nvidia' ?")
		}
		if cfg.CUDNNVersion != "" {
			v.Logger.Warn("CUDNN has been configured although 'gpu_driver: mesa'. Did you mean 'gpu_driver: nvidia' ?")
		}
	}

	if cfg.CUDAVersion == "" {
		if cfg.UsesNvidia() {
			v.Logger.Debug("Warning: 'cuda_version' is not set, CUDA will not be installed")
		}
		return nil
	}
	if cfg.CUDNNVersion == "" {
		v.Logger.Debug("Warning: 'cudnn_version' is not set, cuDNN will not be installed")
	}

	// An unknown distribution is reported by the ros_version check that follows.
	distro, lookupErr := compat.Lookup(cfg.ROSVersion)
	if lookupErr != nil {
		return nil //nolint:nilerr // reported by the ros_version check
	}
	ubuntu := distro.Ubuntu.Flat()
	if _, err := compat.LookupCUDA(cfg.CUDAVersion, ubuntu); err != nil {
		return &ValidationError{Field: "cuda_version", Message: err.Error()}
	}
	if cfg.CUDNNVersion != "" {
		if _, err := compat.CUDNN(cfg.CUDNNVersion, cfg.CUDAVersion, ubuntu); err != nil {
			return &ValidationError{Field: "cudnn_version", Message: err.Error()}
		}
	}
	return nil
}

func (v *Validator) checkExtraPackages(ctx context.Context, cfg *ImageConfig) error {
	for _, pkg := range cfg.ExtraPackages {
		if !pkg.Name.IsValid() {
			return &ValidationError{
				Field:   "extra_packages",
				Message: fmt.Sprintf("'extra_packages: - %s' not supported. Supported are %v", pkg.Name, PackageNames()),
			}
		}
		if pkg.Version == "" {
			continue
		}
		if !pkg.Name.Versioned() {
			return &ValidationError{
				Field:   "extra_packages",
				Message: fmt.Sprintf("'extra_packages: - %s: %s' does not take a version. Versions can be set for %v",
					pkg.Name, pkg.Version, []PackageName{PackageCMake, PackageTmux, PackageLLVM}),
			}
		}
		if v.Checker == nil {
			v.Logger.Debug("offline, skipping upstream version check", "package", pkg.Name, "version", pkg.Version)
			continue
		}
		if err := v.checkPinned(ctx, pkg); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) checkPinned(ctx context.Context, pkg ExtraPackage) error {
	if pkg.Name == PackageLLVM {
		versions, err := v.Checker.LLVMVersions(ctx)
		if err != nil {
			return &UpstreamError{Package: pkg.Name, Err: err}
		}
		if !slices.Contains(versions, pkg.Version) {
			return &ValidationError{
				Field:   "extra_packages",
				Message: fmt.Sprintf("LLVM version %s not supported. Supported are: %v", pkg.Version, versions),
			}
		}
		return nil
	}

	ok, err := v.Checker.TagExists(ctx, pkg.Name, pkg.Version)
	if err != nil {
		return &UpstreamError{Package: pkg.Name, Err: err}
	}
	if ok {
		return nil
	}
	msg := "CMake tag not found in remote. Check your configuration."
	if pkg.Name == PackageTmux {
		msg = "Tmux tag not found in remote. Check your configuration."
	}
	return &ValidationError{Field: "extra_packages", Message: msg}
}

func notSupported[T any](key string, value T, supported []T) error {
	return &ValidationError{
		Field:   key,
		Message: fmt.Sprintf("'%s: %v' not supported. Supported are %v", key, value, supported),
	}
}
