// SPDX-License-Identifier: MPL-2.0

package imageconfig

import (
	"errors"
	"slices"
	"strings"
)

const (
	// GPUDriverNvidia selects the NVIDIA OpenGL base image and allows CUDA/cuDNN.
	GPUDriverNvidia GPUDriver = "nvidia"
	// GPUDriverMesa selects a plain Ubuntu base image with Mesa drivers.
	GPUDriverMesa GPUDriver = "mesa"

	PackageCMake   PackageName = "cmake"
	PackageTmux    PackageName = "tmux"
	PackageLLVM    PackageName = "llvm"
	PackageVSCode  PackageName = "vscode"
	PackageConan   PackageName = "conan"
	PackageMeld    PackageName = "meld"
	PackageCpplint PackageName = "cpplint"
)

// ErrInvalidConfig is wrapped by every ValidationError.
var ErrInvalidConfig = errors.New("invalid image configuration")

type (
	// GPUDriver is the graphics stack baked into the image.
	GPUDriver string

	// PackageName names an optional tool installed on top of ROS.
	PackageName string

	// ImageConfig is a decoded image configuration.
	ImageConfig struct {
		// Name is the preset name or the file name without extension.
		Name string
		// Filename is the base file name the configuration came from.
		Filename      string
		ROSVersion    string
		GPUDriver     GPUDriver
		CUDAVersion   string
		CUDNNVersion  string
		ExtraPackages []ExtraPackage
	}

	// ExtraPackage is one extra_packages item. An empty Version means latest.
	ExtraPackage struct {
		Name    PackageName
		Version string
	}

	// ValidationError is a user-facing configuration problem.
	ValidationError struct {
		// Field is the top-level key at fault, e.g. "extra_packages".
		Field   string
		Message string
	}
)

// Error implements the error interface.
func (e *ValidationError) Error() string { return e.Message }

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *ValidationError) Unwrap() error { return ErrInvalidConfig }

// GPUDrivers returns the supported drivers.
func GPUDrivers() []GPUDriver {
	return []GPUDriver{GPUDriverNvidia, GPUDriverMesa}
}

// IsValid reports whether the driver is supported.
func (d GPUDriver) IsValid() bool { return slices.Contains(GPUDrivers(), d) }

// String returns the driver name.
func (d GPUDriver) String() string { return string(d) }

// PackageNames returns the supported extra packages.
func PackageNames() []PackageName {
	return []PackageName{PackageTmux, PackageLLVM, PackageVSCode, PackageConan, PackageMeld, PackageCpplint, PackageCMake}
}

// IsValid reports whether the package is supported.
func (p PackageName) IsValid() bool { return slices.Contains(PackageNames(), p) }

// Versioned reports whether the package accepts a pinned version.
func (p PackageName) Versioned() bool {
	return p == PackageCMake || p == PackageTmux || p == PackageLLVM
}

// String returns the package name.
func (p PackageName) String() string { return string(p) }

// String renders the package as "name" or "name-version".
func (p ExtraPackage) String() string {
	if p.Version == "" {
		return string(p.Name)
	}
	return string(p.Name) + "-" + p.Version
}

// UsesNvidia reports whether the configuration targets the NVIDIA driver.
func (c *ImageConfig) UsesNvidia() bool { return c.GPUDriver == GPUDriverNvidia }

// Package returns the extra package with the given name, if configured.
func (c *ImageConfig) Package(name PackageName) (ExtraPackage, bool) {
	for _, p := range c.ExtraPackages {
		if p.Name == name {
			return p, true
		}
	}
	return ExtraPackage{}, false
}

// PackageLabel is the space-separated list of configured extra packages,
// in configuration order.
func (c *ImageConfig) PackageLabel() string {
	names := make([]string, 0, len(c.ExtraPackages))
	for _, p := range c.ExtraPackages {
		names = append(names, string(p.Name))
	}
	return strings.Join(names, " ")
}

// Document converts the configuration back to the generic form the
// loaders produce, ready to be marshalled as YAML.
func (c *ImageConfig) Document() map[string]any {
	doc := map[string]any{
		"ros_version": c.ROSVersion,
		"gpu_driver":  string(c.GPUDriver),
	}
	if c.CUDAVersion != "" {
		doc["cuda_version"] = c.CUDAVersion
	}
	if c.CUDNNVersion != "" {
		doc["cudnn_version"] = c.CUDNNVersion
	}
	if len(c.ExtraPackages) > 0 {
		pkgs := make([]any, 0, len(c.ExtraPackages))
		for _, p := range c.ExtraPackages {
			if p.Version == "" {
				pkgs = append(pkgs, string(p.Name))
				continue
			}
			pkgs = append(pkgs, map[string]any{string(p.Name): p.Version})
		}
		doc["extra_packages"] = pkgs
	}
	return doc
}
