// SPDX-License-Identifier: MPL-2.0

package dockerfile

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/turlucode/turludock/internal/compat"
	"github.com/turlucode/turludock/pkg/imageconfig"
)

// nvidiaBaseImage is the NVIDIA OpenGL runtime image, suffixed by the
// Ubuntu release.
const nvidiaBaseImage = "nvidia/opengl:1.2-glvnd-runtime-ubuntu"

// ErrUnsupportedUbuntu is returned for Ubuntu releases the NVIDIA base
// image never shipped for.
var ErrUnsupportedUbuntu = errors.New("unsupported Ubuntu version")

type (
	// VersionSource provides the latest version of a package when the
	// configuration does not pin one.
	VersionSource interface {
		LatestVersion(ctx context.Context, pkg imageconfig.PackageName) (string, error)
	}

	// Plan is everything Compose needs, with all versions fixed.
	Plan struct {
		Config    *imageconfig.ImageConfig
		Distro    compat.Distro
		Ubuntu    compat.UbuntuVersion
		BaseImage string

		CMakeVersion string
		TmuxVersion  string
		LLVMVersion  string

		// CUDA and CUDNN are nil when not configured.
		CUDAVersion  string
		CUDNNVersion string
		CUDA         *compat.CUDAEntry
		CUDNN        *compat.CUDNNEntry

		NumCPU       int
		Description  string
		PackageLabel string

		// ExternallyManagedPython is set on releases where pip needs
		// --break-system-packages to install into the system interpreter.
		ExternallyManagedPython bool

		// Warnings are user-facing notes collected while resolving.
		Warnings []string
	}
)

// Resolve fixes every version the Dockerfile needs. cfg must already be
// validated. src is only queried for packages the configuration does not
// pin; CMake is always installed.
func Resolve(ctx context.Context, cfg *imageconfig.ImageConfig, src VersionSource) (*Plan, error) {
	distro, err := compat.Lookup(cfg.ROSVersion)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		Config:                  cfg,
		Distro:                  distro,
		Ubuntu:                  distro.Ubuntu,
		NumCPU:                  max(runtime.NumCPU()-2, 1),
		Description:             Description(cfg),
		PackageLabel:            cfg.PackageLabel(),
		ExternallyManagedPython: !distro.Ubuntu.Before(compat.Ubuntu2304),
	}

	if err := p.resolveBaseImage(); err != nil {
		return nil, err
	}
	if err := p.resolveNvidia(); err != nil {
		return nil, err
	}

	cmakePkg, _ := cfg.Package(imageconfig.PackageCMake)
	if p.CMakeVersion, err = version(ctx, src, imageconfig.PackageCMake, cmakePkg.Version); err != nil {
		return nil, err
	}
	if pkg, ok := cfg.Package(imageconfig.PackageTmux); ok {
		if p.TmuxVersion, err = version(ctx, src, pkg.Name, pkg.Version); err != nil {
			return nil, err
		}
	}
	if pkg, ok := cfg.Package(imageconfig.PackageLLVM); ok {
		if p.LLVMVersion, err = version(ctx, src, pkg.Name, pkg.Version); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Plan) resolveBaseImage() error {
	semantic := p.Ubuntu.String()
	if !p.Config.UsesNvidia() {
		p.BaseImage = "ubuntu:" + semantic
		if p.Ubuntu.Before(compat.Ubuntu2004) {
			p.Warnings = append(p.Warnings, fmt.Sprintf(
				"Ubuntu %s is older than 20.04, so Mesa comes from the Ubuntu archive instead of ppa:kisak/kisak-mesa. "+
					"OpenGL support may be limited.", semantic))
		}
		return nil
	}
	if p.Ubuntu.Before(compat.Ubuntu1604) {
		return fmt.Errorf("%w: Ubuntu version lower than 16.04 is not supported. You provided: %s", ErrUnsupportedUbuntu, semantic)
	}
	if p.Ubuntu.After(compat.Ubuntu2304) {
		p.Warnings = append(p.Warnings, fmt.Sprintf(
			"'%s' does not exist yet for Ubuntu %s. Using 'ubuntu:%s' as base image instead. "+
				"This is experimental. Please report any issues faced.",
			strings.TrimSuffix(nvidiaBaseImage, "-ubuntu"), semantic, semantic))
		p.BaseImage = "ubuntu:" + semantic
		return nil
	}
	p.BaseImage = nvidiaBaseImage + semantic
	return nil
}

func (p *Plan) resolveNvidia() error {
	cfg := p.Config
	if cfg.CUDAVersion == "" {
		return nil
	}
	flat := p.Ubuntu.Flat()
	cuda, err := compat.LookupCUDA(cfg.CUDAVersion, flat)
	if err != nil {
		return err
	}
	p.CUDAVersion = cfg.CUDAVersion
	p.CUDA = &cuda

	if cfg.CUDNNVersion == "" {
		return nil
	}
	cudnn, err := compat.CUDNN(cfg.CUDNNVersion, cfg.CUDAVersion, flat)
	if err != nil {
		return err
	}
	p.CUDNNVersion = cfg.CUDNNVersion
	p.CUDNN = &cudnn
	return nil
}

func version(ctx context.Context, src VersionSource, pkg imageconfig.PackageName, pinned string) (string, error) {
	if pinned != "" {
		return pinned, nil
	}
	if src == nil {
		return "", fmt.Errorf("no version source to resolve the latest %s", pkg)
	}
	v, err := src.LatestVersion(ctx, pkg)
	if err != nil {
		return "", fmt.Errorf("resolving latest %s version: %w", pkg, err)
	}
	return v, nil
}

// Description is the human-readable image label, e.g.
// "ROS 2 Humble | Ubuntu 22.04 | nvidia".
func Description(cfg *imageconfig.ImageConfig) string {
	distro, err := compat.Lookup(cfg.ROSVersion)
	if err != nil {
		return fmt.Sprintf("ROS %s | %s", cfg.ROSVersion, cfg.GPUDriver)
	}
	return fmt.Sprintf("%s | Ubuntu %s | %s", distro.Title(), distro.Ubuntu, cfg.GPUDriver)
}

// DefaultNamespace is the image repository namespace used when none is configured.
const DefaultNamespace = "turlucode"

// ImageTag builds "{namespace}/ros-{ros}:{gpu}[-cuda{v}][-cudnn{v}][-{pkg}...]".
func ImageTag(cfg *imageconfig.ImageConfig, namespace string) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s/ros-%s:%s", namespace, cfg.ROSVersion, cfg.GPUDriver)
	if cfg.CUDAVersion != "" {
		b.WriteString("-cuda" + cfg.CUDAVersion)
		if cfg.CUDNNVersion != "" {
			b.WriteString("-cudnn" + cfg.CUDNNVersion)
		}
	}
	for _, pkg := range cfg.ExtraPackages {
		b.WriteString("-" + string(pkg.Name))
	}
	return b.String()
}
