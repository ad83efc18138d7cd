// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/turlucode/turludock/internal/compat"
	"github.com/turlucode/turludock/pkg/imageconfig"
)

const noneOption = ""

// ImageWizard asks for the fields of a new image configuration. Each step is
// its own form so later choices are computed from earlier answers, which
// also works in accessible mode where huh runs every field in order.
type ImageWizard struct {
	cfg Config
}

// NewImageWizard creates a wizard with the given TUI settings.
func NewImageWizard(cfg Config) *ImageWizard {
	return &ImageWizard{cfg: cfg}
}

// Run asks the questions and returns the resulting configuration. The
// returned configuration has no Name; the caller sets it from the file name.
func (w *ImageWizard) Run(ctx context.Context) (*imageconfig.ImageConfig, error) {
	cfg := &imageconfig.ImageConfig{
		ROSVersion: compat.Codenames()[len(compat.Codenames())-1],
		GPUDriver:  imageconfig.GPUDriverMesa,
	}

	err := newForm(w.cfg, huh.NewGroup(
		huh.NewSelect[string]().
			Title("ROS distribution").
			Options(DistroOptions()...).
			Value(&cfg.ROSVersion),
		huh.NewSelect[imageconfig.GPUDriver]().
			Title("GPU driver").
			Options(GPUDriverOptions()...).
			Value(&cfg.GPUDriver),
	)).RunWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("image wizard: %w", err)
	}

	if cfg.UsesNvidia() {
		if opts := CUDAOptions(cfg.ROSVersion); len(opts) > 1 {
			err := newForm(w.cfg, huh.NewGroup(
				huh.NewSelect[string]().
					Title("CUDA version").
					Options(opts...).
					Value(&cfg.CUDAVersion),
			)).RunWithContext(ctx)
			if err != nil {
				return nil, fmt.Errorf("image wizard: %w", err)
			}
		}
	}

	if cfg.CUDAVersion != "" {
		if opts := CUDNNOptions(cfg.ROSVersion, cfg.CUDAVersion); len(opts) > 1 {
			err := newForm(w.cfg, huh.NewGroup(
				huh.NewSelect[string]().
					Title("cuDNN version").
					Options(opts...).
					Value(&cfg.CUDNNVersion),
			)).RunWithContext(ctx)
			if err != nil {
				return nil, fmt.Errorf("image wizard: %w", err)
			}
		}
	}

	var packages []imageconfig.PackageName
	err = newForm(w.cfg, huh.NewGroup(
		huh.NewMultiSelect[imageconfig.PackageName]().
			Title("Extra packages (latest versions)").
			Options(PackageOptions()...).
			Value(&packages),
	)).RunWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("image wizard: %w", err)
	}
	for _, p := range packages {
		cfg.ExtraPackages = append(cfg.ExtraPackages, imageconfig.ExtraPackage{Name: p})
	}

	return cfg, nil
}

// DistroOptions lists the ROS distributions, oldest first.
func DistroOptions() []huh.Option[string] {
	distros := compat.Distros()
	opts := make([]huh.Option[string], 0, len(distros))
	for _, d := range distros {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s (Ubuntu %s)", d.Title(), d.Ubuntu), d.Codename))
	}
	return opts
}

// GPUDriverOptions lists the GPU drivers.
func GPUDriverOptions() []huh.Option[imageconfig.GPUDriver] {
	drivers := imageconfig.GPUDrivers()
	opts := make([]huh.Option[imageconfig.GPUDriver], 0, len(drivers))
	for _, d := range drivers {
		opts = append(opts, huh.NewOption(d.String(), d))
	}
	return opts
}

// CUDAOptions lists "none" followed by the CUDA versions shipped for the
// Ubuntu release of codename.
func CUDAOptions(codename string) []huh.Option[string] {
	distro, err := compat.Lookup(codename)
	if err != nil {
		return nil
	}
	return withNone(compat.SupportedCUDA(distro.Ubuntu.Flat()))
}

// CUDNNOptions lists "none" followed by the cuDNN versions compatible with cuda.
func CUDNNOptions(codename, cuda string) []huh.Option[string] {
	distro, err := compat.Lookup(codename)
	if err != nil {
		return nil
	}
	return withNone(compat.SupportedCUDNN(cuda, distro.Ubuntu.Flat()))
}

// PackageOptions lists every supported extra package.
func PackageOptions() []huh.Option[imageconfig.PackageName] {
	names := imageconfig.PackageNames()
	opts := make([]huh.Option[imageconfig.PackageName], 0, len(names))
	for _, n := range names {
		opts = append(opts, huh.NewOption(n.String(), n))
	}
	return opts
}

func withNone(versions []string) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(versions)+1)
	opts = append(opts, huh.NewOption("none", noneOption))
	for _, v := range versions {
		opts = append(opts, huh.NewOption(v, v))
	}
	return opts
}

// Confirm asks a yes/no question. Accessible mode defaults to "no".
func Confirm(ctx context.Context, cfg Config, title string) (bool, error) {
	var ok bool
	err := newForm(cfg, huh.NewGroup(
		huh.NewConfirm().Title(title).Value(&ok),
	)).RunWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("confirm: %w", err)
	}
	return ok, nil
}
