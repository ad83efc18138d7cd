// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turlucode/turludock/internal/compat"
	"github.com/turlucode/turludock/pkg/imageconfig"
)

func newWhichCommand(app *App) *cobra.Command {
	whichCmd := &cobra.Command{
		Use:   "which",
		Short: "List pre-configurations, ROS distributions and CUDA/cuDNN support",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	whichCmd.AddCommand(&cobra.Command{
		Use:   "presets",
		Short: "List the pre-configurations that can be built directly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listPresets(app.stdout)
		},
	})

	whichCmd.AddCommand(&cobra.Command{
		Use:   "ros",
		Short: "List supported ROS versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listROSVersions(app.stdout)
			return nil
		},
	})

	whichCmd.AddCommand(&cobra.Command{
		Use:       "cuda ROS_CODENAME",
		Short:     "List supported CUDA/cuDNN versions for a ROS distribution",
		Args:      cobra.ExactArgs(1),
		ValidArgs: compat.Codenames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			codename := strings.ToLower(args[0])
			found, err := listCUDASupport(app.stdout, codename)
			if err != nil {
				return err
			}
			if !found {
				app.logger.Warnf("No supported CUDA/cuDNN version for ROS %s at this point.", capitalize(codename))
			}
			return nil
		},
	})

	return whichCmd
}

func listPresets(w io.Writer) error {
	presets, err := imageconfig.Presets()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, TitleStyle.Render("Available pre-configurations:"))
	for _, p := range presets {
		fmt.Fprintln(w, formatConfiguration(p))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "> You can directly build a default docker image with: %s\n", hintStyle.Render("turludock build -e CONFIG_NAME"))
	return nil
}

func listROSVersions(w io.Writer) {
	fmt.Fprintln(w, TitleStyle.Render("Supported ROS Versions"))
	fmt.Fprintf(w, "ROS 1: %v\n", compat.CodenamesByMajor(1))
	fmt.Fprintf(w, "ROS 2: %v\n", compat.CodenamesByMajor(2))
}

// listCUDASupport prints the CUDA versions shipped for the distribution's
// Ubuntu release, each followed by its compatible cuDNN versions. It
// reports false when there is nothing to list.
func listCUDASupport(w io.Writer, codename string) (bool, error) {
	distro, err := compat.Lookup(codename)
	if err != nil {
		return false, err
	}
	flat := distro.Ubuntu.Flat()
	cudaVersions := compat.SupportedCUDA(flat)
	if len(cudaVersions) == 0 {
		return false, nil
	}

	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Supported versions for Ubuntu %s (%s):", distro.Ubuntu, codename)))
	for _, cuda := range cudaVersions {
		fmt.Fprintf(w, "*CUDA: %s\n", cuda)
		for _, cudnn := range compat.SupportedCUDNN(cuda, flat) {
			fmt.Fprintf(w, "*CUDA: %s | cuDNN: %s\n", cuda, cudnn)
		}
	}
	return true, nil
}

// formatConfiguration renders one pre-configuration as a table line, e.g.
//
//	humble_mesa          ROS 2 Humble  | Ubuntu 22.04 | GPU: mesa   | CUDA: -      | cuDNN: -        | No extra packages
func formatConfiguration(cfg *imageconfig.ImageConfig) string {
	ros := fmt.Sprintf("ROS ? %s", capitalize(cfg.ROSVersion))
	ubuntu := "?"
	if distro, err := compat.Lookup(cfg.ROSVersion); err == nil {
		ros = distro.Title()
		ubuntu = distro.Ubuntu.String()
	}

	cuda, cudnn := "CUDA: -", "cuDNN: -"
	if cfg.CUDAVersion != "" {
		cuda = "CUDA: " + cfg.CUDAVersion
	}
	if cfg.CUDNNVersion != "" {
		cudnn = "cuDNN: " + cfg.CUDNNVersion
	}

	extra := "No extra packages"
	if len(cfg.ExtraPackages) > 0 {
		pkgs := make([]string, 0, len(cfg.ExtraPackages))
		for _, p := range cfg.ExtraPackages {
			pkgs = append(pkgs, p.String())
		}
		extra = "Extra packages: " + strings.Join(pkgs, " ")
	}

	return fmt.Sprintf("%s %-13s | Ubuntu %s | %-11s | %-12s | %-15s | %s",
		presetNameStyle.Render(fmt.Sprintf("%-20s", cfg.Name)),
		ros, ubuntu, "GPU: "+cfg.GPUDriver.String(), cuda, cudnn, extra)
}

// printConfiguration shows the configuration about to be generated or built.
func printConfiguration(w io.Writer, cfg *imageconfig.ImageConfig) {
	fmt.Fprintln(w, SubtitleStyle.Render("Configuration:"))
	fmt.Fprintln(w, formatConfiguration(cfg))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
