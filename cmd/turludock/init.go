// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/turlucode/turludock/internal/tui"
	"github.com/turlucode/turludock/pkg/imageconfig"
)

// defaultImageConfigFile is written by 'turludock init' without arguments.
const defaultImageConfigFile = "turludock.yaml"

var (
	// errInitNotYAML is returned when the target file is not a YAML file.
	errInitNotYAML = errors.New("init writes YAML files, use a .yaml or .yml extension")
	// errInitAborted is returned when the user declines to overwrite.
	errInitAborted = errors.New("aborted, existing file left untouched")
)

func newInitCommand(app *App) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [FILE]",
		Short: "Create an image configuration interactively",
		Long: `Ask for the ROS distribution, GPU driver, CUDA/cuDNN versions and extra
packages, then write the answers as a YAML image configuration.

Only combinations from the compatibility tables are offered. Prompts are
line based when stdin is not a terminal or ACCESSIBLE is set.`,
		Example: `  turludock init
  turludock init my_robot.yaml && turludock build -c my_robot.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultImageConfigFile
			if len(args) == 1 {
				path = args[0]
			}
			return runInit(cmd.Context(), app, path, force)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file without asking")
	return cmd
}

func runInit(ctx context.Context, app *App, path string, force bool) error {
	if format, err := imageconfig.FormatFromPath(path); err != nil || format != imageconfig.FormatYAML {
		return errInitNotYAML
	}

	settings, err := app.Settings(ctx)
	if err != nil {
		return err
	}
	tuiCfg := app.tuiConfig(settings)

	if _, err := os.Stat(path); err == nil && !force {
		ok, err := tui.Confirm(ctx, tuiCfg, fmt.Sprintf("%s exists. Overwrite?", path))
		if err != nil {
			return err
		}
		if !ok {
			return errInitAborted
		}
	}

	cfg, err := tui.NewImageWizard(tuiCfg).Run(ctx)
	if err != nil {
		return err
	}
	cfg.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if err := imageconfig.NewValidator(nil, app.logger).Validate(ctx, cfg); err != nil {
		return wrapServiceError("create image configuration", path, err)
	}

	data, err := marshalImageConfig(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return wrapServiceError("write image configuration", path, err)
	}

	fmt.Fprintf(app.stdout, "%s Wrote %s\n", SuccessStyle.Render("✓"), path)
	fmt.Fprintf(app.stdout, "> Build it with: %s\n", hintStyle.Render("turludock build -c "+path))
	return nil
}

func marshalImageConfig(cfg *imageconfig.ImageConfig) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# turludock image configuration\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg.Document()); err != nil {
		return nil, fmt.Errorf("encoding image configuration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding image configuration: %w", err)
	}
	return buf.Bytes(), nil
}
