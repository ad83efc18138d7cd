// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turlucode/turludock/internal/app/generate"
)

// errBuildGlob is returned when build is given a pattern instead of one file.
var errBuildGlob = errors.New("build takes a single image configuration, patterns are only supported by generate")

type buildOptions struct {
	source  imageSource
	tag     string
	noCache bool
	verbose bool
}

func newBuildCommand(app *App) *cobra.Command {
	opts := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "build (-c FILE | -e PRESET)",
		Short: "Generate the Dockerfile and build the image",
		Long: `Generate the Dockerfile and its assets in a temporary folder and build
the image with the configured container engine.

The image is tagged '<namespace>/ros-<ros>:<gpu>[-cuda<v>][-cudnn<v>][-<pkg>...]'
unless --tag is given.`,
		Example: `  turludock build -e humble_nvidia_cuda12.4.1_cudnn9.1.0
  turludock build -c my_robot.yaml --tag my_robot:latest --no-cache`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.source.check(); err != nil {
				return err
			}
			if opts.source.isGlob() {
				return errBuildGlob
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), app, opts)
		},
	}
	opts.source.register(cmd)
	cmd.Flags().StringVar(&opts.tag, "tag", "", `name and optionally a tag (format: "name:tag")`)
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "do not use cache when building the image")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "show the complete build output")
	return cmd
}

func runBuild(ctx context.Context, app *App, opts *buildOptions) error {
	settings, err := app.Settings(ctx)
	if err != nil {
		return err
	}
	cfg, err := opts.source.load()
	if err != nil {
		return err
	}
	svc, err := app.newService(settings)
	if err != nil {
		return err
	}

	printConfiguration(app.stdout, cfg)
	app.logger.Info("Building image", "config", cfg.Name)
	res, err := svc.Build(ctx, generate.BuildRequest{
		Config:  cfg,
		Tag:     opts.tag,
		NoCache: opts.noCache,
		Verbose: opts.verbose || settings.UI.Verbose,
	})
	if err != nil {
		return wrapServiceError("build image", opts.source.label(), err)
	}

	fmt.Fprintf(app.stdout, "%s Built image: '%s' (%s)\n", SuccessStyle.Render("✓"), res.Tag, res.ImageID)
	return nil
}
