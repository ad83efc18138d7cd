// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/turlucode/turludock/internal/app/generate"
	"github.com/turlucode/turludock/internal/watch"
	"github.com/turlucode/turludock/pkg/imageconfig"
)

// errWatchNeedsFile is returned for --watch combined with -e.
var errWatchNeedsFile = errors.New("--watch requires an image configuration file given with '-c'")

type generateOptions struct {
	source imageSource
	dir    string
	watch  bool
}

func newGenerateCommand(app *App) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate (-c FILE | -e PRESET) PATH",
		Short: "Generate the Dockerfile and its assets for a manual build",
		Long: `Generate the Dockerfile and the assets it copies into PATH, which must be
an existing, writable directory. Existing files are overwritten.

-c also accepts a pattern such as 'robots/**/*.yaml'. Every matching
configuration is generated into PATH/<name>, where <name> is the file name
without extension.

With --watch the folder is regenerated every time the configuration file
changes, until the command is interrupted. With a pattern, new and changed
matching files are generated as they appear.`,
		Example: `  turludock generate -e jazzy_mesa ./build
  turludock generate -c my_robot.yaml ./build --watch
  turludock generate -c 'robots/*.yaml' ./build --watch`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.source.check(); err != nil {
				return err
			}
			if opts.watch && opts.source.file == "" {
				return errWatchNeedsFile
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.dir = args[0]
			return runGenerate(cmd.Context(), app, opts)
		},
	}
	opts.source.register(cmd)
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "regenerate when the configuration file changes")
	return cmd
}

func runGenerate(ctx context.Context, app *App, opts *generateOptions) error {
	settings, err := app.Settings(ctx)
	if err != nil {
		return err
	}
	svc, err := app.newService(settings)
	if err != nil {
		return err
	}
	if opts.source.isGlob() {
		return runGenerateAll(ctx, app, svc, opts)
	}

	if err := generateOnce(ctx, app, svc, opts); err != nil {
		if !opts.watch {
			return err
		}
		// A broken file is expected while editing; keep watching.
		app.logger.Error(formatErrorForDisplay(err, app.verbose()))
	}
	if !opts.watch {
		return nil
	}

	return runWatcher(ctx, app, opts.source.file, watch.Config{
		Files: []string{opts.source.file},
		OnChange: func(ctx context.Context, changed []string) error {
			app.logger.Debug("configuration changed", "paths", changed)
			return generateOnce(ctx, app, svc, opts)
		},
	})
}

// runGenerateAll generates every configuration matching the -c pattern into
// its own subfolder of the output directory.
func runGenerateAll(ctx context.Context, app *App, svc *generate.Service, opts *generateOptions) error {
	pattern := opts.source.file
	files, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return fmt.Errorf("expanding %q: %w", pattern, err)
	}
	if len(files) == 0 && !opts.watch {
		return fmt.Errorf("no image configuration matches %q", pattern)
	}

	var errs []error
	for _, f := range files {
		if err := generateInto(ctx, app, svc, f, opts.dir); err != nil {
			errs = append(errs, err)
		}
	}
	if !opts.watch {
		return errors.Join(errs...)
	}
	for _, err := range errs {
		app.logger.Error(formatErrorForDisplay(err, app.verbose()))
	}

	base, rel := doublestar.SplitPattern(filepath.ToSlash(pattern))
	return runWatcher(ctx, app, pattern, watch.Config{
		BaseDir:  filepath.FromSlash(base),
		Patterns: []string{rel},
		OnChange: func(ctx context.Context, changed []string) error {
			app.logger.Debug("configurations changed", "paths", changed)
			var errs []error
			for _, path := range changed {
				// Removed files have nothing left to generate.
				if _, err := os.Stat(path); err != nil {
					continue
				}
				errs = append(errs, generateInto(ctx, app, svc, path, opts.dir))
			}
			return errors.Join(errs...)
		},
	})
}

func runWatcher(ctx context.Context, app *App, label string, cfg watch.Config) error {
	cfg.Logger = app.logger
	w, err := watch.New(cfg)
	if err != nil {
		return fmt.Errorf("watching %s: %w", label, err)
	}
	app.logger.Info("Watching for changes, press Ctrl+C to stop", "file", label)
	return w.Run(ctx)
}

func generateOnce(ctx context.Context, app *App, svc *generate.Service, opts *generateOptions) error {
	cfg, err := opts.source.load()
	if err != nil {
		return err
	}
	return generateConfig(ctx, app, svc, cfg, opts.dir)
}

// generateInto generates the configuration at path into dir/<name>,
// creating the subfolder when needed.
func generateInto(ctx context.Context, app *App, svc *generate.Service, path, dir string) error {
	cfg, err := loadImageConfigFile(path)
	if err != nil {
		return err
	}
	target := filepath.Join(dir, cfg.Name)
	if err := os.Mkdir(target, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		dirErr := &generate.DirectoryError{Path: dir, Err: generate.ErrNotADirectory}
		if errors.Is(err, fs.ErrPermission) {
			dirErr.Err = generate.ErrNotWritable
		}
		return wrapServiceError("generate build folder", dir, dirErr)
	}
	return generateConfig(ctx, app, svc, cfg, target)
}

func generateConfig(ctx context.Context, app *App, svc *generate.Service, cfg *imageconfig.ImageConfig, dir string) error {
	printConfiguration(app.stdout, cfg)
	res, err := svc.Generate(ctx, generate.GenerateRequest{Config: cfg, Dir: dir})
	if err != nil {
		return wrapServiceError("generate build folder", dir, err)
	}
	app.logger.Debug("generated files", "files", res.Files)
	fmt.Fprintf(app.stdout, "%s Populated folder: '%s'\n", SuccessStyle.Render("✓"), res.Dir)
	return nil
}
