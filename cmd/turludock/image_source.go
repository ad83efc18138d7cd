// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turlucode/turludock/internal/issue"
	"github.com/turlucode/turludock/pkg/imageconfig"
)

// imageSource is the -c/-e flag pair shared by build and generate.
type imageSource struct {
	file   string
	preset string
}

func (s *imageSource) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.file, "file", "c", "", "image configuration file (.yaml, .toml or .cue)")
	cmd.Flags().StringVarP(&s.preset, "preset", "e", "", "pre-configuration name, list them with 'turludock which presets'")
	_ = cmd.RegisterFlagCompletionFunc("preset", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return imageconfig.PresetNames(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.MarkFlagFilename("file", "yaml", "yml", "toml", "cue")
}

// check enforces that exactly one of -c and -e is set.
func (s *imageSource) check() error {
	if (s.file == "") == (s.preset == "") {
		return errSourceRequired
	}
	return nil
}

// label names the source in messages.
func (s *imageSource) label() string {
	if s.preset != "" {
		return s.preset
	}
	return s.file
}

// load reads the selected configuration. Unknown presets carry fuzzy
// suggestions; unreadable files point at 'turludock init'.
func (s *imageSource) load() (*imageconfig.ImageConfig, error) {
	if s.preset != "" {
		cfg, err := imageconfig.Preset(s.preset)
		if err == nil {
			return cfg, nil
		}
		ctx := issue.NewErrorContext().
			WithOperation("load pre-configuration").
			WithIssue(issue.PresetNotFoundId).
			Wrap(err)
		var nf *imageconfig.PresetNotFoundError
		if errors.As(err, &nf) {
			for _, name := range nf.Suggestions {
				ctx.WithSuggestion("Did you mean '" + name + "'?")
			}
		}
		return nil, ctx.BuildError()
	}

	return loadImageConfigFile(s.file)
}

// isGlob reports whether -c holds a doublestar pattern instead of a path.
func (s *imageSource) isGlob() bool {
	return s.file != "" && strings.ContainsAny(s.file, "*?[{")
}

// loadImageConfigFile reads one image configuration file, pointing at
// 'turludock init' when it does not exist.
func loadImageConfigFile(path string) (*imageconfig.ImageConfig, error) {
	cfg, err := imageconfig.LoadFile(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil, issue.NewErrorContext().
			WithOperation("load image configuration").
			WithResource(path).
			WithIssue(issue.ImageConfigNotFoundId).
			WithSuggestion("Create one with 'turludock init " + path + "'").
			Wrap(err).
			BuildError()
	}
	return nil, issue.NewErrorContext().
		WithOperation("load image configuration").
		WithResource(path).
		WithIssue(issue.ImageConfigInvalidId).
		Wrap(err).
		BuildError()
}
