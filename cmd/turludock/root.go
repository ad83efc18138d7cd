// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the turludock command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "turludock",
		Short: "ROS docker container generator",
		Long: TitleStyle.Render("turludock") + SubtitleStyle.Render(" - ROS docker container generator") + `

turludock generates Dockerfiles for ROS 1 and ROS 2 development containers
and builds them with Docker or Podman. An image is described by a YAML, TOML
or CUE configuration file, or picked from the embedded pre-configurations.

` + SubtitleStyle.Render("Examples:") + `
  turludock which presets                      List the pre-configurations
  turludock build -e humble_nvidia             Build a pre-configuration
  turludock generate -c my_robot.yaml ./out    Write the build folder only
  turludock init my_robot.yaml                 Create a configuration interactively`,
		Args: cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.applyLogLevel()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetIn(app.stdin)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&app.debug, "debug", "d", false, "enable debug mode")
	pf.StringVar(&app.configPath, "config", "", "settings file (default is $XDG_CONFIG_HOME/turludock/config.cue)")
	pf.BoolVar(&app.offline, "offline", false, "skip upstream version lookups and use the offline defaults")

	rootCmd.AddCommand(
		newBuildCommand(app),
		newGenerateCommand(app),
		newWhichCommand(app),
		newInitCommand(app),
		newConfigCommand(app),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI with the process arguments. This is called by main.main().
func Execute() {
	os.Exit(Run(context.Background(), NewApp(Dependencies{}), os.Args[1:]))
}

// Run executes the command tree with args and returns the process exit code.
func Run(ctx context.Context, app *App, args []string) int {
	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)

	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(app.renderError),
	)
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
