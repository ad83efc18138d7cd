// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"cmp"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/turlucode/turludock/internal/config"
)

// newConfigCommand creates the `turludock config` command tree.
// Subcommands that read settings use the App's ConfigProvider.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage turludock settings",
		Long: `Manage turludock settings.

Settings are stored in:
  - Linux: ~/.config/turludock/config.cue
  - macOS: ~/Library/Application Support/turludock/config.cue
  - Windows: %APPDATA%\turludock\config.cue

Every key can be overridden with a TURLUDOCK_ environment variable, e.g.
TURLUDOCK_NETWORK_OFFLINE=true or TURLUDOCK_CONTAINER_ENGINE=podman.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app.stdout)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the settings file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective settings as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Settings(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.Settings(ctx)
	if err != nil {
		return err
	}

	w := app.stdout
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if cfg.Source != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), cfg.Source)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("container_engine"), valueStyle.Render(cfg.ContainerEngine.String()))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("docker_host"), valueStyle.Render(cmp.Or(cfg.DockerHost, "(engine default)")))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("image_namespace"), valueStyle.Render(cfg.ImageNamespace))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  color_scheme: %s\n", valueStyle.Render(cfg.UI.ColorScheme.String()))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("network"))
	fmt.Fprintf(w, "  offline: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.Network.Offline)))
	fmt.Fprintf(w, "  timeout: %s\n", valueStyle.Render(cfg.Network.Timeout))
	token := "(not set)"
	if cfg.Network.GitHubToken != "" {
		token = "(set)"
	}
	fmt.Fprintf(w, "  github_token: %s\n", valueStyle.Render(token))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("offline_versions"))
	fmt.Fprintf(w, "  cmake: %s\n", valueStyle.Render(cfg.OfflineVersions.CMake))
	fmt.Fprintf(w, "  tmux: %s\n", valueStyle.Render(cfg.OfflineVersions.Tmux))
	fmt.Fprintf(w, "  llvm: %s\n", valueStyle.Render(cfg.OfflineVersions.LLVM))

	return nil
}

func initConfig(w io.Writer) error {
	path, created, err := config.CreateDefaultConfig()
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	if !created {
		fmt.Fprintf(w, "%s Configuration already exists at %s\n", WarningStyle.Render("!"), path)
		return nil
	}
	fmt.Fprintf(w, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfigPath(app *App) error {
	if app.configPath != "" {
		fmt.Fprintf(app.stdout, "Config file: %s\n", app.configPath)
		return nil
	}
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	path, err := config.ConfigFilePath()
	if err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)
	fmt.Fprintf(app.stdout, "Config file: %s\n", path)
	return nil
}
