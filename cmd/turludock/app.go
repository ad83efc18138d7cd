// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/turlucode/turludock/internal/app/generate"
	"github.com/turlucode/turludock/internal/config"
	"github.com/turlucode/turludock/internal/container"
	"github.com/turlucode/turludock/internal/tui"
	"github.com/turlucode/turludock/internal/upstream"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root for
	// the CLI layer: Cobra handlers receive an App and delegate through it.
	App struct {
		Config  ConfigProvider
		Engines EngineOpener

		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer
		getenv func(string) string
		logger *log.Logger

		// Global flags, bound by NewRootCommand.
		debug      bool
		configPath string
		offline    bool

		settingsOnce sync.Once
		settings     *config.Config
		settingsErr  error
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config  ConfigProvider
		Engines EngineOpener
		Stdin   io.Reader
		Stdout  io.Writer
		Stderr  io.Writer
		Getenv  func(string) string
	}

	// ConfigProvider loads the application settings.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// EngineOpener connects to a container engine. An empty host selects the
	// engine's default socket.
	EngineOpener func(ctx context.Context, engine container.EngineType, host string) (container.Engine, error)
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Getenv == nil {
		deps.Getenv = os.Getenv
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Engines == nil {
		deps.Engines = container.Select
	}

	return &App{
		Config:  deps.Config,
		Engines: deps.Engines,
		stdin:   deps.Stdin,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
		getenv:  deps.Getenv,
		logger:  log.NewWithOptions(deps.Stderr, log.Options{Prefix: "turludock"}),
	}
}

// Settings loads the application settings once per App. The --offline flag
// is applied on top of the loaded values.
func (a *App) Settings(ctx context.Context) (*config.Config, error) {
	a.settingsOnce.Do(func() {
		cfg, err := a.Config.Load(ctx, config.LoadOptions{
			ConfigFilePath: a.configPath,
			Getenv:         a.getenv,
		})
		if err != nil {
			a.settingsErr = err
			return
		}
		if a.offline {
			cfg.Network.Offline = true
		}
		a.logger.Debug("settings loaded", "source", cfg.Source, "engine", cfg.ContainerEngine, "offline", cfg.Network.Offline)
		a.settings = cfg
	})
	return a.settings, a.settingsErr
}

// verbose reports whether errors should show their full chain.
func (a *App) verbose() bool {
	if a.debug {
		return true
	}
	return a.settings != nil && a.settings.UI.Verbose
}

func (a *App) applyLogLevel() {
	if a.debug {
		a.logger.SetLevel(log.DebugLevel)
		return
	}
	a.logger.SetLevel(log.InfoLevel)
}

// newService builds the generate service for the loaded settings. Offline
// settings skip every upstream lookup and resolve unpinned packages to the
// configured offline versions.
func (a *App) newService(settings *config.Config) (*generate.Service, error) {
	opts := generate.Options{
		Logger:    a.logger,
		Namespace: settings.ImageNamespace,
		Stdout:    a.stdout,
		Engine: func(ctx context.Context) (container.Engine, error) {
			engineType, err := container.ParseEngineType(string(settings.ContainerEngine))
			if err != nil {
				return nil, err
			}
			return a.Engines(ctx, engineType, settings.DockerHost)
		},
	}

	if settings.Network.Offline {
		opts.Versions = upstream.Offline{
			CMake: settings.OfflineVersions.CMake,
			Tmux:  settings.OfflineVersions.Tmux,
			LLVM:  settings.OfflineVersions.LLVM,
		}
		return generate.NewService(opts), nil
	}

	timeout, err := settings.Network.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{Timeout: timeout}
	resolver := upstream.NewResolver(
		upstream.WithResolverHTTPClient(httpClient),
		upstream.WithGitHubClient(upstream.NewGitHubClient(
			upstream.WithHTTPClient(httpClient),
			upstream.WithToken(settings.Network.GitHubToken),
			upstream.WithUserAgent("turludock/"+Version),
		)),
	)
	opts.Checker = resolver
	opts.Versions = resolver
	return generate.NewService(opts), nil
}

// tuiConfig returns the prompt settings. A non-default stdin (tests, pipes)
// always uses accessible prompts.
func (a *App) tuiConfig(settings *config.Config) tui.Config {
	scheme := ""
	if settings != nil {
		scheme = string(settings.UI.ColorScheme)
	}
	cfg := tui.DefaultConfig(scheme)
	if a.stdin != os.Stdin {
		cfg.Accessible = true
		cfg.Input = tui.LineInput(a.stdin)
		cfg.Output = a.stderr
	}
	return cfg
}
