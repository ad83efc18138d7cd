// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	// ContainerEngineDocker builds through the Docker daemon.
	ContainerEngineDocker ContainerEngine = "docker"
	// ContainerEnginePodman builds through Podman's Docker-compatible socket.
	ContainerEnginePodman ContainerEngine = "podman"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
	ErrInvalidContainerEngine = errors.New("invalid container engine")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidTimeout is returned when network.timeout is not a positive duration.
	ErrInvalidTimeout = errors.New("invalid network timeout")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ContainerEngine specifies which container engine builds images.
	ContainerEngine string

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// Config holds the turludock settings.
	Config struct {
		// ContainerEngine is "docker" or "podman".
		ContainerEngine ContainerEngine `json:"container_engine" mapstructure:"container_engine"`
		// DockerHost overrides the daemon address of the engine.
		DockerHost string `json:"docker_host" mapstructure:"docker_host"`
		// ImageNamespace prefixes generated image tags.
		ImageNamespace string `json:"image_namespace" mapstructure:"image_namespace"`
		// UI configures terminal output.
		UI UIConfig `json:"ui" mapstructure:"ui"`
		// Network configures upstream version lookups.
		Network NetworkConfig `json:"network" mapstructure:"network"`
		// OfflineVersions replace the latest upstream versions in offline mode.
		OfflineVersions OfflineVersions `json:"offline_versions" mapstructure:"offline_versions"`

		// Source is the file the settings were read from, empty for defaults.
		Source string `json:"-" mapstructure:"-"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose prints the raw build output instead of a progress bar.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// NetworkConfig configures upstream version lookups.
	NetworkConfig struct {
		Offline bool `json:"offline" mapstructure:"offline"`
		// Timeout is a Go duration string applied to each upstream request.
		Timeout string `json:"timeout" mapstructure:"timeout"`
		// GitHubToken authenticates the GitHub tags API.
		GitHubToken string `json:"github_token" mapstructure:"github_token"`
	}

	// OfflineVersions are the package versions used without network access.
	OfflineVersions struct {
		CMake string `json:"cmake" mapstructure:"cmake"`
		Tmux  string `json:"tmux" mapstructure:"tmux"`
		LLVM  string `json:"llvm" mapstructure:"llvm"`
	}

	// InvalidContainerEngineError is returned when a ContainerEngine value is not recognized.
	InvalidContainerEngineError struct {
		Value ContainerEngine
	}

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidConfigError collects the field errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		ContainerEngine: ContainerEngineDocker,
		ImageNamespace:  "turlucode",
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
		Network: NetworkConfig{
			Timeout: "30s",
		},
		OfflineVersions: OfflineVersions{
			CMake: "3.31.6",
			Tmux:  "3.5a",
			LLVM:  "19",
		},
	}
}

func (e ContainerEngine) String() string { return string(e) }

// IsValid returns whether the engine is docker or podman.
func (e ContainerEngine) IsValid() (bool, []error) {
	switch e {
	case ContainerEngineDocker, ContainerEnginePodman:
		return true, nil
	default:
		return false, []error{&InvalidContainerEngineError{Value: e}}
	}
}

func (e *InvalidContainerEngineError) Error() string {
	return fmt.Sprintf("invalid container engine %q (valid: docker, podman)", e.Value)
}

func (e *InvalidContainerEngineError) Unwrap() error { return ErrInvalidContainerEngine }

func (c ColorScheme) String() string { return string(c) }

// IsValid returns whether the scheme is auto, dark or light.
func (c ColorScheme) IsValid() (bool, []error) {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: c}}
	}
}

func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// TimeoutDuration parses Timeout. An empty value means no timeout.
func (n NetworkConfig) TimeoutDuration() (time.Duration, error) {
	if n.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(n.Timeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w %q", ErrInvalidTimeout, n.Timeout)
	}
	return d, nil
}

// IsValid checks the fields CUE cannot fully check, such as the parsed
// timeout, and collects every problem.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if ok, fieldErrs := c.ContainerEngine.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := c.UI.ColorScheme.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if _, err := c.Network.TimeoutDuration(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
