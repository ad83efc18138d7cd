// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
	"time"
)

func TestContainerEngine_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value ContainerEngine
		valid bool
	}{
		{ContainerEngineDocker, true},
		{ContainerEnginePodman, true},
		{"", false},
		{"Docker", false},
		{"lxc", false},
	}
	for _, tt := range tests {
		ok, errs := tt.value.IsValid()
		if ok != tt.valid {
			t.Errorf("ContainerEngine(%q).IsValid() = %v, want %v", tt.value, ok, tt.valid)
		}
		if !ok && (len(errs) != 1 || !errors.Is(errs[0], ErrInvalidContainerEngine)) {
			t.Errorf("ContainerEngine(%q) errors = %v, want ErrInvalidContainerEngine", tt.value, errs)
		}
	}
}

func TestColorScheme_IsValid(t *testing.T) {
	t.Parallel()

	for _, c := range []ColorScheme{ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight} {
		if ok, _ := c.IsValid(); !ok {
			t.Errorf("ColorScheme(%q) should be valid", c)
		}
	}
	ok, errs := ColorScheme("neon").IsValid()
	if ok || !errors.Is(errs[0], ErrInvalidColorScheme) {
		t.Errorf("ColorScheme(neon).IsValid() = %v, %v", ok, errs)
	}
	var ice *InvalidColorSchemeError
	if !errors.As(errs[0], &ice) || ice.Value != "neon" {
		t.Errorf("errors.As InvalidColorSchemeError failed: %v", errs[0])
	}
}

func TestNetworkConfig_TimeoutDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		timeout string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"30s", 30 * time.Second, false},
		{"1m30s", 90 * time.Second, false},
		{"0s", 0, true},
		{"-5s", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		got, err := NetworkConfig{Timeout: tt.timeout}.TimeoutDuration()
		if (err != nil) != tt.wantErr {
			t.Errorf("TimeoutDuration(%q) error = %v, wantErr %v", tt.timeout, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidTimeout) {
			t.Errorf("TimeoutDuration(%q) error = %v, want ErrInvalidTimeout", tt.timeout, err)
		}
		if got != tt.want {
			t.Errorf("TimeoutDuration(%q) = %v, want %v", tt.timeout, got, tt.want)
		}
	}
}

func TestConfig_IsValid_CollectsErrors(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.ContainerEngine = "lxc"
	cfg.UI.ColorScheme = "neon"
	cfg.Network.Timeout = "never"

	ok, errs := cfg.IsValid()
	if ok || len(errs) != 1 {
		t.Fatalf("IsValid() = %v, %v", ok, errs)
	}
	var ice *InvalidConfigError
	if !errors.As(errs[0], &ice) {
		t.Fatalf("error = %T, want *InvalidConfigError", errs[0])
	}
	if len(ice.FieldErrors) != 3 {
		t.Errorf("FieldErrors = %v, want 3", ice.FieldErrors)
	}
	for _, target := range []error{ErrInvalidConfig, ErrInvalidContainerEngine, ErrInvalidColorScheme, ErrInvalidTimeout} {
		if !errors.Is(errs[0], target) {
			t.Errorf("errors.Is(%v) = false", target)
		}
	}
}
