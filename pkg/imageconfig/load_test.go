// SPDX-License-Identifier: MPL-2.0

package imageconfig

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParse(t *testing.T) {
	t.Parallel()

	want := &ImageConfig{
		Name:         "dev",
		ROSVersion:   "humble",
		GPUDriver:    GPUDriverNvidia,
		CUDAVersion:  "12.4.1",
		CUDNNVersion: "8.9.7",
		ExtraPackages: []ExtraPackage{
			{Name: PackageTmux},
			{Name: PackageLLVM, Version: "18"},
			{Name: PackageCMake, Version: "3.28.1"},
		},
	}

	tests := []struct {
		name     string
		filename string
		format   Format
		data     string
	}{
		{
			name:     "yaml",
			filename: "dev.yaml",
			format:   FormatYAML,
			data: `ros_version: humble
gpu_driver: nvidia
cuda_version: 12.4.1
cudnn_version: 8.9.7
extra_packages:
  - tmux
  - llvm: 18
  - cmake: 3.28.1
`,
		},
		{
			name:     "toml",
			filename: "dev.toml",
			format:   FormatTOML,
			data: `ros_version = "humble"
gpu_driver = "nvidia"
cuda_version = "12.4.1"
cudnn_version = "8.9.7"
extra_packages = ["tmux", { llvm = 18 }, { cmake = "3.28.1" }]
`,
		},
		{
			name:     "cue",
			filename: "dev.cue",
			format:   FormatCUE,
			data: `ros_version:   "humble"
gpu_driver:    "nvidia"
cuda_version:  "12.4.1"
cudnn_version: "8.9.7"
extra_packages: ["tmux", {llvm: 18}, {cmake: "3.28.1"}]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse([]byte(tt.data), tt.filename, tt.format)
			if err != nil {
				t.Fatalf("Parse() unexpected error: %v", err)
			}
			if got.Filename != tt.filename {
				t.Errorf("Filename = %q, want %q", got.Filename, tt.filename)
			}
			if got.Name != want.Name || got.ROSVersion != want.ROSVersion || got.GPUDriver != want.GPUDriver {
				t.Errorf("Parse() = %+v, want %+v", got, want)
			}
			if got.CUDAVersion != want.CUDAVersion || got.CUDNNVersion != want.CUDNNVersion {
				t.Errorf("CUDA/cuDNN = %q/%q, want %q/%q", got.CUDAVersion, got.CUDNNVersion, want.CUDAVersion, want.CUDNNVersion)
			}
			if !slices.Equal(got.ExtraPackages, want.ExtraPackages) {
				t.Errorf("ExtraPackages = %v, want %v", got.ExtraPackages, want.ExtraPackages)
			}
		})
	}
}

func TestParse_NumericScalars(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte("ros_version: noetic\ngpu_driver: nvidia\ncuda_version: 12.4\nextra_packages:\n  - llvm: 18\n"), "n.yaml", FormatYAML)
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	if cfg.CUDAVersion != "12.4" {
		t.Errorf("CUDAVersion = %q, want 12.4", cfg.CUDAVersion)
	}
	if cfg.ExtraPackages[0].Version != "18" {
		t.Errorf("llvm version = %q, want 18", cfg.ExtraPackages[0].Version)
	}
}

func TestParse_VersionsAsWritten(t *testing.T) {
	t.Parallel()

	data := "ros_version: humble\ngpu_driver: mesa\nextra_packages:\n  - cmake: 3.30\n  - tmux: v3.4\n  - llvm: 18\n"
	cfg, err := Parse([]byte(data), "pins.yaml", FormatYAML)
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	want := []ExtraPackage{
		{Name: PackageCMake, Version: "3.30"},
		{Name: PackageTmux, Version: "3.4"},
		{Name: PackageLLVM, Version: "18"},
	}
	if !slices.Equal(cfg.ExtraPackages, want) {
		t.Errorf("ExtraPackages = %v, want %v", cfg.ExtraPackages, want)
	}

	for _, tt := range []struct {
		format Format
		data   string
	}{
		{FormatTOML, "ros_version = \"humble\"\ngpu_driver = \"mesa\"\nextra_packages = [{ cmake = 3.30 }]\n"},
		{FormatCUE, "ros_version: \"humble\"\ngpu_driver: \"mesa\"\nextra_packages: [{cmake: 3.30}]\n"},
	} {
		_, err := Parse([]byte(tt.data), "pins."+string(tt.format), tt.format)
		if err == nil || !strings.Contains(err.Error(), "quote the version") {
			t.Errorf("Parse(%s) error = %v, want a request to quote the version", tt.format, err)
		}
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Parse(%s) error should wrap ErrInvalidConfig", tt.format)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		format  Format
		data    string
		wantErr string
	}{
		{
			name:    "multi-key package",
			format:  FormatYAML,
			data:    "ros_version: humble\ngpu_driver: mesa\nextra_packages:\n  - {llvm: 18, tmux: 3.4}\n",
			wantErr: "'extra_packages: - {llvm: 18, tmux: 3.4}' cannot be a list. Specify only one version.",
		},
		{
			name:    "wrong type",
			format:  FormatYAML,
			data:    "ros_version: [humble]\ngpu_driver: mesa\n",
			wantErr: "bad.yaml: ros_version",
		},
		{
			name:    "nested list in extra packages",
			format:  FormatYAML,
			data:    "ros_version: humble\ngpu_driver: mesa\nextra_packages:\n  - [tmux]\n",
			wantErr: "extra_packages[0]",
		},
		{
			name:    "yaml syntax",
			format:  FormatYAML,
			data:    "ros_version: [humble\n",
			wantErr: "bad.yaml",
		},
		{
			name:    "toml syntax",
			format:  FormatTOML,
			data:    "ros_version = \n",
			wantErr: "bad.yaml",
		},
		{
			name:    "unknown format",
			format:  Format("json"),
			data:    "{}",
			wantErr: "unknown image configuration format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.data), "bad.yaml", tt.format)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(nil, "empty.yaml", FormatYAML)
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	err = NewValidator(nil, nil).Validate(t.Context(), cfg)
	if err == nil || !strings.Contains(err.Error(), "Please a ROS version") {
		t.Errorf("empty document should fail the required-field check, got %v", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	tests := map[string]Format{
		"a.yaml":     FormatYAML,
		"a.YML":      FormatYAML,
		"dir/a.toml": FormatTOML,
		"a.cue":      FormatCUE,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		if err != nil || got != want {
			t.Errorf("FormatFromPath(%q) = %q, %v; want %q", path, got, err, want)
		}
	}

	if _, err := FormatFromPath("a.json"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("FormatFromPath(a.json) error = %v, want ErrUnknownFormat", err)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "my_robot.yml")
	if err := os.WriteFile(path, []byte("ros_version: iron\ngpu_driver: mesa\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() unexpected error: %v", err)
	}
	if cfg.Name != "my_robot" || cfg.Filename != "my_robot.yml" {
		t.Errorf("Name/Filename = %q/%q", cfg.Name, cfg.Filename)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadFile(missing) error = %v, want os.ErrNotExist", err)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := &ImageConfig{
		ROSVersion:    "jazzy",
		GPUDriver:     GPUDriverNvidia,
		CUDAVersion:   "12.6.3",
		ExtraPackages: []ExtraPackage{{Name: PackageMeld}, {Name: PackageTmux, Version: "3.5"}},
	}
	data, err := yaml.Marshal(cfg.Document())
	if err != nil {
		t.Fatal(err)
	}
	back, err := Parse(data, "x.yaml", FormatYAML)
	if err != nil {
		t.Fatalf("Parse(Document()) unexpected error: %v", err)
	}
	if back.CUDAVersion != cfg.CUDAVersion || !slices.Equal(back.ExtraPackages, cfg.ExtraPackages) {
		t.Errorf("round trip = %+v, want %+v", back, cfg)
	}
	if got := back.PackageLabel(); got != "meld tmux" {
		t.Errorf("PackageLabel() = %q", got)
	}
}

func TestExtraPackageString(t *testing.T) {
	t.Parallel()

	if got := (ExtraPackage{Name: PackageLLVM, Version: "18"}).String(); got != "llvm-18" {
		t.Errorf("String() = %q", got)
	}
	if got := (ExtraPackage{Name: PackageMeld}).String(); got != "meld" {
		t.Errorf("String() = %q", got)
	}
	if got := (&ImageConfig{}).PackageLabel(); got != "" {
		t.Errorf("PackageLabel() on no packages = %q, want empty", got)
	}
}
