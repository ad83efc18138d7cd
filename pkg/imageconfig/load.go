// SPDX-License-Identifier: MPL-2.0

package imageconfig

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/turlucode/turludock/pkg/cueutil"
)

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatCUE  Format = "cue"
)

var (
	//go:embed schema.cue
	schemaCUE []byte

	// ErrUnknownFormat is returned for file extensions no decoder handles.
	ErrUnknownFormat = errors.New("unknown image configuration format")
)

// Format is the serialization of an image configuration file.
type Format string

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", fmt.Errorf("%w: %q (use .yaml, .yml, .toml or .cue)", ErrUnknownFormat, filepath.Ext(path))
	}
}

// LoadFile reads an image configuration from disk.
func LoadFile(path string) (*ImageConfig, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > cueutil.DefaultMaxFileSize {
		return nil, cueutil.CheckFileSize(make([]byte, info.Size()), cueutil.DefaultMaxFileSize, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, filepath.Base(path), format)
}

// Parse decodes an image configuration document. filename is used for
// error messages and to derive the configuration name.
func Parse(data []byte, filename string, format Format) (*ImageConfig, error) {
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, filename); err != nil {
		return nil, err
	}

	var doc map[string]any
	switch format {
	case FormatYAML:
		var root yaml.Node
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		floatsAsWritten(&root)
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	case FormatCUE:
		res, err := cueutil.ParseAndDecode[map[string]any](schemaCUE, data, "#ImageConfig",
			cueutil.WithFilename(filename), cueutil.WithConcrete(false))
		if err != nil {
			return nil, err
		}
		doc = *res.Value
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if doc == nil {
		doc = map[string]any{}
	}
	if err := cueutil.ValidateValue(schemaCUE, doc, "#ImageConfig", cueutil.WithFilename(filename), cueutil.WithConcrete(false)); err != nil {
		return nil, err
	}

	cfg, err := fromDocument(doc)
	if err != nil {
		return nil, err
	}
	cfg.Filename = filename
	cfg.Name = strings.TrimSuffix(filename, filepath.Ext(filename))
	return cfg, nil
}

func fromDocument(doc map[string]any) (*ImageConfig, error) {
	cfg := &ImageConfig{
		ROSVersion:   scalar(doc["ros_version"]),
		GPUDriver:    GPUDriver(scalar(doc["gpu_driver"])),
		CUDAVersion:  scalar(doc["cuda_version"]),
		CUDNNVersion: scalar(doc["cudnn_version"]),
	}

	items, _ := doc["extra_packages"].([]any)
	for _, item := range items {
		pkg, err := extraPackage(item)
		if err != nil {
			return nil, err
		}
		cfg.ExtraPackages = append(cfg.ExtraPackages, pkg)
	}
	return cfg, nil
}

func extraPackage(item any) (ExtraPackage, error) {
	switch v := item.(type) {
	case string:
		return ExtraPackage{Name: PackageName(v)}, nil
	case map[string]any:
		if len(v) != 1 {
			return ExtraPackage{}, &ValidationError{
				Field:   "extra_packages",
				Message: fmt.Sprintf("'extra_packages: - %s' cannot be a list. Specify only one version.", formatItem(v)),
			}
		}
		for name, version := range v {
			if f, ok := version.(float64); ok && f != math.Trunc(f) {
				return ExtraPackage{}, &ValidationError{
					Field: "extra_packages",
					Message: fmt.Sprintf("'extra_packages: - %s: %s' is a number, quote the version so it is kept as written, e.g. \"%s\"",
						name, scalar(version), scalar(version)),
				}
			}
			return ExtraPackage{Name: PackageName(name), Version: trimVersionPrefix(scalar(version))}, nil
		}
	}
	return ExtraPackage{}, &ValidationError{
		Field:   "extra_packages",
		Message: fmt.Sprintf("'extra_packages: - %v' is neither a package name nor a 'name: version' pair", item),
	}
}

// scalar normalises decoder output to a string. YAML and TOML hand back
// numbers for values such as "llvm: 18" or "cuda_version: 12.4".
func scalar(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1e15 {
			return strconv.FormatInt(int64(n), 10)
		}
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// floatsAsWritten retags unquoted YAML floats as strings so versions such
// as "cmake: 3.30" keep their trailing zeros.
func floatsAsWritten(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!float" {
		n.Tag = "!!str"
	}
	for _, c := range n.Content {
		floatsAsWritten(c)
	}
}

// trimVersionPrefix accepts the upstream tag spelling "v3.28.1".
func trimVersionPrefix(v string) string {
	if len(v) > 1 && (v[0] == 'v' || v[0] == 'V') && v[1] >= '0' && v[1] <= '9' {
		return v[1:]
	}
	return v
}

func formatItem(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+scalar(m[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
