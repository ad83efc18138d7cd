// SPDX-License-Identifier: MPL-2.0

package imageconfig

import (
	"cmp"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/turlucode/turludock/internal/compat"
)

const maxSuggestions = 3

var (
	//go:embed presets/*.yaml
	presetFS embed.FS

	// ErrPresetNotFound is wrapped by PresetNotFoundError.
	ErrPresetNotFound = errors.New("preset not found")
)

// PresetNotFoundError is returned by Preset for unknown names.
type PresetNotFoundError struct {
	Name        string
	Suggestions []string
}

// Error implements the error interface.
func (e *PresetNotFoundError) Error() string {
	return fmt.Sprintf("Provided pre-configuration '%s' doesn't exist! List available with 'turludock which presets'", e.Name)
}

// Unwrap returns ErrPresetNotFound for errors.Is() compatibility.
func (e *PresetNotFoundError) Unwrap() error { return ErrPresetNotFound }

// PresetNames lists the embedded presets, ordered by the release date of
// their ROS distribution and then by name.
func PresetNames() []string {
	entries, err := fs.ReadDir(presetFS, "presets")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	slices.SortFunc(names, comparePresets)
	return names
}

// Preset loads an embedded preset by name.
func Preset(name string) (*ImageConfig, error) {
	data, err := presetFS.ReadFile("presets/" + name + ".yaml")
	if err != nil {
		return nil, &PresetNotFoundError{Name: name, Suggestions: SuggestPresets(name)}
	}
	return Parse(data, name+".yaml", FormatYAML)
}

// Presets loads every embedded preset in PresetNames order.
func Presets() ([]*ImageConfig, error) {
	names := PresetNames()
	out := make([]*ImageConfig, 0, len(names))
	for _, name := range names {
		cfg, err := Preset(name)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

// SuggestPresets returns up to three preset names close to name.
func SuggestPresets(name string) []string {
	names := PresetNames()
	var out []string
	for _, m := range fuzzy.Find(name, names) {
		out = append(out, m.Str)
		if len(out) == maxSuggestions {
			return out
		}
	}
	if len(out) > 0 {
		return out
	}

	// No subsequence match: fall back to presets of the same distribution.
	codename, _, _ := strings.Cut(name, "_")
	for _, n := range names {
		if strings.HasPrefix(n, codename+"_") {
			out = append(out, n)
			if len(out) == maxSuggestions {
				break
			}
		}
	}
	return out
}

func comparePresets(a, b string) int {
	return cmp.Or(
		releaseDate(a).Compare(releaseDate(b)),
		strings.Compare(presetRest(a), presetRest(b)),
	)
}

// releaseDate sorts presets of unknown distributions last.
func releaseDate(preset string) time.Time {
	codename, _, _ := strings.Cut(preset, "_")
	d, err := compat.Lookup(codename)
	if err != nil {
		return time.Unix(1<<62, 0)
	}
	return d.Released
}

func presetRest(preset string) string {
	_, rest, _ := strings.Cut(preset, "_")
	return rest
}
