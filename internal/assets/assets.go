// SPDX-License-Identifier: MPL-2.0

package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	// EntrypointScript is copied into the image and run as its entrypoint.
	EntrypointScript = "entrypoint_setup.sh"
	// TerminatorConfig is the default terminator configuration.
	TerminatorConfig = "terminator_config"
)

//go:embed files/entrypoint_setup.sh files/terminator_config
var files embed.FS

// Names lists the embedded files in the order they are written.
func Names() []string {
	return []string{EntrypointScript, TerminatorConfig}
}

// Read returns the content of an embedded file.
func Read(name string) ([]byte, error) {
	data, err := fs.ReadFile(files, "files/"+name)
	if err != nil {
		return nil, fmt.Errorf("reading embedded asset %s: %w", name, err)
	}
	return data, nil
}

// Mode is the permission an asset is written with.
func Mode(name string) os.FileMode {
	if name == EntrypointScript {
		return 0o755
	}
	return 0o644
}

// WriteTo writes every asset into dir, replacing existing files.
func WriteTo(dir string) error {
	for _, name := range Names() {
		data, err := Read(name)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, Mode(name)); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		// WriteFile leaves the mode of an existing file alone.
		if err := os.Chmod(path, Mode(name)); err != nil {
			return fmt.Errorf("setting mode of %s: %w", path, err)
		}
	}
	return nil
}
