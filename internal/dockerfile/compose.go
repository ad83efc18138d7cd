// SPDX-License-Identifier: MPL-2.0

package dockerfile

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/turlucode/turludock/internal/compat"
	"github.com/turlucode/turludock/pkg/imageconfig"
)

var (
	//go:embed templates/*.tmpl
	templateFS embed.FS

	loadTemplates = sync.OnceValues(func() (*template.Template, error) {
		funcs := sprig.TxtFuncMap()
		funcs["cudaSuffix"] = compat.CUDAPackageSuffix
		funcs["cudaShort"] = compat.CUDAShort
		return template.New("dockerfile").Funcs(funcs).Option("missingkey=error").ParseFS(templateFS, "templates/*.tmpl")
	})

	// packageFragments maps extra packages to their fragment. CMake is
	// installed unconditionally earlier, so it only contributes a label.
	packageFragments = map[imageconfig.PackageName]string{
		imageconfig.PackageTmux:    "tmux",
		imageconfig.PackageLLVM:    "llvm",
		imageconfig.PackageMeld:    "meld",
		imageconfig.PackageCpplint: "cpplint",
		imageconfig.PackageConan:   "conan",
		imageconfig.PackageVSCode:  "vscode",
	}
)

// Fragments returns the template names Compose renders for p, in order.
func Fragments(p *Plan) []string {
	var out []string
	if p.Ubuntu.After(compat.Ubuntu2304) {
		out = append(out, "from_2404")
	} else {
		out = append(out, "from")
	}
	out = append(out,
		"header_info",
		"common_env_config",
		"install_common_packages",
		"locale",
		"cmake",
		"terminator",
		"oh_my_zsh",
	)

	if !p.Config.UsesNvidia() {
		switch {
		case p.Ubuntu.Before(compat.Ubuntu2004), p.Ubuntu.After(compat.Ubuntu2204):
			out = append(out, "mesa")
		default:
			out = append(out, "mesa_latest")
		}
	}

	if p.CUDA != nil {
		out = append(out, "cuda_base", "cuda_devel", "cuda_runtime")
		if p.CUDNN != nil {
			out = append(out, "cudnn_devel", "cudnn_runtime")
		}
	}

	if p.Distro.Major == 1 {
		out = append(out, "ros1")
	} else {
		out = append(out, "ros2")
	}

	for _, pkg := range p.Config.ExtraPackages {
		if name, ok := packageFragments[pkg.Name]; ok {
			out = append(out, name)
		}
	}

	return append(out, "extra_packages_label", "entrypoint", "cmd")
}

// Compose renders the Dockerfile for p. Each fragment is followed by a
// blank line.
func Compose(p *Plan) (string, error) {
	tmpl, err := loadTemplates()
	if err != nil {
		return "", fmt.Errorf("internal error: parsing Dockerfile templates: %w", err)
	}

	var out strings.Builder
	var buf bytes.Buffer
	for _, name := range Fragments(p) {
		buf.Reset()
		if err := tmpl.ExecuteTemplate(&buf, name+".tmpl", p); err != nil {
			return "", fmt.Errorf("rendering %s fragment: %w", name, err)
		}
		out.WriteString(strings.TrimRight(buf.String(), "\n"))
		out.WriteString("\n\n")
	}
	return out.String(), nil
}
