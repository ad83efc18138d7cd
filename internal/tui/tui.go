// SPDX-License-Identifier: EPL-2.0

package tui

import (
	"bufio"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// Theme represents the visual theme for TUI components.
type Theme string

const (
	// ThemeDefault uses the default huh theme.
	ThemeDefault Theme = "default"
	// ThemeCharm uses the Charm theme, readable on dark terminals.
	ThemeCharm Theme = "charm"
	// ThemeBase16 uses the Base16 theme, readable on light terminals.
	ThemeBase16 Theme = "base16"
)

// Config holds common configuration for TUI components.
type Config struct {
	Theme Theme
	// Accessible switches huh to line-based prompts.
	Accessible bool
	// Input and Output default to stdin and stdout.
	Input  io.Reader
	Output io.Writer
}

// DefaultConfig returns the configuration for the given ui.color_scheme
// setting. Accessible mode is enabled when stdin is not a terminal or the
// ACCESSIBLE environment variable is set; prompts then go to stderr so they
// are not captured by command substitution.
func DefaultConfig(colorScheme string) Config {
	accessible := !isInputTerminal() || os.Getenv("ACCESSIBLE") != ""

	var (
		input  io.Reader = os.Stdin
		output io.Writer = os.Stdout
	)
	if accessible {
		input = LineInput(os.Stdin)
		output = os.Stderr
	}

	return Config{
		Theme:      ThemeForColorScheme(colorScheme),
		Accessible: accessible,
		Input:      input,
		Output:     output,
	}
}

// LineInput returns a reader that yields at most one line per Read.
// Accessible prompts wrap their input in a new scanner per question, so a
// piped answer file must not be consumed in a single Read. Wrap an input
// once and reuse it for every form.
func LineInput(r io.Reader) io.Reader {
	return &lineInput{r: bufio.NewReader(r)}
}

type lineInput struct {
	r       *bufio.Reader
	pending []byte
}

func (l *lineInput) Read(p []byte) (int, error) {
	if len(l.pending) == 0 {
		line, err := l.r.ReadBytes('\n')
		if len(line) == 0 {
			return 0, err
		}
		l.pending = line
	}
	n := copy(p, l.pending)
	l.pending = l.pending[n:]
	return n, nil
}

// ThemeForColorScheme maps ui.color_scheme to a theme.
func ThemeForColorScheme(scheme string) Theme {
	switch scheme {
	case "dark":
		return ThemeCharm
	case "light":
		return ThemeBase16
	default:
		return ThemeDefault
	}
}

func isInputTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func getHuhTheme(t Theme) *huh.Theme {
	switch t {
	case ThemeCharm:
		return huh.ThemeCharm()
	case ThemeBase16:
		return huh.ThemeBase16()
	default:
		return huh.ThemeBase()
	}
}

// newForm applies the shared settings to a form.
func newForm(cfg Config, groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).
		WithTheme(getHuhTheme(cfg.Theme)).
		WithAccessible(cfg.Accessible)
	if cfg.Input != nil {
		form = form.WithInput(cfg.Input)
	}
	if cfg.Output != nil {
		form = form.WithOutput(cfg.Output)
	}
	return form
}
