// SPDX-License-Identifier: MPL-2.0

package progress

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"golang.org/x/term"
)

const (
	// DefaultBarWidth is used when the output is not a terminal.
	DefaultBarWidth = 40
	minBarWidth     = 10
	label           = "|Building..."
)

var (
	stepPattern = regexp.MustCompile(`Step (\d+)/(\d+) :`)
	labelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
)

type (
	// BuildProgress tracks the build steps reported by the engine and redraws
	// one line per update. It is safe for concurrent use.
	BuildProgress struct {
		mu  sync.Mutex
		w   io.Writer
		bar progress.Model
		now func() time.Time
		// columns is the terminal width, 0 when unknown.
		columns int

		start    time.Time
		current  int
		total    int
		started  bool
		finished bool
	}

	// Option configures a BuildProgress.
	Option func(*BuildProgress)
)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *BuildProgress) {
		p.now = now
	}
}

// WithColumns fixes the line width instead of querying the terminal.
func WithColumns(columns int) Option {
	return func(p *BuildProgress) {
		p.columns = columns
	}
}

// New creates a progress bar writing to w. When w is a terminal the bar
// spans its width.
func New(w io.Writer, opts ...Option) *BuildProgress {
	p := &BuildProgress{w: w, now: time.Now, columns: terminalColumns(w)}
	for _, opt := range opts {
		opt(p)
	}
	p.bar = progress.New(
		progress.WithDefaultGradient(),
		progress.WithoutPercentage(),
		progress.WithWidth(barWidth(p.columns)),
	)
	return p
}

// Advance inspects one stream message. The first "Step m/n :" starts the
// bar with n steps and every match moves it forward by one.
func (p *BuildProgress) Advance(msg string) {
	m := stepPattern.FindStringSubmatch(msg)
	if m == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	if !p.started {
		total, err := strconv.Atoi(m[2])
		if err != nil || total <= 0 {
			return
		}
		p.total = total
		p.start = p.now()
		p.started = true
	}
	p.current = min(p.current+1, p.total)
	p.render()
}

// Finish stops rendering. It ends the line if a bar was drawn.
func (p *BuildProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	p.finished = true
	if p.started {
		p.render()
		fmt.Fprintln(p.w)
	}
}

// Steps returns the completed and total step counts.
func (p *BuildProgress) Steps() (current, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.total
}

func (p *BuildProgress) render() {
	fraction := float64(p.current) / float64(p.total)
	line := fmt.Sprintf("%s %s %5.1f%% %s",
		labelStyle.Render(label),
		p.bar.ViewAs(fraction),
		fraction*100,
		FormatElapsed(p.now().Sub(p.start)),
	)
	if p.columns > 0 {
		line = truncate.String(line, uint(p.columns))
	}
	fmt.Fprint(p.w, "\r"+line)
}

// FormatElapsed renders d as H:MM:SS.
func FormatElapsed(d time.Duration) string {
	d = max(d, 0).Truncate(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	return fmt.Sprintf("%d:%02d:%02d", h, m, d/time.Second)
}

func terminalColumns(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// barWidth leaves room for the label, the percentage and the elapsed time.
func barWidth(columns int) int {
	if columns <= 0 {
		return DefaultBarWidth
	}
	reserved := len(label) + len(" 100.0% 0:00:00 ") + 1
	return max(columns-reserved, minBarWidth)
}
