// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"golang.org/x/term"

	"github.com/turlucode/turludock/internal/app/generate"
	"github.com/turlucode/turludock/internal/config"
	"github.com/turlucode/turludock/internal/container"
	"github.com/turlucode/turludock/internal/issue"
	"github.com/turlucode/turludock/internal/upstream"
	"github.com/turlucode/turludock/pkg/imageconfig"
	"github.com/turlucode/turludock/pkg/platform"
)

// errSourceRequired is returned when neither or both of -c and -e are given.
var errSourceRequired = errors.New("Provide either argument '-c' or argument '-e'") //nolint:staticcheck // user-facing sentence

// renderError is the fang error handler. It prints the error, with its
// suggestions, and the help page of a recognized failure.
func (a *App) renderError(w io.Writer, _ fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}

	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, a.verbose()))

	id := classifyError(err)
	if id == 0 {
		return
	}
	page := issue.Get(id)
	if page == nil {
		return
	}
	rendered, renderErr := page.Render(a.issueStyle())
	if renderErr != nil {
		a.logger.Warn("failed to render issue page", "issue", id, "error", renderErr)
		return
	}
	fmt.Fprint(w, rendered)
}

// issueStyle picks the glamour style for issue pages. Plain output is used
// when stderr is not a terminal.
func (a *App) issueStyle() string {
	if f, ok := a.stderr.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		return "notty"
	}
	if a.settings != nil && a.settings.UI.ColorScheme == config.ColorSchemeLight {
		return "light"
	}
	return "dark"
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// classifyError maps an error to the help page that explains it. It returns
// 0 for errors without a page.
func classifyError(err error) issue.Id {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue != 0 {
		return ae.Issue
	}

	var upErr *imageconfig.UpstreamError
	var rateErr *upstream.RateLimitError
	switch {
	case errors.Is(err, imageconfig.ErrPresetNotFound):
		return issue.PresetNotFoundId
	case errors.As(err, &upErr), errors.As(err, &rateErr):
		return issue.UpstreamUnavailableId
	case errors.Is(err, imageconfig.ErrInvalidConfig):
		return issue.ImageConfigInvalidId
	case errors.Is(err, container.ErrEngineNotAvailable):
		return issue.EngineUnavailableId
	case errors.Is(err, container.ErrBuildFailed):
		return issue.BuildFailedId
	case errors.Is(err, generate.ErrNotWritable), errors.Is(err, os.ErrPermission):
		return issue.PermissionDeniedId
	case errors.Is(err, generate.ErrNotADirectory):
		return issue.OutputDirInvalidId
	case errors.Is(err, config.ErrInvalidConfig):
		return issue.ConfigLoadFailedId
	}
	return 0
}

// wrapServiceError turns a service failure into an ActionableError with a
// help page and suggestions. Errors that already are actionable pass through.
func wrapServiceError(operation, resource string, err error) error {
	if err == nil {
		return nil
	}
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return err
	}

	id := classifyError(err)
	ctx := issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		WithIssue(id).
		Wrap(err)

	switch id {
	case issue.UpstreamUnavailableId:
		ctx.WithSuggestions(
			"Check your network connection",
			"Retry with --offline to use the configured offline versions",
		)
		var rateErr *upstream.RateLimitError
		if errors.As(err, &rateErr) {
			ctx.WithSuggestion("Set GITHUB_TOKEN to raise the GitHub API rate limit")
		}
	case issue.EngineUnavailableId:
		ctx.WithSuggestions(
			"Start the Docker or Podman daemon",
			"Set docker_host in the settings file, or DOCKER_HOST in the environment",
		)
		if hint := platform.EngineSocketHint(platform.DetectSandbox()); hint != "" {
			ctx.WithSuggestion(hint)
		}
	case issue.OutputDirInvalidId:
		ctx.WithSuggestion("Create the directory first, e.g. 'mkdir -p " + resource + "'")
	case issue.BuildFailedId:
		ctx.WithSuggestion("Re-run with -v to see the complete build output")
	}
	return ctx.BuildError()
}
