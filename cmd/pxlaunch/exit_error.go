// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/pathxcite/pxlaunch/internal/config"
	"github.com/pathxcite/pxlaunch/internal/issue"
	"github.com/pathxcite/pxlaunch/internal/pipeline"
	"github.com/pathxcite/pxlaunch/internal/provision"
	"github.com/pathxcite/pxlaunch/pkg/platform"
	"github.com/pathxcite/pxlaunch/pkg/types"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE
// handlers. A nil Err means the failure has already been rendered.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// fail renders err with its issue catalog entry on stderr and returns the
// ExitError carrying the exit code the process should end with.
func (a *App) fail(err error, cfg *config.Config) error {
	id := classifyError(err)
	ae := actionable(err, id)

	fmt.Fprintf(a.stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(ae, a.flags.verbose))

	if entry := issue.Get(id); entry != nil {
		rendered, renderErr := entry.Render(colorScheme(cfg))
		if renderErr != nil {
			slog.Warn("failed to render issue catalog entry", "issueID", id, "error", renderErr)
		} else {
			fmt.Fprint(a.stderr, rendered)
		}
	}
	return &ExitError{Code: exitCodeOf(err)}
}

// classifyError maps a failure to its issue catalog ID, or 0 when no entry applies.
func classifyError(err error) issue.Id {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue != 0 {
		return ae.Issue
	}

	switch {
	case errors.Is(err, platform.ErrUnsupportedPlatform):
		return issue.UnsupportedPlatformId
	case errors.Is(err, config.ErrInvalidConfig):
		return issue.ConfigLoadFailedId
	case errors.Is(err, provision.ErrDownloadFailed):
		return issue.DownloadFailedId
	case errors.Is(err, provision.ErrInstallFailed):
		return issue.InstallFailedId
	case errors.Is(err, provision.ErrVersionPinFailed):
		return issue.VersionPinFailedId
	case errors.Is(err, provision.ErrEnvCreateFailed):
		return issue.EnvCreateFailedId
	case errors.Is(err, provision.ErrEnvCreateIncomplete):
		return issue.EnvCreateIncompleteId
	case errors.Is(err, provision.ErrManifestMissing):
		return issue.ManifestMissingId
	case errors.Is(err, provision.ErrPackageManagerBootstrapFailed):
		return issue.PackageManagerBootstrapFailedId
	case errors.Is(err, provision.ErrDependencyInstallFailed):
		return issue.DependencyInstallFailedId
	case errors.Is(err, provision.ErrVerificationFailed):
		return issue.VerificationFailedId
	case errors.Is(err, pipeline.ErrScriptMissing):
		return issue.ScriptMissingId
	case errors.Is(err, pipeline.ErrStepFailed):
		return issue.StepFailedId
	case errors.Is(err, os.ErrPermission):
		return issue.PermissionDeniedId
	}
	return 0
}

// actionable returns err as an ActionableError, describing the failed
// operation from the typed error it carries.
func actionable(err error, id issue.Id) *issue.ActionableError {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae
	}

	ctx := issue.NewErrorContext().WithIssue(id).Wrap(err)
	var (
		pe  *provision.Error
		sfe *pipeline.StepFailedError
	)
	switch {
	case errors.As(err, &pe):
		ctx.WithOperation(pe.Op).WithResource(pe.Path)
	case errors.As(err, &sfe):
		ctx.WithOperation("run the " + sfe.Tag + " step").WithResource(sfe.Script)
	case errors.Is(err, context.Canceled):
		ctx.WithOperation("complete the run")
	default:
		ctx.WithOperation("launch")
	}
	if id != 0 {
		ctx.WithSuggestion("Run again with --verbose for the full error chain")
	}
	return ctx.Build()
}

// exitCodeOf returns the subprocess exit code carried by err, or 1.
func exitCodeOf(err error) types.ExitCode {
	var (
		pe  *provision.Error
		sfe *pipeline.StepFailedError
	)
	code := types.ExitGenericFailure
	switch {
	case errors.As(err, &sfe):
		code = sfe.ExitCode
	case errors.As(err, &pe) && pe.ExitCode != 0:
		code = pe.ExitCode
	}
	if code.IsSuccess() {
		return types.ExitGenericFailure
	}
	return code.Normalize()
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
