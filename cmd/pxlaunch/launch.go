// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pathxcite/pxlaunch/internal/app/launch"
	"github.com/pathxcite/pxlaunch/internal/provision"

	"github.com/spf13/cobra"
)

func newRunCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Provision if needed, verify, then run the application (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.launch(cmd.Context())
		},
	}
}

func newSetupCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Provision and verify the environment without launching",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.setup(cmd.Context())
		},
	}
}

func newVerifyCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that every required module imports in the existing environment",
		Long: `Check that every required module imports in the existing environment.

Nothing is installed or created; a missing environment is reported as a
verification failure.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.verify(cmd.Context())
		},
	}
}

// launch runs the full flow. On POSIX hosts a successful launch does not
// return because the application replaces this process.
func (a *App) launch(ctx context.Context) error {
	o, cfg, err := a.orchestrator(ctx)
	if err != nil {
		return a.fail(err, cfg)
	}
	report, err := o.Run(ctx, launch.ModeLaunch)
	logReport(report)
	if err != nil {
		return a.fail(err, cfg)
	}
	return nil
}

func (a *App) setup(ctx context.Context) error {
	o, cfg, err := a.orchestrator(ctx)
	if err != nil {
		return a.fail(err, cfg)
	}
	report, err := o.Run(ctx, launch.ModeSetup)
	logReport(report)
	if err != nil {
		renderVerification(a.stdout, report.Verification)
		return a.fail(err, cfg)
	}

	fmt.Fprintln(a.stdout, SuccessStyle.Render("✓")+" Environment ready: "+CmdStyle.Render(report.Environment.Root))
	fmt.Fprintf(a.stdout, "  %s %s\n", VerboseHighlightStyle.Render("Interpreter:"), report.Environment.Interpreter)
	fmt.Fprintf(a.stdout, "  %s %s\n", VerboseHighlightStyle.Render("Version:"), report.Environment.Version)
	switch {
	case report.Environment.Created:
		fmt.Fprintf(a.stdout, "  %s created, packages installed\n", VerboseHighlightStyle.Render("Environment:"))
	case report.InstallerRan:
		fmt.Fprintf(a.stdout, "  %s reused, packages installed\n", VerboseHighlightStyle.Render("Environment:"))
	default:
		fmt.Fprintf(a.stdout, "  %s reused, nothing to install\n", VerboseHighlightStyle.Render("Environment:"))
	}
	return nil
}

func (a *App) verify(ctx context.Context) error {
	o, cfg, err := a.orchestrator(ctx)
	if err != nil {
		return a.fail(err, cfg)
	}
	result, err := o.Verify(ctx)
	renderVerification(a.stdout, result)
	if err != nil {
		return a.fail(err, cfg)
	}
	return nil
}

func logReport(r launch.Report) {
	slog.Debug("run finished", "mode", r.Mode.String(), "final", r.Final().String(),
		"installer_ran", r.InstallerRan, "trace", fmt.Sprint(r.Trace))
}

// probeCounts splits the probed modules into passed and failed.
func probeCounts(r provision.VerificationResult) (ok, failed int) {
	failed = len(r.Failures())
	return len(r.Probed) - failed, failed
}
