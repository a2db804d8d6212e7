// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for pxlaunch.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// newRootCommand builds the command tree. Running the root command without
// a subcommand launches the application.
func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pxlaunch",
		Short: "Provision a pinned Python environment and launch the application",
		Long: TitleStyle.Render("pxlaunch") + SubtitleStyle.Render(" - provision, verify, launch") + `

pxlaunch installs a pinned base runtime, creates an isolated environment
from it, installs the packages listed in requirements.txt, verifies that
every required module imports, and then runs the application's scripts.

Every step is idempotent: a second run reuses what the first one built.

` + SubtitleStyle.Render("Examples:") + `
  pxlaunch                  Provision if needed, then launch
  pxlaunch setup            Provision and verify without launching
  pxlaunch verify           Check the existing environment
  pxlaunch plan             Show what would happen on this machine
  pxlaunch config show      Show the effective configuration`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			app.setupLogging(app.flags.verbose)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.launch(cmd.Context())
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVar(&app.flags.configPath, "config", "", "config file (default is ./pxlaunch.cue, then the user config directory)")
	pf.StringVarP(&app.flags.workDir, "workdir", "C", "", "directory holding the application (default is the current directory)")

	rootCmd.AddCommand(
		newRunCommand(app),
		newSetupCommand(app),
		newVerifyCommand(app),
		newPlanCommand(app),
		newConfigCommand(app),
		newVersionCommand(app),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the launcher's exit code.
// This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code.Normalize()))
		}
		os.Exit(1)
	}
}

// handleError prints errors the commands did not already render.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}
