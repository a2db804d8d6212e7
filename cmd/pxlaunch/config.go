// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pathxcite/pxlaunch/internal/config"
	"github.com/pathxcite/pxlaunch/internal/issue"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `pxlaunch config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pxlaunch configuration",
		Long: `Manage pxlaunch configuration.

Configuration is read from the first of:
  - the file given with --config
  - ./pxlaunch.cue in the application directory
  - the user config directory:
      Linux:   ~/.config/pxlaunch/config.cue
      macOS:   ~/Library/Application Support/pxlaunch/config.cue
      Windows: %APPDATA%\pxlaunch\config.cue

Any value can be overridden with a PXLAUNCH_* environment variable,
for example PXLAUNCH_RUNTIME_VERSION=3.12.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var format string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(err, nil)
			}
			out, err := config.Render(cfg, config.Format(format))
			if err != nil {
				return err
			}
			if src := config.SourcePath(app.Config); src != "" {
				fmt.Fprintln(app.stderr, SubtitleStyle.Render("# loaded from "+src))
			} else {
				fmt.Fprintln(app.stderr, SubtitleStyle.Render("# using defaults"))
			}
			_, err = app.stdout.Write(out)
			return err
		},
	}
	showCmd.Flags().StringVarP(&format, "format", "f", string(config.FormatCUE),
		"output format ("+strings.Join(formatNames(), ", ")+")")
	cfgCmd.AddCommand(showCmd)

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration to ./pxlaunch.cue",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.initPath(args)
			if err != nil {
				return err
			}
			written, err := config.WriteDefault(path, force)
			if err != nil {
				return app.fail(issue.NewErrorContext().
					WithOperation("write configuration").
					WithResource(path).
					WithSuggestion("Check that the directory is writable").
					WithIssue(issue.PermissionDeniedId).
					Wrap(err).
					Build(), nil)
			}
			if !written {
				fmt.Fprintf(app.stdout, "%s %s already exists (use --force to overwrite)\n", WarningStyle.Render("!"), path)
				return nil
			}
			fmt.Fprintf(app.stdout, "%s wrote %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(path))
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the user configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	return cfgCmd
}

// initPath returns where `config init` writes: the argument when given,
// otherwise pxlaunch.cue in the application directory.
func (a *App) initPath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	wd, err := a.workDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, config.LocalConfigFileName), nil
}

func formatNames() []string {
	formats := config.Formats()
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return names
}
