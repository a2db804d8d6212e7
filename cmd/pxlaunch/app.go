// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pathxcite/pxlaunch/internal/app/launch"
	"github.com/pathxcite/pxlaunch/internal/config"
	"github.com/pathxcite/pxlaunch/pkg/platform"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every command handler receives the App and
	// delegates to the launch orchestrator through it.
	App struct {
		Config         config.Provider
		DetectPlatform func() (platform.Platform, error)
		launchOptions  []launch.Option
		stdin          io.Reader
		stdout         io.Writer
		stderr         io.Writer
		flags          globalFlags
		runID          string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config         config.Provider
		DetectPlatform func() (platform.Platform, error)
		// LaunchOptions are appended to every orchestrator the App builds.
		LaunchOptions []launch.Option
		Stdin         io.Reader
		Stdout        io.Writer
		Stderr        io.Writer
	}

	globalFlags struct {
		configPath string
		workDir    string
		verbose    bool
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.DetectPlatform == nil {
		deps.DetectPlatform = platform.Current
	}

	return &App{
		Config:         deps.Config,
		DetectPlatform: deps.DetectPlatform,
		launchOptions:  deps.LaunchOptions,
		stdin:          deps.Stdin,
		stdout:         deps.Stdout,
		stderr:         deps.Stderr,
		runID:          uuid.NewString(),
	}
}

// setupLogging installs a charm logger on stderr as the default slog
// handler. Every record carries the run ID.
func (a *App) setupLogging(verbose bool) {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(a.stderr, log.Options{
		Level:           level,
		Prefix:          config.AppName,
		ReportTimestamp: verbose,
	}).With("run", a.runID[:8])
	slog.SetDefault(slog.New(logger))
}

// workDir returns the absolute application directory.
func (a *App) workDir() (string, error) {
	if a.flags.workDir != "" {
		return filepath.Abs(a.flags.workDir)
	}
	return os.Getwd()
}

// loadConfig loads the configuration for the application directory.
// A verbose setting in the file enables debug logging when --verbose is absent.
func (a *App) loadConfig(ctx context.Context) (*config.Config, string, error) {
	wd, err := a.workDir()
	if err != nil {
		return nil, "", err
	}
	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: a.flags.configPath,
		WorkDir:        wd,
	})
	if err != nil {
		return nil, wd, err
	}
	if cfg.UI.Verbose && !a.flags.verbose {
		a.flags.verbose = true
		a.setupLogging(true)
	}
	if src := config.SourcePath(a.Config); src != "" {
		slog.Debug("configuration loaded", "path", src)
	}
	return cfg, wd, nil
}

// orchestrator loads the configuration, detects the platform and builds an
// orchestrator for the application directory.
func (a *App) orchestrator(ctx context.Context) (*launch.Orchestrator, *config.Config, error) {
	cfg, wd, err := a.loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	plat, err := a.DetectPlatform()
	if err != nil {
		return nil, cfg, err
	}
	slog.Debug("platform detected", "platform", plat.String(), "workdir", wd)

	opts := append([]launch.Option{launch.WithStreams(a.stdin, a.stdout, a.stderr)}, a.launchOptions...)
	return launch.New(*cfg, plat, wd, opts...), cfg, nil
}

// colorScheme returns the glamour style for cfg, defaulting to auto detection.
func colorScheme(cfg *config.Config) string {
	if cfg == nil || cfg.UI.ColorScheme == "" {
		return string(config.ColorSchemeAuto)
	}
	return string(cfg.UI.ColorScheme)
}
