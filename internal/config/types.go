// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pathxcite/pxlaunch/internal/download"
	"github.com/pathxcite/pxlaunch/pkg/platform"
	"github.com/pathxcite/pxlaunch/pkg/types"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultRuntimeVersion is the interpreter version pinned when none is configured.
	DefaultRuntimeVersion types.RuntimeVersion = "3.11"
	// DefaultArtifactBaseURL is where runtime-distribution installers are downloaded from.
	DefaultArtifactBaseURL = "https://repo.anaconda.com/miniconda"
	// DefaultGetPipURL is the fallback package-manager bootstrap script.
	DefaultGetPipURL = "https://bootstrap.pypa.io/get-pip.py"
	// DefaultShebangLimit is the longest interpreter path a POSIX shebang line tolerates.
	DefaultShebangLimit = 127
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidPipeline is the sentinel error wrapped by InvalidPipelineError.
	ErrInvalidPipeline = errors.New("invalid pipeline")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidPipelineError describes a pipeline step list that cannot be run.
	InvalidPipelineError struct {
		Index  int
		Reason string
	}

	// InvalidConfigError aggregates every field error found by Config.Validate.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the launcher configuration. It is loaded once and then
	// passed around by value.
	Config struct {
		Runtime      RuntimeConfig      `json:"runtime" mapstructure:"runtime" toml:"runtime" yaml:"runtime"`
		Environment  EnvironmentConfig  `json:"environment" mapstructure:"environment" toml:"environment" yaml:"environment"`
		Dependencies DependenciesConfig `json:"dependencies" mapstructure:"dependencies" toml:"dependencies" yaml:"dependencies"`
		Pipeline     PipelineConfig     `json:"pipeline" mapstructure:"pipeline" toml:"pipeline" yaml:"pipeline"`
		UI           UIConfig           `json:"ui" mapstructure:"ui" toml:"ui" yaml:"ui"`
	}

	// RuntimeConfig configures the base runtime distribution.
	RuntimeConfig struct {
		Version         types.RuntimeVersion `json:"version" mapstructure:"version" toml:"version" yaml:"version"`
		Dir             string               `json:"dir" mapstructure:"dir" toml:"dir" yaml:"dir"`
		ArtifactBaseURL string               `json:"artifact_base_url" mapstructure:"artifact_base_url" toml:"artifact_base_url" yaml:"artifact_base_url"`
		// ArtifactSHA256 is optional; when empty the installer is not checksummed.
		ArtifactSHA256 string `json:"artifact_sha256,omitempty" mapstructure:"artifact_sha256" toml:"artifact_sha256,omitempty" yaml:"artifact_sha256,omitempty"`
	}

	// EnvironmentConfig configures the isolated environment.
	EnvironmentConfig struct {
		Dir          string `json:"dir" mapstructure:"dir" toml:"dir" yaml:"dir"`
		ShebangLimit int    `json:"shebang_limit" mapstructure:"shebang_limit" toml:"shebang_limit" yaml:"shebang_limit"`
	}

	// DependenciesConfig configures the package manifest and the probes.
	DependenciesConfig struct {
		Manifest        string   `json:"manifest" mapstructure:"manifest" toml:"manifest" yaml:"manifest"`
		RequiredModules []string `json:"required_modules" mapstructure:"required_modules" toml:"required_modules" yaml:"required_modules"`
		NativeModules   []string `json:"native_modules" mapstructure:"native_modules" toml:"native_modules" yaml:"native_modules"`
		GetPipURL       string   `json:"get_pip_url" mapstructure:"get_pip_url" toml:"get_pip_url" yaml:"get_pip_url"`
	}

	// PipelineConfig lists the scripts run after verification.
	PipelineConfig struct {
		Steps []StepConfig `json:"steps" mapstructure:"steps" toml:"steps" yaml:"steps"`
	}

	// StepConfig is one pipeline script.
	StepConfig struct {
		Script   string `json:"script" mapstructure:"script" toml:"script" yaml:"script"`
		Tag      string `json:"tag" mapstructure:"tag" toml:"tag" yaml:"tag"`
		Required bool   `json:"required" mapstructure:"required" toml:"required" yaml:"required"`
		Handoff  bool   `json:"handoff" mapstructure:"handoff" toml:"handoff" yaml:"handoff"`
	}

	// UIConfig contains UI-related configuration.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme" toml:"color_scheme" yaml:"color_scheme"`
		Verbose     bool        `json:"verbose" mapstructure:"verbose" toml:"verbose" yaml:"verbose"`
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			Version:         DefaultRuntimeVersion,
			Dir:             "miniconda3",
			ArtifactBaseURL: DefaultArtifactBaseURL,
		},
		Environment: EnvironmentConfig{
			Dir:          "venv",
			ShebangLimit: DefaultShebangLimit,
		},
		Dependencies: DependenciesConfig{
			Manifest:        "requirements.txt",
			RequiredModules: []string{"numpy", "pandas", "requests", "scipy", "statsmodels", "PyQt5"},
			NativeModules:   []string{"PyQt5.QtWebEngineWidgets", "PyQt5.sip"},
			GetPipURL:       DefaultGetPipURL,
		},
		Pipeline: PipelineConfig{
			Steps: []StepConfig{
				{Script: "test_imports.py", Tag: "import check", Required: true},
				{Script: "setup_gmt_files.py", Tag: "dataset bootstrap", Required: false},
				{Script: "main.py", Tag: "application", Required: true, Handoff: true},
			},
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// ProbeModules returns the required modules followed by the native-binding
// submodules, without duplicates, in declaration order.
func (d DependenciesConfig) ProbeModules() []string {
	seen := make(map[string]bool, len(d.RequiredModules)+len(d.NativeModules))
	out := make([]string, 0, len(d.RequiredModules)+len(d.NativeModules))
	for _, m := range append(append([]string{}, d.RequiredModules...), d.NativeModules...) {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// Validate returns nil if the ColorScheme is one of the defined schemes.
func (c ColorScheme) Validate() error {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return &InvalidColorSchemeError{Value: c}
	}
}

// String returns the string representation of the ColorScheme.
func (c ColorScheme) String() string { return string(c) }

// Error implements the error interface.
func (e *InvalidPipelineError) Error() string {
	return fmt.Sprintf("pipeline.steps[%d]: %s", e.Index, e.Reason)
}

// Unwrap returns ErrInvalidPipeline for errors.Is() compatibility.
func (e *InvalidPipelineError) Unwrap() error { return ErrInvalidPipeline }

// Validate checks the step list: every step needs a script and a tag, and
// at most one step may hand off, which must then be the last one.
func (p PipelineConfig) Validate() error {
	for i, s := range p.Steps {
		if strings.TrimSpace(s.Script) == "" {
			return &InvalidPipelineError{Index: i, Reason: "script must not be empty"}
		}
		if strings.TrimSpace(s.Tag) == "" {
			return &InvalidPipelineError{Index: i, Reason: "tag must not be empty"}
		}
		if s.Handoff && i != len(p.Steps)-1 {
			return &InvalidPipelineError{Index: i, Reason: "only the last step may hand off"}
		}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns the field errors and ErrInvalidConfig so that both
// errors.Is(err, ErrInvalidConfig) and checks for specific field sentinels work.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Validate checks every field that CUE cannot check once environment
// overrides have been applied.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Runtime.Version.Validate(); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.Runtime.Dir) == "" {
		errs = append(errs, errors.New("runtime.dir must not be empty"))
	}
	if c.Runtime.ArtifactSHA256 != "" {
		if err := download.ValidateChecksum(c.Runtime.ArtifactSHA256); err != nil {
			errs = append(errs, fmt.Errorf("runtime.artifact_sha256: %w", err))
		}
	}
	if strings.TrimSpace(c.Environment.Dir) == "" {
		errs = append(errs, errors.New("environment.dir must not be empty"))
	}
	if c.Environment.ShebangLimit <= 0 {
		errs = append(errs, fmt.Errorf("environment.shebang_limit must be positive, got %d", c.Environment.ShebangLimit))
	}
	for _, dir := range []string{c.Runtime.Dir, c.Environment.Dir} {
		if err := platform.CheckPortablePath(dir); err != nil {
			errs = append(errs, err)
		}
	}
	if strings.TrimSpace(c.Dependencies.Manifest) == "" {
		errs = append(errs, errors.New("dependencies.manifest must not be empty"))
	}
	if err := c.Pipeline.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.UI.ColorScheme.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}
