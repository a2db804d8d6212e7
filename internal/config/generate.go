// SPDX-License-Identifier: MPL-2.0

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	// FormatCUE renders configuration as a pxlaunch.cue document.
	FormatCUE Format = "cue"
	// FormatTOML renders configuration as TOML.
	FormatTOML Format = "toml"
	// FormatYAML renders configuration as YAML.
	FormatYAML Format = "yaml"
	// FormatJSON renders configuration as indented JSON.
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned by Render for unsupported output formats.
var ErrUnknownFormat = errors.New("unknown output format")

// Format names an output encoding for Render.
type Format string

// Formats lists every supported output format.
func Formats() []Format {
	return []Format{FormatCUE, FormatTOML, FormatYAML, FormatJSON}
}

// Render encodes cfg in the requested format.
func Render(cfg *Config, format Format) ([]byte, error) {
	switch format {
	case FormatCUE, "":
		return []byte(GenerateCUE(cfg)), nil
	case FormatTOML:
		var buf bytes.Buffer
		enc := toml.NewEncoder(&buf)
		enc.SetIndentTables(true)
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("encoding TOML: %w", err)
		}
		return buf.Bytes(), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("encoding YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding YAML: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON:
		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding JSON: %w", err)
		}
		return append(out, '\n'), nil
	default:
		return nil, fmt.Errorf("%w %q (valid: cue, toml, yaml, json)", ErrUnknownFormat, format)
	}
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// pxlaunch configuration file\n")
	sb.WriteString("// Every field is optional; omitted fields keep their built-in defaults.\n\n")

	sb.WriteString("runtime: {\n")
	fmt.Fprintf(&sb, "\tversion:           %q\n", cfg.Runtime.Version)
	fmt.Fprintf(&sb, "\tdir:               %q\n", cfg.Runtime.Dir)
	fmt.Fprintf(&sb, "\tartifact_base_url: %q\n", cfg.Runtime.ArtifactBaseURL)
	if cfg.Runtime.ArtifactSHA256 != "" {
		fmt.Fprintf(&sb, "\tartifact_sha256:   %q\n", cfg.Runtime.ArtifactSHA256)
	}
	sb.WriteString("}\n")

	sb.WriteString("\nenvironment: {\n")
	fmt.Fprintf(&sb, "\tdir:           %q\n", cfg.Environment.Dir)
	fmt.Fprintf(&sb, "\tshebang_limit: %d\n", cfg.Environment.ShebangLimit)
	sb.WriteString("}\n")

	sb.WriteString("\ndependencies: {\n")
	fmt.Fprintf(&sb, "\tmanifest:         %q\n", cfg.Dependencies.Manifest)
	fmt.Fprintf(&sb, "\trequired_modules: %s\n", cueStringList(cfg.Dependencies.RequiredModules))
	fmt.Fprintf(&sb, "\tnative_modules:   %s\n", cueStringList(cfg.Dependencies.NativeModules))
	fmt.Fprintf(&sb, "\tget_pip_url:      %q\n", cfg.Dependencies.GetPipURL)
	sb.WriteString("}\n")

	sb.WriteString("\npipeline: steps: [\n")
	for _, s := range cfg.Pipeline.Steps {
		fmt.Fprintf(&sb, "\t{script: %q, tag: %q, required: %v", s.Script, s.Tag, s.Required)
		if s.Handoff {
			sb.WriteString(", handoff: true")
		}
		sb.WriteString("},\n")
	}
	sb.WriteString("]\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose:      %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}

func cueStringList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
