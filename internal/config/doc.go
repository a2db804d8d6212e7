// SPDX-License-Identifier: MPL-2.0

// Package config handles launcher configuration using Viper with CUE as the file format.
//
// Every path, the pinned runtime version, the required-module list and the
// pipeline steps have built-in defaults, so the launcher works with no
// configuration file at all. A pxlaunch.cue file in the working directory
// (or the file named by --config, or config.cue in the user configuration
// directory) overrides individual fields, and PXLAUNCH_* environment
// variables override both (e.g., PXLAUNCH_RUNTIME_VERSION=3.12).
//
// Files are validated against an embedded CUE schema (config_schema.cue)
// before being merged into Viper. The loaded Config is treated as an
// immutable value: it is passed by value into the orchestrator.
package config
