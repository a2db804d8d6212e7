// SPDX-License-Identifier: MPL-2.0

// Package platform resolves the host operating system and CPU architecture
// into one of the supported platform identifiers and exposes the small set of
// platform-specific operations the provisioner needs.
//
// The package is organized into two concerns:
//   - detect.go: the closed (OS family, architecture) enumeration and Detect
//   - adapter.go: one Adapter per OS family (POSIX, Windows) that names the
//     runtime-distribution artifact, builds the unattended-installer command,
//     and locates interpreters inside the base runtime and the environment
//   - reserved.go: Windows-reserved path elements, rejected in configured directories
package platform
