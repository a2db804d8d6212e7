// SPDX-License-Identifier: MPL-2.0

// Package types defines small value types shared by the provisioning and
// pipeline packages: process exit codes and pinned runtime versions.
//
// This package is a leaf dependency. Domain packages import it; it never
// imports domain packages.
package types
