// SPDX-License-Identifier: MPL-2.0

// Package download fetches remote artifacts (the runtime-distribution
// installer and the package-manager bootstrap script) into temporary files
// and optionally verifies their SHA256 digest.
//
// The package is organized into two concerns:
//   - client.go: HTTP client with streaming download-to-file
//   - checksum.go: SHA256 digest computation and verification
package download
