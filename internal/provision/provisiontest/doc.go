// SPDX-License-Identifier: MPL-2.0

// Package provisiontest provides an in-memory stand-in for a base runtime
// distribution and its isolated environments, for tests that drive the
// provisioning flow without network access or a real interpreter.
package provisiontest
