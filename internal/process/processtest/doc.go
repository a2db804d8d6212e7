// SPDX-License-Identifier: MPL-2.0

// Package processtest provides a scriptable fake process.Executor for tests
// that exercise provisioning logic without spawning real processes.
package processtest
