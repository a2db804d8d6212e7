// SPDX-License-Identifier: MPL-2.0

// Package pipeline runs the ordered post-provisioning scripts with the
// environment's interpreter. Optional steps whose script is absent are
// skipped; required steps fail the pipeline. The last step may be a handoff:
// on POSIX systems the launcher process is replaced by the interpreter
// running that script, on Windows it runs as a child whose exit code becomes
// the launcher's.
package pipeline
