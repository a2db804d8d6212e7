// SPDX-License-Identifier: MPL-2.0

//go:build windows

package pipeline

import "github.com/pathxcite/pxlaunch/internal/process"

// DefaultHandoff returns a child-process handoff; Windows has no execve.
func DefaultHandoff(exec process.Executor) Handoff {
	return ChildHandoff{Exec: exec}
}
