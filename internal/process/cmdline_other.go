// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package process

import "os/exec"

// setCommandLine is a no-op: POSIX passes argv to the program unjoined.
func setCommandLine(*exec.Cmd, Command) {}
