// SPDX-License-Identifier: MPL-2.0

//go:build windows

package process

import (
	"os/exec"
	"syscall"
)

func setCommandLine(c *exec.Cmd, cmd Command) {
	if !cmd.VerbatimLastArg {
		return
	}
	c.SysProcAttr = &syscall.SysProcAttr{CmdLine: WindowsCommandLine(cmd.Argv, true)}
}
