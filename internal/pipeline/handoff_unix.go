// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/pathxcite/pxlaunch/internal/process"
	"github.com/pathxcite/pxlaunch/pkg/types"
)

// ExecHandoff replaces the launcher process with the final step via execve,
// so the application owns the launcher's PID, signals and standard streams.
type ExecHandoff struct{}

// DefaultHandoff returns the process-replacing handoff.
func DefaultHandoff(process.Executor) Handoff {
	return ExecHandoff{}
}

// Replace execs cmd. It only returns when the exec itself fails. The
// command's writers are ignored: the new image inherits the launcher's
// file descriptors 0, 1 and 2.
func (ExecHandoff) Replace(_ context.Context, cmd process.Command) (types.ExitCode, error) {
	if len(cmd.Argv) == 0 {
		return types.ExitGenericFailure, process.ErrEmptyCommand
	}

	argv0, err := exec.LookPath(cmd.Argv[0])
	if err != nil {
		return types.ExitGenericFailure, fmt.Errorf("resolving %s: %w", cmd.Argv[0], err)
	}
	if argv0, err = filepath.Abs(argv0); err != nil {
		return types.ExitGenericFailure, err
	}

	if cmd.Dir != "" {
		if err := os.Chdir(cmd.Dir); err != nil {
			return types.ExitGenericFailure, fmt.Errorf("changing directory to %s: %w", cmd.Dir, err)
		}
	}

	env := append(process.FilterEnv(os.Environ()), cmd.Env...)
	if err := syscall.Exec(argv0, cmd.Argv, env); err != nil { //nolint:gosec // argv comes from configuration
		return types.ExitGenericFailure, fmt.Errorf("exec %s: %w", argv0, err)
	}
	return types.ExitSuccess, nil
}
