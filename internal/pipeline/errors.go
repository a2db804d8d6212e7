// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"errors"
	"fmt"

	"github.com/pathxcite/pxlaunch/pkg/types"
)

var (
	// ErrStepFailed is the sentinel wrapped by every StepFailedError.
	ErrStepFailed = errors.New("pipeline step failed")
	// ErrScriptMissing is the cause of a StepFailedError for a required
	// step whose script does not exist.
	ErrScriptMissing = errors.New("script not found")
)

// StepFailedError reports a pipeline step that could not run or exited non-zero.
type StepFailedError struct {
	Tag    string
	Script string
	// Command is the shell-quoted command line, empty when the step never ran.
	Command string
	// ExitCode is the step's exit code, or 1 when no process exit status applies.
	ExitCode types.ExitCode
	Err      error
}

// Error implements the error interface.
func (e *StepFailedError) Error() string {
	msg := fmt.Sprintf("%s step (%s) failed", e.Tag, e.Script)
	if e.Command != "" {
		msg += "\n  command: " + e.Command
	}
	msg += fmt.Sprintf("\n  exit code: %d", e.ExitCode)
	if e.Err != nil {
		msg += fmt.Sprintf("\n  cause: %v", e.Err)
	}
	return msg
}

// Unwrap exposes ErrStepFailed and the cause to errors.Is/As.
func (e *StepFailedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrStepFailed}
	}
	return []error{ErrStepFailed, e.Err}
}
