// SPDX-License-Identifier: MPL-2.0

package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/pathxcite/pxlaunch/pkg/types"

	"mvdan.cc/sh/v3/syntax"
)

// ErrEmptyCommand is returned when a Command has no program to run.
var ErrEmptyCommand = errors.New("empty command")

type (
	// Command describes one external process invocation.
	Command struct {
		// Argv is the program followed by its arguments. Argv[0] is resolved
		// through PATH when it contains no path separator.
		Argv []string
		// Dir is the working directory; empty means the current directory.
		Dir string
		// Env holds extra KEY=VALUE entries appended to the filtered host
		// environment.
		Env []string
		// Stdin, Stdout and Stderr are connected to the child. Nil writers
		// discard output unless Capture is set.
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
		// Capture records stdout and stderr into the Result in addition to
		// any configured writers.
		Capture bool
		// VerbatimLastArg passes the final argument to the program without
		// Windows command-line quoting. NSIS installers read /D= up to the
		// end of the line and reject a quoted value. Ignored elsewhere.
		VerbatimLastArg bool
	}

	// Result is the outcome of running a Command.
	Result struct {
		// ExitCode is the exit code of the process.
		ExitCode types.ExitCode
		// Error is set when the process could not be started or waited on.
		// A process that ran and exited non-zero has a nil Error.
		Error error
		// Output contains captured stdout (if captured)
		Output string
		// ErrOutput contains captured stderr (if captured)
		ErrOutput string
	}

	// Executor runs commands to completion. Implementations block until the
	// process exits; there is no timeout at this layer.
	Executor interface {
		Run(ctx context.Context, cmd Command) *Result
	}

	// NativeExecutor runs commands as host processes via os/exec.
	NativeExecutor struct {
		// Environ returns the base environment; defaults to os.Environ.
		Environ func() []string
	}
)

// NewNativeExecutor creates an executor backed by os/exec.
func NewNativeExecutor() *NativeExecutor {
	return &NativeExecutor{Environ: os.Environ}
}

// Run executes cmd and waits for it to finish.
func (e *NativeExecutor) Run(ctx context.Context, cmd Command) *Result {
	if len(cmd.Argv) == 0 {
		return NewErrorResult(types.ExitGenericFailure, ErrEmptyCommand)
	}

	c := exec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...)
	c.Dir = cmd.Dir
	setCommandLine(c, cmd)

	environ := os.Environ
	if e.Environ != nil {
		environ = e.Environ
	}
	c.Env = append(FilterEnv(environ()), cmd.Env...)
	c.Stdin = cmd.Stdin

	var stdout, stderr bytes.Buffer
	c.Stdout = teeWriter(cmd.Stdout, &stdout, cmd.Capture)
	c.Stderr = teeWriter(cmd.Stderr, &stderr, cmd.Capture)

	err := c.Run()
	result := &Result{
		Output:    stdout.String(),
		ErrOutput: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = types.ExitCode(exitErr.ExitCode()).Normalize()
		} else {
			result.ExitCode = types.ExitGenericFailure
			result.Error = fmt.Errorf("failed to execute %s: %w", cmd.String(), err)
		}
	}

	return result
}

// Failed reports whether the process could not run or exited non-zero.
func (r *Result) Failed() bool {
	return r.Error != nil || !r.ExitCode.IsSuccess()
}

// Err converts a failed Result into an error, or returns nil on success.
func (r *Result) Err() error {
	if r.Error != nil {
		return r.Error
	}
	if !r.ExitCode.IsSuccess() {
		return fmt.Errorf("exit status %d", r.ExitCode)
	}
	return nil
}

// NewErrorResult creates a Result with the given exit code and error.
func NewErrorResult(code types.ExitCode, err error) *Result {
	return &Result{ExitCode: code, Error: err}
}

// NewSuccessResult creates a Result with exit code 0 and no error.
func NewSuccessResult() *Result {
	return &Result{}
}

// NewExitCodeResult creates a Result with the given exit code and no error.
// Use this for non-zero exits that represent normal process termination
// rather than infrastructure failures.
func NewExitCodeResult(code types.ExitCode) *Result {
	return &Result{ExitCode: code}
}

// String renders the command as a copy-pasteable shell line so operators
// can reproduce a failing step by hand.
func (c Command) String() string {
	return Quote(c.Argv)
}

// Quote joins argv into a single shell-quoted line. Arguments that cannot be
// quoted for a POSIX shell are emitted with Go quoting instead.
func Quote(argv []string) string {
	parts := make([]string, 0, len(argv))
	for _, arg := range argv {
		quoted, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			quoted = fmt.Sprintf("%q", arg)
		}
		parts = append(parts, quoted)
	}
	return strings.Join(parts, " ")
}

func teeWriter(w io.Writer, buf *bytes.Buffer, capture bool) io.Writer {
	switch {
	case capture && w != nil:
		return io.MultiWriter(w, buf)
	case capture:
		return buf
	case w != nil:
		return w
	default:
		return io.Discard
	}
}
