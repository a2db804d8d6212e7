// SPDX-License-Identifier: MPL-2.0

package processtest

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/pathxcite/pxlaunch/internal/process"
	"github.com/pathxcite/pxlaunch/pkg/types"
)

type (
	// Handler produces the result for one command. Returning nil means the
	// handler does not recognize the command.
	Handler func(cmd process.Command) *process.Result

	// FakeExecutor dispatches commands to handlers in registration order and
	// records every call. Unrecognized commands fail with exit code 127, the
	// shell's "command not found" status.
	FakeExecutor struct {
		mu       sync.Mutex
		handlers []Handler
		calls    []process.Command
	}
)

// NewFakeExecutor creates a FakeExecutor with the given handlers.
func NewFakeExecutor(handlers ...Handler) *FakeExecutor {
	return &FakeExecutor{handlers: handlers}
}

// Handle appends a handler. Later handlers are consulted only when earlier
// ones return nil.
func (f *FakeExecutor) Handle(h Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, h)
}

// Run implements process.Executor.
func (f *FakeExecutor) Run(_ context.Context, cmd process.Command) *process.Result {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	handlers := slices.Clone(f.handlers)
	f.mu.Unlock()

	for _, h := range handlers {
		if res := h(cmd); res != nil {
			return writeStreams(cmd, *res)
		}
	}
	return process.NewExitCodeResult(127)
}

// Calls returns a copy of the recorded commands.
func (f *FakeExecutor) Calls() []process.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CommandLines returns the recorded commands rendered as shell lines.
func (f *FakeExecutor) CommandLines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.String()
	}
	return lines
}

// CountMatching returns how many recorded commands contain all the given
// arguments, in any position.
func (f *FakeExecutor) CountMatching(args ...string) int {
	n := 0
	for _, c := range f.Calls() {
		if HasArgs(c, args...) {
			n++
		}
	}
	return n
}

// HasArgs reports whether cmd's argv contains every one of args.
func HasArgs(cmd process.Command, args ...string) bool {
	for _, a := range args {
		if !slices.Contains(cmd.Argv, a) {
			return false
		}
	}
	return true
}

// Program returns argv[0] of cmd, or "" for an empty command.
func Program(cmd process.Command) string {
	if len(cmd.Argv) == 0 {
		return ""
	}
	return cmd.Argv[0]
}

// Output builds a successful result whose stdout is out.
func Output(out string) *process.Result {
	return &process.Result{Output: out}
}

// Exit builds a result with the given exit code and stderr text.
func Exit(code int, stderr string) *process.Result {
	return &process.Result{ExitCode: types.ExitCode(code), ErrOutput: stderr}
}

// writeStreams mirrors a canned result onto the command's writers so code
// that streams output observes the same text a real process would print.
func writeStreams(cmd process.Command, res process.Result) *process.Result {
	write := func(w io.Writer, s string) {
		if w != nil && s != "" {
			_, _ = io.WriteString(w, s)
		}
	}
	write(cmd.Stdout, res.Output)
	write(cmd.Stderr, res.ErrOutput)
	if !cmd.Capture {
		res.Output, res.ErrOutput = "", ""
	}
	return &res
}

// String summarizes the recorded calls, one per line, for test failure output.
func (f *FakeExecutor) String() string {
	var sb strings.Builder
	for i, line := range f.CommandLines() {
		fmt.Fprintf(&sb, "%d: %s\n", i, line)
	}
	return sb.String()
}
