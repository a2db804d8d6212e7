// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pathxcite/pxlaunch/pkg/types"
)

// Failure kinds. Every *Error wraps exactly one of them.
var (
	ErrDownloadFailed                = errors.New("download failed")
	ErrInstallFailed                 = errors.New("install failed")
	ErrVersionPinFailed              = errors.New("version pin failed")
	ErrEnvCreateFailed               = errors.New("environment creation failed")
	ErrEnvCreateIncomplete           = errors.New("environment creation incomplete")
	ErrManifestMissing               = errors.New("package manifest missing")
	ErrPackageManagerBootstrapFailed = errors.New("package manager bootstrap failed")
	ErrDependencyInstallFailed       = errors.New("dependency install failed")
	ErrVerificationFailed            = errors.New("verification failed")
)

// Error is a provisioning failure with enough context (path, command, exit
// code) for an operator to reproduce the failing step by hand.
type Error struct {
	// Kind is one of the Err* sentinels of this package.
	Kind error
	// Op is a short verb phrase ("install base runtime").
	Op string
	// Path is the file or directory involved, if any.
	Path string
	// Command is the shell-quoted command line that failed, if any.
	Command string
	// ExitCode is the failing subprocess's exit code; zero when no
	// subprocess exit status applies.
	ExitCode types.ExitCode
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	if e.Path != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Path)
		sb.WriteString(")")
	}
	sb.WriteString(": ")
	sb.WriteString(e.Kind.Error())
	if e.Command != "" {
		fmt.Fprintf(&sb, "\n  command: %s", e.Command)
	}
	if e.ExitCode != 0 {
		fmt.Fprintf(&sb, "\n  exit code: %d", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, "\n  cause: %v", e.Err)
	}
	return sb.String()
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the failure kind of err, or nil if err is not a provisioning error.
func KindOf(err error) error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return nil
}
