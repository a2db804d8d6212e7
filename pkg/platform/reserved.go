// SPDX-License-Identifier: EPL-2.0

package platform

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrReservedName is the sentinel error wrapped by ReservedNameError.
var ErrReservedName = errors.New("reserved file name")

// windowsReservedNames cannot be used as file or directory names on Windows,
// with or without an extension.
//
//nolint:gochecknoglobals // Immutable lookup table.
var windowsReservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"COM5": true, "COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true,
	"LPT5": true, "LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// ReservedNameError reports a path element that Windows cannot create.
type ReservedNameError struct {
	Path    string
	Element string
}

// Error implements the error interface.
func (e *ReservedNameError) Error() string {
	return fmt.Sprintf("%q contains %q, which is a reserved name on Windows", e.Path, e.Element)
}

// Unwrap returns ErrReservedName for errors.Is() compatibility.
func (e *ReservedNameError) Unwrap() error { return ErrReservedName }

// IsWindowsReservedName reports whether name, ignoring any extension and
// case, is reserved on Windows.
func IsWindowsReservedName(name string) bool {
	upper := strings.ToUpper(name)
	if idx := strings.Index(upper, "."); idx != -1 {
		upper = upper[:idx]
	}
	return windowsReservedNames[upper]
}

// CheckPortablePath returns a *ReservedNameError when any element of path
// is reserved on Windows. Configured directories are checked on every host
// so one configuration works everywhere.
func CheckPortablePath(path string) error {
	for _, elem := range strings.FieldsFunc(filepath.ToSlash(path), func(r rune) bool { return r == '/' }) {
		if IsWindowsReservedName(elem) {
			return &ReservedNameError{Path: path, Element: elem}
		}
	}
	return nil
}
