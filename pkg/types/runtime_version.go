// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// ErrInvalidRuntimeVersion is the sentinel error wrapped by InvalidRuntimeVersionError.
var ErrInvalidRuntimeVersion = errors.New("invalid runtime version")

type (
	// RuntimeVersion is a pinned interpreter version in major.minor form
	// (e.g., "3.11"). Patch levels are deliberately not part of the pin:
	// any 3.11.x interpreter satisfies a "3.11" pin.
	RuntimeVersion string

	// InvalidRuntimeVersionError is returned when a RuntimeVersion is not
	// of the form major.minor.
	InvalidRuntimeVersionError struct {
		Value RuntimeVersion
	}
)

// Error implements the error interface.
func (e *InvalidRuntimeVersionError) Error() string {
	return fmt.Sprintf("invalid runtime version %q (expected major.minor, e.g. \"3.11\")", e.Value)
}

// Unwrap returns ErrInvalidRuntimeVersion for errors.Is() compatibility.
func (e *InvalidRuntimeVersionError) Unwrap() error { return ErrInvalidRuntimeVersion }

// Validate returns an error unless the version is exactly major.minor.
func (v RuntimeVersion) Validate() error {
	canonical := "v" + string(v)
	if !semver.IsValid(canonical) || semver.MajorMinor(canonical) != canonical {
		return &InvalidRuntimeVersionError{Value: v}
	}
	return nil
}

// String returns the string representation of the RuntimeVersion.
func (v RuntimeVersion) String() string { return string(v) }

// Matches reports whether a version reported by an interpreter (e.g.,
// "3.11.9", "3.11.0rc1" or the full "Python 3.11.9" banner) has the same
// major.minor as the pin.
func (v RuntimeVersion) Matches(reported string) bool {
	mm, ok := MajorMinorOf(reported)
	return ok && mm == v
}

// MajorMinorOf extracts the major.minor pair from an interpreter version
// string. It accepts the bare version or the "Python X.Y.Z" banner printed
// by `python -V`, ignoring pre-release suffixes such as "rc1" or "+".
func MajorMinorOf(reported string) (RuntimeVersion, bool) {
	s := strings.TrimSpace(reported)
	if fields := strings.Fields(s); len(fields) > 1 {
		s = fields[len(fields)-1]
	}
	s = strings.TrimPrefix(s, "v")

	// Keep only the leading dotted-numeric portion ("3.11.0rc1" -> "3.11.0").
	end := 0
	for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	s = strings.TrimRight(s[:end], ".")

	canonical := "v" + s
	if !semver.IsValid(canonical) {
		return "", false
	}
	return RuntimeVersion(strings.TrimPrefix(semver.MajorMinor(canonical), "v")), true
}
