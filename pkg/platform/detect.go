// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	"runtime"
)

const (
	// FamilyMacOS is the macOS operating system family.
	FamilyMacOS Family = "macos"
	// FamilyLinux is the Linux operating system family.
	FamilyLinux Family = "linux"
	// FamilyWindows is the Windows operating system family.
	FamilyWindows Family = "windows"

	// ArchX8664 is 64-bit x86.
	ArchX8664 Arch = "x86_64"
	// ArchARM64 is 64-bit ARM as named on macOS and Windows.
	ArchARM64 Arch = "arm64"
	// ArchAArch64 is 64-bit ARM as named on Linux.
	ArchAArch64 Arch = "aarch64"
)

// ErrUnsupportedPlatform is the sentinel error wrapped by UnsupportedPlatformError.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

type (
	// Family is a normalized operating system family.
	Family string

	// Arch is a normalized CPU architecture name, spelled the way the
	// runtime-distribution artifacts spell it for the given family.
	Arch string

	// Platform is a normalized (OS family, architecture) pair. Only values
	// returned by Detect are guaranteed to be members of the supported set.
	Platform struct {
		Family Family
		Arch   Arch
	}

	// UnsupportedPlatformError is returned when the host OS/architecture pair
	// is not one of the supported platforms.
	UnsupportedPlatformError struct {
		GOOS   string
		GOARCH string
	}
)

// supported is the closed enumeration of platforms, keyed by Go's own
// GOOS/GOARCH spelling.
//
//nolint:gochecknoglobals // Immutable lookup table.
var supported = map[[2]string]Platform{
	{Darwin, "arm64"}:  {Family: FamilyMacOS, Arch: ArchARM64},
	{Darwin, "amd64"}:  {Family: FamilyMacOS, Arch: ArchX8664},
	{Linux, "amd64"}:   {Family: FamilyLinux, Arch: ArchX8664},
	{Linux, "arm64"}:   {Family: FamilyLinux, Arch: ArchAArch64},
	{Windows, "amd64"}: {Family: FamilyWindows, Arch: ArchX8664},
	{Windows, "arm64"}: {Family: FamilyWindows, Arch: ArchARM64},
}

// Error implements the error interface.
func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform %s/%s (supported: macOS arm64/x86_64, Linux x86_64/aarch64, Windows x86_64/arm64)",
		e.GOOS, e.GOARCH)
}

// Unwrap returns ErrUnsupportedPlatform for errors.Is() compatibility.
func (e *UnsupportedPlatformError) Unwrap() error { return ErrUnsupportedPlatform }

// Detect normalizes a GOOS/GOARCH pair into a supported Platform.
// It has no side effects.
func Detect(goos, goarch string) (Platform, error) {
	p, ok := supported[[2]string{goos, goarch}]
	if !ok {
		return Platform{}, &UnsupportedPlatformError{GOOS: goos, GOARCH: goarch}
	}
	return p, nil
}

// Current detects the platform of the running process.
func Current() (Platform, error) {
	return Detect(runtime.GOOS, runtime.GOARCH)
}

// String returns the platform as "family/arch".
func (p Platform) String() string {
	return string(p.Family) + "/" + string(p.Arch)
}

// IsZero reports whether p is the zero Platform.
func (p Platform) IsZero() bool {
	return p.Family == "" && p.Arch == ""
}
