// SPDX-License-Identifier: MPL-2.0

package platform

import "path/filepath"

// artifactPrefix is the common prefix of every runtime-distribution artifact.
const artifactPrefix = "Miniconda3-latest-"

type (
	// Adapter captures everything that differs between OS families in the
	// provisioning flow. The orchestrator core is written once against this
	// interface; there is one implementation per OS family.
	Adapter interface {
		// Platform returns the platform this adapter was created for.
		Platform() Platform
		// ArtifactName returns the file name of the runtime-distribution
		// installer for this platform.
		ArtifactName() string
		// InstallCommand returns the argv that runs the downloaded installer
		// unattended, targeting installDir. installDir must be absolute.
		InstallCommand(artifactPath, installDir string) []string
		// BaseInterpreter returns the interpreter path inside the base runtime.
		BaseInterpreter(baseDir string) string
		// BasePackageManager returns the runtime's own package manager
		// inside the base runtime (used to pin the interpreter version).
		BasePackageManager(baseDir string) string
		// EnvInterpreter returns the interpreter path inside an isolated
		// environment rooted at envDir.
		EnvInterpreter(envDir string) string
	}

	// posixAdapter serves macOS and Linux, whose installers are shell
	// scripts and whose environments use a bin/ layout.
	posixAdapter struct {
		platform Platform
	}

	// windowsAdapter serves Windows, whose installer is an NSIS executable
	// and whose environments use a Scripts\ layout.
	windowsAdapter struct {
		platform Platform
	}
)

// AdapterFor returns the adapter for a detected platform.
func AdapterFor(p Platform) Adapter {
	if p.Family == FamilyWindows {
		return &windowsAdapter{platform: p}
	}
	return &posixAdapter{platform: p}
}

func (a *posixAdapter) Platform() Platform { return a.platform }

func (a *posixAdapter) ArtifactName() string {
	osName := "Linux"
	if a.platform.Family == FamilyMacOS {
		osName = "MacOSX"
	}
	return artifactPrefix + osName + "-" + string(a.platform.Arch) + ".sh"
}

// InstallCommand runs the installer in batch mode (-b), updating an existing
// prefix in place (-u) at installDir (-p).
func (a *posixAdapter) InstallCommand(artifactPath, installDir string) []string {
	return []string{"bash", artifactPath, "-b", "-u", "-p", installDir}
}

func (a *posixAdapter) BaseInterpreter(baseDir string) string {
	return filepath.Join(baseDir, "bin", "python")
}

func (a *posixAdapter) BasePackageManager(baseDir string) string {
	return filepath.Join(baseDir, "bin", "conda")
}

func (a *posixAdapter) EnvInterpreter(envDir string) string {
	return filepath.Join(envDir, "bin", "python")
}

func (a *windowsAdapter) Platform() Platform { return a.platform }

// ArtifactName always names the x86_64 installer: there is no native arm64
// Windows distribution, and Windows on ARM runs it under emulation.
func (a *windowsAdapter) ArtifactName() string {
	return artifactPrefix + "Windows-x86_64.exe"
}

// InstallCommand runs the NSIS installer silently. /D must be the last
// argument and reach the installer unquoted even when the path contains
// spaces, so the command is run with process.Command.VerbatimLastArg.
func (a *windowsAdapter) InstallCommand(artifactPath, installDir string) []string {
	return []string{
		artifactPath,
		"/InstallationType=JustMe",
		"/RegisterPython=0",
		"/AddToPath=0",
		"/S",
		"/D=" + installDir,
	}
}

func (a *windowsAdapter) BaseInterpreter(baseDir string) string {
	return filepath.Join(baseDir, "python.exe")
}

func (a *windowsAdapter) BasePackageManager(baseDir string) string {
	return filepath.Join(baseDir, "Scripts", "conda.exe")
}

func (a *windowsAdapter) EnvInterpreter(envDir string) string {
	return filepath.Join(envDir, "Scripts", "python.exe")
}
