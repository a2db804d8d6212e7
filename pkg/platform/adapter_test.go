// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"path/filepath"
	"slices"
	"testing"
)

func TestAdapterArtifactName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		platform Platform
		want     string
	}{
		{Platform{FamilyMacOS, ArchARM64}, "Miniconda3-latest-MacOSX-arm64.sh"},
		{Platform{FamilyMacOS, ArchX8664}, "Miniconda3-latest-MacOSX-x86_64.sh"},
		{Platform{FamilyLinux, ArchX8664}, "Miniconda3-latest-Linux-x86_64.sh"},
		{Platform{FamilyLinux, ArchAArch64}, "Miniconda3-latest-Linux-aarch64.sh"},
		{Platform{FamilyWindows, ArchX8664}, "Miniconda3-latest-Windows-x86_64.exe"},
		{Platform{FamilyWindows, ArchARM64}, "Miniconda3-latest-Windows-x86_64.exe"},
	}

	for _, tt := range tests {
		t.Run(tt.platform.String(), func(t *testing.T) {
			t.Parallel()

			a := AdapterFor(tt.platform)
			if got := a.ArtifactName(); got != tt.want {
				t.Errorf("ArtifactName() = %q, want %q", got, tt.want)
			}
			if a.Platform() != tt.platform {
				t.Errorf("Platform() = %v, want %v", a.Platform(), tt.platform)
			}
		})
	}
}

func TestPosixAdapterPaths(t *testing.T) {
	t.Parallel()

	a := AdapterFor(Platform{FamilyLinux, ArchX8664})

	if got, want := a.BaseInterpreter("base"), filepath.Join("base", "bin", "python"); got != want {
		t.Errorf("BaseInterpreter() = %q, want %q", got, want)
	}
	if got, want := a.BasePackageManager("base"), filepath.Join("base", "bin", "conda"); got != want {
		t.Errorf("BasePackageManager() = %q, want %q", got, want)
	}
	if got, want := a.EnvInterpreter("venv"), filepath.Join("venv", "bin", "python"); got != want {
		t.Errorf("EnvInterpreter() = %q, want %q", got, want)
	}

	argv := a.InstallCommand("/tmp/installer.sh", "/opt/base")
	want := []string{"bash", "/tmp/installer.sh", "-b", "-u", "-p", "/opt/base"}
	if !slices.Equal(argv, want) {
		t.Errorf("InstallCommand() = %v, want %v", argv, want)
	}
}

func TestWindowsAdapterPaths(t *testing.T) {
	t.Parallel()

	a := AdapterFor(Platform{FamilyWindows, ArchX8664})

	if got, want := a.BaseInterpreter("base"), filepath.Join("base", "python.exe"); got != want {
		t.Errorf("BaseInterpreter() = %q, want %q", got, want)
	}
	if got, want := a.BasePackageManager("base"), filepath.Join("base", "Scripts", "conda.exe"); got != want {
		t.Errorf("BasePackageManager() = %q, want %q", got, want)
	}
	if got, want := a.EnvInterpreter("venv"), filepath.Join("venv", "Scripts", "python.exe"); got != want {
		t.Errorf("EnvInterpreter() = %q, want %q", got, want)
	}

	argv := a.InstallCommand(`C:\tmp\installer.exe`, `C:\Program Files\base`)
	if argv[0] != `C:\tmp\installer.exe` {
		t.Errorf("InstallCommand()[0] = %q, want installer path", argv[0])
	}
	if last := argv[len(argv)-1]; last != `/D=C:\Program Files\base` {
		t.Errorf("InstallCommand() last arg = %q, want unquoted /D= target", last)
	}
	if !slices.Contains(argv, "/S") {
		t.Errorf("InstallCommand() = %v, want silent flag /S", argv)
	}
}
