// SPDX-License-Identifier: MPL-2.0

package provisiontest

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pathxcite/pxlaunch/internal/process"
	"github.com/pathxcite/pxlaunch/internal/process/processtest"
	"github.com/pathxcite/pxlaunch/pkg/platform"
)

// LinuxX8664 is the platform fake runtimes use by default. Its adapter's
// path layout works on every host because the fake creates the files itself.
var LinuxX8664 = platform.Platform{Family: platform.FamilyLinux, Arch: platform.ArchX8664}

// ErrDownloadRefused is returned by FakeDownloader when Fail is set.
var ErrDownloadRefused = errors.New("download refused")

type (
	// FakeRuntime simulates the installer, the base interpreter, its package
	// manager and environment interpreters. Exported fields configure the
	// behavior; they may be changed between runs to model a changing machine.
	FakeRuntime struct {
		Adapter platform.Adapter
		BaseDir string
		EnvDir  string

		// InstallVersion is what a freshly installed base interpreter reports.
		InstallVersion string
		// PinnedVersion is what the base interpreter reports after a pin.
		PinnedVersion string
		// VenvVersion overrides the version new environments report; empty
		// means "same as the base interpreter".
		VenvVersion string

		InstallerFails       bool
		InstallerLeavesNoPy  bool
		PinFails             bool
		VenvFails            bool
		VenvLeavesNoPy       bool
		// VenvPartial makes venv write a working interpreter and then exit 1.
		VenvPartial          bool
		EnsurepipFails       bool
		GetPipFails          bool
		RequirementsExitCode int
		// VenvWithoutPip makes new environments come up without pip.
		VenvWithoutPip bool
		// EnvBroken makes the environment interpreter fail to start until
		// the environment is recreated.
		EnvBroken bool
		// Unimportable lists modules that fail to import even after install.
		Unimportable map[string]bool

		mu            sync.Mutex
		baseVersion   string
		envVersion    string
		pipReady      bool
		depsInstalled bool
	}

	// FakeDownloader writes Content into a temp file for every request.
	FakeDownloader struct {
		Content string
		Fail    bool

		mu   sync.Mutex
		urls []string
	}
)

// NewFakeRuntime creates a fake runtime rooted at dir (typically t.TempDir())
// that installs and pins version.
func NewFakeRuntime(dir, version string) *FakeRuntime {
	return &FakeRuntime{
		Adapter:        platform.AdapterFor(LinuxX8664),
		BaseDir:        filepath.Join(dir, "miniconda3"),
		EnvDir:         filepath.Join(dir, "venv"),
		InstallVersion: version,
		PinnedVersion:  version,
	}
}

// BaseInterpreter returns the base runtime's interpreter path.
func (f *FakeRuntime) BaseInterpreter() string { return f.Adapter.BaseInterpreter(f.BaseDir) }

// EnvInterpreter returns the environment's interpreter path.
func (f *FakeRuntime) EnvInterpreter() string { return f.Adapter.EnvInterpreter(f.EnvDir) }

// PreinstallBase lays out a base runtime reporting version.
func (f *FakeRuntime) PreinstallBase(version string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.baseVersion = version
	return touch(f.BaseInterpreter())
}

// PreinstallEnv lays out an environment reporting version, optionally with
// all dependencies already installed.
func (f *FakeRuntime) PreinstallEnv(version string, depsInstalled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.envVersion = version
	f.pipReady = true
	f.depsInstalled = depsInstalled
	return touch(f.EnvInterpreter())
}

// DepsInstalled reports whether the manifest has been installed successfully.
func (f *FakeRuntime) DepsInstalled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.depsInstalled
}

// Executor returns an executor whose commands act on this fake runtime.
// Commands the fake does not model are passed to extra handlers.
func (f *FakeRuntime) Executor(extra ...processtest.Handler) *processtest.FakeExecutor {
	return processtest.NewFakeExecutor(append([]processtest.Handler{f.handle}, extra...)...)
}

func (f *FakeRuntime) handle(cmd process.Command) *process.Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	argv := cmd.Argv
	switch processtest.Program(cmd) {
	case "bash":
		return f.runInstaller(argv)
	case f.BaseInterpreter():
		return f.runBase(argv[1:])
	case f.Adapter.BasePackageManager(f.BaseDir):
		return f.runConda(argv[1:])
	case f.EnvInterpreter():
		return f.runEnv(argv[1:])
	}
	return nil
}

func (f *FakeRuntime) runInstaller(_ []string) *process.Result {
	if f.InstallerFails {
		return processtest.Exit(1, "ERROR: installation failed")
	}
	if !f.InstallerLeavesNoPy {
		if err := touch(f.BaseInterpreter()); err != nil {
			return process.NewErrorResult(1, err)
		}
	}
	f.baseVersion = f.InstallVersion
	return process.NewSuccessResult()
}

func (f *FakeRuntime) runBase(args []string) *process.Result {
	switch {
	case len(args) == 1 && args[0] == "-V":
		return processtest.Output("Python " + f.baseVersion + "\n")
	case len(args) == 4 && args[0] == "-m" && args[1] == "venv":
		if f.VenvFails {
			return processtest.Exit(1, "Error: venv creation failed")
		}
		root := args[3]
		if f.VenvPartial {
			if err := touch(f.Adapter.EnvInterpreter(root)); err != nil {
				return process.NewErrorResult(1, err)
			}
			f.envVersion = f.baseVersion
			return processtest.Exit(1, "Error: ensurepip returned non-zero exit status 1")
		}
		if !f.VenvLeavesNoPy {
			if err := touch(f.Adapter.EnvInterpreter(root)); err != nil {
				return process.NewErrorResult(1, err)
			}
		}
		f.envVersion = f.baseVersion
		if f.VenvVersion != "" {
			f.envVersion = f.VenvVersion
		}
		f.pipReady = !f.VenvWithoutPip
		f.EnvBroken = false
		f.depsInstalled = false
		return process.NewSuccessResult()
	}
	return processtest.Exit(2, "unexpected base interpreter arguments")
}

func (f *FakeRuntime) runConda(args []string) *process.Result {
	if len(args) == 3 && args[0] == "install" && args[1] == "-y" && strings.HasPrefix(args[2], "python=") {
		if f.PinFails {
			return processtest.Exit(1, "PackagesNotFoundError")
		}
		f.baseVersion = f.PinnedVersion
		return process.NewSuccessResult()
	}
	return processtest.Exit(2, "unexpected conda arguments")
}

func (f *FakeRuntime) runEnv(args []string) *process.Result {
	if f.EnvBroken {
		return processtest.Exit(1, "Fatal Python error: failed to get the Python codec of the filesystem encoding")
	}
	switch {
	case len(args) == 1 && args[0] == "-V":
		return processtest.Output("Python " + f.envVersion + "\n")
	case len(args) >= 2 && args[0] == "-m" && args[1] == "pip":
		return f.runPip(args[2:])
	case len(args) >= 2 && args[0] == "-m" && args[1] == "ensurepip":
		if f.EnsurepipFails {
			return processtest.Exit(1, "No module named ensurepip")
		}
		f.pipReady = true
		return process.NewSuccessResult()
	case len(args) == 1 && strings.HasSuffix(args[0], ".py"):
		if f.GetPipFails {
			return processtest.Exit(1, "get-pip failed")
		}
		f.pipReady = true
		return process.NewSuccessResult()
	case len(args) >= 2 && args[0] == "-c" && strings.Contains(args[1], "importlib.import_module"):
		return f.strictProbe(args[2:])
	case len(args) == 2 && args[0] == "-c" && strings.HasPrefix(args[1], "import "):
		return f.fastProbe(strings.Split(strings.TrimPrefix(args[1], "import "), ", "))
	}
	return processtest.Exit(2, "unexpected environment interpreter arguments")
}

func (f *FakeRuntime) runPip(args []string) *process.Result {
	if !f.pipReady {
		return processtest.Exit(1, "No module named pip")
	}
	switch {
	case len(args) >= 2 && args[0] == "install" && args[1] == "-r":
		if f.RequirementsExitCode != 0 {
			return processtest.Exit(f.RequirementsExitCode, "ERROR: Could not find a version that satisfies the requirement")
		}
		f.depsInstalled = true
	}
	return process.NewSuccessResult()
}

func (f *FakeRuntime) importable(module string) bool {
	return f.depsInstalled && !f.Unimportable[module]
}

func (f *FakeRuntime) fastProbe(modules []string) *process.Result {
	for _, m := range modules {
		if !f.importable(m) {
			return processtest.Exit(1, "ModuleNotFoundError: No module named '"+m+"'")
		}
	}
	return process.NewSuccessResult()
}

func (f *FakeRuntime) strictProbe(modules []string) *process.Result {
	var sb strings.Builder
	for _, m := range modules {
		rec := map[string]any{"module": m, "ok": true, "error": ""}
		if !f.importable(m) {
			rec["ok"] = false
			rec["error"] = "ModuleNotFoundError: No module named '" + m + "'"
		}
		line, _ := json.Marshal(rec) //nolint:errchkjson // plain map of strings and bools
		sb.Write(line)
		sb.WriteByte('\n')
	}
	return processtest.Output(sb.String())
}

// ToFile implements the provisioning Downloader interface.
func (d *FakeDownloader) ToFile(_ context.Context, url, dir, suffix string) (string, error) {
	d.mu.Lock()
	d.urls = append(d.urls, url)
	d.mu.Unlock()

	if d.Fail {
		return "", ErrDownloadRefused
	}
	f, err := os.CreateTemp(dir, "fake-download-*"+suffix)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteString(d.Content); err != nil {
		return "", err
	}
	return f.Name(), nil
}

// URLs returns every URL requested so far.
func (d *FakeDownloader) URLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urls...)
}

func touch(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, nil, 0o755)
}
