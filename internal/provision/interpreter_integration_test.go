// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pathxcite/pxlaunch/internal/process"
	"github.com/pathxcite/pxlaunch/pkg/platform"
	"github.com/pathxcite/pxlaunch/pkg/types"
)

// Modules written into the environment under test. noisy_plugin prints
// without a trailing newline while it is imported.
var pluginSources = map[string]string{
	"noisy_plugin.py":  "import sys\nsys.stdout.write(\"loading noisy plugin...\")\n",
	"broken_plugin.py": "raise ImportError(\"broken on purpose\")\n",
}

// hostPython returns an interpreter on PATH that can create environments,
// and its major.minor version. The test is skipped when there is none.
func hostPython(t *testing.T) (string, types.RuntimeVersion) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	var py string
	for _, name := range []string{"python3", "python"} {
		if p, err := exec.LookPath(name); err == nil {
			py = p
			break
		}
	}
	if py == "" {
		t.Skip("skipping: no python interpreter on PATH")
	}

	res := process.NewNativeExecutor().Run(context.Background(), process.Command{
		Argv:    []string{py, "-c", "import ensurepip, sys, venv; print('%d.%d' % sys.version_info[:2])"},
		Capture: true,
	})
	if res.Failed() {
		t.Skipf("skipping: %s cannot create environments: %s", py, lastLine(res.ErrOutput))
	}
	return py, types.RuntimeVersion(strings.TrimSpace(res.Output))
}

func TestHostInterpreter_Integration(t *testing.T) {
	py, version := hostPython(t)

	plat, err := platform.Current()
	if err != nil {
		t.Skipf("skipping: %v", err)
	}
	p := New(platform.AdapterFor(plat))
	spec := RuntimeSpec{Version: version, BaseDir: filepath.Dir(filepath.Dir(py)), Platform: plat}
	root := filepath.Join(t.TempDir(), "venv")
	ctx := context.Background()

	env, err := p.EnsureEnvironment(ctx, py, spec, root)
	if err != nil {
		t.Fatalf("EnsureEnvironment() error = %v", err)
	}
	if !env.Created || !version.Matches(env.Version) {
		t.Fatalf("handle = %+v, want a created %s.x environment", env, version)
	}

	again, err := p.EnsureEnvironment(ctx, py, spec, root)
	if err != nil {
		t.Fatalf("second EnsureEnvironment() error = %v", err)
	}
	if again.Created {
		t.Error("valid environment should be reused")
	}

	sitePackages := purelib(t, env)
	for name, src := range pluginSources {
		if err := os.WriteFile(filepath.Join(sitePackages, name), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("FastProbe", func(t *testing.T) {
		if !NewGate(p.exec, []string{"json", "noisy_plugin"}).FastProbe(ctx, env) {
			t.Error("FastProbe() = false for importable modules")
		}
		if NewGate(p.exec, []string{"json", "broken_plugin"}).FastProbe(ctx, env) {
			t.Error("FastProbe() = true with a module that raises on import")
		}
	})

	t.Run("StrictProbeNoisyModule", func(t *testing.T) {
		res, err := NewGate(p.exec, []string{"noisy_plugin", "json"}).StrictProbe(ctx, env)
		if err != nil {
			t.Fatalf("StrictProbe() error = %v (results %+v)", err, res.Results)
		}
		if !res.Results["noisy_plugin"].OK {
			t.Errorf("noisy_plugin = %+v, want ok", res.Results["noisy_plugin"])
		}
	})

	t.Run("StrictProbeReportsEachFailure", func(t *testing.T) {
		modules := []string{"json", "broken_plugin", "noisy_plugin", "no_such_plugin"}
		res, err := NewGate(p.exec, modules).StrictProbe(ctx, env)
		if !errors.Is(err, ErrVerificationFailed) {
			t.Fatalf("StrictProbe() error = %v, want %v", err, ErrVerificationFailed)
		}
		if !res.Results["json"].OK || !res.Results["noisy_plugin"].OK {
			t.Errorf("importable modules reported as failed: %+v", res.Results)
		}
		if got := res.Results["broken_plugin"].Error; !strings.Contains(got, "ImportError: broken on purpose") {
			t.Errorf("broken_plugin error = %q", got)
		}
		if got := res.Results["no_such_plugin"].Error; !strings.Contains(got, "ModuleNotFoundError") {
			t.Errorf("no_such_plugin error = %q", got)
		}
	})
}

// purelib asks the environment interpreter for its site-packages directory.
func purelib(t *testing.T, env EnvironmentHandle) string {
	t.Helper()
	res := process.NewNativeExecutor().Run(context.Background(), process.Command{
		Argv:    []string{env.Interpreter, "-c", "import sysconfig; print(sysconfig.get_paths()['purelib'])"},
		Capture: true,
	})
	if res.Failed() {
		t.Fatalf("query site-packages: %v: %s", res.Err(), res.ErrOutput)
	}
	return strings.TrimSpace(res.Output)
}
