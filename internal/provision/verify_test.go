// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/pathxcite/pxlaunch/internal/process"
	"github.com/pathxcite/pxlaunch/internal/process/processtest"
)

var probeModules = []string{"numpy", "pandas", "PyQt5", "PyQt5.sip"}

func installedEnv(t *testing.T, h *harness) EnvironmentHandle {
	t.Helper()
	env, manifest := newEnv(t, h)
	if err := h.p.InstallPackages(context.Background(), env, manifest); err != nil {
		t.Fatalf("InstallPackages() error = %v", err)
	}
	return env
}

func TestFastProbe(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	env, _ := newEnv(t, h)
	gate := NewGate(h.exec, probeModules)
	ctx := context.Background()

	if gate.FastProbe(ctx, env) {
		t.Error("FastProbe() on an empty environment should fail")
	}
	if h.exec.CountMatching("-c", "import numpy, pandas, PyQt5, PyQt5.sip") != 1 {
		t.Errorf("fast probe command not as expected:\n%s", h.exec)
	}

	env = installedEnv(t, h)
	if !gate.FastProbe(ctx, env) {
		t.Error("FastProbe() after install should pass")
	}
}

func TestFastProbe_InterpreterMissing(t *testing.T) {
	t.Parallel()

	exec := processtest.NewFakeExecutor(func(process.Command) *process.Result {
		return process.NewErrorResult(1, errors.New("fork/exec: no such file or directory"))
	})
	gate := NewGate(exec, probeModules)
	if gate.FastProbe(context.Background(), EnvironmentHandle{Interpreter: "/missing/python"}) {
		t.Error("FastProbe() with an unrunnable interpreter should report install needed")
	}
}

func TestStrictProbe_AllPass(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	env := installedEnv(t, h)

	res, err := NewGate(h.exec, probeModules).StrictProbe(context.Background(), env)
	if err != nil {
		t.Fatalf("StrictProbe() error = %v", err)
	}
	if !res.OK() || !slices.Equal(res.Probed, probeModules) || len(res.Results) != len(probeModules) {
		t.Errorf("result = %+v", res)
	}
}

func TestStrictProbe_ReportsEveryFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.rt.Unimportable = map[string]bool{"pandas": true, "PyQt5.sip": true}
	env := installedEnv(t, h)

	res, err := NewGate(h.exec, probeModules).StrictProbe(context.Background(), env)
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("StrictProbe() error = %v, want ErrVerificationFailed", err)
	}

	var fm *FailedModulesError
	if !errors.As(err, &fm) {
		t.Fatalf("error %v does not carry *FailedModulesError", err)
	}
	var names []string
	for _, f := range fm.Failures {
		names = append(names, f.Module)
	}
	if !slices.Equal(names, []string{"pandas", "PyQt5.sip"}) {
		t.Errorf("failures = %v, want pandas and PyQt5.sip", names)
	}
	if !res.Results["numpy"].OK {
		t.Error("passing modules must still be reported as passing")
	}
	if !strings.Contains(err.Error(), "PyQt5.sip: ModuleNotFoundError") {
		t.Errorf("error should list each failure:\n%v", err)
	}
}

func TestStrictProbe_ProcessCrash(t *testing.T) {
	t.Parallel()

	// The interpreter dies after reporting the first module.
	exec := processtest.NewFakeExecutor(func(process.Command) *process.Result {
		return &process.Result{
			ExitCode:  139,
			Output:    "noise from an import\n{\"module\": \"numpy\", \"ok\": true, \"error\": \"\"}\n",
			ErrOutput: "Segmentation fault\n",
		}
	})

	res, err := NewGate(exec, probeModules).StrictProbe(context.Background(), EnvironmentHandle{Interpreter: "/env/bin/python"})
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("StrictProbe() error = %v", err)
	}
	if !res.Results["numpy"].OK {
		t.Error("numpy reported before the crash should pass")
	}
	if got := len(res.Failures()); got != 3 {
		t.Errorf("len(Failures()) = %d, want 3", got)
	}
	if !strings.Contains(res.Results["PyQt5"].Error, "Segmentation fault") {
		t.Errorf("missing result should explain the crash, got %q", res.Results["PyQt5"].Error)
	}
}

func TestStrictProbeScript_IsolatesModuleOutput(t *testing.T) {
	t.Parallel()

	for _, want := range []string{"sys.stdout = sys.stderr", "sys.stdout = out", `out.write("\n" + json.dumps(rec)`} {
		if !strings.Contains(strictProbeScript, want) {
			t.Errorf("strict probe script lacks %q", want)
		}
	}

	// A module printing without a newline before its record.
	out := "loading noisy plugin...\n{\"module\": \"noisy\", \"ok\": true, \"error\": \"\"}\n"
	recs := parseProbeOutput(out)
	if len(recs) != 1 || recs[0].Module != "noisy" || !recs[0].OK {
		t.Errorf("parseProbeOutput() = %+v", recs)
	}
}

func TestStrictProbe_PassesModulesAsArguments(t *testing.T) {
	t.Parallel()

	exec := processtest.NewFakeExecutor(func(cmd process.Command) *process.Result {
		var sb strings.Builder
		for _, m := range cmd.Argv[3:] {
			sb.WriteString(`{"module": "` + m + `", "ok": true, "error": ""}` + "\n")
		}
		return processtest.Output(sb.String())
	})

	if _, err := NewGate(exec, []string{"a", "b"}).StrictProbe(context.Background(), EnvironmentHandle{Interpreter: "py"}); err != nil {
		t.Fatalf("StrictProbe() error = %v", err)
	}
	call := exec.Calls()[0]
	if !slices.Equal(call.Argv[3:], []string{"a", "b"}) || call.Argv[1] != "-c" {
		t.Errorf("argv = %q", call.Argv)
	}
	if !call.Capture {
		t.Error("strict probe must capture output")
	}
}

func TestNoModulesAlwaysPasses(t *testing.T) {
	t.Parallel()

	exec := processtest.NewFakeExecutor()
	gate := NewGate(exec, nil)
	if !gate.FastProbe(context.Background(), EnvironmentHandle{}) {
		t.Error("FastProbe() with no modules should pass")
	}
	if _, err := gate.StrictProbe(context.Background(), EnvironmentHandle{}); err != nil {
		t.Errorf("StrictProbe() with no modules error = %v", err)
	}
	if len(exec.Calls()) != 0 {
		t.Error("no process should run without modules")
	}
}
