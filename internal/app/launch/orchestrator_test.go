// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/pathxcite/pxlaunch/internal/config"
	"github.com/pathxcite/pxlaunch/internal/pipeline"
	"github.com/pathxcite/pxlaunch/internal/process"
	"github.com/pathxcite/pxlaunch/internal/process/processtest"
	"github.com/pathxcite/pxlaunch/internal/provision"
	"github.com/pathxcite/pxlaunch/internal/provision/provisiontest"
	"github.com/pathxcite/pxlaunch/internal/testutil"
	"github.com/pathxcite/pxlaunch/pkg/types"
)

const artifactURL = "https://mirror.example/miniconda/Miniconda3-latest-Linux-x86_64.sh"

type (
	fixture struct {
		dir     string
		rt      *provisiontest.FakeRuntime
		exec    *processtest.FakeExecutor
		dl      *provisiontest.FakeDownloader
		handoff *recordingHandoff
		cfg     config.Config
	}

	recordingHandoff struct {
		mu   sync.Mutex
		cmds []process.Command
		code types.ExitCode
	}

	stubProvisioner struct {
		baseErr  error
		envCalls int
	}
)

func (h *recordingHandoff) Replace(_ context.Context, cmd process.Command) (types.ExitCode, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cmds = append(h.cmds, cmd)
	return h.code, nil
}

func (h *recordingHandoff) calls() []process.Command {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.cmds)
}

func (s *stubProvisioner) EnsureBaseRuntime(context.Context, provision.RuntimeSpec) (string, error) {
	return "/base/bin/python", s.baseErr
}

func (s *stubProvisioner) EnsureEnvironment(context.Context, string, provision.RuntimeSpec, string) (provision.EnvironmentHandle, error) {
	s.envCalls++
	return provision.EnvironmentHandle{}, nil
}

func (s *stubProvisioner) InstallPackages(context.Context, provision.EnvironmentHandle, string) error {
	return nil
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	rt := provisiontest.NewFakeRuntime(dir, "3.11.9")

	cfg := *config.DefaultConfig()
	cfg.Runtime.ArtifactBaseURL = "https://mirror.example/miniconda"
	cfg.Dependencies.GetPipURL = "https://bootstrap.example/get-pip.py"

	testutil.MustWriteFile(t, filepath.Join(dir, "requirements.txt"), "numpy\npandas\n")
	for _, s := range cfg.Pipeline.Steps {
		testutil.MustWriteFile(t, filepath.Join(dir, s.Script), "print('ok')\n")
	}

	return &fixture{
		dir:     dir,
		rt:      rt,
		exec:    rt.Executor(),
		dl:      &provisiontest.FakeDownloader{Content: "#!/bin/sh\n"},
		handoff: &recordingHandoff{},
		cfg:     cfg,
	}
}

func (f *fixture) orchestrator(opts ...Option) *Orchestrator {
	return New(f.cfg, provisiontest.LinuxX8664, f.dir, append([]Option{
		WithExecutor(f.exec),
		WithDownloader(f.dl),
		WithHandoff(f.handoff),
		WithStreams(nil, io.Discard, io.Discard),
	}, opts...)...)
}

// scriptRuns returns the base names of the scripts run as ordinary steps.
func (f *fixture) scriptRuns() []string {
	var names []string
	for _, c := range f.exec.Calls() {
		if len(c.Argv) == 2 && c.Argv[0] == f.rt.EnvInterpreter() && strings.HasPrefix(c.Argv[1], f.dir) {
			names = append(names, filepath.Base(c.Argv[1]))
		}
	}
	return names
}

func (f *fixture) preinstall(t *testing.T, baseVersion, envVersion string, depsInstalled bool) {
	t.Helper()
	if err := f.rt.PreinstallBase(baseVersion); err != nil {
		t.Fatal(err)
	}
	if envVersion != "" {
		if err := f.rt.PreinstallEnv(envVersion, depsInstalled); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRun_FreshMachine(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	report, err := f.orchestrator().Run(t.Context(), ModeLaunch)
	if err != nil {
		t.Fatalf("Run() error = %v\ncalls:\n%s", err, f.exec)
	}

	wantTrace := []State{
		Unprovisioned, RuntimeReady, EnvironmentReady, DependenciesUnknown,
		DependenciesSatisfied, Verified, PipelineRunning, Done,
	}
	if !slices.Equal(report.Trace, wantTrace) {
		t.Errorf("Trace = %v, want %v", report.Trace, wantTrace)
	}
	if !report.InstallerRan {
		t.Error("InstallerRan = false, want true on a fresh machine")
	}
	if !report.Environment.Created {
		t.Error("Environment.Created = false, want true")
	}
	if !report.Verification.OK() {
		t.Errorf("Verification failures = %v", report.Verification.Failures())
	}
	if got := f.dl.URLs(); len(got) != 1 || got[0] != artifactURL {
		t.Errorf("downloads = %v, want [%s]", got, artifactURL)
	}
	if !f.rt.DepsInstalled() {
		t.Error("dependencies were not installed")
	}

	if got, want := f.scriptRuns(), []string{"test_imports.py", "setup_gmt_files.py"}; !slices.Equal(got, want) {
		t.Errorf("steps run = %v, want %v", got, want)
	}
	handoffs := f.handoff.calls()
	if len(handoffs) != 1 || filepath.Base(handoffs[0].Argv[1]) != "main.py" {
		t.Fatalf("handoffs = %v, want main.py once", handoffs)
	}
	if handoffs[0].Argv[0] != f.rt.EnvInterpreter() {
		t.Errorf("handoff interpreter = %q, want %q", handoffs[0].Argv[0], f.rt.EnvInterpreter())
	}
}

func TestRun_AlreadyProvisionedSkipsInstaller(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.preinstall(t, "3.11.9", "3.11.9", true)

	report, err := f.orchestrator().Run(t.Context(), ModeLaunch)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantTrace := []State{
		Unprovisioned, RuntimeReady, EnvironmentReady,
		DependenciesSatisfied, Verified, PipelineRunning, Done,
	}
	if !slices.Equal(report.Trace, wantTrace) {
		t.Errorf("Trace = %v, want %v", report.Trace, wantTrace)
	}
	if report.InstallerRan {
		t.Error("InstallerRan = true, want false")
	}
	if report.Environment.Created {
		t.Error("environment was recreated")
	}
	if n := len(f.dl.URLs()); n != 0 {
		t.Errorf("downloads = %d, want 0", n)
	}
	for _, args := range [][]string{{"venv"}, {"install", "-r"}, {"ensurepip"}} {
		if n := f.exec.CountMatching(args...); n != 0 {
			t.Errorf("%v ran %d times, want 0", args, n)
		}
	}
	if len(f.handoff.calls()) != 1 {
		t.Error("pipeline did not hand off")
	}
}

func TestRun_RecreatesWrongVersionEnvironmentBeforeProbing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.preinstall(t, "3.11.9", "3.9.18", true)
	stale := testutil.MustWriteFile(t, filepath.Join(f.rt.EnvDir, "stale.txt"), "old")

	report, err := f.orchestrator().Run(t.Context(), ModeLaunch)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !report.Environment.Created {
		t.Error("Environment.Created = false, want true")
	}
	if report.Environment.Version != "3.11.9" {
		t.Errorf("Environment.Version = %q, want 3.11.9", report.Environment.Version)
	}
	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("stale file survived recreation: %v", err)
	}

	// The fresh environment is empty, so the installer must run again.
	if !report.InstallerRan {
		t.Error("InstallerRan = false, want true after recreation")
	}

	venvAt, probeAt := -1, -1
	for i, c := range f.exec.Calls() {
		switch {
		case venvAt < 0 && processtest.HasArgs(c, "venv"):
			venvAt = i
		case probeAt < 0 && processtest.HasArgs(c, "-c"):
			probeAt = i
		}
	}
	if venvAt < 0 || probeAt < 0 || venvAt > probeAt {
		t.Errorf("venv at %d, first probe at %d; want recreation before probing\n%s", venvAt, probeAt, f.exec)
	}
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	o := f.orchestrator()
	if _, err := o.Run(t.Context(), ModeSetup); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	downloads := len(f.dl.URLs())
	venvs := f.exec.CountMatching("venv")

	report, err := o.Run(t.Context(), ModeSetup)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if report.InstallerRan {
		t.Error("second run installed packages again")
	}
	if got := len(f.dl.URLs()); got != downloads {
		t.Errorf("second run downloaded again: %d downloads", got)
	}
	if got := f.exec.CountMatching("venv"); got != venvs {
		t.Errorf("second run recreated the environment: %d venv calls", got)
	}
}

func TestRun_SetupModeStopsAfterVerification(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	report, err := f.orchestrator().Run(t.Context(), ModeSetup)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := report.Trace[len(report.Trace)-2:]; !slices.Equal(got, []State{Verified, Done}) {
		t.Errorf("Trace tail = %v, want [verified done]", got)
	}
	if slices.Contains(report.Trace, PipelineRunning) {
		t.Error("setup run entered pipeline-running")
	}
	if len(f.scriptRuns()) != 0 || len(f.handoff.calls()) != 0 {
		t.Error("setup run executed pipeline steps")
	}
}

func TestRun_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		setup     func(f *fixture)
		wantKind  error
		wantLast2 []State
	}{
		{
			name:      "installer fails",
			setup:     func(f *fixture) { f.rt.InstallerFails = true },
			wantKind:  provision.ErrInstallFailed,
			wantLast2: []State{Unprovisioned, Failed},
		},
		{
			name:      "environment creation fails",
			setup:     func(f *fixture) { f.rt.VenvFails = true },
			wantKind:  provision.ErrEnvCreateFailed,
			wantLast2: []State{RuntimeReady, Failed},
		},
		{
			name:      "dependency install fails",
			setup:     func(f *fixture) { f.rt.RequirementsExitCode = 3 },
			wantKind:  provision.ErrDependencyInstallFailed,
			wantLast2: []State{DependenciesUnknown, Failed},
		},
		{
			name:      "native binding not importable",
			setup:     func(f *fixture) { f.rt.Unimportable = map[string]bool{"PyQt5.QtWebEngineWidgets": true} },
			wantKind:  provision.ErrVerificationFailed,
			wantLast2: []State{DependenciesSatisfied, Failed},
		},
		{
			name:      "handoff exits non-zero",
			setup:     func(f *fixture) { f.handoff.code = 4 },
			wantKind:  pipeline.ErrStepFailed,
			wantLast2: []State{PipelineRunning, Failed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			tt.setup(f)

			report, err := f.orchestrator().Run(t.Context(), ModeLaunch)
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("Run() error = %v, want %v", err, tt.wantKind)
			}
			if report.Final() != Failed {
				t.Errorf("Final() = %s, want failed", report.Final())
			}
			if got := report.Trace[len(report.Trace)-2:]; !slices.Equal(got, tt.wantLast2) {
				t.Errorf("Trace tail = %v, want %v", got, tt.wantLast2)
			}
		})
	}
}

func TestRun_PropagatesStepExitCode(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.handoff.code = 7

	_, err := f.orchestrator().Run(t.Context(), ModeLaunch)
	var sfe *pipeline.StepFailedError
	if !errors.As(err, &sfe) {
		t.Fatalf("Run() error = %v, want *StepFailedError", err)
	}
	if sfe.ExitCode != 7 || sfe.Tag != "application" {
		t.Errorf("StepFailedError = %+v, want application with exit code 7", sfe)
	}
}

func TestRun_VerificationReportsEveryFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.rt.Unimportable = map[string]bool{"scipy": true, "PyQt5.sip": true}

	report, err := f.orchestrator().Run(t.Context(), ModeSetup)
	if !errors.Is(err, provision.ErrVerificationFailed) {
		t.Fatalf("Run() error = %v", err)
	}
	var failed []string
	for _, r := range report.Verification.Failures() {
		failed = append(failed, r.Module)
	}
	if want := []string{"scipy", "PyQt5.sip"}; !slices.Equal(failed, want) {
		t.Errorf("failures = %v, want %v", failed, want)
	}
}

func TestRun_Canceled(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	report, err := f.orchestrator().Run(ctx, ModeLaunch)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if !slices.Equal(report.Trace, []State{Unprovisioned, Failed}) {
		t.Errorf("Trace = %v", report.Trace)
	}
	if n := len(f.exec.Calls()); n != 0 {
		t.Errorf("%d commands ran after cancellation", n)
	}
}

func TestRun_StopsAtFirstFailingComponent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	boom := errors.New("boom")
	stub := &stubProvisioner{baseErr: boom}

	report, err := f.orchestrator(WithRuntimeProvisioner(stub)).Run(t.Context(), ModeLaunch)
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want boom", err)
	}
	if stub.envCalls != 0 {
		t.Errorf("EnsureEnvironment called %d times after base runtime failure", stub.envCalls)
	}
	if report.Final() != Failed {
		t.Errorf("Final() = %s", report.Final())
	}
}

func TestVerify(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	o := f.orchestrator()

	_, err := o.Verify(t.Context())
	if !errors.Is(err, provision.ErrVerificationFailed) || !errors.Is(err, ErrEnvironmentMissing) {
		t.Fatalf("Verify() on missing environment error = %v", err)
	}

	f.preinstall(t, "3.11.9", "3.11.9", true)
	res, err := o.Verify(t.Context())
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if len(res.Probed) != len(f.cfg.Dependencies.ProbeModules()) {
		t.Errorf("Probed = %v", res.Probed)
	}
	if f.exec.CountMatching("venv") != 0 || len(f.dl.URLs()) != 0 {
		t.Error("Verify() provisioned something")
	}
}

func TestPlan(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if err := os.Remove(filepath.Join(f.dir, "setup_gmt_files.py")); err != nil {
		t.Fatal(err)
	}

	p := f.orchestrator().Plan()
	if p.ArtifactURL != artifactURL {
		t.Errorf("ArtifactURL = %q", p.ArtifactURL)
	}
	if p.BaseDir != f.rt.BaseDir || p.EnvDir != f.rt.EnvDir {
		t.Errorf("dirs = %q, %q", p.BaseDir, p.EnvDir)
	}
	if p.BaseInstalled || p.EnvPresent {
		t.Error("plan reports an installation on a fresh machine")
	}
	if !p.ManifestPresent {
		t.Error("ManifestPresent = false")
	}
	if len(p.Commands) != 4 || !strings.Contains(p.Commands[2], "-m venv --copies") {
		t.Errorf("Commands = %q", p.Commands)
	}
	if len(p.Steps) != 3 || p.Steps[1].Present || !p.Steps[2].Handoff {
		t.Errorf("Steps = %+v", p.Steps)
	}
	if n := len(f.exec.Calls()); n != 0 {
		t.Errorf("Plan() ran %d commands", n)
	}
}
