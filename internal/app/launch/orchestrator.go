// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pathxcite/pxlaunch/internal/config"
	"github.com/pathxcite/pxlaunch/internal/pipeline"
	"github.com/pathxcite/pxlaunch/internal/process"
	"github.com/pathxcite/pxlaunch/internal/provision"
	"github.com/pathxcite/pxlaunch/pkg/platform"
)

const (
	// ModeLaunch provisions, verifies and then runs the pipeline.
	ModeLaunch Mode = iota
	// ModeSetup provisions and verifies without running the pipeline.
	ModeSetup
)

// ErrEnvironmentMissing is the cause reported when verification is asked for
// an environment that has not been created.
var ErrEnvironmentMissing = errors.New("environment interpreter not found")

type (
	// Mode selects how far Run goes.
	Mode int

	// RuntimeProvisioner ensures the base runtime, the environment and the
	// installed packages. *provision.Provisioner implements it.
	RuntimeProvisioner interface {
		EnsureBaseRuntime(ctx context.Context, spec provision.RuntimeSpec) (string, error)
		EnsureEnvironment(ctx context.Context, baseInterpreter string, spec provision.RuntimeSpec, root string) (provision.EnvironmentHandle, error)
		InstallPackages(ctx context.Context, env provision.EnvironmentHandle, manifestPath string) error
	}

	// Verifier probes an environment. *provision.Gate implements it.
	Verifier interface {
		FastProbe(ctx context.Context, env provision.EnvironmentHandle) bool
		StrictProbe(ctx context.Context, env provision.EnvironmentHandle) (provision.VerificationResult, error)
	}

	// PipelineRunner runs the post-verification scripts. *pipeline.Runner
	// implements it.
	PipelineRunner interface {
		RunPipeline(ctx context.Context, env provision.EnvironmentHandle, steps []pipeline.Step) error
	}

	// Report describes one Run.
	Report struct {
		Mode Mode
		// Trace lists every state entered, starting with Unprovisioned.
		Trace []State
		// InstallerRan is true when the fast probe failed and packages were installed.
		InstallerRan bool
		// Environment is the environment the run ended up using.
		Environment provision.EnvironmentHandle
		// Verification is the strict probe's result, when it ran.
		Verification provision.VerificationResult
	}

	// Orchestrator runs the provisioning flow for one configuration.
	Orchestrator struct {
		cfg        config.Config
		plat       platform.Platform
		workDir    string
		exec       process.Executor
		downloader provision.Downloader
		handoff    pipeline.Handoff
		stdin      io.Reader
		stdout     io.Writer
		stderr     io.Writer

		runtime  RuntimeProvisioner
		verifier Verifier
		runner   PipelineRunner
	}

	// Option is a functional option for configuring an Orchestrator.
	Option func(*Orchestrator)

	// machine applies events to the current state and records the trace.
	machine struct {
		state  State
		report *Report
	}
)

// New creates an Orchestrator for cfg on plat. Relative paths in cfg are
// resolved against workDir. Components not supplied through options are
// built from cfg on top of the host's process executor.
func New(cfg config.Config, plat platform.Platform, workDir string, opts ...Option) *Orchestrator {
	if abs, err := filepath.Abs(workDir); err == nil {
		workDir = abs
	}
	o := &Orchestrator{
		cfg:     cfg,
		plat:    plat,
		workDir: workDir,
		exec:    process.NewNativeExecutor(),
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.runtime == nil {
		popts := []provision.Option{
			provision.WithExecutor(o.exec),
			provision.WithOutput(o.stdout, o.stderr),
			provision.WithArtifactSource(cfg.Runtime.ArtifactBaseURL, cfg.Runtime.ArtifactSHA256),
			provision.WithGetPipURL(cfg.Dependencies.GetPipURL),
			provision.WithShebangLimit(cfg.Environment.ShebangLimit),
		}
		if o.downloader != nil {
			popts = append(popts, provision.WithDownloader(o.downloader))
		}
		o.runtime = provision.New(platform.AdapterFor(plat), popts...)
	}
	if o.verifier == nil {
		o.verifier = provision.NewGate(o.exec, cfg.Dependencies.ProbeModules())
	}
	if o.runner == nil {
		ropts := []pipeline.RunnerOption{
			pipeline.WithExecutor(o.exec),
			pipeline.WithWorkDir(workDir),
			pipeline.WithStreams(o.stdin, o.stdout, o.stderr),
		}
		if o.handoff != nil {
			ropts = append(ropts, pipeline.WithHandoff(o.handoff))
		}
		o.runner = pipeline.NewRunner(ropts...)
	}
	return o
}

// WithExecutor sets the process executor used by the default components.
func WithExecutor(e process.Executor) Option {
	return func(o *Orchestrator) {
		o.exec = e
	}
}

// WithDownloader sets the downloader used by the default provisioner.
func WithDownloader(d provision.Downloader) Option {
	return func(o *Orchestrator) {
		o.downloader = d
	}
}

// WithHandoff sets how the default pipeline runner runs the final step.
func WithHandoff(h pipeline.Handoff) Option {
	return func(o *Orchestrator) {
		o.handoff = h
	}
}

// WithStreams sets the standard streams for subprocesses.
func WithStreams(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(o *Orchestrator) {
		o.stdin = stdin
		o.stdout = stdout
		o.stderr = stderr
	}
}

// WithRuntimeProvisioner replaces the provisioner.
func WithRuntimeProvisioner(r RuntimeProvisioner) Option {
	return func(o *Orchestrator) {
		o.runtime = r
	}
}

// WithVerifier replaces the verification gate.
func WithVerifier(v Verifier) Option {
	return func(o *Orchestrator) {
		o.verifier = v
	}
}

// WithPipelineRunner replaces the pipeline runner.
func WithPipelineRunner(r PipelineRunner) Option {
	return func(o *Orchestrator) {
		o.runner = r
	}
}

// RuntimeSpec returns the pinned runtime this orchestrator provisions.
func (o *Orchestrator) RuntimeSpec() provision.RuntimeSpec {
	return provision.RuntimeSpec{
		Version:  o.cfg.Runtime.Version,
		BaseDir:  o.path(o.cfg.Runtime.Dir),
		Platform: o.plat,
	}
}

// EnvironmentDir returns the absolute environment directory.
func (o *Orchestrator) EnvironmentDir() string {
	return o.path(o.cfg.Environment.Dir)
}

// ManifestPath returns the absolute package manifest path.
func (o *Orchestrator) ManifestPath() string {
	return o.path(o.cfg.Dependencies.Manifest)
}

// Steps returns the configured pipeline steps.
func (o *Orchestrator) Steps() []pipeline.Step {
	return pipeline.StepsFromConfig(o.cfg.Pipeline)
}

// Run executes the flow up to mode's final state. The returned Report is
// valid even when err is non-nil; its last state is then Failed. In
// ModeLaunch on POSIX hosts a successful handoff replaces the process and
// Run does not return.
func (o *Orchestrator) Run(ctx context.Context, mode Mode) (Report, error) {
	report := Report{Mode: mode, Trace: []State{Unprovisioned}}
	m := &machine{state: Unprovisioned, report: &report}

	if err := ctx.Err(); err != nil {
		return report, m.fail(err)
	}

	spec := o.RuntimeSpec()
	base, err := o.runtime.EnsureBaseRuntime(ctx, spec)
	if err != nil {
		return report, m.fail(err)
	}
	if err := m.fire(RuntimeEnsured); err != nil {
		return report, err
	}

	env, err := o.runtime.EnsureEnvironment(ctx, base, spec, o.EnvironmentDir())
	if err != nil {
		return report, m.fail(err)
	}
	report.Environment = env
	if err := m.fire(EnvironmentEnsured); err != nil {
		return report, err
	}

	if o.verifier.FastProbe(ctx, env) {
		if err := m.fire(FastProbePassed); err != nil {
			return report, err
		}
	} else {
		if err := m.fire(FastProbeFailed); err != nil {
			return report, err
		}
		report.InstallerRan = true
		if err := o.runtime.InstallPackages(ctx, env, o.ManifestPath()); err != nil {
			return report, m.fail(err)
		}
		if err := m.fire(DependenciesInstalled); err != nil {
			return report, err
		}
	}

	result, err := o.verifier.StrictProbe(ctx, env)
	report.Verification = result
	if err != nil {
		return report, m.fail(err)
	}
	if err := m.fire(StrictProbePassed); err != nil {
		return report, err
	}

	if mode == ModeSetup {
		return report, m.fire(SetupCompleted)
	}

	if err := m.fire(PipelineStarted); err != nil {
		return report, err
	}
	if err := o.runner.RunPipeline(ctx, env, o.Steps()); err != nil {
		return report, m.fail(err)
	}
	return report, m.fire(PipelineCompleted)
}

// Verify runs the strict probe against the existing environment without
// provisioning anything.
func (o *Orchestrator) Verify(ctx context.Context) (provision.VerificationResult, error) {
	root := o.EnvironmentDir()
	env := provision.EnvironmentHandle{
		Root:        root,
		Interpreter: platform.AdapterFor(o.plat).EnvInterpreter(root),
	}
	if _, err := os.Stat(env.Interpreter); err != nil {
		return provision.VerificationResult{}, &provision.Error{
			Kind: provision.ErrVerificationFailed,
			Op:   "verify environment",
			Path: root,
			Err:  ErrEnvironmentMissing,
		}
	}
	env.Exists = true
	return o.verifier.StrictProbe(ctx, env)
}

// Final returns the last state entered.
func (r Report) Final() State {
	if len(r.Trace) == 0 {
		return Unprovisioned
	}
	return r.Trace[len(r.Trace)-1]
}

// String returns the mode's name.
func (m Mode) String() string {
	if m == ModeSetup {
		return "setup"
	}
	return "launch"
}

func (o *Orchestrator) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(o.workDir, p)
}

func (m *machine) fire(ev Event) error {
	next, err := Transition(m.state, ev)
	if err != nil {
		return err
	}
	slog.Debug("state transition", "from", m.state, "event", ev, "to", next)
	m.state = next
	m.report.Trace = append(m.report.Trace, next)
	return nil
}

// fail moves the machine to Failed and returns cause.
func (m *machine) fail(cause error) error {
	if err := m.fire(Error); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}
