// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pathxcite/pxlaunch/internal/config"
	"github.com/pathxcite/pxlaunch/internal/process"
	"github.com/pathxcite/pxlaunch/internal/provision"
	"github.com/pathxcite/pxlaunch/pkg/types"
)

type (
	// Step is one script of the pipeline.
	Step struct {
		// Script is the script path, relative to the runner's working directory.
		Script string
		// Tag names the step in logs and errors ("import check").
		Tag string
		// Required steps fail the pipeline when their script is missing.
		Required bool
		// Handoff marks the final step that replaces the launcher process.
		Handoff bool
	}

	// Handoff runs the final step. Replace does not return when the process
	// image is replaced; otherwise it returns the child's exit code.
	Handoff interface {
		Replace(ctx context.Context, cmd process.Command) (types.ExitCode, error)
	}

	// Runner executes pipeline steps.
	Runner struct {
		exec    process.Executor
		handoff Handoff
		workDir string
		stdin   io.Reader
		stdout  io.Writer
		stderr  io.Writer
	}

	// RunnerOption is a functional option for configuring a Runner.
	RunnerOption func(*Runner)
)

// NewRunner creates a Runner with inherited standard streams, the host's
// process executor and the platform's default handoff.
func NewRunner(opts ...RunnerOption) *Runner {
	exec := process.NewNativeExecutor()
	r := &Runner{
		exec:   exec,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.handoff == nil {
		r.handoff = DefaultHandoff(r.exec)
	}
	return r
}

// WithExecutor sets the executor for non-handoff steps.
func WithExecutor(e process.Executor) RunnerOption {
	return func(r *Runner) {
		r.exec = e
	}
}

// WithHandoff sets how the final step is run.
func WithHandoff(h Handoff) RunnerOption {
	return func(r *Runner) {
		r.handoff = h
	}
}

// WithWorkDir sets the directory scripts are resolved against and run in.
func WithWorkDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.workDir = dir
	}
}

// WithStreams sets the standard streams handed to every step.
func WithStreams(stdin io.Reader, stdout, stderr io.Writer) RunnerOption {
	return func(r *Runner) {
		r.stdin = stdin
		r.stdout = stdout
		r.stderr = stderr
	}
}

// StepsFromConfig converts configured steps into pipeline steps.
func StepsFromConfig(cfg config.PipelineConfig) []Step {
	steps := make([]Step, len(cfg.Steps))
	for i, s := range cfg.Steps {
		steps[i] = Step(s)
	}
	return steps
}

// RunPipeline runs steps in order with env's interpreter, stopping at the
// first failure. A missing optional script is skipped; a missing required
// script fails with ErrScriptMissing. When the handoff step replaces the
// process image, RunPipeline does not return.
func (r *Runner) RunPipeline(ctx context.Context, env provision.EnvironmentHandle, steps []Step) error {
	for _, step := range steps {
		script := r.resolve(step.Script)

		if !fileExists(script) {
			if !step.Required {
				slog.Info("skipping optional step, script not found", "step", step.Tag, "script", script)
				continue
			}
			return &StepFailedError{
				Tag:      step.Tag,
				Script:   script,
				ExitCode: types.ExitGenericFailure,
				Err:      ErrScriptMissing,
			}
		}

		cmd := process.Command{
			Argv:   []string{env.Interpreter, script},
			Dir:    r.workDir,
			Stdin:  r.stdin,
			Stdout: r.stdout,
			Stderr: r.stderr,
		}

		if step.Handoff {
			slog.Info("handing off", "step", step.Tag, "script", script)
			code, err := r.handoff.Replace(ctx, cmd)
			if err != nil {
				return &StepFailedError{Tag: step.Tag, Script: script, Command: cmd.String(), ExitCode: types.ExitGenericFailure, Err: err}
			}
			if !code.IsSuccess() {
				return &StepFailedError{Tag: step.Tag, Script: script, Command: cmd.String(), ExitCode: code}
			}
			continue
		}

		slog.Info("running step", "step", step.Tag, "script", script)
		res := r.exec.Run(ctx, cmd)
		if res.Failed() {
			code := res.ExitCode
			if code.IsSuccess() {
				code = types.ExitGenericFailure
			}
			return &StepFailedError{Tag: step.Tag, Script: script, Command: cmd.String(), ExitCode: code, Err: res.Error}
		}
	}
	return nil
}

func (r *Runner) resolve(script string) string {
	if filepath.IsAbs(script) || r.workDir == "" {
		return script
	}
	return filepath.Join(r.workDir, script)
}

// ChildHandoff runs the final step as a child process and reports its exit
// code. It is the Windows handoff, and the fallback wherever the process
// image cannot be replaced.
type ChildHandoff struct {
	Exec process.Executor
}

// Replace runs cmd to completion.
func (h ChildHandoff) Replace(ctx context.Context, cmd process.Command) (types.ExitCode, error) {
	res := h.Exec.Run(ctx, cmd)
	if res.Error != nil {
		return types.ExitGenericFailure, res.Error
	}
	return res.ExitCode, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false
	}
	return err == nil && !info.IsDir()
}
