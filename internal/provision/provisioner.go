// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/pathxcite/pxlaunch/internal/config"
	"github.com/pathxcite/pxlaunch/internal/download"
	"github.com/pathxcite/pxlaunch/internal/process"
	"github.com/pathxcite/pxlaunch/pkg/platform"
	"github.com/pathxcite/pxlaunch/pkg/types"
)

type (
	// RuntimeSpec describes the pinned base runtime.
	RuntimeSpec struct {
		// Version is the pinned major.minor interpreter version.
		Version types.RuntimeVersion
		// BaseDir is the absolute install directory of the base runtime.
		BaseDir string
		// Platform is the detected host platform.
		Platform platform.Platform
	}

	// EnvironmentHandle describes an isolated environment.
	EnvironmentHandle struct {
		// Root is the environment directory.
		Root string
		// Interpreter is the environment's interpreter executable.
		Interpreter string
		// Version is the interpreter version as reported by the interpreter.
		Version string
		// Exists is true once the environment has been validated or created.
		Exists bool
		// Created is true when this run (re)created the environment.
		Created bool
	}

	// Downloader fetches a URL into a temporary file inside dir.
	Downloader interface {
		ToFile(ctx context.Context, url, dir, suffix string) (string, error)
	}

	// Provisioner ensures the base runtime, the isolated environment and the
	// installed dependencies. It is not safe for concurrent use; the launcher
	// runs every step sequentially.
	Provisioner struct {
		adapter         platform.Adapter
		exec            process.Executor
		downloader      Downloader
		stdout          io.Writer
		stderr          io.Writer
		artifactBaseURL string
		artifactSHA256  string
		getPipURL       string
		shebangLimit    int
	}

	// Option is a functional option for configuring a Provisioner.
	Option func(*Provisioner)
)

// New creates a Provisioner for the given platform adapter. Without options
// it runs real processes, downloads from the default locations and discards
// subprocess output.
func New(adapter platform.Adapter, opts ...Option) *Provisioner {
	p := &Provisioner{
		adapter:         adapter,
		exec:            process.NewNativeExecutor(),
		downloader:      download.NewClient(),
		stdout:          io.Discard,
		stderr:          io.Discard,
		artifactBaseURL: config.DefaultArtifactBaseURL,
		getPipURL:       config.DefaultGetPipURL,
		shebangLimit:    config.DefaultShebangLimit,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithExecutor sets the process executor.
func WithExecutor(e process.Executor) Option {
	return func(p *Provisioner) {
		p.exec = e
	}
}

// WithDownloader sets the artifact downloader.
func WithDownloader(d Downloader) Option {
	return func(p *Provisioner) {
		p.downloader = d
	}
}

// WithOutput streams installer and package-manager output to the given writers.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(p *Provisioner) {
		p.stdout = stdout
		p.stderr = stderr
	}
}

// WithArtifactSource sets where the runtime installer is downloaded from and,
// when sha256 is non-empty, the digest it must match.
func WithArtifactSource(baseURL, sha256 string) Option {
	return func(p *Provisioner) {
		p.artifactBaseURL = baseURL
		p.artifactSHA256 = sha256
	}
}

// WithGetPipURL sets the fallback package-manager bootstrap script URL.
func WithGetPipURL(url string) Option {
	return func(p *Provisioner) {
		p.getPipURL = url
	}
}

// WithShebangLimit sets the interpreter path length above which a warning is logged.
func WithShebangLimit(n int) Option {
	return func(p *Provisioner) {
		p.shebangLimit = n
	}
}

// ArtifactURL returns the URL the base runtime installer is fetched from.
func (p *Provisioner) ArtifactURL() string {
	return download.JoinURL(p.artifactBaseURL, p.adapter.ArtifactName())
}

// Adapter returns the platform adapter.
func (p *Provisioner) Adapter() platform.Adapter {
	return p.adapter
}

// stream runs argv with output forwarded to the provisioner's writers.
func (p *Provisioner) stream(ctx context.Context, argv ...string) (process.Command, *process.Result) {
	cmd := process.Command{Argv: argv, Stdout: p.stdout, Stderr: p.stderr}
	return cmd, p.exec.Run(ctx, cmd)
}

// quiet runs argv capturing its output without forwarding it.
func (p *Provisioner) quiet(ctx context.Context, argv ...string) (process.Command, *process.Result) {
	cmd := process.Command{Argv: argv, Capture: true}
	return cmd, p.exec.Run(ctx, cmd)
}

// queryVersion asks an interpreter for its version ("Python 3.11.9").
// Interpreters before 3.4 print the banner on stderr, so both streams count.
func (p *Provisioner) queryVersion(ctx context.Context, interpreter string) (string, error) {
	_, res := p.quiet(ctx, interpreter, "-V")
	if err := res.Err(); err != nil {
		return "", err
	}
	reported := strings.TrimSpace(res.Output)
	if reported == "" {
		reported = strings.TrimSpace(res.ErrOutput)
	}
	return reported, nil
}

// commandError builds an *Error for a subprocess that failed.
func commandError(kind error, op, path string, cmd process.Command, res *process.Result) *Error {
	e := &Error{
		Kind:    kind,
		Op:      op,
		Path:    path,
		Command: cmd.String(),
		Err:     res.Err(),
	}
	if res.Error == nil {
		e.ExitCode = res.ExitCode
	}
	if msg := lastLine(res.ErrOutput); msg != "" && res.Error == nil {
		e.Err = &stderrError{code: res.ExitCode, line: msg}
	}
	return e
}

// stderrError reports a non-zero exit together with the last line the
// process wrote to stderr.
type stderrError struct {
	code types.ExitCode
	line string
}

func (e *stderrError) Error() string {
	return "exit status " + e.code.String() + ": " + e.line
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
