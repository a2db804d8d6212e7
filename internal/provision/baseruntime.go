// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pathxcite/pxlaunch/internal/download"
	"github.com/pathxcite/pxlaunch/internal/process"
)

// errInterpreterMissing is the cause recorded when an installer exits
// successfully but leaves no interpreter behind.
var errInterpreterMissing = errors.New("interpreter not found after install")

// EnsureBaseRuntime makes sure a base runtime reporting spec.Version exists
// at spec.BaseDir and returns its interpreter path. A missing runtime is
// downloaded and installed unattended; a runtime reporting another version
// has the pinned version installed in place by its own package manager.
// With a correct installation the only work done is the version query.
func (p *Provisioner) EnsureBaseRuntime(ctx context.Context, spec RuntimeSpec) (string, error) {
	interpreter := p.adapter.BaseInterpreter(spec.BaseDir)

	if fileExists(interpreter) {
		slog.Debug("base runtime present", "interpreter", interpreter)
	} else {
		if err := p.installBaseRuntime(ctx, spec); err != nil {
			return "", err
		}
		if !fileExists(interpreter) {
			return "", &Error{Kind: ErrInstallFailed, Op: "install base runtime", Path: interpreter, Err: errInterpreterMissing}
		}
	}

	reported, err := p.queryVersion(ctx, interpreter)
	if err != nil {
		return "", &Error{
			Kind:    ErrInstallFailed,
			Op:      "query base runtime version",
			Path:    interpreter,
			Command: process.Quote([]string{interpreter, "-V"}),
			Err:     err,
		}
	}

	if spec.Version.Matches(reported) {
		slog.Debug("base runtime version ok", "version", reported)
		return interpreter, nil
	}

	slog.Info("pinning base runtime version", "reported", reported, "pinned", spec.Version)
	if err := p.pinVersion(ctx, spec); err != nil {
		return "", err
	}

	reported, err = p.queryVersion(ctx, interpreter)
	if err != nil || !spec.Version.Matches(reported) {
		if err == nil {
			err = fmt.Errorf("interpreter still reports %q after pinning %s", reported, spec.Version)
		}
		return "", &Error{Kind: ErrVersionPinFailed, Op: "pin base runtime version", Path: spec.BaseDir, Err: err}
	}

	return interpreter, nil
}

// installBaseRuntime downloads the installer next to the install directory,
// optionally verifies it, runs it and removes it again.
func (p *Provisioner) installBaseRuntime(ctx context.Context, spec RuntimeSpec) error {
	parent := filepath.Dir(spec.BaseDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return &Error{Kind: ErrDownloadFailed, Op: "prepare download directory", Path: parent, Err: err}
	}

	url := p.ArtifactURL()
	slog.Info("downloading base runtime", "url", url)

	artifact, err := p.downloader.ToFile(ctx, url, parent, filepath.Ext(p.adapter.ArtifactName()))
	if err != nil {
		return &Error{Kind: ErrDownloadFailed, Op: "download base runtime", Path: url, Err: err}
	}
	defer func() {
		if rmErr := os.Remove(artifact); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			slog.Warn("failed to remove installer", "path", artifact, "error", rmErr)
		}
	}()

	if p.artifactSHA256 != "" {
		if err := download.VerifyFile(artifact, p.artifactSHA256); err != nil {
			return &Error{Kind: ErrDownloadFailed, Op: "verify base runtime installer", Path: url, Err: err}
		}
	}

	slog.Info("installing base runtime", "dir", spec.BaseDir)
	cmd := process.Command{
		Argv:            p.adapter.InstallCommand(artifact, spec.BaseDir),
		Stdout:          p.stdout,
		Stderr:          p.stderr,
		VerbatimLastArg: true,
	}
	if res := p.exec.Run(ctx, cmd); res.Failed() {
		return commandError(ErrInstallFailed, "install base runtime", spec.BaseDir, cmd, res)
	}
	return nil
}

// pinVersion installs the pinned interpreter version into the base runtime.
func (p *Provisioner) pinVersion(ctx context.Context, spec RuntimeSpec) error {
	manager := p.adapter.BasePackageManager(spec.BaseDir)
	cmd, res := p.stream(ctx, manager, "install", "-y", "python="+spec.Version.String())
	if res.Failed() {
		return commandError(ErrVersionPinFailed, "pin base runtime version", spec.BaseDir, cmd, res)
	}
	return nil
}
