// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// InstallPackages bootstraps the package manager inside env if needed,
// upgrades the packaging toolchain and installs the manifest. Installation
// is all-or-nothing from the caller's point of view: any failure leaves the
// environment unmarked, so the next run probes it again and retries the
// full install. Post-install consistency problems are logged, not returned.
func (p *Provisioner) InstallPackages(ctx context.Context, env EnvironmentHandle, manifestPath string) error {
	if !fileExists(manifestPath) {
		return &Error{Kind: ErrManifestMissing, Op: "install dependencies", Path: manifestPath, Err: os.ErrNotExist}
	}

	if err := p.ensurePackageManager(ctx, env); err != nil {
		return err
	}

	py := env.Interpreter

	slog.Info("upgrading packaging tools")
	cmd, res := p.stream(ctx, py, "-m", "pip", "install", "--upgrade", "pip", "setuptools", "wheel")
	if res.Failed() {
		return commandError(ErrDependencyInstallFailed, "upgrade packaging tools", env.Root, cmd, res)
	}

	slog.Info("installing dependencies", "manifest", manifestPath)
	cmd, res = p.stream(ctx, py, "-m", "pip", "install", "-r", manifestPath)
	if res.Failed() {
		return commandError(ErrDependencyInstallFailed, "install dependencies", manifestPath, cmd, res)
	}

	if _, res := p.stream(ctx, py, "-m", "pip", "list"); res.Failed() {
		slog.Warn("listing installed packages failed", "error", res.Err())
	}
	slog.Info("checking installed package consistency")
	if cmd, res := p.stream(ctx, py, "-m", "pip", "check"); res.Failed() {
		slog.Warn("installed packages have inconsistent requirements",
			"command", cmd.String(), "error", res.Err())
	}

	return nil
}

// ensurePackageManager makes pip importable in env, trying the bundled
// ensurepip module first and the downloadable bootstrap script second.
func (p *Provisioner) ensurePackageManager(ctx context.Context, env EnvironmentHandle) error {
	py := env.Interpreter

	if _, res := p.quiet(ctx, py, "-m", "pip", "--version"); !res.Failed() {
		return nil
	}

	slog.Info("bootstrapping package manager with ensurepip")
	ensureCmd, res := p.stream(ctx, py, "-m", "ensurepip", "--upgrade")
	if !res.Failed() {
		return nil
	}
	ensureErr := commandError(ErrPackageManagerBootstrapFailed, "bootstrap package manager", env.Root, ensureCmd, res)

	slog.Warn("ensurepip failed, falling back to get-pip.py", "url", p.getPipURL)
	script, err := p.downloader.ToFile(ctx, p.getPipURL, env.Root, ".py")
	if err != nil {
		return &Error{
			Kind: ErrPackageManagerBootstrapFailed,
			Op:   "download get-pip.py",
			Path: p.getPipURL,
			Err:  errors.Join(ensureErr, err),
		}
	}
	defer func() {
		if rmErr := os.Remove(script); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			slog.Warn("failed to remove bootstrap script", "path", script, "error", rmErr)
		}
	}()

	cmd, res := p.stream(ctx, py, script)
	if res.Failed() {
		e := commandError(ErrPackageManagerBootstrapFailed, "bootstrap package manager", env.Root, cmd, res)
		e.Err = errors.Join(fmt.Errorf("ensurepip: %w", ensureErr), e.Err)
		return e
	}
	return nil
}
