// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pathxcite/pxlaunch/pkg/platform"
)

// EnsureEnvironment returns a valid isolated environment at root derived
// from baseInterpreter. An existing environment is reused only when its
// interpreter runs and reports spec.Version; anything else (missing
// interpreter, wrong version, corruption) causes the whole directory to be
// removed and created again. Environments are never repaired in place, and
// a creation that fails removes whatever it left at root.
func (p *Provisioner) EnsureEnvironment(ctx context.Context, baseInterpreter string, spec RuntimeSpec, root string) (_ EnvironmentHandle, err error) {
	interpreter := p.adapter.EnvInterpreter(root)

	if handle, ok := p.inspectEnvironment(ctx, spec, root, interpreter); ok {
		slog.Debug("reusing environment", "root", root, "version", handle.Version)
		return handle, nil
	}

	if dirExists(root) {
		slog.Info("removing stale environment", "root", root)
		if err = os.RemoveAll(root); err != nil {
			return EnvironmentHandle{}, &Error{Kind: ErrEnvCreateFailed, Op: "remove stale environment", Path: root, Err: err}
		}
	}

	defer func() {
		if err == nil {
			return
		}
		if rmErr := os.RemoveAll(root); rmErr != nil {
			slog.Warn("failed to remove partial environment", "root", root, "error", rmErr)
		}
	}()

	slog.Info("creating environment", "root", root)
	cmd, res := p.stream(ctx, baseInterpreter, "-m", "venv", "--copies", root)
	if res.Failed() {
		return EnvironmentHandle{}, commandError(ErrEnvCreateFailed, "create environment", root, cmd, res)
	}

	if !fileExists(interpreter) {
		return EnvironmentHandle{}, &Error{Kind: ErrEnvCreateIncomplete, Op: "create environment", Path: interpreter, Err: errInterpreterMissing}
	}
	reported, err := p.queryVersion(ctx, interpreter)
	if err != nil {
		return EnvironmentHandle{}, &Error{Kind: ErrEnvCreateIncomplete, Op: "query environment version", Path: interpreter, Err: err}
	}
	if !spec.Version.Matches(reported) {
		return EnvironmentHandle{}, &Error{
			Kind: ErrEnvCreateIncomplete,
			Op:   "create environment",
			Path: interpreter,
			Err:  fmt.Errorf("environment reports %q, pinned %s", reported, spec.Version),
		}
	}

	p.checkShebangLength(spec.Platform, interpreter)

	return EnvironmentHandle{
		Root:        root,
		Interpreter: interpreter,
		Version:     reported,
		Exists:      true,
		Created:     true,
	}, nil
}

// inspectEnvironment reports whether root already holds an environment
// whose interpreter runs and reports the pinned version.
func (p *Provisioner) inspectEnvironment(ctx context.Context, spec RuntimeSpec, root, interpreter string) (EnvironmentHandle, bool) {
	if !fileExists(interpreter) {
		return EnvironmentHandle{}, false
	}
	reported, err := p.queryVersion(ctx, interpreter)
	if err != nil {
		slog.Debug("environment interpreter does not run", "interpreter", interpreter, "error", err)
		return EnvironmentHandle{}, false
	}
	if !spec.Version.Matches(reported) {
		slog.Info("environment version mismatch", "reported", reported, "pinned", spec.Version)
		return EnvironmentHandle{}, false
	}
	return EnvironmentHandle{Root: root, Interpreter: interpreter, Version: reported, Exists: true}, true
}

// checkShebangLength warns when console scripts installed into the
// environment would get a shebang line longer than the kernel accepts.
func (p *Provisioner) checkShebangLength(plat platform.Platform, interpreter string) {
	if plat.Family == platform.FamilyWindows {
		return
	}
	abs, err := filepath.Abs(interpreter)
	if err != nil {
		abs = interpreter
	}
	if ShebangTooLong(abs, p.shebangLimit) {
		slog.Warn("environment interpreter path is longer than the shebang limit; installed console scripts may fail to start",
			"path", abs, "length", len(abs), "limit", p.shebangLimit)
	}
}

// ShebangTooLong reports whether an interpreter path exceeds limit bytes.
func ShebangTooLong(interpreter string, limit int) bool {
	return limit > 0 && len(interpreter) > limit
}
