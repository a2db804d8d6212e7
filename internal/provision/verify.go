// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pathxcite/pxlaunch/internal/process"
)

// strictProbeScript imports every module named on its command line
// independently and prints one JSON object per module. Imports run with
// sys.stdout pointed at stderr, and each record starts on a fresh line, so
// output from the imported modules cannot merge with a record.
const strictProbeScript = `import importlib, json, sys
out = sys.stdout
for name in sys.argv[1:]:
    sys.stdout = sys.stderr
    try:
        importlib.import_module(name)
        rec = {"module": name, "ok": True, "error": ""}
    except BaseException as exc:
        rec = {"module": name, "ok": False, "error": "%s: %s" % (type(exc).__name__, exc)}
    finally:
        sys.stdout = out
    out.write("\n" + json.dumps(rec) + "\n")
    out.flush()
`

type (
	// ModuleResult is the strict-probe outcome for one module.
	ModuleResult struct {
		Module string `json:"module"`
		OK     bool   `json:"ok"`
		Error  string `json:"error"`
	}

	// VerificationResult lists every probed module and its outcome.
	VerificationResult struct {
		Probed  []string
		Results map[string]ModuleResult
	}

	// Gate runs the fast and strict import probes against an environment.
	Gate struct {
		exec    process.Executor
		modules []string
	}
)

// NewGate creates a Gate that probes modules, in order.
func NewGate(exec process.Executor, modules []string) *Gate {
	return &Gate{exec: exec, modules: append([]string(nil), modules...)}
}

// Modules returns the probed module names.
func (g *Gate) Modules() []string {
	return append([]string(nil), g.modules...)
}

// FastProbe reports whether every module imports in a single interpreter
// run. Any failure, including an interpreter that does not start, means
// "install needed"; the probe's stderr is logged at debug level.
func (g *Gate) FastProbe(ctx context.Context, env EnvironmentHandle) bool {
	if len(g.modules) == 0 {
		return true
	}
	cmd := process.Command{
		Argv:    []string{env.Interpreter, "-c", "import " + strings.Join(g.modules, ", ")},
		Capture: true,
	}
	res := g.exec.Run(ctx, cmd)
	if res.Failed() {
		slog.Debug("fast probe failed", "command", cmd.String(), "error", res.Err(), "stderr", strings.TrimSpace(res.ErrOutput))
		return false
	}
	return true
}

// StrictProbe imports every module independently and returns the outcome of
// each. When any module fails, the result is returned together with an
// *Error of kind ErrVerificationFailed listing all failures. Modules the
// probe never reported on (e.g., because an import crashed the interpreter)
// count as failures.
func (g *Gate) StrictProbe(ctx context.Context, env EnvironmentHandle) (VerificationResult, error) {
	result := VerificationResult{
		Probed:  g.Modules(),
		Results: make(map[string]ModuleResult, len(g.modules)),
	}
	if len(g.modules) == 0 {
		return result, nil
	}

	argv := append([]string{env.Interpreter, "-c", strictProbeScript}, g.modules...)
	cmd := process.Command{Argv: argv, Capture: true}
	res := g.exec.Run(ctx, cmd)

	for _, rec := range parseProbeOutput(res.Output) {
		result.Results[rec.Module] = rec
	}

	missing := "no result from probe"
	if res.Failed() {
		missing = fmt.Sprintf("no result from probe (%v)", res.Err())
		if line := lastLine(res.ErrOutput); line != "" {
			missing += ": " + line
		}
	}
	for _, m := range g.modules {
		if _, ok := result.Results[m]; !ok {
			result.Results[m] = ModuleResult{Module: m, Error: missing}
		}
	}

	if failures := result.Failures(); len(failures) > 0 {
		return result, &Error{
			Kind:    ErrVerificationFailed,
			Op:      "verify environment",
			Path:    env.Root,
			Command: process.Quote([]string{env.Interpreter, "-c", "<strict probe>"}),
			Err:     &FailedModulesError{Failures: failures},
		}
	}
	return result, nil
}

// parseProbeOutput decodes the probe's JSON lines, skipping anything else
// the imported modules may have printed.
func parseProbeOutput(out string) []ModuleResult {
	var recs []ModuleResult
	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var rec ModuleResult
		if err := json.Unmarshal([]byte(line), &rec); err != nil || rec.Module == "" {
			continue
		}
		recs = append(recs, rec)
	}
	return recs
}

// OK reports whether every probed module imported.
func (r VerificationResult) OK() bool {
	return len(r.Failures()) == 0
}

// Failures returns the failing modules in probe order.
func (r VerificationResult) Failures() []ModuleResult {
	var out []ModuleResult
	for _, m := range r.Probed {
		if rec, ok := r.Results[m]; ok && !rec.OK {
			out = append(out, rec)
		}
	}
	return out
}

// FailedModulesError lists every module that failed the strict probe.
type FailedModulesError struct {
	Failures []ModuleResult
}

// Error implements the error interface.
func (e *FailedModulesError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d module(s) failed to import:", len(e.Failures))
	for _, f := range e.Failures {
		fmt.Fprintf(&sb, "\n    %s: %s", f.Module, f.Error)
	}
	return sb.String()
}
