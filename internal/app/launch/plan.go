// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"os"
	"path/filepath"

	"github.com/pathxcite/pxlaunch/internal/download"
	"github.com/pathxcite/pxlaunch/internal/process"
	"github.com/pathxcite/pxlaunch/internal/provision"
	"github.com/pathxcite/pxlaunch/pkg/platform"
	"github.com/pathxcite/pxlaunch/pkg/types"
)

type (
	// Plan is what a run would do on this host, computed without running
	// any process or touching the network.
	Plan struct {
		Platform        platform.Platform
		Version         types.RuntimeVersion
		ArtifactURL     string
		BaseDir         string
		BaseInterpreter string
		BaseInstalled   bool
		EnvDir          string
		EnvInterpreter  string
		EnvPresent      bool
		Manifest        string
		ManifestPresent bool
		ProbeModules    []string
		Steps           []PlannedStep
		// Commands are the provisioning commands, shell-quoted, in the order
		// a fresh machine would run them.
		Commands []string
		// ShebangTooLong is set when the environment interpreter path
		// exceeds the configured shebang limit on a POSIX host.
		ShebangTooLong bool
	}

	// PlannedStep is a pipeline step with its resolved script.
	PlannedStep struct {
		Tag      string
		Script   string
		Required bool
		Handoff  bool
		Present  bool
	}
)

// Plan describes the run for the current configuration.
func (o *Orchestrator) Plan() Plan {
	adapter := platform.AdapterFor(o.plat)
	spec := o.RuntimeSpec()
	envDir := o.EnvironmentDir()
	base := adapter.BaseInterpreter(spec.BaseDir)
	envPy := adapter.EnvInterpreter(envDir)
	artifact := filepath.Join(filepath.Dir(spec.BaseDir), adapter.ArtifactName())

	p := Plan{
		Platform:        o.plat,
		Version:         spec.Version,
		ArtifactURL:     download.JoinURL(o.cfg.Runtime.ArtifactBaseURL, adapter.ArtifactName()),
		BaseDir:         spec.BaseDir,
		BaseInterpreter: base,
		BaseInstalled:   exists(base),
		EnvDir:          envDir,
		EnvInterpreter:  envPy,
		EnvPresent:      exists(envPy),
		Manifest:        o.ManifestPath(),
		ManifestPresent: exists(o.ManifestPath()),
		ProbeModules:    o.cfg.Dependencies.ProbeModules(),
		Commands: []string{
			process.Quote(adapter.InstallCommand(artifact, spec.BaseDir)),
			process.Quote([]string{adapter.BasePackageManager(spec.BaseDir), "install", "-y", "python=" + spec.Version.String()}),
			process.Quote([]string{base, "-m", "venv", "--copies", envDir}),
			process.Quote([]string{envPy, "-m", "pip", "install", "-r", o.ManifestPath()}),
		},
		ShebangTooLong: o.plat.Family != platform.FamilyWindows &&
			provision.ShebangTooLong(envPy, o.cfg.Environment.ShebangLimit),
	}
	for _, s := range o.Steps() {
		script := o.path(s.Script)
		p.Steps = append(p.Steps, PlannedStep{
			Tag:      s.Tag,
			Script:   script,
			Required: s.Required,
			Handoff:  s.Handoff,
			Present:  exists(script),
		})
	}
	return p
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
