// SPDX-License-Identifier: MPL-2.0

package process

import "strings"

// FilterEnv removes host variables that would make an interpreter look
// outside its own installation for the standard library or packages.
// Leaking them from the operator's shell breaks an isolated environment in
// ways that probes cannot distinguish from a missing package.
func FilterEnv(environ []string) []string {
	result := make([]string, 0, len(environ))
	for _, e := range environ {
		name, _, found := strings.Cut(e, "=")
		if !found {
			// Malformed env var, keep it
			result = append(result, e)
			continue
		}
		if shouldFilterEnvVar(name) {
			continue
		}
		result = append(result, e)
	}
	return result
}

func shouldFilterEnvVar(name string) bool {
	switch strings.ToUpper(name) {
	case "PYTHONHOME", "PYTHONPATH", "PYTHONSTARTUP", "PYTHONUSERBASE", "__PYVENV_LAUNCHER__":
		return true
	}
	return false
}
