// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"errors"
	"fmt"
)

const (
	// Unprovisioned is the initial state: nothing has been checked yet.
	Unprovisioned State = iota
	// RuntimeReady means the base runtime is installed and pinned.
	RuntimeReady
	// EnvironmentReady means the isolated environment is valid.
	EnvironmentReady
	// DependenciesUnknown means the fast probe failed and packages must be installed.
	DependenciesUnknown
	// DependenciesSatisfied means the required modules are believed importable.
	DependenciesSatisfied
	// Verified means the strict probe passed for every module.
	Verified
	// PipelineRunning means the pipeline steps are executing.
	PipelineRunning
	// Done is the terminal success state.
	Done
	// Failed is the terminal failure state.
	Failed
)

const (
	// RuntimeEnsured is reported when the base runtime is usable.
	RuntimeEnsured Event = iota
	// EnvironmentEnsured is reported when the environment is reused or created.
	EnvironmentEnsured
	// FastProbePassed is reported when the combined import succeeds.
	FastProbePassed
	// FastProbeFailed is reported when the combined import fails for any reason.
	FastProbeFailed
	// DependenciesInstalled is reported after the package manifest installs.
	DependenciesInstalled
	// StrictProbePassed is reported when every module imports on its own.
	StrictProbePassed
	// PipelineStarted is reported before the first pipeline step.
	PipelineStarted
	// PipelineCompleted is reported when every step has finished.
	PipelineCompleted
	// SetupCompleted ends a setup run once the environment is verified.
	SetupCompleted
	// Error is reported by any failing step.
	Error
)

// ErrInvalidTransition is the sentinel error wrapped by InvalidTransitionError.
var ErrInvalidTransition = errors.New("invalid state transition")

type (
	// State is a provisioning state.
	State int

	// Event is the outcome of one provisioning step.
	Event int

	// InvalidTransitionError is returned when an event has no transition
	// from the current state.
	InvalidTransitionError struct {
		From  State
		Event Event
	}
)

// transitions holds every legal non-error transition. Error is handled
// separately because it applies to every non-terminal state.
//
//nolint:gochecknoglobals // Immutable lookup table.
var transitions = map[State]map[Event]State{
	Unprovisioned:         {RuntimeEnsured: RuntimeReady},
	RuntimeReady:          {EnvironmentEnsured: EnvironmentReady},
	EnvironmentReady:      {FastProbePassed: DependenciesSatisfied, FastProbeFailed: DependenciesUnknown},
	DependenciesUnknown:   {DependenciesInstalled: DependenciesSatisfied},
	DependenciesSatisfied: {StrictProbePassed: Verified},
	Verified:              {PipelineStarted: PipelineRunning, SetupCompleted: Done},
	PipelineRunning:       {PipelineCompleted: Done},
}

var stateNames = [...]string{
	Unprovisioned:         "unprovisioned",
	RuntimeReady:          "runtime-ready",
	EnvironmentReady:      "environment-ready",
	DependenciesUnknown:   "dependencies-unknown",
	DependenciesSatisfied: "dependencies-satisfied",
	Verified:              "verified",
	PipelineRunning:       "pipeline-running",
	Done:                  "done",
	Failed:                "failed",
}

var eventNames = [...]string{
	RuntimeEnsured:        "runtime-ensured",
	EnvironmentEnsured:    "environment-ensured",
	FastProbePassed:       "fast-probe-passed",
	FastProbeFailed:       "fast-probe-failed",
	DependenciesInstalled: "dependencies-installed",
	StrictProbePassed:     "strict-probe-passed",
	PipelineStarted:       "pipeline-started",
	PipelineCompleted:     "pipeline-completed",
	SetupCompleted:        "setup-completed",
	Error:                 "error",
}

// Transition returns the state reached from `from` when ev occurs.
// It has no side effects.
func Transition(from State, ev Event) (State, error) {
	if from.Terminal() {
		return from, &InvalidTransitionError{From: from, Event: ev}
	}
	if ev == Error {
		return Failed, nil
	}
	if next, ok := transitions[from][ev]; ok {
		return next, nil
	}
	return from, &InvalidTransitionError{From: from, Event: ev}
}

// Terminal reports whether no event can leave s.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// String returns the state's name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// String returns the event's name.
func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return fmt.Sprintf("event(%d)", int(e))
	}
	return eventNames[e]
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("no transition from %s on %s", e.From, e.Event)
}

// Unwrap returns ErrInvalidTransition for errors.Is() compatibility.
func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }
