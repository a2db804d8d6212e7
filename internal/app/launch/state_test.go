// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"errors"
	"testing"
)

func TestTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from State
		ev   Event
		want State
	}{
		{Unprovisioned, RuntimeEnsured, RuntimeReady},
		{RuntimeReady, EnvironmentEnsured, EnvironmentReady},
		{EnvironmentReady, FastProbePassed, DependenciesSatisfied},
		{EnvironmentReady, FastProbeFailed, DependenciesUnknown},
		{DependenciesUnknown, DependenciesInstalled, DependenciesSatisfied},
		{DependenciesSatisfied, StrictProbePassed, Verified},
		{Verified, PipelineStarted, PipelineRunning},
		{Verified, SetupCompleted, Done},
		{PipelineRunning, PipelineCompleted, Done},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.ev.String(), func(t *testing.T) {
			t.Parallel()

			got, err := Transition(tt.from, tt.ev)
			if err != nil {
				t.Fatalf("Transition() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Transition() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTransition_ErrorFailsEveryActiveState(t *testing.T) {
	t.Parallel()

	for s := Unprovisioned; s <= PipelineRunning; s++ {
		got, err := Transition(s, Error)
		if err != nil {
			t.Errorf("Transition(%s, error) error = %v", s, err)
		}
		if got != Failed {
			t.Errorf("Transition(%s, error) = %s, want failed", s, got)
		}
	}
}

func TestTransition_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from State
		ev   Event
	}{
		{"skip runtime", Unprovisioned, EnvironmentEnsured},
		{"install before probe", EnvironmentReady, DependenciesInstalled},
		{"install after fast probe passed", DependenciesSatisfied, DependenciesInstalled},
		{"pipeline before verification", DependenciesSatisfied, PipelineStarted},
		{"setup completed while running", PipelineRunning, SetupCompleted},
		{"event after done", Done, RuntimeEnsured},
		{"error after done", Done, Error},
		{"error after failed", Failed, Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Transition(tt.from, tt.ev)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("Transition() error = %v, want ErrInvalidTransition", err)
			}
			if got != tt.from {
				t.Errorf("Transition() = %s, want unchanged %s", got, tt.from)
			}
			var ite *InvalidTransitionError
			if !errors.As(err, &ite) || ite.From != tt.from || ite.Event != tt.ev {
				t.Errorf("error = %#v, want From=%s Event=%s", err, tt.from, tt.ev)
			}
		})
	}
}

func TestTerminal(t *testing.T) {
	t.Parallel()

	for s := Unprovisioned; s <= Failed; s++ {
		want := s == Done || s == Failed
		if got := s.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", s, got, want)
		}
	}
}

func TestStringers(t *testing.T) {
	t.Parallel()

	if got := DependenciesUnknown.String(); got != "dependencies-unknown" {
		t.Errorf("State.String() = %q", got)
	}
	if got := State(42).String(); got != "state(42)" {
		t.Errorf("State(42).String() = %q", got)
	}
	if got := FastProbeFailed.String(); got != "fast-probe-failed" {
		t.Errorf("Event.String() = %q", got)
	}
	if got := Event(-1).String(); got != "event(-1)" {
		t.Errorf("Event(-1).String() = %q", got)
	}
	err := &InvalidTransitionError{From: Done, Event: Error}
	if got := err.Error(); got != "no transition from done on error" {
		t.Errorf("Error() = %q", got)
	}
}
