// SPDX-License-Identifier: MPL-2.0

// Package launch drives the provisioning flow as an explicit state machine.
//
// The flow is runtime, environment, fast probe, optional install, strict
// probe and then the pipeline. Each step reports an Event and Transition
// computes the next State from a fixed table, so the order of operations can
// be checked without running any process. Orchestrator owns the components
// and records the states it passed through in a Report.
package launch
