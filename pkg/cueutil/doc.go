// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against an embedded schema definition
// and turns CUE evaluation errors into path-qualified messages
// (e.g., "pxlaunch.cue: pipeline.steps[1].tag: incomplete value").
package cueutil
