// SPDX-License-Identifier: MPL-2.0

// Package process runs external programs on behalf of the provisioner and
// the pipeline runner.
//
// Every provisioning step is a blocking call to an external process. The
// Executor interface is the single seam through which those calls are made,
// so provisioning logic can be tested against a fake executor without
// spawning real interpreters or installers.
package process
