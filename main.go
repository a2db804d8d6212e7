// SPDX-License-Identifier: MPL-2.0

// Command pxlaunch provisions a pinned Python environment and launches the
// application that lives next to it.
package main

import cmd "github.com/pathxcite/pxlaunch/cmd/pxlaunch"

func main() {
	cmd.Execute()
}
