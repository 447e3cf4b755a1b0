// SPDX-License-Identifier: MPL-2.0

// wit downloads WIT interface packages from a package registry.
package main

import cmd "github.com/wit-registry/wit/cmd/wit"

func main() {
	cmd.Execute()
}
