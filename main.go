// SPDX-License-Identifier: MPL-2.0

// loadseq computes a load order for interdependent shell units.
package main

import cmd "github.com/loadseq/loadseq/cmd/loadseq"

func main() {
	cmd.Execute()
}
