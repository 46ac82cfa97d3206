// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/fxkit/fxkit/cmd/fxkit"

func main() {
	cmd.Execute()
}
