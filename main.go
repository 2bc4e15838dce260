// SPDX-License-Identifier: MPL-2.0

package main

import cmd "devcell/cmd/devcell"

func main() {
	cmd.Execute()
}
