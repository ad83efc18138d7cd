// SPDX-License-Identifier: MPL-2.0

// turludock generates and builds ROS docker development containers.
package main

import "github.com/turlucode/turludock/cmd/turludock"

func main() {
	cmd.Execute()
}
