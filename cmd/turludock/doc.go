// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for turludock.
//
// The App type is the composition root: it loads the application settings,
// creates the logger, and wires the generate service to the upstream
// resolver and the container engine. Command handlers only parse flags and
// render results.
package cmd
