// SPDX-License-Identifier: MPL-2.0

// Package tui holds the interactive prompts of turludock. They are built on
// charmbracelet/huh and fall back to huh's accessible line mode when stdin is
// not a terminal.
package tui
