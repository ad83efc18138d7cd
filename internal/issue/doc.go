// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and the Markdown help pages the
// CLI renders for well-known failures.
//
// An ActionableError says which operation failed, on which resource, and
// what the user can try. When it carries an Id, the CLI additionally renders
// the matching page from the registry with glamour.
package issue
