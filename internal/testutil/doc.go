// SPDX-License-Identifier: MPL-2.0

// Package testutil provides test helpers that fail the test on error and
// return a function restoring the previous process state.
package testutil
