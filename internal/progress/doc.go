// SPDX-License-Identifier: MPL-2.0

// Package progress renders a single-line progress bar for classic Docker
// builds, driven by the "Step m/n :" lines of the build stream.
package progress
