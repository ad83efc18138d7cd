// SPDX-License-Identifier: MPL-2.0

// Package assets embeds the support files copied next to every generated
// Dockerfile.
package assets
