// SPDX-License-Identifier: MPL-2.0

// Package generate turns a validated image configuration into a build
// folder and, on request, into a built image. It sits between the CLI and
// the composer, the asset writer and the container engine.
package generate
