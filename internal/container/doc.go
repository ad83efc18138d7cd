// SPDX-License-Identifier: MPL-2.0

// Package container talks to a container engine (Docker or Podman) through
// the Docker Engine HTTP API to build images.
//
// Podman is reached through its Docker-compatible socket, so both engines
// share one implementation, APIEngine. Builds request the classic builder so
// the event stream carries "Step m/n :" lines for progress reporting.
//
// Engine selection uses Select with a preferred EngineType. Without an
// explicit host it falls back to the other engine when the preferred one is
// unreachable.
package container
