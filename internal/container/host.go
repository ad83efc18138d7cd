// SPDX-License-Identifier: MPL-2.0

package container

import "os"

const rootfulPodmanSocket = "unix:///run/podman/podman.sock"

// ResolveHost returns the daemon address for an engine. An explicit
// override always wins. Docker relies on DOCKER_HOST and the client
// default, so it resolves to "". Podman uses CONTAINER_HOST or the rootless
// socket under XDG_RUNTIME_DIR.
func ResolveHost(t EngineType, override string, getenv func(string) string) string {
	if override != "" {
		return override
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	if t != EngineTypePodman {
		return ""
	}
	if h := getenv("CONTAINER_HOST"); h != "" {
		return h
	}
	if dir := getenv("XDG_RUNTIME_DIR"); dir != "" {
		return "unix://" + dir + "/podman/podman.sock"
	}
	return rootfulPodmanSocket
}
