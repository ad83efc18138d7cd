// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"os"
	"sync"
)

const (
	// SandboxNone indicates no sandbox environment detected.
	SandboxNone SandboxType = ""
	// SandboxFlatpak indicates a Flatpak sandbox environment.
	SandboxFlatpak SandboxType = "flatpak"
	// SandboxSnap indicates a Snap sandbox environment.
	SandboxSnap SandboxType = "snap"
)

// detectOnce caches the detection for the lifetime of the process.
//
// INVARIANT: detectSandboxFrom MUST NOT panic, sync.OnceValue re-panics on
// every call.
var detectOnce = sync.OnceValue(func() SandboxType {
	return detectSandboxFrom(os.Getenv, statFile)
})

// SandboxType identifies the type of application sandbox, if any.
type SandboxType string

// DetectSandbox returns the sandbox the current process runs in:
// Flatpak when /.flatpak-info exists, Snap when SNAP_NAME is set.
func DetectSandbox() SandboxType {
	return detectOnce()
}

// EngineSocketHint returns a suggestion for reaching the host's container
// engine from inside st, or "" outside a sandbox.
func EngineSocketHint(st SandboxType) string {
	switch st {
	case SandboxFlatpak:
		return "turludock runs inside Flatpak, grant socket access with 'flatpak override --filesystem=/var/run/docker.sock'"
	case SandboxSnap:
		return "turludock runs inside a Snap, connect the docker interface with 'snap connect <snap>:docker'"
	default:
		return ""
	}
}

func detectSandboxFrom(lookupEnv func(string) string, statFile func(string) error) SandboxType {
	// Flatpak takes precedence.
	if err := statFile("/.flatpak-info"); err == nil {
		return SandboxFlatpak
	}
	if lookupEnv("SNAP_NAME") != "" {
		return SandboxSnap
	}
	return SandboxNone
}

func statFile(path string) error {
	_, err := os.Stat(path)
	return err
}
