// SPDX-License-Identifier: MPL-2.0

// Package cli contains CLI integration tests using testscript.
//
// The scripts run the real command tree in-process with the network
// disabled, so they need neither a container engine nor internet access.
package cli

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/turlucode/turludock/cmd/turludock"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"turludock": cmd.Execute,
	})
}

// TestCLI runs all testscript tests in the testdata directory.
func TestCLI(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			// Settings are isolated per script and never touch the network.
			env.Setenv("XDG_CONFIG_HOME", env.WorkDir+string(os.PathSeparator)+".config")
			env.Setenv("HOME", env.WorkDir)
			env.Setenv("TURLUDOCK_NETWORK_OFFLINE", "true")
			env.Setenv("NO_COLOR", "1")
			// A fixed, unreachable daemon disables the engine fallback.
			env.Setenv("TURLUDOCK_DOCKER_HOST", "unix://"+env.WorkDir+"/no-docker.sock")
			return nil
		},
		// Continue running all tests even if one fails
		ContinueOnError: true,
	})
}
