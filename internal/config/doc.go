// SPDX-License-Identifier: MPL-2.0

// Package config handles the turludock settings using Viper with CUE as the
// file format.
//
// Settings are loaded from $XDG_CONFIG_HOME/turludock/config.cue
// (~/Library/Application Support/turludock on macOS, %APPDATA%\turludock on
// Windows), then from ./config.cue. An explicit --config path replaces both.
// The file is validated against the embedded config_schema.cue before it is
// merged over the defaults, and TURLUDOCK_* environment variables override
// individual keys.
package config
