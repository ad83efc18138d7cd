// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates user data against embedded CUE schemas.
//
// Two entry points cover the formats turludock reads:
//
//   - ParseAndDecode compiles CUE source, unifies it with a schema definition
//     and decodes the result into a Go value. It backs the settings file, the
//     NVIDIA tables and image configurations written in CUE.
//   - ValidateValue encodes an already-decoded Go value (typically the map
//     produced by a YAML or TOML decoder) into CUE and checks it against the
//     same kind of schema definition.
//
// Errors carry the file name and a JSON-style field path:
//
//	humble.yaml: extra_packages[1]: conflicting values "llvm" and int
package cueutil
