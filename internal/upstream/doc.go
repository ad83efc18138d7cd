// SPDX-License-Identifier: MPL-2.0

// Package upstream answers version questions about the tools turludock
// installs: the latest CMake and tmux releases (GitHub tags API), whether a
// pinned tag exists (git remote listing, no clone) and which LLVM versions
// apt.llvm.org supports (parsed from llvm.sh).
//
// Resolver memoises every answer for the lifetime of the process and is the
// type the rest of the code depends on. Offline is a drop-in replacement that
// never touches the network.
package upstream
