// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs a callback when image configuration files change.
//
// Single files are watched through their parent directory so editors that
// save by renaming a temp file over the original keep triggering events.
// Events within the debounce window are coalesced into one callback.
package watch
