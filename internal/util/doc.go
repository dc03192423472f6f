// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across the wizard.
//
// # Key Functions
//
// Files:
//   - AtomicWriteFile: crash-safe file writing with fsync and rename
//
// Strings:
//   - Distance: Levenshtein edit distance over runes
//   - Suggest: closest candidate for a mistyped name
//   - TruncateWidth, PadRight, StringWidth: terminal column aware helpers
//
// # Usage
//
//	if s := util.Suggest("hlep", registry.List()); s != "" {
//	    fmt.Printf("did you mean %q?\n", s)
//	}
//
//	err := util.AtomicWriteFile(path, data, 0600)
package util
