// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import "strings"

// =============================================================================
// COMPLETION
// =============================================================================

// Complete returns the visible names and aliases starting with prefix, in
// lexicographic order. It has the shape of lineedit.Completer.
func (r *Registry) Complete(prefix string) []string {
	var out []string
	for _, name := range r.visibleNames() {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}
