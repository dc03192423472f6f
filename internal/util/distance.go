// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"golang.org/x/text/cases"
)

// =============================================================================
// EDIT DISTANCE
// =============================================================================

var folder = cases.Fold()

// Fold returns the case-folded form of s for caseless comparison.
func Fold(s string) string {
	return folder.String(s)
}

// Distance returns the Levenshtein distance between a and b: the minimum
// number of single rune insertions, deletions or substitutions turning one
// into the other.
func Distance(a, b string) int {
	s1, s2 := []rune(a), []rune(b)
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	// Two rows instead of the full matrix.
	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(s2)]
}

// =============================================================================
// SUGGESTIONS
// =============================================================================

// Suggest returns the candidate closest to input, compared caselessly, or ""
// when nothing is close enough. Inputs shorter than two runes and exact
// matches never produce a suggestion.
//
// The allowed distance grows with the input: one edit up to three runes,
// two edits up to eight, three beyond that.
func Suggest(input string, candidates []string) string {
	folded := Fold(input)
	n := len([]rune(folded))
	if n < 2 {
		return ""
	}

	maxDistance := 1
	if n >= 4 {
		maxDistance = 2
	}
	if n > 8 {
		maxDistance = 3
	}

	best, bestDistance := "", -1
	for _, c := range candidates {
		d := Distance(folded, Fold(c))
		if d == 0 {
			return ""
		}
		if d <= maxDistance && (bestDistance == -1 || d < bestDistance) {
			best, bestDistance = c, d
		}
	}
	return best
}
