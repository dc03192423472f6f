// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared lipgloss styles for rendered output.
//
// Styles are built from a lipgloss.Renderer so that every session renders
// with the color profile of its own output stream. A network session with
// color disabled must not inherit the profile of the server's stdout.

package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// init configures the default lipgloss profile from terminal capabilities.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// STYLE SET
// =============================================================================

// Styles holds the styles used by one Renderer.
type Styles struct {
	// Title is used for banners.
	Title lipgloss.Style

	// Error is used for the "[Error]" tag.
	Error lipgloss.Style

	// Kind is used for the error kind label.
	Kind lipgloss.Style

	// Warning is used for non-fatal notices such as idle warnings.
	Warning lipgloss.Style

	// Dim is used for secondary text.
	Dim lipgloss.Style

	// Success is used for confirmations.
	Success lipgloss.Style
}

// NewStyles builds the style set for output written to w with profile p.
func NewStyles(w io.Writer, p termenv.Profile) Styles {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(p)
	return Styles{
		Title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")), // Cyan
		Error: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		Kind: r.NewStyle().
			Foreground(lipgloss.Color("214")), // Orange
		Warning: r.NewStyle().
			Foreground(lipgloss.Color("214")),
		Dim: r.NewStyle().
			Foreground(lipgloss.Color("242")),
		Success: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")), // Green
	}
}

// PlainStyles returns styles that render text unchanged.
func PlainStyles() Styles {
	return NewStyles(io.Discard, termenv.Ascii)
}
