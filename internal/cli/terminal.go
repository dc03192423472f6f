// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection for the wizard CLI.
//
// Decides between the liner-backed terminal session and the stream session,
// and whether rendered output gets colors. Respects NO_COLOR
// (https://no-color.org/) and FORCE_COLOR.

package cli

import (
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// isTerminal reports whether f is a terminal. Cygwin and MSYS ptys are
// pipes to x/term but behave as terminals.
func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return term.IsTerminal(int(fd)) || isatty.IsCygwinTerminal(fd)
}

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return isTerminal(os.Stdin)
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return isTerminal(os.Stdout)
}

// =============================================================================
// TERMINAL WIDTH DETECTION
// =============================================================================

const (
	// DefaultTerminalWidth is the fallback width when detection fails
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the minimum width used for wrapping
	MinTerminalWidth = 40
)

// GetTerminalWidth returns the current terminal width, or
// DefaultTerminalWidth if it cannot be determined.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// =============================================================================
// COLOR OUTPUT CONTROL
// =============================================================================

var (
	colorsEnabled     bool
	colorsEnabledOnce sync.Once
)

// ColorsEnabled returns true if colored output should be used on stdout.
func ColorsEnabled() bool {
	colorsEnabledOnce.Do(func() {
		colorsEnabled = ResolveColor("auto", IsStdoutTTY())
	})
	return colorsEnabled
}

// ResolveColor applies a ui.color mode. In "auto" mode NO_COLOR wins over
// FORCE_COLOR, which wins over tty.
func ResolveColor(mode string, tty bool) bool {
	switch strings.ToLower(mode) {
	case "never":
		return false
	case "always":
		return true
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	return tty
}

// GetColorProfile returns the termenv profile for stdout.
func GetColorProfile() termenv.Profile {
	return ProfileFor(ColorsEnabled())
}

// ProfileFor returns the profile to render with. Forced colors on a
// non-terminal get 256 colors, since detection would report Ascii.
func ProfileFor(enabled bool) termenv.Profile {
	if !enabled {
		return termenv.Ascii
	}
	if p := termenv.ColorProfile(); p != termenv.Ascii {
		return p
	}
	return termenv.ANSI256
}
