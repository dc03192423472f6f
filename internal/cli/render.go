// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/UnderscoreTud/skript-server-wizard/internal/commands"
	"github.com/UnderscoreTud/skript-server-wizard/internal/config"
	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
	"github.com/UnderscoreTud/skript-server-wizard/internal/logging"
)

// =============================================================================
// RENDER OPTIONS
// =============================================================================

// RenderOptions controls how outcomes are turned into text.
type RenderOptions struct {
	// Indent is the number of spaces per nesting level (0 = compact).
	Indent int

	// Color enables lipgloss styles and chroma highlighting.
	Color bool

	// Profile is the color profile used when Color is set.
	Profile termenv.Profile

	// Highlight enables chroma highlighting of JSON output.
	Highlight bool

	// Theme is the chroma style name.
	Theme string

	// Markdown renders markdown output with glamour.
	Markdown bool

	// Width wraps markdown output.
	Width int

	// TTY records whether the output is a terminal. Apply uses it to
	// resolve color and markdown again.
	TTY bool

	// UI is the settings section the options were derived from.
	UI config.UIConfig

	Logger *slog.Logger
}

// RenderOptionsFrom derives options from the ui config section for an
// output that is (or is not) a terminal.
func RenderOptionsFrom(ui config.UIConfig, tty bool) RenderOptions {
	color := ResolveColor(ui.Color, tty)
	return RenderOptions{
		Indent:    ui.Indent,
		Color:     color,
		Profile:   ProfileFor(color),
		Highlight: ui.Highlight,
		Theme:     ui.Theme,
		Markdown:  ui.Markdown && tty,
		Width:     DefaultTerminalWidth,
		TTY:       tty,
		UI:        ui,
	}
}

// =============================================================================
// RENDERER
// =============================================================================

// Renderer formats command outcomes and errors for one output stream.
type Renderer struct {
	w      io.Writer
	opts   RenderOptions
	styles Styles
	logger *slog.Logger

	lexer     chroma.Lexer
	style     *chroma.Style
	formatter chroma.Formatter

	markdown *glamour.TermRenderer
}

// NewRenderer creates a renderer for output written to w.
func NewRenderer(w io.Writer, opts RenderOptions) *Renderer {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Width <= 0 {
		opts.Width = DefaultTerminalWidth
	}
	r := &Renderer{w: w, opts: opts, logger: opts.Logger}

	profile := termenv.Ascii
	if opts.Color {
		profile = opts.Profile
	}
	r.styles = NewStyles(w, profile)

	if opts.Color && opts.Highlight {
		r.lexer = chroma.Coalesce(lexers.Get("json"))
		r.style = styles.Get(opts.Theme)
		r.formatter = formatters.Get(formatterFor(profile))
	}

	if opts.Markdown {
		style := "notty"
		if opts.Color {
			style = "dark"
		}
		md, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(opts.Width),
		)
		if err != nil {
			r.logger.Warn("markdown rendering disabled", "error", err)
		} else {
			r.markdown = md
		}
	}
	return r
}

// Apply rebuilds the renderer from ui when it differs from the settings
// currently in effect. Width, TTY and logger are kept.
func (r *Renderer) Apply(ui config.UIConfig) {
	if r.opts.UI == ui {
		return
	}
	opts := RenderOptionsFrom(ui, r.opts.TTY)
	opts.Width = r.opts.Width
	opts.Logger = r.opts.Logger
	*r = *NewRenderer(r.w, opts)
}

// formatterFor picks the chroma terminal formatter matching profile.
func formatterFor(p termenv.Profile) string {
	switch p {
	case termenv.TrueColor:
		return "terminal16m"
	case termenv.ANSI:
		return "terminal16"
	default:
		return "terminal256"
	}
}

// Outcome renders a successful dispatch. It returns "" for a no-op.
func (r *Renderer) Outcome(out commands.Outcome) string {
	if out.Empty() {
		return ""
	}
	output := commands.OutputAuto
	if out.Command != nil {
		output = out.Command.Output
	}
	return r.Value(out.Value, output) + "\n"
}

// Value renders v according to the output hint, without a trailing newline.
func (r *Renderer) Value(v document.Value, output commands.Output) string {
	s, isString := v.AsString()
	switch {
	case output == commands.OutputMarkdown && isString:
		return r.renderMarkdown(s)
	case output == commands.OutputAuto && isString:
		return s
	}
	return r.JSON(v)
}

// JSON renders v as indented (or compact) JSON, highlighted when enabled.
func (r *Renderer) JSON(v document.Value) string {
	var text string
	if r.opts.Indent > 0 {
		text = document.Indent(v, "", strings.Repeat(" ", r.opts.Indent))
	} else {
		text = document.Serialize(v)
	}
	if r.formatter == nil {
		return text
	}
	it, err := r.lexer.Tokenise(nil, text)
	if err != nil {
		r.logger.Debug("highlight failed", "error", err)
		return text
	}
	var sb strings.Builder
	if err := r.formatter.Format(&sb, r.style, it); err != nil {
		r.logger.Debug("highlight failed", "error", err)
		return text
	}
	return sb.String()
}

func (r *Renderer) renderMarkdown(md string) string {
	if r.markdown == nil {
		return strings.TrimRight(md, "\n")
	}
	out, err := r.markdown.Render(md)
	if err != nil {
		r.logger.Debug("markdown render failed", "error", err)
		return strings.TrimRight(md, "\n")
	}
	return strings.TrimRight(out, "\n")
}

// Error renders err as "[Error] <kind>: <message>".
func (r *Renderer) Error(err error) string {
	return r.styles.Error.Render("[Error]") + " " +
		r.styles.Kind.Render(commands.Kind(err)) + ": " + err.Error() + "\n"
}

// Notice renders an out-of-band message such as an idle warning.
func (r *Renderer) Notice(msg string) string {
	return r.styles.Warning.Render(msg) + "\n"
}

// Banner renders the greeting shown when a session starts.
func (r *Renderer) Banner(version string) string {
	return r.styles.Title.Render("wizard "+version) + " " +
		r.styles.Dim.Render("type \"help\" for commands, \"exit\" to leave") + "\n"
}
