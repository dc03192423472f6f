// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
	"github.com/UnderscoreTud/skript-server-wizard/internal/util"
)

// ErrUnknownVariable is returned for session variables that are not set.
var ErrUnknownVariable = errors.New("no such variable")

// ErrNoResult is returned by commands that need a previous result.
var ErrNoResult = errors.New("no result yet")

// none is the empty result of commands with nothing to show.
var none = document.Value{}

// fail wraps err with the invoked command name.
func fail(inv *Invocation, err error) error {
	return &CommandError{Command: inv.Command.Name, Err: err}
}

// =============================================================================
// GENERAL
// =============================================================================

func handleHelp(_ context.Context, inv *Invocation) (document.Value, error) {
	reg := inv.Env.Registry
	if reg == nil {
		return none, fail(inv, errors.New("no registry"))
	}
	if len(inv.Args) == 0 {
		return document.String(GenerateHelpText(reg)), nil
	}
	cmd, err := reg.Resolve(inv.Args[0])
	if err != nil {
		return none, err
	}
	return document.String(GenerateCommandHelp(cmd)), nil
}

// GenerateHelpText renders the command table as markdown, one section per
// category.
func GenerateHelpText(r *Registry) string {
	var sb strings.Builder
	sb.WriteString("# Commands\n\n")

	byCategory := r.ByCategory()
	categories := append([]string(nil), categoryOrder...)
	var extra []string
	for category := range byCategory {
		if !contains(categoryOrder, category) {
			extra = append(extra, category)
		}
	}
	sort.Strings(extra)
	categories = append(categories, extra...)

	for _, category := range categories {
		cmds := byCategory[category]
		if len(cmds) == 0 {
			continue
		}
		sb.WriteString("## " + category + "\n\n")
		sb.WriteString("| Command | Description |\n|---|---|\n")
		for _, cmd := range cmds {
			name := "`" + cmd.Name + "`"
			if len(cmd.Aliases) > 0 {
				name += " (" + strings.Join(cmd.Aliases, ", ") + ")"
			}
			sb.WriteString("| " + name + " | " + cmd.Description + " |\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Type `help <command>` for usage. Quote arguments containing spaces.\n")
	return sb.String()
}

// GenerateCommandHelp renders the usage of one command as markdown.
func GenerateCommandHelp(cmd *Command) string {
	var sb strings.Builder
	sb.WriteString("# " + cmd.Name + "\n\n")
	sb.WriteString(cmd.Description + "\n\n")
	if cmd.Usage != "" {
		sb.WriteString("Usage: `" + cmd.Usage + "`\n\n")
	}
	sb.WriteString("Takes " + cmd.Arity.String() + ".\n")
	if len(cmd.Aliases) > 0 {
		sb.WriteString("\nAliases: " + strings.Join(cmd.Aliases, ", ") + "\n")
	}
	return sb.String()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func handleExit(_ context.Context, inv *Invocation) (document.Value, error) {
	inv.State.RequestExit()
	return none, nil
}

func handleSay(_ context.Context, inv *Invocation) (document.Value, error) {
	return document.String(strings.Join(inv.Args, " ")), nil
}

func handleSession(_ context.Context, inv *Invocation) (document.Value, error) {
	st := inv.State
	historyLen := 0
	if h := st.History(); h != nil {
		historyLen = h.Len()
	}
	return document.Mapping(
		document.Pair("id", document.String(st.ID())),
		document.Pair("started_at", document.String(st.StartedAt().UTC().Format(time.RFC3339))),
		document.Pair("uptime", document.String(formatDuration(st.Uptime()))),
		document.Pair("dispatches", document.Int(int64(st.Dispatches()))),
		document.Pair("variables", document.Int(int64(len(st.VarNames())))),
		document.Pair("history", document.Int(int64(historyLen))),
	), nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

func handleHistory(_ context.Context, inv *Invocation) (document.Value, error) {
	h := inv.State.History()
	if h == nil {
		return document.Strings(nil), nil
	}
	entries := h.Entries()
	if len(inv.Args) == 1 {
		n, err := strconv.Atoi(inv.Args[0])
		if err != nil || n < 0 {
			return none, fail(inv, fmt.Errorf("count must be a non-negative integer, got %q", inv.Args[0]))
		}
		if n < len(entries) {
			entries = entries[len(entries)-n:]
		}
	}
	return document.Strings(entries), nil
}

func handleDistance(_ context.Context, inv *Invocation) (document.Value, error) {
	return document.Int(int64(util.Distance(inv.Args[0], inv.Args[1]))), nil
}

// =============================================================================
// DOCUMENTS
// =============================================================================

func handleParse(_ context.Context, inv *Invocation) (document.Value, error) {
	return document.Parse(inv.Args[0])
}

func handleSet(_ context.Context, inv *Invocation) (document.Value, error) {
	v, err := document.Parse(inv.Args[1])
	if err != nil {
		return none, err
	}
	inv.State.SetVar(inv.Args[0], v)
	return none, nil
}

// variable returns a session variable or an ErrUnknownVariable failure.
func variable(inv *Invocation, name string) (document.Value, error) {
	v, ok := inv.State.Var(name)
	if !ok {
		return none, fail(inv, fmt.Errorf("%w: %s", ErrUnknownVariable, name))
	}
	return v, nil
}

func handleGet(_ context.Context, inv *Invocation) (document.Value, error) {
	return variable(inv, inv.Args[0])
}

func handleUnset(_ context.Context, inv *Invocation) (document.Value, error) {
	if !inv.State.DeleteVar(inv.Args[0]) {
		return none, fail(inv, fmt.Errorf("%w: %s", ErrUnknownVariable, inv.Args[0]))
	}
	return none, nil
}

func handleVars(_ context.Context, inv *Invocation) (document.Value, error) {
	return inv.State.Vars(), nil
}

func handleLast(_ context.Context, inv *Invocation) (document.Value, error) {
	last := inv.State.Last()
	if !last.IsValid() {
		return none, fail(inv, ErrNoResult)
	}
	return last, nil
}

func handleQuery(_ context.Context, inv *Invocation) (document.Value, error) {
	v, err := variable(inv, inv.Args[0])
	if err != nil {
		return none, err
	}
	found, err := document.Lookup(v, inv.Args[1])
	if err != nil {
		return none, fail(inv, err)
	}
	return found, nil
}

func handleYAML(_ context.Context, inv *Invocation) (document.Value, error) {
	v, err := variable(inv, inv.Args[0])
	if err != nil {
		return none, err
	}
	text, err := document.ToYAML(v)
	if err != nil {
		return none, fail(inv, err)
	}
	return document.String(strings.TrimRight(text, "\n")), nil
}
