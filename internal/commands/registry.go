// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"unicode"

	"github.com/UnderscoreTud/skript-server-wizard/internal/config"
	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
	"github.com/UnderscoreTud/skript-server-wizard/internal/remote"
	"github.com/UnderscoreTud/skript-server-wizard/internal/setup"
	"github.com/UnderscoreTud/skript-server-wizard/internal/session"
	"github.com/UnderscoreTud/skript-server-wizard/internal/storage"
	"github.com/UnderscoreTud/skript-server-wizard/internal/util"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Handler executes a command. The zero Value means "no result".
type Handler func(ctx context.Context, inv *Invocation) (document.Value, error)

// Output tells the renderer how to present a command's result.
type Output int

const (
	OutputAuto     Output = iota // strings as plain text, everything else as JSON
	OutputJSON                   // always JSON, strings quoted
	OutputMarkdown               // a string of markdown
)

// Command is a named operation available in the shell.
type Command struct {
	// Name is the primary command name (e.g., "help")
	Name string

	// Aliases are alternative names, resolved exactly (e.g., "quit")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "get <name>")
	Usage string

	// Category for grouping in help display
	Category string

	// Hidden commands don't appear in help or completion
	Hidden bool

	// Arity is checked before Handler runs
	Arity Arity

	// Output selects how the result is rendered
	Output Output

	Handler Handler
}

// Invocation is everything a handler can see about one dispatch.
type Invocation struct {
	// Name is the command name as typed, possibly an alias.
	Name    string
	Command *Command
	Args    []string
	State   *session.State
	Env     *Env
}

// Arg returns the i-th argument, or "" when absent.
func (inv *Invocation) Arg(i int) string {
	if i < len(inv.Args) {
		return inv.Args[i]
	}
	return ""
}

// Env holds the services handlers use. Any field may be nil; handlers that
// need a missing service fail with a CommandError.
type Env struct {
	Registry   *Registry
	Config     *config.Config
	Store      storage.DocumentStore
	Paper      *remote.Paper
	GitHub     *remote.GitHub
	Downloader setup.Downloader
	Logger     *slog.Logger
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands. Registration happens during
// startup from one goroutine; after Freeze the registry is read-only and may
// be shared by any number of sessions.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
	frozen   bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
}

// Register adds a command. It fails with ErrDuplicateCommand if the name or
// any alias is already taken by any command.
func (r *Registry) Register(cmd *Command) error {
	if r.frozen {
		return ErrRegistryFrozen
	}
	if cmd == nil || cmd.Handler == nil {
		return fmt.Errorf("command %q has no handler", nameOf(cmd))
	}

	names := append([]string{cmd.Name}, cmd.Aliases...)
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if err := validateCommandName(name); err != nil {
			return err
		}
		if seen[name] || r.taken(name) {
			return &CommandError{Command: name, Err: ErrDuplicateCommand}
		}
		seen[name] = true
	}

	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
	return nil
}

// MustRegister is Register for static tables; it panics on error.
func (r *Registry) MustRegister(cmd *Command) {
	if err := r.Register(cmd); err != nil {
		panic(err)
	}
}

func (r *Registry) taken(name string) bool {
	_, isCmd := r.commands[name]
	_, isAlias := r.aliases[name]
	return isCmd || isAlias
}

func nameOf(cmd *Command) string {
	if cmd == nil {
		return ""
	}
	return cmd.Name
}

func validateCommandName(name string) error {
	if name == "" {
		return fmt.Errorf("command name must not be empty")
	}
	for _, r := range name {
		if unicode.IsSpace(r) || r == '"' || r == '\'' {
			return fmt.Errorf("command name %q contains whitespace or quotes", name)
		}
	}
	return nil
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() { r.frozen = true }

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool { return r.frozen }

// Resolve finds a command by exact name or alias. An unknown name fails with
// ErrUnknownCommand; the error may carry a suggestion, which is never run.
func (r *Registry) Resolve(name string) (*Command, error) {
	if cmd, ok := r.commands[name]; ok {
		return cmd, nil
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd, nil
	}
	return nil, &CommandError{
		Command:    name,
		Err:        ErrUnknownCommand,
		Suggestion: util.Suggest(name, r.visibleNames()),
	}
}

// List returns the primary command names in lexicographic order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Commands returns all commands ordered by name.
func (r *Registry) Commands() []*Command {
	names := r.List()
	cmds := make([]*Command, len(names))
	for i, name := range names {
		cmds[i] = r.commands[name]
	}
	return cmds
}

// ByCategory returns visible commands grouped by category, each group
// ordered by name.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.Commands() {
		if cmd.Hidden {
			continue
		}
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// visibleNames returns names and aliases of commands not marked hidden.
func (r *Registry) visibleNames() []string {
	var names []string
	for name, cmd := range r.commands {
		if !cmd.Hidden {
			names = append(names, name)
		}
	}
	for alias, cmd := range r.aliases {
		if !cmd.Hidden {
			names = append(names, alias)
		}
	}
	sort.Strings(names)
	return names
}
